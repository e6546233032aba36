package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/retailpos/backoffice/internal/models"
	"github.com/retailpos/backoffice/internal/repo"
	"github.com/retailpos/backoffice/internal/tokens"
)

type orderFixture struct {
	env      *testEnv
	store    *models.Store
	category *models.Category
	coffee   *models.Product
	bagel    *models.Product
	admin    *models.User
}

func newOrderFixture(t *testing.T) *orderFixture {
	env := newTestEnv(t)
	store := env.seedStore(t, "Main", "manager@example.com")
	category := env.seedCategory(t, "Drinks")

	return &orderFixture{
		env:      env,
		store:    store,
		category: category,
		coffee:   env.seedProduct(t, store.ID, category.ID, "Coffee", 3.50, 10),
		bagel:    env.seedProduct(t, store.ID, category.ID, "Bagel", 2.00, 5),
		admin:    env.seedUser(t, "admin@example.com", models.RoleAdmin, "password"),
	}
}

func TestOrderService_CreateOrder(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order, err := f.env.Orders.CreateOrder(ctx, callerFor(f.admin), CreateOrderRequest{
		StoreID: f.store.ID,
		Items: []OrderItemRequest{
			{ProductID: f.coffee.ID, Quantity: 2},
			{ProductID: f.bagel.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, f.admin.Email, order.CreatedBy)
	assert.InDelta(t, 9.00, order.Total, 0.001)
	require.Len(t, order.Items, 2)

	// Items snapshot the product at order time.
	byProduct := map[uint]models.OrderItem{}
	for _, it := range order.Items {
		byProduct[it.ProductID] = it
	}
	coffee := byProduct[f.coffee.ID]
	assert.Equal(t, "Coffee", coffee.Name)
	assert.Equal(t, "Drinks", coffee.CategoryName)
	assert.InDelta(t, 3.50, coffee.UnitPrice, 0.001)
	assert.InDelta(t, 7.00, coffee.LineTotal, 0.001)

	assert.Equal(t, 8, f.env.productStock(t, f.coffee.ID))
	assert.Equal(t, 4, f.env.productStock(t, f.bagel.ID))
}

func TestOrderService_CreateOrder_CollectsAllItemErrors(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	otherStore := f.env.seedStore(t, "Annex", "annex@example.com")
	foreign := f.env.seedProduct(t, otherStore.ID, f.category.ID, "Foreign", 1.00, 10)

	inactive := f.env.seedProduct(t, f.store.ID, f.category.ID, "Retired", 1.00, 10)
	require.NoError(t, f.env.DB.Model(&models.Product{}).Where("id = ?", inactive.ID).Update("is_active", false).Error)

	empty := f.env.seedProduct(t, f.store.ID, f.category.ID, "Empty", 1.00, 0)

	_, err := f.env.Orders.CreateOrder(ctx, callerFor(f.admin), CreateOrderRequest{
		StoreID: f.store.ID,
		Items: []OrderItemRequest{
			{ProductID: f.coffee.ID, Quantity: 2},  // fine
			{ProductID: 9999, Quantity: 1},         // unknown
			{ProductID: foreign.ID, Quantity: 1},   // other store
			{ProductID: inactive.ID, Quantity: 1},  // inactive
			{ProductID: empty.ID, Quantity: 1},     // out of stock
			{ProductID: f.bagel.ID, Quantity: 50},  // not enough
			{ProductID: f.bagel.ID, Quantity: 0},   // bad quantity
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	var itemErrs ItemErrors
	require.ErrorAs(t, err, &itemErrs)
	require.Len(t, itemErrs, 6)

	codes := map[uint]string{}
	for _, ie := range itemErrs {
		if _, seen := codes[ie.ProductID]; !seen {
			codes[ie.ProductID] = ie.Code
		}
	}
	assert.Equal(t, CodeProductNotFound, codes[9999])
	assert.Equal(t, CodeWrongStore, codes[foreign.ID])
	assert.Equal(t, CodeProductInactive, codes[inactive.ID])
	assert.Equal(t, CodeOutOfStock, codes[empty.ID])

	for _, ie := range itemErrs {
		if ie.Code == CodeNotEnoughStock {
			require.NotNil(t, ie.Available)
			assert.Equal(t, 5, *ie.Available)
		}
	}

	// Nothing was persisted and no stock moved.
	var count int64
	require.NoError(t, f.env.DB.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Equal(t, 10, f.env.productStock(t, f.coffee.ID))
	assert.Equal(t, 5, f.env.productStock(t, f.bagel.ID))
}

func TestOrderService_CreateOrder_LastUnit(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	lastOne := f.env.seedProduct(t, f.store.ID, f.category.ID, "Last", 4.00, 1)

	_, err := f.env.Orders.CreateOrder(ctx, callerFor(f.admin), CreateOrderRequest{
		StoreID: f.store.ID,
		Items:   []OrderItemRequest{{ProductID: lastOne.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, f.env.productStock(t, lastOne.ID))

	// The next attempt sees the depleted stock and fails.
	_, err = f.env.Orders.CreateOrder(ctx, callerFor(f.admin), CreateOrderRequest{
		StoreID: f.store.ID,
		Items:   []OrderItemRequest{{ProductID: lastOne.ID, Quantity: 1}},
	})
	require.Error(t, err)

	var itemErrs ItemErrors
	require.ErrorAs(t, err, &itemErrs)
	require.Len(t, itemErrs, 1)
	assert.Equal(t, CodeOutOfStock, itemErrs[0].Code)
	assert.Equal(t, 0, f.env.productStock(t, lastOne.ID))
}

func TestOrderService_CreateOrder_Scope(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	otherStore := f.env.seedStore(t, "Annex", "annex@example.com")
	staff := f.env.seedUser(t, "rep@example.com", models.RoleStoreRep, "password")

	// Store staff cannot order against another store.
	_, err := f.env.Orders.CreateOrder(ctx, storeCaller(staff, otherStore.ID), CreateOrderRequest{
		StoreID: f.store.ID,
		Items:   []OrderItemRequest{{ProductID: f.coffee.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrForbidden)

	// A customer ordering for someone else is rejected.
	customerUser := f.env.seedUser(t, "alice@example.com", models.RoleCustomer, "password")
	customer := f.env.seedCustomer(t, &customerUser.ID, "alice@example.com", "System")
	other := f.env.seedCustomer(t, nil, "walkin@example.com", "rep@example.com")

	_, err = f.env.Orders.CreateOrder(ctx, customerCaller(customerUser, customer.ID), CreateOrderRequest{
		StoreID:    f.store.ID,
		CustomerID: &other.ID,
		Items:      []OrderItemRequest{{ProductID: f.coffee.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrForbidden)

	// Omitting the customer id resolves to the caller's own profile.
	order, err := f.env.Orders.CreateOrder(ctx, customerCaller(customerUser, customer.ID), CreateOrderRequest{
		StoreID: f.store.ID,
		Items:   []OrderItemRequest{{ProductID: f.coffee.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	require.NotNil(t, order.CustomerID)
	assert.Equal(t, customer.ID, *order.CustomerID)
}

func TestOrderService_UpdateStatus_ForwardNoRestock(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	caller := callerFor(f.admin)

	order, err := f.env.Orders.CreateOrder(ctx, caller, CreateOrderRequest{
		StoreID: f.store.ID,
		Items:   []OrderItemRequest{{ProductID: f.coffee.ID, Quantity: 3}},
	})
	require.NoError(t, err)
	require.Equal(t, 7, f.env.productStock(t, f.coffee.ID))

	for _, next := range []models.OrderStatus{
		models.OrderConfirmed, models.OrderProcessing,
		models.OrderAwaitingDelivery, models.OrderCompleted,
	} {
		order, err = f.env.Orders.UpdateStatus(ctx, caller, order.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, order.Status)
		assert.Equal(t, 7, f.env.productStock(t, f.coffee.ID))
	}
	assert.Equal(t, f.admin.Email, order.UpdatedBy)
}

func TestOrderService_UpdateStatus_CancelRestocksOnce(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	caller := callerFor(f.admin)

	order, err := f.env.Orders.CreateOrder(ctx, caller, CreateOrderRequest{
		StoreID: f.store.ID,
		Items:   []OrderItemRequest{{ProductID: f.coffee.ID, Quantity: 4}},
	})
	require.NoError(t, err)
	require.Equal(t, 6, f.env.productStock(t, f.coffee.ID))

	order, err = f.env.Orders.UpdateStatus(ctx, caller, order.ID, models.OrderFailed)
	require.NoError(t, err)
	assert.Equal(t, models.OrderFailed, order.Status)
	assert.Equal(t, 10, f.env.productStock(t, f.coffee.ID))

	// Failed -> Returned stays cancelled and must not restock again.
	order, err = f.env.Orders.UpdateStatus(ctx, caller, order.ID, models.OrderReturned)
	require.NoError(t, err)
	assert.Equal(t, models.OrderReturned, order.Status)
	assert.Equal(t, 10, f.env.productStock(t, f.coffee.ID))
}

func TestOrderService_UpdateStatus_InvalidTransitions(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	caller := callerFor(f.admin)

	order, err := f.env.Orders.CreateOrder(ctx, caller, CreateOrderRequest{
		StoreID: f.store.ID,
		Items:   []OrderItemRequest{{ProductID: f.coffee.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = f.env.Orders.UpdateStatus(ctx, caller, order.ID, models.OrderStatus(42))
	assert.ErrorIs(t, err, ErrValidation)

	// A cancelled order cannot come back to life.
	_, err = f.env.Orders.UpdateStatus(ctx, caller, order.ID, models.OrderFailed)
	require.NoError(t, err)
	_, err = f.env.Orders.UpdateStatus(ctx, caller, order.ID, models.OrderProcessing)
	assert.ErrorIs(t, err, ErrInvalidState)

	// Completed orders are immutable.
	done, err := f.env.Orders.CreateOrder(ctx, caller, CreateOrderRequest{
		StoreID: f.store.ID,
		Items:   []OrderItemRequest{{ProductID: f.coffee.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = f.env.Orders.UpdateStatus(ctx, caller, done.ID, models.OrderCompleted)
	require.NoError(t, err)
	_, err = f.env.Orders.UpdateStatus(ctx, caller, done.ID, models.OrderReturned)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = f.env.Orders.UpdateStatus(ctx, caller, 9999, models.OrderConfirmed)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderService_UpdateStatus_Scope(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order, err := f.env.Orders.CreateOrder(ctx, callerFor(f.admin), CreateOrderRequest{
		StoreID: f.store.ID,
		Items:   []OrderItemRequest{{ProductID: f.coffee.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	customerUser := f.env.seedUser(t, "alice@example.com", models.RoleCustomer, "password")
	customer := f.env.seedCustomer(t, &customerUser.ID, "alice@example.com", "System")
	_, err = f.env.Orders.UpdateStatus(ctx, customerCaller(customerUser, customer.ID), order.ID, models.OrderConfirmed)
	assert.ErrorIs(t, err, ErrForbidden)

	otherStore := f.env.seedStore(t, "Annex", "annex@example.com")
	staff := f.env.seedUser(t, "rep@example.com", models.RoleStoreRep, "password")
	_, err = f.env.Orders.UpdateStatus(ctx, storeCaller(staff, otherStore.ID), order.ID, models.OrderConfirmed)
	assert.ErrorIs(t, err, ErrForbidden)

	// Staff of the order's own store may advance it.
	_, err = f.env.Orders.UpdateStatus(ctx, storeCaller(staff, f.store.ID), order.ID, models.OrderConfirmed)
	require.NoError(t, err)
}

func TestOrderService_GetOrder_Visibility(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	customerUser := f.env.seedUser(t, "alice@example.com", models.RoleCustomer, "password")
	customer := f.env.seedCustomer(t, &customerUser.ID, "alice@example.com", "System")

	order, err := f.env.Orders.CreateOrder(ctx, customerCaller(customerUser, customer.ID), CreateOrderRequest{
		StoreID: f.store.ID,
		Items:   []OrderItemRequest{{ProductID: f.coffee.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	otherUser := f.env.seedUser(t, "eve@example.com", models.RoleCustomer, "password")
	otherCustomer := f.env.seedCustomer(t, &otherUser.ID, "eve@example.com", "System")

	_, err = f.env.Orders.GetOrder(ctx, customerCaller(otherUser, otherCustomer.ID), order.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := f.env.Orders.GetOrder(ctx, customerCaller(customerUser, customer.ID), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = f.env.Orders.GetOrder(ctx, callerFor(f.admin), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderService_ListOrders_NarrowsScope(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	otherStore := f.env.seedStore(t, "Annex", "annex@example.com")
	otherProduct := f.env.seedProduct(t, otherStore.ID, f.category.ID, "Tea", 2.50, 10)

	_, err := f.env.Orders.CreateOrder(ctx, callerFor(f.admin), CreateOrderRequest{
		StoreID: f.store.ID,
		Items:   []OrderItemRequest{{ProductID: f.coffee.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = f.env.Orders.CreateOrder(ctx, callerFor(f.admin), CreateOrderRequest{
		StoreID: otherStore.ID,
		Items:   []OrderItemRequest{{ProductID: otherProduct.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	all, err := f.env.Orders.ListOrders(ctx, callerFor(f.admin), repo.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Store staff only see their own store, even when asking for another.
	staff := f.env.seedUser(t, "rep@example.com", models.RoleStoreRep, "password")
	mine, err := f.env.Orders.ListOrders(ctx, storeCaller(staff, f.store.ID), repo.OrderFilter{StoreID: &otherStore.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, f.store.ID, mine[0].StoreID)

	// Customers with no profile see an empty list.
	customerUser := f.env.seedUser(t, "alice@example.com", models.RoleCustomer, "password")
	none, err := f.env.Orders.ListOrders(ctx, callerFor(customerUser), repo.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOrderService_CustomerLifecycle(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	_, err := f.env.Auth.Register(ctx, RegisterRequest{
		Email:     "shopper@example.com",
		Password:  "password",
		FirstName: "Sam",
		LastName:  "Shopper",
	})
	require.NoError(t, err)

	pair, err := f.env.Auth.Login(ctx, "shopper@example.com", "password")
	require.NoError(t, err)

	claims, err := tokens.AccessClaimsFromToken(pair.AccessToken, f.env.Auth.JWTSecret)
	require.NoError(t, err)
	caller, err := f.env.Auth.ResolveCaller(ctx, claims)
	require.NoError(t, err)
	require.Equal(t, models.RoleCustomer, caller.Role)
	require.NotNil(t, caller.CustomerID)

	order, err := f.env.Orders.CreateOrder(ctx, caller, CreateOrderRequest{
		StoreID: f.store.ID,
		Items:   []OrderItemRequest{{ProductID: f.bagel.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	got, err := f.env.Orders.GetOrder(ctx, caller, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, got.Status)
	require.NotNil(t, got.CustomerID)
	assert.Equal(t, *caller.CustomerID, *got.CustomerID)
	assert.Equal(t, 3, f.env.productStock(t, f.bagel.ID))

	// Store staff move the order forward without touching stock.
	staff := f.env.seedUser(t, "clerk@example.com", models.RoleEmployee, "password")
	_, err = f.env.Orders.UpdateStatus(ctx, storeCaller(staff, f.store.ID), order.ID, models.OrderConfirmed)
	require.NoError(t, err)

	got, err = f.env.Orders.GetOrder(ctx, caller, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderConfirmed, got.Status)
	assert.Equal(t, 3, f.env.productStock(t, f.bagel.ID))

	// Failing the order returns the units.
	_, err = f.env.Orders.UpdateStatus(ctx, storeCaller(staff, f.store.ID), order.ID, models.OrderFailed)
	require.NoError(t, err)
	assert.Equal(t, 5, f.env.productStock(t, f.bagel.ID))
}

func TestOrderService_CreateOrder_DuplicateLinesExceedStock(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	// Each line fits on its own; together they oversell the bagels.
	_, err := f.env.Orders.CreateOrder(ctx, callerFor(f.admin), CreateOrderRequest{
		StoreID: f.store.ID,
		Items: []OrderItemRequest{
			{ProductID: f.bagel.ID, Quantity: 3},
			{ProductID: f.bagel.ID, Quantity: 3},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	var itemErrs ItemErrors
	require.ErrorAs(t, err, &itemErrs)
	require.Len(t, itemErrs, 1)
	assert.Equal(t, CodeNotEnoughStock, itemErrs[0].Code)
	require.NotNil(t, itemErrs[0].Available)
	assert.Equal(t, 2, *itemErrs[0].Available)

	var count int64
	require.NoError(t, f.env.DB.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Equal(t, 5, f.env.productStock(t, f.bagel.ID))

	// Splitting an order across lines is fine while stock covers the sum.
	order, err := f.env.Orders.CreateOrder(ctx, callerFor(f.admin), CreateOrderRequest{
		StoreID: f.store.ID,
		Items: []OrderItemRequest{
			{ProductID: f.bagel.ID, Quantity: 3},
			{ProductID: f.bagel.ID, Quantity: 2},
		},
	})
	require.NoError(t, err)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 0, f.env.productStock(t, f.bagel.ID))
}

func TestOrderService_CreateOrder_StockMovedAfterValidation(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	// Drain the product right before the first in-transaction decrement,
	// after validation has already seen full stock.
	var drained bool
	err := f.env.DB.Callback().Update().Before("gorm:update").Register("drain_stock", func(tx *gorm.DB) {
		if drained {
			return
		}
		if _, ok := tx.Statement.Model.(*models.Product); !ok {
			return
		}
		drained = true
		tx.Session(&gorm.Session{NewDB: true}).
			Model(&models.Product{}).
			Where("id = ?", f.coffee.ID).
			Update("current_stock", 0)
	})
	require.NoError(t, err)

	_, err = f.env.Orders.CreateOrder(ctx, callerFor(f.admin), CreateOrderRequest{
		StoreID: f.store.ID,
		Items:   []OrderItemRequest{{ProductID: f.coffee.ID, Quantity: 2}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
	require.True(t, drained)

	// The whole transaction rolled back, drain included.
	var count int64
	require.NoError(t, f.env.DB.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Equal(t, 10, f.env.productStock(t, f.coffee.ID))
}

func TestOrderService_UpdateStatus_ConcurrentTransition(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order, err := f.env.Orders.CreateOrder(ctx, callerFor(f.admin), CreateOrderRequest{
		StoreID: f.store.ID,
		Items:   []OrderItemRequest{{ProductID: f.coffee.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	// Flip the status out from under the guarded update.
	var flipped bool
	err = f.env.DB.Callback().Update().Before("gorm:update").Register("flip_status", func(tx *gorm.DB) {
		if flipped {
			return
		}
		if _, ok := tx.Statement.Model.(*models.Order); !ok {
			return
		}
		flipped = true
		tx.Session(&gorm.Session{NewDB: true}).
			Model(&models.Order{}).
			Where("id = ?", order.ID).
			Update("status", models.OrderConfirmed)
	})
	require.NoError(t, err)

	_, err = f.env.Orders.UpdateStatus(ctx, callerFor(f.admin), order.ID, models.OrderProcessing)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
	require.True(t, flipped)

	// Rolled back entirely; the order is still where the caller left it.
	f.env.DB.Callback().Update().Remove("flip_status")
	got, err := f.env.Orders.GetOrder(ctx, callerFor(f.admin), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, got.Status)
	assert.Equal(t, 8, f.env.productStock(t, f.coffee.ID))
}
