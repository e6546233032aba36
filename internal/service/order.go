package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/retailpos/backoffice/internal/audit"
	"github.com/retailpos/backoffice/internal/authz"
	"github.com/retailpos/backoffice/internal/logging"
	"github.com/retailpos/backoffice/internal/models"
	"github.com/retailpos/backoffice/internal/repo"
)

type OrderService struct {
	Repo  *repo.GormRepo
	Audit audit.Sink
}

type OrderItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type CreateOrderRequest struct {
	StoreID    uint               `json:"store_id"`
	CustomerID *uint              `json:"customer_id"`
	Items      []OrderItemRequest `json:"items"`
}

// CreateOrder validates every requested line against the catalog, then
// commits the order, its snapshot items, and the stock decrements as one
// atomic unit. Item validation collects all failures before aborting so the
// caller can fix every line in a single round-trip.
func (s *OrderService) CreateOrder(ctx context.Context, caller *authz.CallerContext, req CreateOrderRequest) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.create", "store_id", req.StoreID)

	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: items required", ErrValidation)
	}

	customerID := req.CustomerID
	switch {
	case caller.Role == models.RoleCustomer:
		// Customers order for their own profile; an explicit mismatching id
		// is a scope violation, an omitted one is auto-resolved.
		if caller.CustomerID == nil {
			return nil, fmt.Errorf("%w: no customer profile", ErrForbidden)
		}
		if customerID != nil && *customerID != *caller.CustomerID {
			l.Warn("create_rejected", "status", 403, "reason", "customer_mismatch")
			return nil, ErrForbidden
		}
		customerID = caller.CustomerID
	case caller.Role.IsStoreScoped():
		if caller.StoreID == nil || *caller.StoreID != req.StoreID {
			l.Warn("create_rejected", "status", 403, "reason", "store_mismatch")
			return nil, ErrForbidden
		}
	case caller.IsAdmin():
		// Admins may order against any store.
	default:
		return nil, ErrForbidden
	}

	ids := make([]uint, 0, len(req.Items))
	for _, it := range req.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.Repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	// Duplicate lines for one product draw down a shared remainder, so a
	// request that oversells only in aggregate is still rejected here.
	remaining := make(map[uint]int, len(products))
	for id, p := range products {
		remaining[id] = p.CurrentStock
	}

	var itemErrs ItemErrors
	items := make([]models.OrderItem, 0, len(req.Items))
	var total float64

	for _, it := range req.Items {
		if it.Quantity <= 0 {
			itemErrs = append(itemErrs, ItemError{
				ProductID: it.ProductID,
				Code:      CodeBadQuantity,
				Message:   "quantity must be positive",
			})
			continue
		}

		prod, ok := products[it.ProductID]
		switch {
		case !ok:
			itemErrs = append(itemErrs, ItemError{
				ProductID: it.ProductID,
				Code:      CodeProductNotFound,
				Message:   "product does not exist",
			})
		case prod.StoreID != req.StoreID:
			itemErrs = append(itemErrs, ItemError{
				ProductID: it.ProductID,
				Code:      CodeWrongStore,
				Message:   "product belongs to another store",
			})
		case !prod.IsActive:
			itemErrs = append(itemErrs, ItemError{
				ProductID: it.ProductID,
				Code:      CodeProductInactive,
				Message:   "product is not active",
			})
		case prod.CurrentStock <= 0:
			itemErrs = append(itemErrs, ItemError{
				ProductID: it.ProductID,
				Code:      CodeOutOfStock,
				Message:   "product is out of stock",
			})
		case remaining[prod.ID] < it.Quantity:
			available := remaining[prod.ID]
			itemErrs = append(itemErrs, ItemError{
				ProductID: it.ProductID,
				Code:      CodeNotEnoughStock,
				Message:   fmt.Sprintf("only %d in stock", available),
				Available: &available,
			})
		default:
			remaining[prod.ID] -= it.Quantity
			categoryName := ""
			if prod.Category != nil {
				categoryName = prod.Category.Name
			}
			lineTotal := prod.Price * float64(it.Quantity)
			items = append(items, models.OrderItem{
				ProductID:    prod.ID,
				Name:         prod.Name,
				Description:  prod.Description,
				CategoryName: categoryName,
				ImageURL:     prod.ImageURL,
				UnitPrice:    prod.Price,
				Quantity:     it.Quantity,
				LineTotal:    lineTotal,
			})
			total += lineTotal
		}
	}

	if len(itemErrs) > 0 {
		l.Warn("create_rejected", "status", 400, "failed_items", len(itemErrs))
		return nil, itemErrs
	}

	order := &models.Order{
		StoreID:    req.StoreID,
		CustomerID: customerID,
		Status:     models.OrderPending,
		Total:      total,
		CreatedBy:  caller.Email,
		Items:      items,
	}

	if err := s.Repo.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, repo.ErrInsufficientStock) {
			// Stock moved between validation and commit; nothing persisted.
			l.Warn("create_rejected", "status", 409, "reason", "stock_raced")
			return nil, fmt.Errorf("%w: stock changed, retry the order", ErrConflict)
		}
		l.Error("create_failed", "status", 500, "error", err)
		return nil, err
	}

	s.Audit.Record(ctx, audit.Entry{
		ActorID: caller.UserID,
		Action:  "order.create",
		Details: map[string]any{"order_id": order.ID, "store_id": order.StoreID, "total": order.Total},
	})
	l.Info("create_success", "order_id", order.ID, "items", len(order.Items))

	return s.GetOrder(ctx, caller, order.ID)
}

// UpdateStatus applies a status transition. Completed orders are immutable,
// and an order that has given its stock back (Failed/Returned) may only
// move between those two states. Stock is restored exactly when the order
// leaves a stock-holding status for a cancelling one, atomically with the
// status write.
func (s *OrderService) UpdateStatus(ctx context.Context, caller *authz.CallerContext, orderID uint, newStatus models.OrderStatus) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.update_status", "order_id", orderID)

	if !newStatus.Valid() {
		return nil, fmt.Errorf("%w: unknown status %d", ErrValidation, newStatus)
	}

	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if caller.Role == models.RoleCustomer || !caller.CanActOnStore(order.StoreID) {
		l.Warn("update_rejected", "status", 403, "reason", "scope")
		return nil, ErrForbidden
	}

	switch {
	case order.Status == models.OrderCompleted:
		l.Warn("update_rejected", "status", 409, "reason", "completed_immutable")
		return nil, fmt.Errorf("%w: completed orders are immutable", ErrInvalidState)
	case order.Status.Cancelling() && !newStatus.Cancelling():
		// Re-activating a cancelled order would need a second stock
		// deduction; require a new order instead.
		l.Warn("update_rejected", "status", 409, "reason", "cancelled_final")
		return nil, fmt.Errorf("%w: cancelled orders cannot be reactivated", ErrInvalidState)
	}

	// Inventory comes back when the order stops holding it. The observed
	// legacy behavior restocked on the opposite direction; see DESIGN.md.
	restock := order.Status.HoldsStock() && newStatus.Cancelling()

	if err := s.Repo.UpdateOrderStatus(ctx, order, newStatus, restock, caller.Email); err != nil {
		if errors.Is(err, repo.ErrStaleStatus) {
			l.Warn("update_rejected", "status", 409, "reason", "concurrent_update")
			return nil, fmt.Errorf("%w: order changed concurrently", ErrConflict)
		}
		l.Error("update_failed", "status", 500, "error", err)
		return nil, err
	}

	s.Audit.Record(ctx, audit.Entry{
		ActorID: caller.UserID,
		Action:  "order.update_status",
		Details: map[string]any{
			"order_id": orderID,
			"from":     order.Status.String(),
			"to":       newStatus.String(),
			"restock":  restock,
		},
	})
	l.Info("update_success", "from", order.Status.String(), "to", newStatus.String(), "restock", restock)

	return s.Repo.GetOrder(ctx, orderID)
}

func (s *OrderService) GetOrder(ctx context.Context, caller *authz.CallerContext, id uint) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !caller.CanViewOrder(order) {
		return nil, ErrForbidden
	}
	return order, nil
}

// ListOrders narrows the filter to the caller's scope instead of failing:
// customers see their own orders, store roles their store's.
func (s *OrderService) ListOrders(ctx context.Context, caller *authz.CallerContext, f repo.OrderFilter) ([]models.Order, error) {
	switch {
	case caller.IsAdmin():
		// Admin filters pass through untouched.
	case caller.Role == models.RoleCustomer:
		if caller.CustomerID == nil {
			return []models.Order{}, nil
		}
		f.CustomerID = caller.CustomerID
		f.StoreID = nil
	case caller.Role.IsStoreScoped():
		if caller.StoreID == nil {
			return []models.Order{}, nil
		}
		f.StoreID = caller.StoreID
	default:
		return nil, ErrForbidden
	}

	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	return s.Repo.ListOrders(ctx, f)
}
