package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailpos/backoffice/internal/authz"
	"github.com/retailpos/backoffice/internal/models"
	"github.com/retailpos/backoffice/internal/repo"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
func intPtr(n int) *int           { return &n }
func boolPtr(b bool) *bool        { return &b }
func uintPtr(u uint) *uint        { return &u }

func TestCatalogService_Categories(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.seedUser(t, "admin@example.com", models.RoleAdmin, "password")
	staff := env.seedUser(t, "rep@example.com", models.RoleStoreRep, "password")

	_, err := env.Catalog.CreateCategory(ctx, callerFor(staff), CategoryRequest{Name: strPtr("Drinks")})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.Catalog.CreateCategory(ctx, callerFor(admin), CategoryRequest{})
	assert.ErrorIs(t, err, ErrValidation)

	cat, err := env.Catalog.CreateCategory(ctx, callerFor(admin), CategoryRequest{
		Name:        strPtr("Drinks"),
		Description: strPtr("hot and cold"),
	})
	require.NoError(t, err)

	updated, err := env.Catalog.UpdateCategory(ctx, callerFor(admin), cat.ID, CategoryRequest{Name: strPtr("Beverages")})
	require.NoError(t, err)
	assert.Equal(t, "Beverages", updated.Name)
	assert.Equal(t, "hot and cold", updated.Description)

	list, err := env.Catalog.ListCategories(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, env.Catalog.DeleteCategory(ctx, callerFor(admin), cat.ID))
	assert.ErrorIs(t, env.Catalog.DeleteCategory(ctx, callerFor(admin), cat.ID), ErrNotFound)
}

func TestCatalogService_CreateProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.seedUser(t, "admin@example.com", models.RoleAdmin, "password")
	store := env.seedStore(t, "Main", "manager@example.com")
	category := env.seedCategory(t, "Drinks")

	prod, err := env.Catalog.CreateProduct(ctx, callerFor(admin), ProductRequest{
		StoreID:      &store.ID,
		CategoryID:   &category.ID,
		Name:         strPtr("Coffee"),
		Price:        floatPtr(3.50),
		CurrentStock: intPtr(12),
	})
	require.NoError(t, err)
	assert.Equal(t, 12, prod.CurrentStock)
	assert.True(t, prod.IsActive)
	assert.True(t, prod.ShowInWeb)
	assert.True(t, prod.ShowInPOS)

	tests := []struct {
		name string
		req  ProductRequest
	}{
		{name: "missing name", req: ProductRequest{StoreID: &store.ID, CategoryID: &category.ID, Price: floatPtr(1)}},
		{name: "negative price", req: ProductRequest{StoreID: &store.ID, CategoryID: &category.ID, Name: strPtr("X"), Price: floatPtr(-1)}},
		{name: "negative stock", req: ProductRequest{StoreID: &store.ID, CategoryID: &category.ID, Name: strPtr("X"), Price: floatPtr(1), CurrentStock: intPtr(-1)}},
		{name: "unknown category", req: ProductRequest{StoreID: &store.ID, CategoryID: uintPtr(9999), Name: strPtr("X"), Price: floatPtr(1)}},
		{name: "unknown store", req: ProductRequest{StoreID: uintPtr(9999), CategoryID: &category.ID, Name: strPtr("X"), Price: floatPtr(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Catalog.CreateProduct(ctx, callerFor(admin), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	// Store staff may only manage their own store's catalog.
	staff := env.seedUser(t, "rep@example.com", models.RoleStoreRep, "password")
	other := env.seedStore(t, "Annex", "annex@example.com")
	_, err = env.Catalog.CreateProduct(ctx, storeCaller(staff, other.ID), ProductRequest{
		StoreID:    &store.ID,
		CategoryID: &category.ID,
		Name:       strPtr("Tea"),
		Price:      floatPtr(2),
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCatalogService_CustomerVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.seedUser(t, "admin@example.com", models.RoleAdmin, "password")
	store := env.seedStore(t, "Main", "manager@example.com")
	category := env.seedCategory(t, "Drinks")

	visible := env.seedProduct(t, store.ID, category.ID, "Coffee", 3.50, 10)

	hidden := env.seedProduct(t, store.ID, category.ID, "Staff Meal", 1.00, 10)
	require.NoError(t, env.DB.Model(&models.Product{}).Where("id = ?", hidden.ID).Update("show_in_web", false).Error)

	inactive := env.seedProduct(t, store.ID, category.ID, "Retired", 1.00, 10)
	require.NoError(t, env.DB.Model(&models.Product{}).Where("id = ?", inactive.ID).Update("is_active", false).Error)

	customerUser := env.seedUser(t, "alice@example.com", models.RoleCustomer, "password")
	customer := callerFor(customerUser)

	// Hidden and inactive products look like 404 to customers and anonymous
	// callers, but staff still see them.
	for _, caller := range []*authz.CallerContext{customer, nil} {
		_, err := env.Catalog.GetProduct(ctx, caller, hidden.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = env.Catalog.GetProduct(ctx, caller, inactive.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		got, err := env.Catalog.GetProduct(ctx, caller, visible.ID)
		require.NoError(t, err)
		assert.Equal(t, visible.ID, got.ID)

		total, list, err := env.Catalog.ListProducts(ctx, caller, repo.ProductFilter{})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, list, 1)
		assert.Equal(t, visible.ID, list[0].ID)
	}

	_, err := env.Catalog.GetProduct(ctx, callerFor(admin), hidden.ID)
	require.NoError(t, err)

	total, _, err := env.Catalog.ListProducts(ctx, callerFor(admin), repo.ProductFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
}

func TestCatalogService_UpdateProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.seedUser(t, "admin@example.com", models.RoleAdmin, "password")
	store := env.seedStore(t, "Main", "manager@example.com")
	category := env.seedCategory(t, "Drinks")
	prod := env.seedProduct(t, store.ID, category.ID, "Coffee", 3.50, 10)

	updated, err := env.Catalog.UpdateProduct(ctx, callerFor(admin), prod.ID, ProductRequest{
		Price:     floatPtr(4.00),
		IsActive:  boolPtr(false),
		ShowInWeb: boolPtr(false),
	})
	require.NoError(t, err)
	assert.InDelta(t, 4.00, updated.Price, 0.001)
	assert.False(t, updated.IsActive)
	assert.False(t, updated.ShowInWeb)
	assert.Equal(t, "Coffee", updated.Name)

	_, err = env.Catalog.UpdateProduct(ctx, callerFor(admin), prod.ID, ProductRequest{Price: floatPtr(-1)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.Catalog.UpdateProduct(ctx, callerFor(admin), 9999, ProductRequest{})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, env.Catalog.DeleteProduct(ctx, callerFor(admin), prod.ID))
	_, err = env.Catalog.GetProduct(ctx, callerFor(admin), prod.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogService_Search_Unconfigured(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.seedUser(t, "admin@example.com", models.RoleAdmin, "password")

	_, err := env.Catalog.SearchProducts(ctx, callerFor(admin), "coffee", 0, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}
