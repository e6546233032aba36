package service

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/retailpos/backoffice/internal/audit"
	"github.com/retailpos/backoffice/internal/authz"
	"github.com/retailpos/backoffice/internal/hash"
	"github.com/retailpos/backoffice/internal/models"
	"github.com/retailpos/backoffice/internal/repo"
)

type testEnv struct {
	DB        *gorm.DB
	Repo      *repo.GormRepo
	Auth      *AuthService
	Stores    *StoreService
	Employees *EmployeeService
	Customers *CustomerService
	Catalog   *CatalogService
	Orders    *OrderService
	Stats     *StatsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open in-memory db: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	r := repo.New(db)
	sink := audit.Nop{}

	return &testEnv{
		DB:   db,
		Repo: r,
		Auth: &AuthService{
			Repo:       r,
			Audit:      sink,
			JWTSecret:  []byte("test-jwt-secret"),
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 24 * time.Hour,
		},
		Stores:    &StoreService{Repo: r, Audit: sink},
		Employees: &EmployeeService{Repo: r, Audit: sink},
		Customers: &CustomerService{Repo: r, Audit: sink},
		Catalog:   &CatalogService{Repo: r, Audit: sink},
		Orders:    &OrderService{Repo: r, Audit: sink},
		Stats:     &StatsService{Repo: r},
	}
}

func (env *testEnv) seedUser(t *testing.T, email string, role models.Role, password string) *models.User {
	t.Helper()

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{Email: email, PasswordHash: pwHash, Role: role, IsActive: true}
	if err := env.DB.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return &user
}

func (env *testEnv) seedStore(t *testing.T, name, adminEmail string) *models.Store {
	t.Helper()

	store := models.Store{Name: name, AdminEmail: adminEmail, IsActive: true}
	if err := env.DB.Create(&store).Error; err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return &store
}

func (env *testEnv) seedCategory(t *testing.T, name string) *models.Category {
	t.Helper()

	category := models.Category{Name: name}
	if err := env.DB.Create(&category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return &category
}

func (env *testEnv) seedProduct(t *testing.T, storeID, categoryID uint, name string, price float64, stock int) *models.Product {
	t.Helper()

	product := models.Product{
		StoreID:      storeID,
		CategoryID:   categoryID,
		Name:         name,
		Price:        price,
		CurrentStock: stock,
		ShowInWeb:    true,
		ShowInPOS:    true,
		IsActive:     true,
	}
	if err := env.DB.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return &product
}

func (env *testEnv) seedCustomer(t *testing.T, userID *uint, email, createdBy string) *models.Customer {
	t.Helper()

	customer := models.Customer{
		UserID:    userID,
		FirstName: "Test",
		Email:     email,
		CreatedBy: createdBy,
	}
	if err := env.DB.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return &customer
}

func (env *testEnv) productStock(t *testing.T, id uint) int {
	t.Helper()

	var product models.Product
	if err := env.DB.First(&product, id).Error; err != nil {
		t.Fatalf("load product %d: %v", id, err)
	}
	return product.CurrentStock
}

func callerFor(user *models.User) *authz.CallerContext {
	return &authz.CallerContext{UserID: user.ID, Email: user.Email, Role: user.Role}
}

func storeCaller(user *models.User, storeID uint) *authz.CallerContext {
	return &authz.CallerContext{UserID: user.ID, Email: user.Email, Role: user.Role, StoreID: &storeID}
}

func customerCaller(user *models.User, customerID uint) *authz.CallerContext {
	return &authz.CallerContext{UserID: user.ID, Email: user.Email, Role: user.Role, CustomerID: &customerID}
}
