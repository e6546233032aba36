package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/retailpos/backoffice/internal/models"
	"github.com/retailpos/backoffice/internal/service"
)

type Deps struct {
	Auth      *service.AuthService
	Stores    *service.StoreService
	Employees *service.EmployeeService
	Customers *service.CustomerService
	Catalog   *service.CatalogService
	Orders    *service.OrderService
	Stats     *service.StatsService
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	auth := &AuthHandler{Auth: d.Auth}
	stores := &StoreHandler{Stores: d.Stores}
	employees := &EmployeeHandler{Employees: d.Employees}
	customers := &CustomerHandler{Customers: d.Customers}
	catalog := &CatalogHandler{Catalog: d.Catalog}
	orders := &OrderHandler{Orders: d.Orders}
	stats := &StatsHandler{Stats: d.Stats}

	e.POST("/auth/register", auth.Register)
	e.POST("/auth/login", auth.Login)
	e.POST("/auth/refresh", auth.Refresh)

	// Web storefront reads work without a token; the catalog service
	// narrows them to active, web-visible products.
	e.GET("/products", catalog.ListProducts)
	e.GET("/products/search", catalog.SearchProducts)
	e.GET("/products/:id", catalog.GetProduct)
	e.GET("/categories", catalog.ListCategories)

	private := e.Group("", RequireAuth(d.Auth))

	private.POST("/auth/logout", auth.Logout)
	private.POST("/auth/password", auth.ChangePassword)

	admins := []models.Role{models.RoleSuperAdmin, models.RoleAdmin}
	staff := []models.Role{
		models.RoleSuperAdmin, models.RoleAdmin,
		models.RoleStoreAdmin, models.RoleEmployee, models.RoleStoreRep,
	}

	users := private.Group("/users", RequireRoles(admins...))
	users.PATCH("/:id/role", auth.SetUserRole)
	users.PATCH("/:id/active", auth.SetUserActive)

	private.POST("/stores", stores.Create)
	private.GET("/stores", stores.List)
	private.GET("/stores/:id", stores.Get)
	private.PATCH("/stores/:id", stores.Update)
	private.DELETE("/stores/:id", stores.Delete)

	emps := private.Group("/employees", RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleStoreAdmin))
	emps.POST("", employees.Create)
	emps.GET("", employees.List)
	emps.GET("/:id", employees.Get)
	emps.PATCH("/:id", employees.Update)
	emps.DELETE("/:id", employees.Delete)

	private.POST("/customers", customers.Create)
	private.GET("/customers", customers.List)
	private.GET("/customers/:id", customers.Get)
	private.PATCH("/customers/:id", customers.Update)
	private.DELETE("/customers/:id", customers.Delete)

	cats := private.Group("/categories", RequireRoles(admins...))
	cats.POST("", catalog.CreateCategory)
	cats.PATCH("/:id", catalog.UpdateCategory)
	cats.DELETE("/:id", catalog.DeleteCategory)

	prods := private.Group("/products", RequireRoles(admins...))
	prods.POST("", catalog.CreateProduct)
	prods.PATCH("/:id", catalog.UpdateProduct)
	prods.DELETE("/:id", catalog.DeleteProduct)

	private.POST("/orders", orders.Create)
	private.GET("/orders", orders.List)
	private.GET("/orders/:id", orders.Get)
	private.PATCH("/orders/:id/status", orders.UpdateStatus)

	st := private.Group("/stats", RequireRoles(staff...))
	st.GET("/orders", stats.OrdersByStatus)
	st.GET("/revenue", stats.Revenue)
	st.GET("/products", stats.TopProducts)
}
