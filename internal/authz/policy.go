// Package authz holds the caller identity extracted once per request and
// the row-level scope rules consulted by every mutating operation.
package authz

import (
	"github.com/retailpos/backoffice/internal/models"
)

// CallerContext is built at the HTTP boundary from validated token claims
// and passed explicitly into every service operation. StoreID is resolved
// from the caller's employee record or store-admin assignment; CustomerID
// from their customer profile. Either may be nil when not applicable.
type CallerContext struct {
	UserID     uint
	Email      string
	Role       models.Role
	StoreID    *uint
	CustomerID *uint
}

func (c *CallerContext) IsAdmin() bool {
	return c.Role.IsAdmin()
}

// CanActOnStore reports whether the caller may mutate rows of the given
// store. Admins pass unconditionally; store-scoped roles must match their
// assigned store; customers never act on stores directly.
func (c *CallerContext) CanActOnStore(storeID uint) bool {
	if c.IsAdmin() {
		return true
	}
	if c.Role.IsStoreScoped() {
		return c.StoreID != nil && *c.StoreID == storeID
	}
	return false
}

// CanViewOrder applies the read scope: customers see their own orders,
// store roles their store's orders, admins everything.
func (c *CallerContext) CanViewOrder(o *models.Order) bool {
	if c.IsAdmin() {
		return true
	}
	if c.Role == models.RoleCustomer {
		return c.CustomerID != nil && o.CustomerID != nil && *c.CustomerID == *o.CustomerID
	}
	return c.CanActOnStore(o.StoreID)
}

// CanMutateCustomer: admins always; store roles for records they created;
// customers only their own profile.
func (c *CallerContext) CanMutateCustomer(cust *models.Customer) bool {
	if c.IsAdmin() {
		return true
	}
	if c.Role == models.RoleCustomer {
		return cust.UserID != nil && *cust.UserID == c.UserID
	}
	if c.Role.IsStoreScoped() {
		return cust.CreatedBy == c.Email
	}
	return false
}

// CanMutateEmployee: Admin/SuperAdmin anywhere, StoreAdmin within their own
// store only.
func (c *CallerContext) CanMutateEmployee(e *models.Employee) bool {
	if c.IsAdmin() {
		return true
	}
	if c.Role == models.RoleStoreAdmin {
		return c.StoreID != nil && e.StoreID != nil && *c.StoreID == *e.StoreID
	}
	return false
}

// CanMutateStore: SuperAdmin anywhere; the assigned StoreAdmin on their own
// store (the service layer further restricts which fields they may touch).
func (c *CallerContext) CanMutateStore(s *models.Store) bool {
	if c.Role == models.RoleSuperAdmin {
		return true
	}
	if c.Role == models.RoleStoreAdmin {
		return s.AdminEmail == c.Email
	}
	return false
}

// CanManageCatalog: admins anywhere, store roles on their own store.
func (c *CallerContext) CanManageCatalog(storeID uint) bool {
	return c.CanActOnStore(storeID)
}
