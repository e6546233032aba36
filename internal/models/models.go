package models

import (
	"time"
)

// Role is the closed set of caller roles. Stored as text; every
// authorization decision goes through these constants, never raw strings.
type Role string

const (
	RoleSuperAdmin Role = "SuperAdmin"
	RoleStoreAdmin Role = "StoreAdmin"
	RoleAdmin      Role = "Admin"
	RoleEmployee   Role = "Employee"
	RoleStoreRep   Role = "StoreRep"
	RoleCustomer   Role = "Customer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleStoreAdmin, RoleAdmin, RoleEmployee, RoleStoreRep, RoleCustomer:
		return true
	}
	return false
}

// IsAdmin reports whether the role bypasses store scoping.
func (r Role) IsAdmin() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

// IsStoreScoped reports whether the role is confined to one store.
func (r Role) IsStoreScoped() bool {
	return r == RoleStoreAdmin || r == RoleEmployee || r == RoleStoreRep
}

// OrderStatus is the canonical status enumeration. Completed is the single
// terminal success state; Cancelled from older data maps onto Failed.
type OrderStatus int

const (
	OrderPending OrderStatus = iota
	OrderConfirmed
	OrderProcessing
	OrderAwaitingDelivery
	OrderCompleted
	OrderFailed
	OrderReturned
)

func (s OrderStatus) Valid() bool {
	return s >= OrderPending && s <= OrderReturned
}

// HoldsStock reports whether an order in this status still holds deducted
// inventory. Stock is deducted at creation, so Pending counts too.
func (s OrderStatus) HoldsStock() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderProcessing, OrderAwaitingDelivery:
		return true
	}
	return false
}

// Cancelling reports whether this status returns held stock to inventory.
func (s OrderStatus) Cancelling() bool {
	return s == OrderFailed || s == OrderReturned
}

func (s OrderStatus) String() string {
	switch s {
	case OrderPending:
		return "Pending"
	case OrderConfirmed:
		return "Confirmed"
	case OrderProcessing:
		return "Processing"
	case OrderAwaitingDelivery:
		return "AwaitingDelivery"
	case OrderCompleted:
		return "Completed"
	case OrderFailed:
		return "Failed"
	case OrderReturned:
		return "Returned"
	}
	return "Unknown"
}

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Role         Role      `gorm:"not null"                 json:"role"`
	IsActive     bool      `gorm:"not null;default:true"    json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RefreshToken rows are never deleted; used/revoked flags are kept for
// replay detection and audit.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"             json:"id"`
	UserID    uint      `gorm:"index;not null"         json:"user_id"`
	TokenHash string    `gorm:"uniqueIndex;not null"   json:"-"`
	JTI       string    `gorm:"index;not null"         json:"jti"`
	Used      bool      `gorm:"not null;default:false" json:"used"`
	Revoked   bool      `gorm:"not null;default:false" json:"revoked"`
	IssuedAt  time.Time `gorm:"not null"               json:"issued_at"`
	ExpiresAt time.Time `gorm:"not null"               json:"expires_at"`
}

type Store struct {
	ID         uint      `gorm:"primaryKey"            json:"id"`
	Name       string    `gorm:"not null"              json:"name"`
	Phone      string    `json:"phone"`
	Address    string    `json:"address"`
	AdminEmail string    `gorm:"index"                 json:"admin_email"`
	IsActive   bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Employee links a user to at most one store. StoreID is nil while the
// employee is unassigned.
type Employee struct {
	ID        uint      `gorm:"primaryKey"           json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	StoreID   *uint     `gorm:"index"                json:"store_id"`
	FirstName string    `gorm:"not null"             json:"first_name"`
	LastName  string    `json:"last_name"`
	Position  string    `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User  *User  `gorm:"foreignKey:UserID"  json:"user,omitempty"`
	Store *Store `gorm:"foreignKey:StoreID" json:"store,omitempty"`
}

// Customer may exist without a user account (walk-in customers). CreatedBy
// holds the staff email that created the record, or "System" for
// self-registration.
type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index"      json:"user_id"`
	FirstName string    `gorm:"not null"   json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `gorm:"index"      json:"email"`
	Phone     string    `json:"phone"`
	CreatedBy string    `gorm:"not null"   json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null"   json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Product struct {
	ID           uint      `gorm:"primaryKey"            json:"id"`
	StoreID      uint      `gorm:"index;not null"        json:"store_id"`
	CategoryID   uint      `gorm:"index;not null"        json:"category_id"`
	Name         string    `gorm:"not null"              json:"name"`
	Description  string    `json:"description"`
	ImageURL     string    `json:"image_url"`
	Price        float64   `gorm:"not null"              json:"price"`
	CurrentStock int       `gorm:"not null;default:0"    json:"current_stock"`
	ShowInWeb    bool      `gorm:"not null;default:true" json:"show_in_web"`
	ShowInPOS    bool      `gorm:"not null;default:true" json:"show_in_pos"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

type Order struct {
	ID         uint        `gorm:"primaryKey"     json:"id"`
	StoreID    uint        `gorm:"index;not null" json:"store_id"`
	CustomerID *uint       `gorm:"index"          json:"customer_id"`
	Status     OrderStatus `gorm:"not null"       json:"status"`
	Total      float64     `gorm:"not null"       json:"total"`
	CreatedBy  string      `gorm:"not null"       json:"created_by"`
	UpdatedBy  string      `json:"updated_by"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`

	Items    []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Store    *Store      `gorm:"foreignKey:StoreID"    json:"store,omitempty"`
	Customer *Customer   `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

// OrderItem snapshots the product at order time, so later product edits do
// not rewrite order history.
type OrderItem struct {
	ID           uint    `gorm:"primaryKey"     json:"id"`
	OrderID      uint    `gorm:"index;not null" json:"order_id"`
	ProductID    uint    `gorm:"not null"       json:"product_id"`
	Name         string  `gorm:"not null"       json:"name"`
	Description  string  `json:"description"`
	CategoryName string  `json:"category_name"`
	ImageURL     string  `json:"image_url"`
	UnitPrice    float64 `gorm:"not null"       json:"unit_price"`
	Quantity     int     `gorm:"not null;check:quantity>0" json:"quantity"`
	LineTotal    float64 `gorm:"not null"       json:"line_total"`
}

// All returns every persisted entity for AutoMigrate.
func All() []any {
	return []any{
		&User{}, &RefreshToken{}, &Store{}, &Employee{}, &Customer{},
		&Category{}, &Product{}, &Order{}, &OrderItem{},
	}
}
