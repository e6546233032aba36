package repo

import (
	"errors"

	"gorm.io/gorm"
)

// Errors returned by the conditional writes below. Services translate them
// into the caller-facing taxonomy.
var (
	// ErrInsufficientStock: a guarded stock decrement matched no row, either
	// because the product vanished or its stock dropped below the request.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrTokenConsumed: the conditional used=false->true update lost; the
	// refresh token was already exchanged or revoked.
	ErrTokenConsumed = errors.New("refresh token already consumed")
	// ErrStaleStatus: an order status write was guarded on the old status
	// and another request changed it first.
	ErrStaleStatus = errors.New("order status changed concurrently")
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}
