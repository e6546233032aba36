package service

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors form the caller-facing taxonomy. The HTTP layer maps them
// to status codes with errors.Is; services wrap them with context via
// fmt.Errorf("%w: ...").
var (
	ErrInvalidCredentials = errors.New("invalid credentials")     // 401
	ErrAccountInactive    = errors.New("account inactive")        // 403
	ErrInvalidToken       = errors.New("invalid token")           // 401
	ErrTokenExpired       = errors.New("token expired")           // 401
	ErrInvalidUser        = errors.New("invalid user")            // 401
	ErrNotFound           = errors.New("not found")               // 404
	ErrForbidden          = errors.New("forbidden")               // 403
	ErrValidation         = errors.New("validation failed")       // 400
	ErrConflict           = errors.New("conflict")                // 409
	ErrInvalidState       = errors.New("invalid state transition") // 409
)

// Per-item failure codes for order creation.
const (
	CodeProductNotFound = "PRODUCT_NOT_FOUND"
	CodeProductInactive = "PRODUCT_INACTIVE"
	CodeOutOfStock      = "OUT_OF_STOCK"
	CodeNotEnoughStock  = "NOT_ENOUGH_STOCK"
	CodeWrongStore      = "WRONG_STORE"
	CodeBadQuantity     = "BAD_QUANTITY"
)

type ItemError struct {
	ProductID uint   `json:"product_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Available *int   `json:"available,omitempty"`
}

// ItemErrors carries every failed order line so the client can fix all of
// them in one round-trip. It unwraps to ErrValidation.
type ItemErrors []ItemError

func (e ItemErrors) Error() string {
	parts := make([]string, len(e))
	for i, it := range e {
		parts[i] = fmt.Sprintf("product %d: %s", it.ProductID, it.Code)
	}
	return "order validation failed: " + strings.Join(parts, "; ")
}

func (e ItemErrors) Unwrap() error {
	return ErrValidation
}
