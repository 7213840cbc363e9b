package orders

import (
	"errors"
	"fmt"
)

var (
	ErrNoItems              = errors.New("order has no items")
	ErrInvalidQuantity      = errors.New("quantity must be between 1 and 100000")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidDiscount      = errors.New("invalid discount")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrProductNotFound      = errors.New("product not found")
	ErrCustomerNotFound     = errors.New("customer not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrStockConflict        = errors.New("stock changed during checkout")
	ErrInvalidTransition    = errors.New("invalid status transition")
)

type StockShortage struct {
	ProductID string `json:"productId"`
	Required  int    `json:"required"`
	Available *int   `json:"available,omitempty"`
}

// StockError wraps ErrInsufficientStock (pre-check) or ErrStockConflict
// (conditional decrement lost a race) with the offending items.
type StockError struct {
	Err   error
	Items []StockShortage
}

func (e *StockError) Error() string {
	if len(e.Items) == 1 {
		return fmt.Sprintf("%v: product %s", e.Err, e.Items[0].ProductID)
	}
	return fmt.Sprintf("%v: %d products", e.Err, len(e.Items))
}

func (e *StockError) Unwrap() error { return e.Err }
