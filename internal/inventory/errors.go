package inventory

import "errors"

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrDuplicateSKU      = errors.New("sku already exists")
	ErrDuplicateCategory = errors.New("category already exists")
	ErrProductInUse      = errors.New("product is referenced by orders")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidAdjustment = errors.New("invalid stock adjustment")
	ErrInvalidPrice      = errors.New("price must be positive")
	ErrInvalidName       = errors.New("name is required")
)
