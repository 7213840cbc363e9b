package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID           string          `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	CategoryID   *string         `json:"categoryId"`
	CategoryName *string         `json:"categoryName,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

type ProductInput struct {
	SKU        string          `json:"sku" validate:"required,max=64"`
	Name       string          `json:"name" validate:"required,max=200"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock" validate:"min=0"`
	CategoryID *string         `json:"categoryId" validate:"omitempty,uuid"`
}

type ProductFilter struct {
	Query      string
	CategoryID string
	LowStock   bool
	Sort       string // name | price | stock | created_at
	Order      string // asc | desc
	Page       int
	PageSize   int
}

type Category struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ProductCount int       `json:"productCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

type StockAction string

const (
	StockIncrease StockAction = "increase"
	StockDecrease StockAction = "decrease"
	StockSet      StockAction = "set"
)

type StockAdjustment struct {
	Action   StockAction `json:"action" validate:"required,oneof=increase decrease set"`
	Quantity int         `json:"quantity" validate:"min=0,max=100000"`
}

type Alert struct {
	ProductID string `json:"productId"`
	Stock     int    `json:"stock"`
}
