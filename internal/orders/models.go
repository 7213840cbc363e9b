package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductSnapshot is the slice of a product row checkout prices and reserves against.
type ProductSnapshot struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Stock int
}

type Order struct {
	ID            string          `json:"id"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	Status        Status          `json:"status"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	CustomerID    *string         `json:"customerId"`
	UserID        string          `json:"userId"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	Items         []OrderItem     `json:"items,omitempty"`
}

// OrderItem.Price is the unit price at sale time, independent of later product price changes.
type OrderItem struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"orderId"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type ItemInput struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=100000"`
}

type CreateOrderInput struct {
	Items         []ItemInput
	CustomerID    *string
	PaymentMethod PaymentMethod
	Discount      decimal.Decimal
	// Client-side figures, kept for display and mismatch logging only.
	ClientTax   decimal.Decimal
	ClientTotal decimal.Decimal
	UserID      string
	TraceID     string
}

type Filter struct {
	Status     Status
	CustomerID string
	From, To   time.Time
	Page       int
	PageSize   int
}
