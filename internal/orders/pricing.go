package orders

import (
	"github.com/shopspring/decimal"
)

// MaxQuantity caps one product's quantity in an order, after merging.
const MaxQuantity = 100000

type Line struct {
	ProductID string
	Quantity  int
}

type Quote struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
	Prices   map[string]decimal.Decimal
}

// MergeLines validates quantities (1..MaxQuantity) and folds repeated product ids into one line,
// keeping first-seen order.
func MergeLines(items []ItemInput) ([]Line, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	idx := make(map[string]int, len(items))
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		if it.Quantity <= 0 || it.Quantity > MaxQuantity {
			return nil, ErrInvalidQuantity
		}
		if i, ok := idx[it.ProductID]; ok {
			if lines[i].Quantity > MaxQuantity-it.Quantity {
				return nil, ErrInvalidQuantity
			}
			lines[i].Quantity += it.Quantity
			continue
		}
		idx[it.ProductID] = len(lines)
		lines = append(lines, Line{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return lines, nil
}

// PriceLines computes the authoritative totals from current product prices:
// tax = round2((subtotal - discount) * taxRate), total = subtotal - discount + tax.
func PriceLines(lines []Line, products map[string]ProductSnapshot, discount, taxRate decimal.Decimal) (Quote, error) {
	if discount.IsNegative() {
		return Quote{}, ErrInvalidDiscount
	}
	q := Quote{Prices: make(map[string]decimal.Decimal, len(lines))}
	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok {
			return Quote{}, ErrProductNotFound
		}
		q.Prices[l.ProductID] = p.Price
		q.Subtotal = q.Subtotal.Add(p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	q.Subtotal = q.Subtotal.Round(2)
	q.Discount = discount.Round(2)
	if q.Discount.GreaterThan(q.Subtotal) {
		return Quote{}, ErrInvalidDiscount
	}
	taxable := q.Subtotal.Sub(q.Discount)
	q.Tax = taxable.Mul(taxRate).Round(2)
	q.Total = taxable.Add(q.Tax)
	return q, nil
}
