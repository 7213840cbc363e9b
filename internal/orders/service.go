package orders

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	kafkax "github.com/ariefcatur/retail-backoffice/internal/kafka"
	"github.com/ariefcatur/retail-backoffice/internal/listing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is the persistence surface of the order flow. Every method must be
// safe to call both on the pool and inside a transaction.
type Store interface {
	ProductsByID(ctx context.Context, ids []string) (map[string]ProductSnapshot, error)
	CustomerExists(ctx context.Context, id string) (bool, error)

	// DecrementStock applies stock = stock - qty only when stock >= qty and
	// reports whether a row was updated.
	DecrementStock(ctx context.Context, productID string, qty int) (bool, error)
	RestoreStock(ctx context.Context, productID string, qty int) error

	InsertOrder(ctx context.Context, o *Order) error
	InsertItems(ctx context.Context, items []OrderItem) error
	DeleteOrder(ctx context.Context, orderID string) error

	GetOrder(ctx context.Context, orderID string) (*Order, error)
	ListOrders(ctx context.Context, f Filter) (listing.Page[Order], error)
	// SetStatus updates status only while the row still has status from.
	SetStatus(ctx context.Context, orderID string, from, to Status) (bool, error)
}

// Transactor runs fn against a Store bound to a single database transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(Store) error) error
}

type Service struct {
	Store Store
	// Tx, when set, makes checkout atomic; without it failures are undone by
	// compensating writes.
	Tx          Transactor
	Events      kafkax.Publisher
	TaxRate     decimal.Decimal
	ServiceName string
	Log         *slog.Logger

	Now   func() time.Time
	NewID func() string
}

func (s *Service) logger() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

// CreateOrder validates the request, prices it from current product rows,
// reserves stock with conditional decrements and persists the order. Either
// every item is decremented and the order stored, or no net stock change
// remains and an error is returned.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error) {
	lines, err := MergeLines(in.Items)
	if err != nil {
		return nil, err
	}
	if !in.PaymentMethod.Valid() {
		return nil, ErrInvalidPaymentMethod
	}
	if in.Discount.IsNegative() {
		return nil, ErrInvalidDiscount
	}

	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	products, err := s.Store.ProductsByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	for _, id := range ids {
		if _, ok := products[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
	}

	if in.CustomerID != nil {
		ok, err := s.Store.CustomerExists(ctx, *in.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("load customer: %w", err)
		}
		if !ok {
			return nil, ErrCustomerNotFound
		}
	}

	var short []StockShortage
	for _, l := range lines {
		if p := products[l.ProductID]; p.Stock < l.Quantity {
			available := p.Stock
			short = append(short, StockShortage{ProductID: l.ProductID, Required: l.Quantity, Available: &available})
		}
	}
	if len(short) > 0 {
		return nil, &StockError{Err: ErrInsufficientStock, Items: short}
	}

	quote, err := PriceLines(lines, products, in.Discount, s.TaxRate)
	if err != nil {
		return nil, err
	}
	if !in.ClientTotal.IsZero() && !in.ClientTotal.Equal(quote.Total) {
		s.logger().Debug("client total differs from server total",
			"client_total", in.ClientTotal, "client_tax", in.ClientTax, "total", quote.Total, "tax", quote.Tax)
	}

	now := s.now()
	order := &Order{
		ID:            s.newID(),
		Subtotal:      quote.Subtotal,
		Discount:      quote.Discount,
		Tax:           quote.Tax,
		Total:         quote.Total,
		Status:        StatusCompleted,
		PaymentMethod: in.PaymentMethod,
		CustomerID:    in.CustomerID,
		UserID:        in.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	order.Items = make([]OrderItem, len(lines))
	for i, l := range lines {
		order.Items[i] = OrderItem{
			ID:          s.newID(),
			OrderID:     order.ID,
			ProductID:   l.ProductID,
			ProductName: products[l.ProductID].Name,
			Quantity:    l.Quantity,
			Price:       quote.Prices[l.ProductID],
		}
	}

	if s.Tx != nil {
		err = s.Tx.InTx(ctx, func(st Store) error {
			return s.persist(ctx, st, order, lines, false)
		})
	} else {
		err = s.persist(ctx, s.Store, order, lines, true)
	}
	if err != nil {
		return nil, err
	}

	s.publishCreated(order, in.TraceID)
	return order, nil
}

// persist reserves stock and writes the order. With compensate set, every
// failure after the first decrement replays restores for the items already
// decremented, newest first, and deletes a header that was written.
// Compensation is best effort: its errors are logged and never returned.
func (s *Service) persist(ctx context.Context, st Store, order *Order, lines []Line, compensate bool) error {
	log := s.logger().With("order_id", order.ID)
	// compensations must still run when the request context is already gone
	undoCtx := context.WithoutCancel(ctx)

	applied := make([]Line, 0, len(lines))
	undo := func() {
		if !compensate {
			return
		}
		for i := len(applied) - 1; i >= 0; i-- {
			l := applied[i]
			if err := st.RestoreStock(undoCtx, l.ProductID, l.Quantity); err != nil {
				log.Error("stock compensation failed", "product_id", l.ProductID, "qty", l.Quantity, "err", err)
			}
		}
	}

	for _, l := range lockOrder(lines) {
		ok, err := st.DecrementStock(ctx, l.ProductID, l.Quantity)
		if err != nil {
			undo()
			return fmt.Errorf("decrement stock %s: %w", l.ProductID, err)
		}
		if !ok {
			undo()
			return &StockError{Err: ErrStockConflict, Items: []StockShortage{{ProductID: l.ProductID, Required: l.Quantity}}}
		}
		applied = append(applied, l)
	}

	if err := st.InsertOrder(ctx, order); err != nil {
		undo()
		return fmt.Errorf("insert order: %w", err)
	}
	if err := st.InsertItems(ctx, order.Items); err != nil {
		if compensate {
			if derr := st.DeleteOrder(undoCtx, order.ID); derr != nil {
				log.Error("order header compensation failed", "err", derr)
			}
		}
		undo()
		return fmt.Errorf("insert order items: %w", err)
	}
	return nil
}

// lockOrder sorts lines by product id so concurrent checkouts lock product
// rows in the same order and cannot deadlock each other.
func lockOrder(lines []Line) []Line {
	sorted := slices.Clone(lines)
	slices.SortFunc(sorted, func(a, b Line) int { return strings.Compare(a.ProductID, b.ProductID) })
	return sorted
}

func (s *Service) publishCreated(o *Order, traceID string) {
	if s.Events == nil {
		return
	}
	items := make([]ItemPrice, len(o.Items))
	for i, it := range o.Items {
		items[i] = ItemPrice{ProductID: it.ProductID, Qty: it.Quantity, Price: it.Price}
	}
	env, err := NewEnvelope(EventOrderCreated, s.ServiceName, traceID, o.ID, OrderCreatedPayload{
		OrderID:    o.ID,
		UserID:     o.UserID,
		CustomerID: o.CustomerID,
		Items:      items,
		Total:      o.Total,
	})
	if err != nil {
		s.logger().Error("build order event", "order_id", o.ID, "err", err)
		return
	}
	kafkax.PublishEvent(s.Events, PartitionKey(o.ID), EventOrderCreated, env.EventVersion, env)
}

func (s *Service) GetOrder(ctx context.Context, id string) (*Order, error) {
	return s.Store.GetOrder(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context, f Filter) (listing.Page[Order], error) {
	if f.Status != "" && !f.Status.Valid() {
		return listing.Page[Order]{}, ErrInvalidStatus
	}
	return s.Store.ListOrders(ctx, f)
}

// UpdateStatus moves an order along the status graph. Stock is never touched.
func (s *Service) UpdateStatus(ctx context.Context, id string, to Status) (*Order, error) {
	if !to.Valid() {
		return nil, ErrInvalidStatus
	}
	o, err := s.Store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
	}
	ok, err := s.Store.SetStatus(ctx, id, o.Status, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		// someone else moved it first
		return nil, fmt.Errorf("%w: status changed concurrently", ErrInvalidTransition)
	}
	return s.Store.GetOrder(ctx, id)
}
