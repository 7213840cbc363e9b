package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	kafkax "github.com/ariefcatur/retail-backoffice/internal/kafka"
	"github.com/ariefcatur/retail-backoffice/internal/listing"
	"github.com/ariefcatur/retail-backoffice/internal/orders"
	"github.com/ariefcatur/retail-backoffice/internal/redisx"
	"github.com/google/uuid"
)

type Store interface {
	ListProducts(ctx context.Context, f ProductFilter, lowStockThreshold int) (listing.Page[Product], error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	CreateProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id string) error

	IncreaseStock(ctx context.Context, id string, qty int) (int, error)
	DecreaseStock(ctx context.Context, id string, qty int) (int, error)
	SetStock(ctx context.Context, id string, qty int) (int, error)
	StockLevels(ctx context.Context, ids []string) (map[string]int, error)

	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, id string) error
}

type Service struct {
	Store             Store
	Alerts            *AlertSet
	Events            kafkax.Publisher
	// Dashboards drops cached dashboard counts when products come or go.
	Dashboards        CacheInvalidator
	ServiceName       string
	LowStockThreshold int
	Log               *slog.Logger
	NewID             func() string
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) logger() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}

func (s *Service) ListProducts(ctx context.Context, f ProductFilter) (listing.Page[Product], error) {
	return s.Store.ListProducts(ctx, f, s.LowStockThreshold)
}

func (s *Service) GetProduct(ctx context.Context, id string) (*Product, error) {
	return s.Store.GetProduct(ctx, id)
}

func validateProduct(in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.SKU) == "" {
		return ErrInvalidName
	}
	if !in.Price.IsPositive() {
		return ErrInvalidPrice
	}
	if in.Stock < 0 {
		return ErrInvalidAdjustment
	}
	return nil
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}
	p := &Product{
		ID:         s.newID(),
		SKU:        strings.TrimSpace(in.SKU),
		Name:       strings.TrimSpace(in.Name),
		Price:      in.Price.Round(2),
		Stock:      in.Stock,
		CategoryID: in.CategoryID,
	}
	if err := s.Store.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	s.invalidateDashboards(ctx)
	return p, nil
}

// UpdateProduct changes catalog fields; in.Stock is ignored.
func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput) (*Product, error) {
	in.Stock = 0
	if err := validateProduct(in); err != nil {
		return nil, err
	}
	p := &Product{
		ID:         id,
		SKU:        strings.TrimSpace(in.SKU),
		Name:       strings.TrimSpace(in.Name),
		Price:      in.Price.Round(2),
		CategoryID: in.CategoryID,
	}
	if err := s.Store.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.Store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.invalidateDashboards(ctx)
	return nil
}

func (s *Service) invalidateDashboards(ctx context.Context) {
	if s.Dashboards == nil {
		return
	}
	if _, err := s.Dashboards.DeleteByPattern(ctx, redisx.KeyDashboardPrefix); err != nil {
		s.logger().Warn("dashboard cache invalidation failed", "err", err)
	}
}

// AdjustStock applies a manual adjustment. Decrease is conditional on enough
// stock; set replaces the level outright.
func (s *Service) AdjustStock(ctx context.Context, id string, adj StockAdjustment, traceID string) (*Product, error) {
	if adj.Quantity > orders.MaxQuantity {
		return nil, ErrInvalidAdjustment
	}
	var (
		stock int
		err   error
	)
	switch adj.Action {
	case StockIncrease:
		if adj.Quantity < 1 {
			return nil, ErrInvalidAdjustment
		}
		stock, err = s.Store.IncreaseStock(ctx, id, adj.Quantity)
	case StockDecrease:
		if adj.Quantity < 1 {
			return nil, ErrInvalidAdjustment
		}
		stock, err = s.Store.DecreaseStock(ctx, id, adj.Quantity)
	case StockSet:
		if adj.Quantity < 0 {
			return nil, ErrInvalidAdjustment
		}
		stock, err = s.Store.SetStock(ctx, id, adj.Quantity)
	default:
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidAdjustment, adj.Action)
	}
	if err != nil {
		return nil, err
	}

	s.logger().Info("stock adjusted", "product_id", id, "action", adj.Action, "qty", adj.Quantity, "stock", stock)
	s.publishAdjusted(id, adj, stock, traceID)
	return s.Store.GetProduct(ctx, id)
}

func (s *Service) publishAdjusted(id string, adj StockAdjustment, stock int, traceID string) {
	if s.Events == nil {
		return
	}
	env, err := orders.NewEnvelope(orders.EventStockAdjusted, s.ServiceName, traceID, id, orders.StockAdjustedPayload{
		ProductID: id,
		Action:    string(adj.Action),
		Quantity:  adj.Quantity,
		Stock:     stock,
	})
	if err != nil {
		s.logger().Error("build stock event", "product_id", id, "err", err)
		return
	}
	kafkax.PublishEvent(s.Events, orders.PartitionKey(id), orders.EventStockAdjusted, env.EventVersion, env)
}

// LowStockAlerts lists the products the stock watcher flagged, with their current stock.
func (s *Service) LowStockAlerts(ctx context.Context) ([]Alert, error) {
	if s.Alerts == nil {
		return []Alert{}, nil
	}
	ids, err := s.Alerts.Members(ctx)
	if err != nil {
		return nil, err
	}
	levels, err := s.Store.StockLevels(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]Alert, 0, len(ids))
	for _, id := range ids {
		stock, ok := levels[id]
		if !ok {
			continue // product deleted since it was flagged
		}
		out = append(out, Alert{ProductID: id, Stock: stock})
	}
	return out, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.Store.ListCategories(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	c := &Category{ID: s.newID(), Name: name}
	if err := s.Store.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	return s.Store.DeleteCategory(ctx, id)
}
