// Package customers stores the shop's customer records.
package customers

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ariefcatur/retail-backoffice/internal/listing"
	"github.com/ariefcatur/retail-backoffice/internal/redisx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound       = errors.New("customer not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrInvalidName    = errors.New("name is required")
)

type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// filled on single-customer reads
	OrderCount int              `json:"orderCount"`
	TotalSpent *decimal.Decimal `json:"totalSpent,omitempty"`
}

type Input struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Phone   string  `json:"phone" validate:"max=40"`
	Address string  `json:"address" validate:"max=500"`
}

type Filter struct {
	Query    string
	Page     int
	PageSize int
}

type Store interface {
	List(ctx context.Context, f Filter) (listing.Page[Customer], error)
	Get(ctx context.Context, id string) (*Customer, error)
	Create(ctx context.Context, c *Customer) error
	Update(ctx context.Context, c *Customer) error
	Delete(ctx context.Context, id string) error
}

// DashboardCache is the part of the dashboard cache that customer writes invalidate.
type DashboardCache interface {
	DeleteByPattern(ctx context.Context, pattern string) (int, error)
}

type Service struct {
	Store      Store
	Dashboards DashboardCache
	Log        *slog.Logger
	NewID      func() string
}

// invalidate drops cached dashboards, whose customer count just changed.
func (s *Service) invalidate(ctx context.Context) {
	if s.Dashboards == nil {
		return
	}
	if _, err := s.Dashboards.DeleteByPattern(ctx, redisx.KeyDashboardPrefix); err != nil {
		log := s.Log
		if log == nil {
			log = slog.Default()
		}
		log.Warn("dashboard cache invalidation failed", "err", err)
	}
}

func (s *Service) List(ctx context.Context, f Filter) (listing.Page[Customer], error) {
	return s.Store.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, id string) (*Customer, error) {
	return s.Store.Get(ctx, id)
}

func normalize(in Input) (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, ErrInvalidName
	}
	if in.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*in.Email))
		if e == "" {
			in.Email = nil
		} else {
			in.Email = &e
		}
	}
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	return in, nil
}

func (s *Service) Create(ctx context.Context, in Input) (*Customer, error) {
	in, err := normalize(in)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	if s.NewID != nil {
		id = s.NewID()
	}
	c := &Customer{ID: id, Name: in.Name, Email: in.Email, Phone: in.Phone, Address: in.Address}
	if err := s.Store.Create(ctx, c); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return c, nil
}

func (s *Service) Update(ctx context.Context, id string, in Input) (*Customer, error) {
	in, err := normalize(in)
	if err != nil {
		return nil, err
	}
	c := &Customer{ID: id, Name: in.Name, Email: in.Email, Phone: in.Phone, Address: in.Address}
	if err := s.Store.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes the customer; their orders stay, detached.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}
