package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ariefcatur/retail-backoffice/internal/redisx"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultRange    = 30 * 24 * time.Hour
	DefaultTopLimit = 5
	MaxTopLimit     = 50

	loadTimeout = 10 * time.Second
)

type Store interface {
	Revenue(ctx context.Context, from time.Time) (decimal.Decimal, int, error)
	CountCustomers(ctx context.Context) (int, error)
	CountProducts(ctx context.Context) (int, error)
	CountLowStock(ctx context.Context, threshold int) (int, error)
	SalesSeries(ctx context.Context, b Bucket, rg Range) ([]SalesPoint, error)
	TopProducts(ctx context.Context, rg Range, limit int) ([]TopProduct, error)
}

type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, v any) error
}

// Service serves dashboard views cache-aside: Redis first, then one
// collapsed database load per key.
type Service struct {
	Store             Store
	Cache             Cache
	LowStockThreshold int
	Log               *slog.Logger
	Now               func() time.Time

	group singleflight.Group
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) logger() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}

// cached serves key from the cache or runs load once for all concurrent
// callers. The shared load runs detached from any one caller's context, under
// loadTimeout; each caller still stops waiting when its own ctx ends.
func cached[T any](ctx context.Context, s *Service, view string, load func(context.Context) (T, error)) (T, error) {
	key := fmt.Sprintf(redisx.KeyDashboard, view)
	var zero T
	if s.Cache != nil {
		var hit T
		found, err := s.Cache.GetJSON(ctx, key, &hit)
		if err != nil {
			s.logger().Warn("dashboard cache read failed", "key", key, "err", err)
		} else if found {
			return hit, nil
		}
	}

	ch := s.group.DoChan(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		v, err := load(lctx)
		if err != nil {
			return nil, err
		}
		if s.Cache != nil {
			if err := s.Cache.SetJSON(lctx, key, v); err != nil {
				s.logger().Warn("dashboard cache write failed", "key", key, "err", err)
			}
		}
		return v, nil
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

func (s *Service) Summary(ctx context.Context) (Summary, error) {
	return cached(ctx, s, "summary", s.loadSummary)
}

func (s *Service) loadSummary(ctx context.Context) (Summary, error) {
	var sum Summary
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sum.Revenue, sum.Orders, err = s.Store.Revenue(ctx, time.Time{})
		return err
	})
	g.Go(func() (err error) {
		sum.TodayRevenue, sum.TodayOrders, err = s.Store.Revenue(ctx, today)
		return err
	})
	g.Go(func() (err error) {
		sum.Customers, err = s.Store.CountCustomers(ctx)
		return err
	})
	g.Go(func() (err error) {
		sum.Products, err = s.Store.CountProducts(ctx)
		return err
	})
	g.Go(func() (err error) {
		sum.LowStock, err = s.Store.CountLowStock(ctx, s.LowStockThreshold)
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	if sum.Orders > 0 {
		sum.AverageOrderValue = sum.Revenue.Div(decimal.NewFromInt(int64(sum.Orders))).Round(2)
	}
	return sum, nil
}

// resolveRange fills a zero from/to with the last DefaultRange up to now.
func (s *Service) resolveRange(rg Range) (Range, error) {
	if rg.To.IsZero() {
		rg.To = s.now()
	}
	if rg.From.IsZero() {
		rg.From = rg.To.Add(-DefaultRange)
	}
	if !rg.From.Before(rg.To) {
		return Range{}, ErrInvalidRange
	}
	return rg, nil
}

func rangeKey(rg Range) string {
	// minute resolution keeps default "last 30 days" requests on one key
	return rg.From.UTC().Truncate(time.Minute).Format(time.RFC3339) + ":" + rg.To.UTC().Truncate(time.Minute).Format(time.RFC3339)
}

func (s *Service) Sales(ctx context.Context, b Bucket, rg Range) ([]SalesPoint, error) {
	if b == "" {
		b = BucketDay
	}
	if !b.Valid() {
		return nil, ErrInvalidBucket
	}
	rg, err := s.resolveRange(rg)
	if err != nil {
		return nil, err
	}
	return cached(ctx, s, "sales:"+string(b)+":"+rangeKey(rg), func(ctx context.Context) ([]SalesPoint, error) {
		return s.Store.SalesSeries(ctx, b, rg)
	})
}

func (s *Service) TopProducts(ctx context.Context, rg Range, limit int) ([]TopProduct, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	if limit > MaxTopLimit {
		limit = MaxTopLimit
	}
	rg, err := s.resolveRange(rg)
	if err != nil {
		return nil, err
	}
	return cached(ctx, s, fmt.Sprintf("top:%d:%s", limit, rangeKey(rg)), func(ctx context.Context) ([]TopProduct, error) {
		return s.Store.TopProducts(ctx, rg, limit)
	})
}
