package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkax "github.com/ariefcatur/retail-backoffice/internal/kafka"
	"github.com/ariefcatur/retail-backoffice/internal/orders"
	"github.com/ariefcatur/retail-backoffice/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

type StockReader interface {
	StockLevels(ctx context.Context, ids []string) (map[string]int, error)
}

type CacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) (int, error)
}

// Watcher reacts to sales and stock adjustments: it keeps the low-stock alert
// set current and drops cached dashboards.
type Watcher struct {
	Stock       StockReader
	Alerts      *AlertSet
	Redis       redis.Cmdable
	Dashboards  CacheInvalidator
	Threshold   int
	ServiceName string
	Log         *slog.Logger
}

func (w *Watcher) logger() *slog.Logger {
	if w.Log == nil {
		return slog.Default()
	}
	return w.Log
}

// HandleMessage is installed as the consumer handler.
func (w *Watcher) HandleMessage(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// poison message: log and let the offset move on
		w.logger().Error("decode envelope", "topic", m.Topic, "offset", m.Offset, "err", err)
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, w.ServiceName, env.EventID)
	if seen, _ := redisx.Exists(ctx, w.Redis, dkey); seen {
		return nil
	}

	var ids []string
	switch env.EventType {
	case orders.EventOrderCreated:
		p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
		if err != nil {
			return err
		}
		for _, it := range p.Items {
			ids = append(ids, it.ProductID)
		}
	case orders.EventStockAdjusted:
		p, err := kafkax.UnwrapPayload[orders.StockAdjustedPayload](env.Payload)
		if err != nil {
			return err
		}
		ids = append(ids, p.ProductID)
	default:
		return nil
	}

	if err := w.refresh(ctx, ids); err != nil {
		return err
	}
	if _, err := w.Dashboards.DeleteByPattern(ctx, redisx.KeyDashboardPrefix); err != nil {
		w.logger().Warn("dashboard cache invalidation failed", "err", err)
	}
	_ = w.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	return nil
}

func (w *Watcher) refresh(ctx context.Context, ids []string) error {
	levels, err := w.Stock.StockLevels(ctx, ids)
	if err != nil {
		return fmt.Errorf("stock levels: %w", err)
	}
	for _, id := range ids {
		stock, ok := levels[id]
		if ok && stock <= w.Threshold {
			if err := w.Alerts.Flag(ctx, id); err != nil {
				return err
			}
			w.logger().Warn("low stock", "product_id", id, "stock", stock, "threshold", w.Threshold)
			continue
		}
		if err := w.Alerts.Clear(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
