package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ariefcatur/retail-backoffice/internal/orders"
	"github.com/ariefcatur/retail-backoffice/internal/redisx"
	"github.com/go-redis/redismock/v9"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInvalidator struct {
	patterns []string
	err      error
}

func (f *fakeInvalidator) DeleteByPattern(_ context.Context, pattern string) (int, error) {
	f.patterns = append(f.patterns, pattern)
	return 1, f.err
}

func envelope(t *testing.T, id, eventType string, payload any) kafka.Message {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	v, err := json.Marshal(orders.Envelope{
		EventID:      id,
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "retail-api",
		Payload:      b,
	})
	require.NoError(t, err)
	return kafka.Message{Topic: "order.created", Value: v}
}

func newWatcher(t *testing.T, st *memStore) (*Watcher, redismock.ClientMock, *fakeInvalidator) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	inv := &fakeInvalidator{}
	return &Watcher{
		Stock:       st,
		Alerts:      &AlertSet{Redis: db},
		Redis:       db,
		Dashboards:  inv,
		Threshold:   5,
		ServiceName: "stockwatch",
		Log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, mock, inv
}

func TestWatcher_OrderCreatedFlagsLowStock(t *testing.T) {
	st := newMemStore(product("p1", "Milk", 2), product("p2", "Eggs", 50))
	w, mock, inv := newWatcher(t, st)

	msg := envelope(t, "evt-1", orders.EventOrderCreated, orders.OrderCreatedPayload{
		OrderID: "o-1",
		Items: []orders.ItemPrice{
			{ProductID: "p1", Qty: 1, Price: decimal.NewFromInt(1)},
			{ProductID: "p2", Qty: 1, Price: decimal.NewFromInt(1)},
		},
	})

	mock.ExpectExists("dedup:stockwatch:evt-1").SetVal(0)
	mock.ExpectSAdd(redisx.KeyLowStock, "p1").SetVal(1)
	mock.ExpectSRem(redisx.KeyLowStock, "p2").SetVal(0)
	mock.ExpectSet("dedup:stockwatch:evt-1", "1", redisx.TTLDedup).SetVal("OK")

	require.NoError(t, w.HandleMessage(context.Background(), msg))
	assert.Equal(t, []string{redisx.KeyDashboardPrefix}, inv.patterns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWatcher_StockAdjustedClearsAlert(t *testing.T) {
	st := newMemStore(product("p1", "Milk", 40))
	w, mock, _ := newWatcher(t, st)

	msg := envelope(t, "evt-2", orders.EventStockAdjusted, orders.StockAdjustedPayload{
		ProductID: "p1", Action: "increase", Quantity: 38, Stock: 40,
	})

	mock.ExpectExists("dedup:stockwatch:evt-2").SetVal(0)
	mock.ExpectSRem(redisx.KeyLowStock, "p1").SetVal(1)
	mock.ExpectSet("dedup:stockwatch:evt-2", "1", redisx.TTLDedup).SetVal("OK")

	require.NoError(t, w.HandleMessage(context.Background(), msg))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWatcher_SkipsDuplicates(t *testing.T) {
	w, mock, inv := newWatcher(t, newMemStore())

	msg := envelope(t, "evt-3", orders.EventStockAdjusted, orders.StockAdjustedPayload{ProductID: "p1"})
	mock.ExpectExists("dedup:stockwatch:evt-3").SetVal(1)

	require.NoError(t, w.HandleMessage(context.Background(), msg))
	assert.Empty(t, inv.patterns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWatcher_IgnoresPoisonAndUnknownEvents(t *testing.T) {
	w, mock, inv := newWatcher(t, newMemStore())

	require.NoError(t, w.HandleMessage(context.Background(), kafka.Message{Value: []byte("not json")}))

	mock.ExpectExists("dedup:stockwatch:evt-4").SetVal(0)
	require.NoError(t, w.HandleMessage(context.Background(), envelope(t, "evt-4", "PaymentFailed", map[string]string{})))

	assert.Empty(t, inv.patterns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWatcher_ZeroValueLogger(t *testing.T) {
	w := &Watcher{}
	assert.NotPanics(t, func() {
		assert.NoError(t, w.HandleMessage(context.Background(), kafka.Message{Value: []byte("{")}))
	})
}

func TestWatcher_RedisFailureIsRetried(t *testing.T) {
	st := newMemStore(product("p1", "Milk", 1))
	w, mock, _ := newWatcher(t, st)

	msg := envelope(t, "evt-5", orders.EventStockAdjusted, orders.StockAdjustedPayload{ProductID: "p1"})
	mock.ExpectExists("dedup:stockwatch:evt-5").SetVal(0)
	mock.ExpectSAdd(redisx.KeyLowStock, "p1").SetErr(errors.New("READONLY"))

	err := w.HandleMessage(context.Background(), msg)
	assert.Error(t, err, "handler error keeps the offset uncommitted")
	assert.NoError(t, mock.ExpectationsWereMet())
}
