package httpx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ariefcatur/retail-backoffice/internal/listing"
	"github.com/ariefcatur/retail-backoffice/internal/orders"
	"github.com/ariefcatur/retail-backoffice/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type OrderService interface {
	CreateOrder(ctx context.Context, in orders.CreateOrderInput) (*orders.Order, error)
	GetOrder(ctx context.Context, id string) (*orders.Order, error)
	ListOrders(ctx context.Context, f orders.Filter) (listing.Page[orders.Order], error)
	UpdateStatus(ctx context.Context, id string, to orders.Status) (*orders.Order, error)
}

type OrdersHandler struct {
	Orders OrderService
	// Redis backs Idempotency-Key replays; nil disables them.
	Redis         redis.Cmdable
	DefaultUserID string
	Log           *slog.Logger
}

type createOrderReq struct {
	Items         []orders.ItemInput `json:"items" validate:"required,min=1,dive"`
	CustomerID    *string            `json:"customerId" validate:"omitempty,uuid"`
	PaymentMethod string             `json:"paymentMethod" validate:"required"`
	Discount      decimal.Decimal    `json:"discount"`
	Tax           decimal.Decimal    `json:"tax"`
	Total         decimal.Decimal    `json:"total"`
}

type updateStatusReq struct {
	Status string `json:"status" validate:"required"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.createOrder)
		r.Get("/", h.listOrders)
		r.Get("/{id}", h.getOrder)
		r.Patch("/{id}/status", h.updateStatus)
	})
}

func (h *OrdersHandler) logger() *slog.Logger {
	if h.Log == nil {
		return slog.Default()
	}
	return h.Log
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	// Fast-path idempotency via Redis: a replayed key returns the stored order.
	var idemKey string
	if k := r.Header.Get("Idempotency-Key"); k != "" && h.Redis != nil {
		idemKey = fmt.Sprintf(redisx.KeyIdemOrderCreate, k)
		orderID, err := h.Redis.Get(ctx, idemKey).Result()
		switch {
		case err == nil:
			o, err := h.Orders.GetOrder(ctx, orderID)
			if err == nil {
				writeJSON(w, http.StatusOK, o)
				return
			}
			if !errors.Is(err, orders.ErrOrderNotFound) {
				writeError(w, err)
				return
			}
		case !errors.Is(err, redis.Nil):
			h.logger().Warn("idempotency lookup failed", "key", idemKey, "err", err)
		}
	}

	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		userID = h.DefaultUserID
	}

	o, err := h.Orders.CreateOrder(ctx, orders.CreateOrderInput{
		Items:         req.Items,
		CustomerID:    req.CustomerID,
		PaymentMethod: orders.PaymentMethod(req.PaymentMethod),
		Discount:      req.Discount,
		ClientTax:     req.Tax,
		ClientTotal:   req.Total,
		UserID:        userID,
		TraceID:       middleware.GetReqID(r.Context()),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if idemKey != "" {
		if err := h.Redis.Set(ctx, idemKey, o.ID, redisx.TTLIdempotency).Err(); err != nil {
			h.logger().Warn("idempotency store failed", "key", idemKey, "order_id", o.ID, "err", err)
		}
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	f := orders.Filter{
		Status:     orders.Status(r.URL.Query().Get("status")),
		CustomerID: r.URL.Query().Get("customerId"),
	}
	var err error
	if f.CustomerID != "" {
		if _, err = pathID(f.CustomerID); err != nil {
			writeError(w, badQuery("customerId"))
			return
		}
	}
	if f.From, err = queryTime(r, "from"); err != nil {
		writeError(w, err)
		return
	}
	if f.To, err = queryTime(r, "to"); err != nil {
		writeError(w, err)
		return
	}
	if f.Page, err = queryInt(r, "page"); err != nil {
		writeError(w, err)
		return
	}
	if f.PageSize, err = queryInt(r, "pageSize"); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	page, err := h.Orders.ListOrders(ctx, f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	o, err := h.Orders.GetOrder(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateStatusReq
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	o, err := h.Orders.UpdateStatus(ctx, id, orders.Status(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
