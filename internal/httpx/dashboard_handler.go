package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/retail-backoffice/internal/analytics"
	"github.com/go-chi/chi/v5"
)

type DashboardService interface {
	Summary(ctx context.Context) (analytics.Summary, error)
	Sales(ctx context.Context, b analytics.Bucket, rg analytics.Range) ([]analytics.SalesPoint, error)
	TopProducts(ctx context.Context, rg analytics.Range, limit int) ([]analytics.TopProduct, error)
}

type DashboardHandler struct {
	Dashboard DashboardService
}

func (h *DashboardHandler) Register(r chi.Router) {
	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/summary", h.summary)
		r.Get("/sales", h.sales)
		r.Get("/top-products", h.topProducts)
	})
}

func rangeFrom(r *http.Request) (analytics.Range, error) {
	var (
		rg  analytics.Range
		err error
	)
	if rg.From, err = queryTime(r, "from"); err != nil {
		return rg, err
	}
	rg.To, err = queryTime(r, "to")
	return rg, err
}

func (h *DashboardHandler) summary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	s, err := h.Dashboard.Summary(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *DashboardHandler) sales(w http.ResponseWriter, r *http.Request) {
	rg, err := rangeFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	points, err := h.Dashboard.Sales(ctx, analytics.Bucket(r.URL.Query().Get("bucket")), rg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (h *DashboardHandler) topProducts(w http.ResponseWriter, r *http.Request) {
	rg, err := rangeFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	top, err := h.Dashboard.TopProducts(ctx, rg, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, top)
}
