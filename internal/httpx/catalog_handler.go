package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/retail-backoffice/internal/inventory"
	"github.com/ariefcatur/retail-backoffice/internal/listing"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type CatalogService interface {
	ListProducts(ctx context.Context, f inventory.ProductFilter) (listing.Page[inventory.Product], error)
	GetProduct(ctx context.Context, id string) (*inventory.Product, error)
	CreateProduct(ctx context.Context, in inventory.ProductInput) (*inventory.Product, error)
	UpdateProduct(ctx context.Context, id string, in inventory.ProductInput) (*inventory.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	AdjustStock(ctx context.Context, id string, adj inventory.StockAdjustment, traceID string) (*inventory.Product, error)
	LowStockAlerts(ctx context.Context) ([]inventory.Alert, error)
	ListCategories(ctx context.Context) ([]inventory.Category, error)
	CreateCategory(ctx context.Context, name string) (*inventory.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// CatalogHandler serves products, categories, stock adjustments and low-stock alerts.
type CatalogHandler struct {
	Catalog CatalogService
}

type createCategoryReq struct {
	Name string `json:"name" validate:"required,max=100"`
}

func (h *CatalogHandler) Register(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Post("/", h.createProduct)
		r.Get("/{id}", h.getProduct)
		r.Put("/{id}", h.updateProduct)
		r.Delete("/{id}", h.deleteProduct)
		r.Post("/{id}/stock", h.adjustStock)
	})
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.listCategories)
		r.Post("/", h.createCategory)
		r.Delete("/{id}", h.deleteCategory)
	})
	r.Get("/inventory/alerts", h.alerts)
}

func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := inventory.ProductFilter{
		Query:      q.Get("q"),
		CategoryID: q.Get("categoryId"),
		LowStock:   q.Get("lowStock") == "true",
		Sort:       q.Get("sort"),
		Order:      q.Get("order"),
	}
	var err error
	if f.CategoryID != "" {
		if _, err = pathID(f.CategoryID); err != nil {
			writeError(w, badQuery("categoryId"))
			return
		}
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

	page, err := h.Catalog.ListProducts(ctx, f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *CatalogHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	p, err := h.Catalog.GetProduct(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in inventory.ProductInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	p, err := h.Catalog.CreateProduct(ctx, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *CatalogHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var in inventory.ProductInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	p, err := h.Catalog.UpdateProduct(ctx, id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	if err := h.Catalog.DeleteProduct(ctx, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) adjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var adj inventory.StockAdjustment
	if err := decode(r, &adj); err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	p, err := h.Catalog.AdjustStock(ctx, id, adj, middleware.GetReqID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) alerts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	alerts, err := h.Catalog.LowStockAlerts(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (h *CatalogHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	cs, err := h.Catalog.ListCategories(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *CatalogHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryReq
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	c, err := h.Catalog.CreateCategory(ctx, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *CatalogHandler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	if err := h.Catalog.DeleteCategory(ctx, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
