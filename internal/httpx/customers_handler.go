package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/retail-backoffice/internal/customers"
	"github.com/ariefcatur/retail-backoffice/internal/listing"
	"github.com/go-chi/chi/v5"
)

type CustomerService interface {
	List(ctx context.Context, f customers.Filter) (listing.Page[customers.Customer], error)
	Get(ctx context.Context, id string) (*customers.Customer, error)
	Create(ctx context.Context, in customers.Input) (*customers.Customer, error)
	Update(ctx context.Context, id string, in customers.Input) (*customers.Customer, error)
	Delete(ctx context.Context, id string) error
}

type CustomersHandler struct {
	Customers CustomerService
}

func (h *CustomersHandler) Register(r chi.Router) {
	r.Route("/customers", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

func (h *CustomersHandler) list(w http.ResponseWriter, r *http.Request) {
	f := customers.Filter{Query: r.URL.Query().Get("q")}
	var err error
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

	page, err := h.Customers.List(ctx, f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *CustomersHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	c, err := h.Customers.Get(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CustomersHandler) create(w http.ResponseWriter, r *http.Request) {
	var in customers.Input
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	c, err := h.Customers.Create(ctx, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *CustomersHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var in customers.Input
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	c, err := h.Customers.Update(ctx, id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CustomersHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	if err := h.Customers.Delete(ctx, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
