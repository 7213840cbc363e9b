package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ariefcatur/retail-backoffice/internal/analytics"
	"github.com/ariefcatur/retail-backoffice/internal/customers"
	"github.com/ariefcatur/retail-backoffice/internal/inventory"
	"github.com/ariefcatur/retail-backoffice/internal/listing"
	"github.com/ariefcatur/retail-backoffice/internal/orders"
)

const (
	orderID    = "7f1c2a9e-3b7d-4c55-9d0e-111111111111"
	productID  = "7f1c2a9e-3b7d-4c55-9d0e-222222222222"
	customerID = "7f1c2a9e-3b7d-4c55-9d0e-333333333333"
)

type fakeOrders struct {
	created   []orders.CreateOrderInput
	createErr error
	order     *orders.Order
	getErr    error
	filter    orders.Filter
	statusTo  orders.Status
	statusErr error
}

func (f *fakeOrders) CreateOrder(_ context.Context, in orders.CreateOrderInput) (*orders.Order, error) {
	f.created = append(f.created, in)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &orders.Order{ID: orderID, Status: orders.StatusCompleted, UserID: in.UserID}, nil
}

func (f *fakeOrders) GetOrder(_ context.Context, id string) (*orders.Order, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.order != nil {
		return f.order, nil
	}
	return &orders.Order{ID: id, Status: orders.StatusCompleted}, nil
}

func (f *fakeOrders) ListOrders(_ context.Context, flt orders.Filter) (listing.Page[orders.Order], error) {
	f.filter = flt
	return listing.NewPage[orders.Order](nil, listing.Params{Page: flt.Page, PageSize: flt.PageSize}, 0), nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id string, to orders.Status) (*orders.Order, error) {
	f.statusTo = to
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return &orders.Order{ID: id, Status: to}, nil
}

type fakeCatalog struct {
	filter    inventory.ProductFilter
	adj       inventory.StockAdjustment
	traceID   string
	err       error
	deletedID string
}

func (f *fakeCatalog) ListProducts(_ context.Context, flt inventory.ProductFilter) (listing.Page[inventory.Product], error) {
	f.filter = flt
	return listing.NewPage([]inventory.Product{{ID: productID, Name: "Kopi"}}, listing.Params{}, 1), f.err
}

func (f *fakeCatalog) GetProduct(_ context.Context, id string) (*inventory.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &inventory.Product{ID: id, Name: "Kopi"}, nil
}

func (f *fakeCatalog) CreateProduct(_ context.Context, in inventory.ProductInput) (*inventory.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &inventory.Product{ID: productID, SKU: in.SKU, Name: in.Name, Price: in.Price, Stock: in.Stock}, nil
}

func (f *fakeCatalog) UpdateProduct(_ context.Context, id string, in inventory.ProductInput) (*inventory.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &inventory.Product{ID: id, SKU: in.SKU, Name: in.Name}, nil
}

func (f *fakeCatalog) DeleteProduct(_ context.Context, id string) error {
	f.deletedID = id
	return f.err
}

func (f *fakeCatalog) AdjustStock(_ context.Context, id string, adj inventory.StockAdjustment, traceID string) (*inventory.Product, error) {
	f.adj, f.traceID = adj, traceID
	if f.err != nil {
		return nil, f.err
	}
	return &inventory.Product{ID: id, Stock: adj.Quantity}, nil
}

func (f *fakeCatalog) LowStockAlerts(context.Context) ([]inventory.Alert, error) {
	return []inventory.Alert{{ProductID: productID, Stock: 2}}, f.err
}

func (f *fakeCatalog) ListCategories(context.Context) ([]inventory.Category, error) {
	return []inventory.Category{}, f.err
}

func (f *fakeCatalog) CreateCategory(_ context.Context, name string) (*inventory.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &inventory.Category{ID: productID, Name: name}, nil
}

func (f *fakeCatalog) DeleteCategory(_ context.Context, id string) error {
	f.deletedID = id
	return f.err
}

type fakeCustomers struct {
	err     error
	deleted string
}

func (f *fakeCustomers) List(_ context.Context, flt customers.Filter) (listing.Page[customers.Customer], error) {
	return listing.NewPage[customers.Customer](nil, listing.Params{Page: flt.Page, PageSize: flt.PageSize}, 0), f.err
}

func (f *fakeCustomers) Get(_ context.Context, id string) (*customers.Customer, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &customers.Customer{ID: id, Name: "Sari"}, nil
}

func (f *fakeCustomers) Create(_ context.Context, in customers.Input) (*customers.Customer, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &customers.Customer{ID: customerID, Name: in.Name, Email: in.Email}, nil
}

func (f *fakeCustomers) Update(_ context.Context, id string, in customers.Input) (*customers.Customer, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &customers.Customer{ID: id, Name: in.Name}, nil
}

func (f *fakeCustomers) Delete(_ context.Context, id string) error {
	f.deleted = id
	return f.err
}

type fakeDashboard struct {
	bucket analytics.Bucket
	rg     analytics.Range
	limit  int
	err    error
}

func (f *fakeDashboard) Summary(context.Context) (analytics.Summary, error) {
	return analytics.Summary{Orders: 3}, f.err
}

func (f *fakeDashboard) Sales(_ context.Context, b analytics.Bucket, rg analytics.Range) ([]analytics.SalesPoint, error) {
	f.bucket, f.rg = b, rg
	if f.err != nil {
		return nil, f.err
	}
	return []analytics.SalesPoint{}, nil
}

func (f *fakeDashboard) TopProducts(_ context.Context, rg analytics.Range, limit int) ([]analytics.TopProduct, error) {
	f.rg, f.limit = rg, limit
	return []analytics.TopProduct{}, f.err
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
