package inventory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ariefcatur/retail-backoffice/internal/listing"
	"github.com/shopspring/decimal"
)

type memStore struct {
	mu         sync.Mutex
	products   map[string]Product
	categories map[string]Category
	inUse      map[string]bool
}

func newMemStore(products ...Product) *memStore {
	m := &memStore{products: map[string]Product{}, categories: map[string]Category{}, inUse: map[string]bool{}}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *memStore) ListProducts(_ context.Context, f ProductFilter, threshold int) (listing.Page[Product], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Product
	for _, p := range m.products {
		if f.LowStock && p.Stock > threshold {
			continue
		}
		if f.Query != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Query)) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return listing.NewPage(out, listing.Params{Page: f.Page, PageSize: f.PageSize}, len(out)), nil
}

func (m *memStore) GetProduct(_ context.Context, id string) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &p, nil
}

func (m *memStore) CreateProduct(_ context.Context, p *Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.products {
		if existing.SKU == p.SKU {
			return ErrDuplicateSKU
		}
	}
	m.products[p.ID] = *p
	return nil
}

func (m *memStore) UpdateProduct(_ context.Context, p *Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.products[p.ID]
	if !ok {
		return ErrProductNotFound
	}
	p.Stock = cur.Stock
	m.products[p.ID] = *p
	return nil
}

func (m *memStore) DeleteProduct(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return ErrProductNotFound
	}
	if m.inUse[id] {
		return ErrProductInUse
	}
	delete(m.products, id)
	return nil
}

func (m *memStore) adjust(id string, fn func(int) (int, error)) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return 0, ErrProductNotFound
	}
	n, err := fn(p.Stock)
	if err != nil {
		return 0, err
	}
	p.Stock = n
	m.products[id] = p
	return n, nil
}

func (m *memStore) IncreaseStock(_ context.Context, id string, qty int) (int, error) {
	return m.adjust(id, func(s int) (int, error) { return s + qty, nil })
}

func (m *memStore) DecreaseStock(_ context.Context, id string, qty int) (int, error) {
	return m.adjust(id, func(s int) (int, error) {
		if s < qty {
			return 0, ErrInsufficientStock
		}
		return s - qty, nil
	})
}

func (m *memStore) SetStock(_ context.Context, id string, qty int) (int, error) {
	return m.adjust(id, func(int) (int, error) { return qty, nil })
}

func (m *memStore) StockLevels(_ context.Context, ids []string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]int{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = p.Stock
		}
	}
	return out, nil
}

func (m *memStore) ListCategories(context.Context) ([]Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Category{}
	for _, c := range m.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) CreateCategory(_ context.Context, c *Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.categories {
		if existing.Name == c.Name {
			return ErrDuplicateCategory
		}
	}
	m.categories[c.ID] = *c
	return nil
}

func (m *memStore) DeleteCategory(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}

func product(id, name string, stock int) Product {
	return Product{ID: id, SKU: "SKU-" + id, Name: name, Price: decimal.RequireFromString("2.50"), Stock: stock}
}

func seqIDs() func() string {
	var n int
	return func() string {
		n++
		return fmt.Sprintf("gen-%d", n)
	}
}
