package orders

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/ariefcatur/retail-backoffice/internal/listing"
)

// memStore is an in-memory Store with fault injection. Conditional updates
// take the mutex, giving the same single-row atomicity as the database.
type memStore struct {
	mu        sync.Mutex
	products  map[string]ProductSnapshot
	customers map[string]bool
	orders    map[string]Order
	items     map[string][]OrderItem

	// stealBefore decrements product stock just before DecrementStock runs,
	// simulating a concurrent sale.
	stealBefore map[string]int
	failInsert  error
	failItems   error
	failRestore error
	failDelete  error

	decrements []string
	restores   []Line
	deletes    []string
}

func newMemStore(products ...ProductSnapshot) *memStore {
	m := &memStore{
		products:    map[string]ProductSnapshot{},
		customers:   map[string]bool{},
		orders:      map[string]Order{},
		items:       map[string][]OrderItem{},
		stealBefore: map[string]int{},
	}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *memStore) stock(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].Stock
}

func (m *memStore) ProductsByID(_ context.Context, ids []string) (map[string]ProductSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]ProductSnapshot{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *memStore) CustomerExists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.customers[id], nil
}

func (m *memStore) DecrementStock(_ context.Context, productID string, qty int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decrements = append(m.decrements, productID)
	p, ok := m.products[productID]
	if !ok {
		return false, nil
	}
	if n := m.stealBefore[productID]; n > 0 {
		p.Stock -= n
		delete(m.stealBefore, productID)
	}
	if p.Stock < qty {
		m.products[productID] = p
		return false, nil
	}
	p.Stock -= qty
	m.products[productID] = p
	return true, nil
}

func (m *memStore) RestoreStock(_ context.Context, productID string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restores = append(m.restores, Line{ProductID: productID, Quantity: qty})
	if m.failRestore != nil {
		return m.failRestore
	}
	p := m.products[productID]
	p.Stock += qty
	m.products[productID] = p
	return nil
}

func (m *memStore) InsertOrder(_ context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInsert != nil {
		return m.failInsert
	}
	cp := *o
	cp.Items = nil
	m.orders[o.ID] = cp
	return nil
}

func (m *memStore) InsertItems(_ context.Context, items []OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failItems != nil {
		return m.failItems
	}
	for _, it := range items {
		m.items[it.OrderID] = append(m.items[it.OrderID], it)
	}
	return nil
}

func (m *memStore) DeleteOrder(_ context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, orderID)
	if m.failDelete != nil {
		return m.failDelete
	}
	delete(m.orders, orderID)
	delete(m.items, orderID)
	return nil
}

func (m *memStore) GetOrder(_ context.Context, orderID string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	o.Items = append([]OrderItem(nil), m.items[orderID]...)
	return &o, nil
}

func (m *memStore) ListOrders(_ context.Context, f Filter) (listing.Page[Order], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Order
	for _, o := range m.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return listing.NewPage(out, listing.Params{Page: f.Page, PageSize: f.PageSize}, len(out)), nil
}

func (m *memStore) SetStatus(_ context.Context, orderID string, from, to Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	m.orders[orderID] = o
	return true, nil
}

// InTx gives the fake transactional semantics: state is snapshotted and
// restored when fn fails.
func (m *memStore) InTx(_ context.Context, fn func(Store) error) error {
	m.mu.Lock()
	products := cloneMap(m.products)
	orders := cloneMap(m.orders)
	items := cloneMap(m.items)
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.products, m.orders, m.items = products, orders, items
		m.mu.Unlock()
		return err
	}
	return nil
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

var errBoom = errors.New("boom")
