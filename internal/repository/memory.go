package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"order-lifecycle-service/internal/apperr"
	"order-lifecycle-service/internal/model"
)

// MemoryStore implementa OrderRepository y ProductRepository en memoria.
// Se usa en tests y para correr el servicio sin Mongo. Un único mutex
// cubre ambas colecciones; cada lectura devuelve una copia para que
// nadie mute el estado interno por fuera de Update.
type MemoryStore struct {
	mu       sync.RWMutex
	orders   map[string]*model.Order
	products map[string]*model.Product
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:   make(map[string]*model.Order),
		products: make(map[string]*model.Product),
	}
}

var (
	_ OrderRepository   = (*MemoryStore)(nil)
	_ ProductRepository = (*MemoryStore)(nil)
)

func cloneOrder(o *model.Order) *model.Order {
	cp := *o
	cp.Items = append([]model.OrderItem(nil), o.Items...)
	cp.StatusHistory = append([]model.StatusRecord(nil), o.StatusHistory...)
	if o.CanceledAt != nil {
		t := *o.CanceledAt
		cp.CanceledAt = &t
	}
	if o.ArchivedAt != nil {
		t := *o.ArchivedAt
		cp.ArchivedAt = &t
	}
	return &cp
}

func (m *MemoryStore) Insert(ctx context.Context, o *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Lock de orden pendiente: se verifica bajo el mismo mutex que la
	// inserción, dos creaciones concurrentes no pueden pasar ambas.
	for _, existing := range m.orders {
		if existing.UserID == o.UserID && existing.Status.Open() {
			return &apperr.ConflictError{Existing: cloneOrder(existing)}
		}
	}

	o.Version = 1
	m.orders[o.ID] = cloneOrder(o)
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, o *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.orders[o.ID]
	if !ok {
		return apperr.ErrNotFound
	}
	if current.Version != o.Version {
		return apperr.ErrVersionConflict
	}

	o.Version++
	m.orders[o.ID] = cloneOrder(o)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

func (m *MemoryStore) FindByID(ctx context.Context, id string) (*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (m *MemoryStore) FindOpenByUser(ctx context.Context, userID string) (*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.orders {
		if o.UserID == userID && o.Status.Open() {
			return cloneOrder(o), nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (m *MemoryStore) FindByUser(ctx context.Context, userID string, status *model.Status) ([]*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Order
	for _, o := range m.orders {
		if o.UserID != userID {
			continue
		}
		if status != nil && o.Status != *status {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sortByCreation(out)
	return out, nil
}

func (m *MemoryStore) FindByStatus(ctx context.Context, status model.Status) ([]*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Order
	for _, o := range m.orders {
		if o.Status == status {
			out = append(out, cloneOrder(o))
		}
	}
	sortByCreation(out)
	return out, nil
}

func (m *MemoryStore) FindAll(ctx context.Context) ([]*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, cloneOrder(o))
	}
	sortByCreation(out)
	return out, nil
}

func (m *MemoryStore) FindExpirable(ctx context.Context, now time.Time) ([]*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Order
	for _, o := range m.orders {
		if o.Status.Open() && o.PaymentDeadline.Before(now) {
			out = append(out, cloneOrder(o))
		}
	}
	sortByCreation(out)
	return out, nil
}

func sortByCreation(orders []*model.Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
}

// --- productos ---

func (m *MemoryStore) Upsert(ctx context.Context, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *MemoryStore) FindProduct(ctx context.Context, id string) (*model.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) DecrementStock(ctx context.Context, productID string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok || p.Stock < qty {
		return &apperr.OutOfStockError{ProductID: productID, Requested: qty}
	}
	p.Stock -= qty
	return nil
}

func (m *MemoryStore) IncrementStock(ctx context.Context, productID string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		// producto borrado después de la reserva: se ignora
		return nil
	}
	p.Stock += qty
	return nil
}
