package repository

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"restaurant-pos/internal/domain"
)

// MemoryOrders is an OrderStore kept in process memory with the same version semantics
// as the PostgreSQL store.
type MemoryOrders struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
	logs   map[string][]domain.StatusLogEntry
	seqs   map[string]int
}

func NewMemoryOrders() *MemoryOrders {
	return &MemoryOrders{
		orders: make(map[string]domain.Order),
		logs:   make(map[string][]domain.StatusLogEntry),
		seqs:   make(map[string]int),
	}
}

func cloneOrder(o domain.Order) domain.Order {
	o.Items = slices.Clone(o.Items)
	if o.CompletedAt != nil {
		at := *o.CompletedAt
		o.CompletedAt = &at
	}
	return o
}

func (m *MemoryOrders) AddOrder(_ context.Context, o domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[o.ID]; ok {
		return fmt.Errorf("%w: order %s already exists", domain.ErrConflict, o.ID)
	}
	for _, existing := range m.orders {
		if existing.Number == o.Number {
			return fmt.Errorf("%w: order %s already exists", domain.ErrConflict, o.Number)
		}
	}
	m.orders[o.ID] = cloneOrder(o)
	m.logs[o.ID] = append(m.logs[o.ID], domain.StatusLogEntry{
		OrderID: o.ID, Status: o.Status, ChangedBy: "order-service", ChangedAt: o.CreatedAt,
	})
	return nil
}

func (m *MemoryOrders) UpdateOrder(_ context.Context, id string, p Patch) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return domain.Order{}, fmt.Errorf("%w: order %s", domain.ErrNotFound, id)
	}
	if o.Version != p.ExpectedVersion {
		return domain.Order{}, fmt.Errorf("%w: order %s is at version %d, not %d", domain.ErrConflict, id, o.Version, p.ExpectedVersion)
	}
	if p.At.IsZero() {
		p.At = time.Now().UTC()
	}

	if p.Status != nil {
		o.Status = *p.Status
		if o.Status == domain.StatusCompleted {
			at := p.At
			o.CompletedAt = &at
		}
		m.logs[id] = append(m.logs[id], domain.StatusLogEntry{
			OrderID: id, Status: o.Status, ChangedBy: p.ChangedBy, ChangedAt: p.At, Notes: p.Notes,
		})
	}
	if p.PaymentMethod != nil {
		o.PaymentMethod = *p.PaymentMethod
	}
	if p.PaymentReference != nil {
		o.PaymentReference = *p.PaymentReference
	}
	o.UpdatedAt = p.At
	o.Version++
	m.orders[id] = o
	return cloneOrder(o), nil
}

func (m *MemoryOrders) GetOrder(_ context.Context, id string) (domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return domain.Order{}, fmt.Errorf("%w: order %s", domain.ErrNotFound, id)
	}
	return cloneOrder(o), nil
}

func (m *MemoryOrders) ListOrders(_ context.Context, f Filter) ([]domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Order, 0, len(m.orders))
	for _, o := range m.orders {
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, o.Status) {
			continue
		}
		if f.BranchID != "" && o.BranchID != f.BranchID {
			continue
		}
		if f.Number != "" && o.Number != f.Number {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Number < out[j].Number
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MemoryOrders) StatusLog(_ context.Context, id string) ([]domain.StatusLogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.logs[id]), nil
}

func (m *MemoryOrders) NextOrderSeq(_ context.Context, day time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := day.UTC().Format("20060102")
	seq, ok := m.seqs[key]
	if !ok {
		for _, o := range m.orders {
			if o.CreatedAt.UTC().Format("20060102") == key {
				seq++
			}
		}
	}
	seq++
	m.seqs[key] = seq
	return seq, nil
}
