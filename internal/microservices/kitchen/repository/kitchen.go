package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"restaurant-pos/internal/domain"
)

type Worker struct {
	Name            string    `json:"name"`
	OrderTypes      string    `json:"order_types,omitempty"`
	Status          string    `json:"status"`
	OrdersProcessed int64     `json:"orders_processed"`
	LastSeen        time.Time `json:"last_seen"`
}

// WorkerRegistry tracks which kitchen workers are online. A name can only be online once.
type WorkerRegistry interface {
	Register(ctx context.Context, name, orderTypes string) error
	Heartbeat(ctx context.Context, name string) error
	SetOffline(ctx context.Context, name string) error
	RecordProcessed(ctx context.Context, name string) error
	Workers(ctx context.Context) ([]Worker, error)
}

type KitchenRepository struct {
	pool *pgxpool.Pool
}

func NewKitchenRepository(pool *pgxpool.Pool) *KitchenRepository {
	return &KitchenRepository{pool: pool}
}

func (r *KitchenRepository) Register(ctx context.Context, name, orderTypes string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status string
	err = tx.QueryRow(ctx, `SELECT status FROM workers WHERE name = $1 FOR UPDATE`, name).Scan(&status)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		_, err = tx.Exec(ctx, `
			INSERT INTO workers (name, order_types, status, last_seen) VALUES ($1, $2, 'online', now())`,
			name, orderTypes)
	case err != nil:
		return err
	case status == "online":
		return fmt.Errorf("%w: worker %s already online", domain.ErrConflict, name)
	default:
		_, err = tx.Exec(ctx, `
			UPDATE workers SET order_types = $2, status = 'online', last_seen = now() WHERE name = $1`,
			name, orderTypes)
	}
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *KitchenRepository) Heartbeat(ctx context.Context, name string) error {
	_, err := r.pool.Exec(ctx, `UPDATE workers SET last_seen = now() WHERE name = $1`, name)
	return err
}

func (r *KitchenRepository) SetOffline(ctx context.Context, name string) error {
	_, err := r.pool.Exec(ctx, `UPDATE workers SET status = 'offline', last_seen = now() WHERE name = $1`, name)
	return err
}

func (r *KitchenRepository) RecordProcessed(ctx context.Context, name string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE workers SET orders_processed = orders_processed + 1, last_seen = now() WHERE name = $1`, name)
	return err
}

func (r *KitchenRepository) Workers(ctx context.Context) ([]Worker, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name, order_types, status, orders_processed, last_seen FROM workers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[Worker])
}

type MemoryRegistry struct {
	mu      sync.Mutex
	workers map[string]*Worker
	now     func() time.Time
}

func NewMemoryRegistry(now func() time.Time) *MemoryRegistry {
	if now == nil {
		now = time.Now
	}
	return &MemoryRegistry{workers: make(map[string]*Worker), now: now}
}

func (m *MemoryRegistry) Register(_ context.Context, name, orderTypes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workers[name]
	if ok && w.Status == "online" {
		return fmt.Errorf("%w: worker %s already online", domain.ErrConflict, name)
	}
	if !ok {
		w = &Worker{Name: name}
		m.workers[name] = w
	}
	w.OrderTypes, w.Status, w.LastSeen = orderTypes, "online", m.now()
	return nil
}

func (m *MemoryRegistry) touch(name string, fn func(*Worker)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.workers[name]; ok {
		fn(w)
		w.LastSeen = m.now()
	}
	return nil
}

func (m *MemoryRegistry) Heartbeat(_ context.Context, name string) error {
	return m.touch(name, func(*Worker) {})
}

func (m *MemoryRegistry) SetOffline(_ context.Context, name string) error {
	return m.touch(name, func(w *Worker) { w.Status = "offline" })
}

func (m *MemoryRegistry) RecordProcessed(_ context.Context, name string) error {
	return m.touch(name, func(w *Worker) { w.OrdersProcessed++ })
}

func (m *MemoryRegistry) Workers(_ context.Context) ([]Worker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Worker, 0, len(m.workers))
	for _, w := range m.workers {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
