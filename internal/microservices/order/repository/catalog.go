package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"restaurant-pos/internal/billing/cart"
	"restaurant-pos/internal/domain"
)

// Catalog is the read-only menu, scoped per branch.
type Catalog interface {
	Lookup(ctx context.Context, branchID, itemID string) (cart.CatalogItem, error)
}

// TableInventory lists the tables currently free in a branch.
type TableInventory interface {
	AvailableTables(ctx context.Context, branchID string) ([]string, error)
}

type CatalogRepository struct {
	pool *pgxpool.Pool
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

func (c *CatalogRepository) Lookup(ctx context.Context, branchID, itemID string) (cart.CatalogItem, error) {
	var it cart.CatalogItem
	err := c.pool.QueryRow(ctx, `
		SELECT id, branch_id, name, category, price, available
		FROM menu_items WHERE id = $1 AND branch_id = $2`, itemID, branchID,
	).Scan(&it.ID, &it.BranchID, &it.Name, &it.Category, &it.Price, &it.Available)
	if errors.Is(err, pgx.ErrNoRows) {
		return cart.CatalogItem{}, fmt.Errorf("%w: menu item %s in branch %s", domain.ErrNotFound, itemID, branchID)
	}
	if err != nil {
		return cart.CatalogItem{}, fmt.Errorf("failed to look up menu item: %w", err)
	}
	return it, nil
}

type TableRepository struct {
	pool *pgxpool.Pool
}

func NewTableRepository(pool *pgxpool.Pool) *TableRepository {
	return &TableRepository{pool: pool}
}

func (t *TableRepository) AvailableTables(ctx context.Context, branchID string) ([]string, error) {
	rows, err := t.pool.Query(ctx, `
		SELECT table_ref FROM dining_tables
		WHERE branch_id = $1 AND available ORDER BY table_ref`, branchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	refs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan tables: %w", err)
	}
	return refs, nil
}

type MemoryCatalog struct {
	mu    sync.RWMutex
	items map[string]cart.CatalogItem
}

func NewMemoryCatalog(items ...cart.CatalogItem) *MemoryCatalog {
	c := &MemoryCatalog{items: make(map[string]cart.CatalogItem)}
	for _, it := range items {
		c.Put(it)
	}
	return c
}

func (c *MemoryCatalog) Put(it cart.CatalogItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[it.BranchID+"/"+it.ID] = it
}

func (c *MemoryCatalog) Lookup(_ context.Context, branchID, itemID string) (cart.CatalogItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	it, ok := c.items[branchID+"/"+itemID]
	if !ok {
		return cart.CatalogItem{}, fmt.Errorf("%w: menu item %s in branch %s", domain.ErrNotFound, itemID, branchID)
	}
	return it, nil
}

type MemoryTables struct {
	mu     sync.RWMutex
	tables map[string]map[string]bool
}

func NewMemoryTables() *MemoryTables {
	return &MemoryTables{tables: make(map[string]map[string]bool)}
}

func (t *MemoryTables) Set(branchID, tableRef string, available bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tables[branchID] == nil {
		t.tables[branchID] = make(map[string]bool)
	}
	t.tables[branchID][tableRef] = available
}

func (t *MemoryTables) AvailableTables(_ context.Context, branchID string) ([]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []string
	for ref, free := range t.tables[branchID] {
		if free {
			out = append(out, ref)
		}
	}
	sort.Strings(out)
	return out, nil
}
