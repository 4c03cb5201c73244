package repository

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

//go:embed schema.sql
var schema string

type Repository struct {
	OrderRepo   OrderStore
	Catalog     Catalog
	Tables      TableInventory
	Idempotency IdempotencyGuard
}

func New(pool *pgxpool.Pool, rdb *redis.Client, ttl time.Duration) *Repository {
	return &Repository{
		OrderRepo:   NewOrderRepository(pool),
		Catalog:     NewCatalogRepository(pool),
		Tables:      NewTableRepository(pool),
		Idempotency: NewRedisGuard(rdb, ttl),
	}
}

// NewMemory wires in-process implementations, for tests and local runs without infrastructure.
func NewMemory() *Repository {
	return &Repository{
		OrderRepo:   NewMemoryOrders(),
		Catalog:     NewMemoryCatalog(),
		Tables:      NewMemoryTables(),
		Idempotency: NewMemoryGuard(),
	}
}

// EnsureSchema creates the tables if they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
