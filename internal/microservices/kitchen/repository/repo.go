package repository

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

type Repository struct {
	KitchenRepo WorkerRegistry
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{
		KitchenRepo: NewKitchenRepository(pool),
	}
}

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply kitchen schema: %w", err)
	}
	return nil
}
