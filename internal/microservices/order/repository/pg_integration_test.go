//go:build integration

package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"

	"restaurant-pos/internal/domain"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgC, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("restaurant"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(context.Background()) })

	url, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, EnsureSchema(ctx, pool))
	require.NoError(t, EnsureSchema(ctx, pool), "schema is re-applicable")
	return pool
}

func TestOrderRepositoryRoundTrip(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	repo := NewOrderRepository(pool)

	o := sampleOrder("7d3f4b8e-0000-4000-8000-000000000001", "ORD_20261015_001", day)
	o.Pricing.TaxAmount = decimal.RequireFromString("150.375")
	require.NoError(t, repo.AddOrder(ctx, o))
	assert.ErrorIs(t, repo.AddOrder(ctx, sampleOrder("other", "ORD_20261015_001", day)), domain.ErrConflict)

	got, err := repo.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Number, got.Number)
	assert.True(t, got.Pricing.TaxAmount.Equal(o.Pricing.TaxAmount), "numeric keeps full precision")
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Alloco", got.Items[0].Name)

	n, err := repo.NextOrderSeq(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = repo.NextOrderSeq(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	st := domain.StatusInKitchen
	updated, err := repo.UpdateOrder(ctx, o.ID, Patch{ExpectedVersion: 1, Status: &st, ChangedBy: "kitchen", At: day.Add(time.Minute)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)

	_, err = repo.UpdateOrder(ctx, o.ID, Patch{ExpectedVersion: 1, Status: &st})
	assert.ErrorIs(t, err, domain.ErrConflict)
	_, err = repo.UpdateOrder(ctx, "missing", Patch{ExpectedVersion: 1, Status: &st})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	done := domain.StatusCompleted
	completed, err := repo.UpdateOrder(ctx, o.ID, Patch{ExpectedVersion: 2, Status: &done, ChangedBy: "manager", At: day.Add(time.Hour)})
	require.NoError(t, err)
	require.NotNil(t, completed.CompletedAt)

	log, err := repo.StatusLog(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, log, 3)
	assert.Equal(t, domain.StatusCompleted, log[2].Status)

	list, err := repo.ListOrders(ctx, Filter{Statuses: []domain.Status{domain.StatusCompleted}, BranchID: "b1", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCatalogAndTablesFromPostgres(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO menu_items (id, branch_id, name, category, price, available) VALUES
			('alloco', 'b1', 'Alloco', 'sides', 1000, TRUE);
		INSERT INTO dining_tables (branch_id, table_ref, available) VALUES
			('b1', 'T1', TRUE), ('b1', 'T2', FALSE)`)
	require.NoError(t, err)

	it, err := NewCatalogRepository(pool).Lookup(ctx, "b1", "alloco")
	require.NoError(t, err)
	assert.True(t, it.Price.Equal(decimal.NewFromInt(1000)))

	_, err = NewCatalogRepository(pool).Lookup(ctx, "b2", "alloco")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	tables, err := NewTableRepository(pool).AvailableTables(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, []string{"T1"}, tables)
}

func TestOrderSequenceUnderConcurrentCheckouts(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	repo := NewOrderRepository(pool)

	const callers = 50
	var (
		mu   sync.Mutex
		seen = make(map[int]bool, callers)
	)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			n, err := repo.NextOrderSeq(gctx, day)
			if err != nil {
				return err
			}
			mu.Lock()
			seen[n] = true
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Len(t, seen, callers)
	assert.True(t, seen[1])
	assert.True(t, seen[callers])
}
