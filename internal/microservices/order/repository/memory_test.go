package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-pos/internal/billing/cart"
	"restaurant-pos/internal/domain"
	"restaurant-pos/internal/microservices/order/domain/dao"
)

var day = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

func sampleOrder(id, number string, at time.Time) domain.Order {
	return domain.Order{
		ID:       id,
		Number:   number,
		Type:     domain.OrderTypeTakeaway,
		Status:   domain.StatusPending,
		Customer: domain.Customer{Name: "Awa"},
		BranchID: "b1",
		Items: []domain.OrderItem{
			{ID: "l1", CatalogItemID: "alloco", Name: "Alloco", UnitPrice: decimal.NewFromInt(1000), Quantity: 2},
		},
		Pricing:   domain.PricingBreakdown{Subtotal: decimal.NewFromInt(2000), Total: decimal.NewFromInt(2150), TaxAmount: decimal.NewFromInt(150)},
		CreatedAt: at,
		UpdatedAt: at,
		Version:   1,
	}
}

func statusPtr(s domain.Status) *domain.Status { return &s }

func TestMemoryOrdersVersionedUpdate(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryOrders()
	require.NoError(t, m.AddOrder(ctx, sampleOrder("o1", "ORD_20261015_001", day)))

	updated, err := m.UpdateOrder(ctx, "o1", Patch{
		ExpectedVersion: 1, Status: statusPtr(domain.StatusInKitchen), ChangedBy: "kitchen", At: day.Add(time.Minute),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, domain.StatusInKitchen, updated.Status)

	_, err = m.UpdateOrder(ctx, "o1", Patch{ExpectedVersion: 1, Status: statusPtr(domain.StatusReady)})
	require.ErrorIs(t, err, domain.ErrConflict)

	got, err := m.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInKitchen, got.Status, "a stale write leaves the order unchanged")

	_, err = m.UpdateOrder(ctx, "missing", Patch{ExpectedVersion: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryOrdersCompletionAndLog(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryOrders()
	require.NoError(t, m.AddOrder(ctx, sampleOrder("o1", "ORD_20261015_001", day)))

	at := day.Add(30 * time.Minute)
	o, err := m.UpdateOrder(ctx, "o1", Patch{
		ExpectedVersion: 1, Status: statusPtr(domain.StatusCompleted), ChangedBy: "manager", Notes: "override", At: at,
	})
	require.NoError(t, err)
	require.NotNil(t, o.CompletedAt)
	assert.True(t, o.CompletedAt.Equal(at))

	log, err := m.StatusLog(ctx, "o1")
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, domain.StatusPending, log[0].Status)
	assert.Equal(t, "order-service", log[0].ChangedBy)
	assert.Equal(t, domain.StatusCompleted, log[1].Status)
	assert.Equal(t, "override", log[1].Notes)
}

func TestMemoryOrdersRejectDuplicates(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryOrders()
	require.NoError(t, m.AddOrder(ctx, sampleOrder("o1", "ORD_20261015_001", day)))
	assert.ErrorIs(t, m.AddOrder(ctx, sampleOrder("o1", "ORD_20261015_002", day)), domain.ErrConflict)
	assert.ErrorIs(t, m.AddOrder(ctx, sampleOrder("o2", "ORD_20261015_001", day)), domain.ErrConflict)
}

func TestMemoryOrdersListAndSequence(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryOrders()
	require.NoError(t, m.AddOrder(ctx, sampleOrder("o2", "ORD_20261015_002", day.Add(time.Minute))))
	require.NoError(t, m.AddOrder(ctx, sampleOrder("o1", "ORD_20261015_001", day)))
	other := sampleOrder("o3", "ORD_20261014_001", day.AddDate(0, 0, -1))
	other.BranchID = "b2"
	require.NoError(t, m.AddOrder(ctx, other))
	_, err := m.UpdateOrder(ctx, "o2", Patch{ExpectedVersion: 1, Status: statusPtr(domain.StatusCancelled)})
	require.NoError(t, err)

	all, err := m.ListOrders(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"o3", "o1", "o2"}, []string{all[0].ID, all[1].ID, all[2].ID}, "oldest first")

	pending, err := m.ListOrders(ctx, Filter{Statuses: []domain.Status{domain.StatusPending}, BranchID: "b1"})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "o1", pending[0].ID)

	limited, err := m.ListOrders(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	n, err := m.NextOrderSeq(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 3, n, "seeded from the orders already stored that day")
	n, err = m.NextOrderSeq(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestMemoryOrdersReturnCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryOrders()
	require.NoError(t, m.AddOrder(ctx, sampleOrder("o1", "ORD_20261015_001", day)))

	o, err := m.GetOrder(ctx, "o1")
	require.NoError(t, err)
	o.Items[0].Quantity = 50

	again, err := m.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, 2, again.Items[0].Quantity)
}

func TestMemoryCatalogAndTables(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCatalog(cart.CatalogItem{ID: "alloco", BranchID: "b1", Name: "Alloco", Price: decimal.NewFromInt(1000), Available: true})

	it, err := c.Lookup(ctx, "b1", "alloco")
	require.NoError(t, err)
	assert.Equal(t, "Alloco", it.Name)

	_, err = c.Lookup(ctx, "b2", "alloco")
	assert.ErrorIs(t, err, domain.ErrNotFound, "catalog lookups are branch scoped")

	tables := NewMemoryTables()
	tables.Set("b1", "T2", true)
	tables.Set("b1", "T1", true)
	tables.Set("b1", "T3", false)
	free, err := tables.AvailableTables(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, []string{"T1", "T2"}, free)
}

func TestMemoryGuard(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGuard()

	ok, err := g.Reserve(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.Reserve(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	res, err := g.Result(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, res, "in-flight keys have no result")

	require.NoError(t, g.Complete(ctx, "k", []byte(`{"ok":true}`)))
	res, err = g.Result(ctx, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(res))

	require.NoError(t, g.Release(ctx, "k"))
	ok, err = g.Reserve(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDaoRejectsUnknownStatus(t *testing.T) {
	row, err := dao.FromDomain(sampleOrder("o1", "ORD_20261015_001", day))
	require.NoError(t, err)

	o, err := row.ToDomain()
	require.NoError(t, err)
	assert.Equal(t, "Alloco", o.Items[0].Name)
	assert.True(t, o.Items[0].UnitPrice.Equal(decimal.NewFromInt(1000)))

	row.Status = "received"
	_, err = row.ToDomain()
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestMemoryOrdersFilterByNumber(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryOrders()
	require.NoError(t, m.AddOrder(ctx, sampleOrder("o1", "ORD_20261015_001", day)))
	require.NoError(t, m.AddOrder(ctx, sampleOrder("o2", "ORD_20261015_002", day.Add(time.Minute))))

	got, err := m.ListOrders(ctx, Filter{Number: "ORD_20261015_002"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "o2", got[0].ID)

	got, err = m.ListOrders(ctx, Filter{Number: "ORD_20261015_404"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryOrdersSequenceIsUniqueUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryOrders()

	const callers = 200
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int]bool, callers)
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := m.NextOrderSeq(ctx, day)
			assert.NoError(t, err)
			mu.Lock()
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, callers)
	for n := 1; n <= callers; n++ {
		assert.True(t, seen[n], "sequence %d was not allocated", n)
	}

	next, err := m.NextOrderSeq(ctx, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, next, "each day starts over")
}
