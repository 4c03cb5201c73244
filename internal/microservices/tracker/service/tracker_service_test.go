package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-pos/internal/domain"
	orderrepo "restaurant-pos/internal/microservices/order/repository"
	"restaurant-pos/internal/microservices/tracker/repository"
)

var created = time.Date(2026, 10, 15, 19, 0, 0, 0, time.UTC)

func TestDeriveStepsAndRemaining(t *testing.T) {
	cases := []struct {
		status    domain.Status
		elapsed   time.Duration
		label     string
		current   int
		remaining string
	}{
		{domain.StatusPending, 0, "Order Received", 0, "20 min"},
		{domain.StatusInKitchen, 7*time.Minute + 59*time.Second, "Preparing", 1, "13 min"},
		{domain.StatusInKitchen, 20 * time.Minute, "Preparing", 1, SoonLabel},
		{domain.StatusInKitchen, 45 * time.Minute, "Preparing", 1, SoonLabel},
		{domain.StatusReady, 25 * time.Minute, "Ready", 2, ""},
		{domain.StatusServed, 30 * time.Minute, "Served", 3, ""},
		{domain.StatusCompleted, time.Hour, "Served", 3, ""},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			o := domain.Order{Number: "ORD_20261015_001", Status: tc.status, CreatedAt: created}
			p := Derive(o, created.Add(tc.elapsed), 20*time.Minute)

			assert.Equal(t, tc.label, p.Label)
			assert.False(t, p.Cancelled)
			require.Len(t, p.Steps, 4)
			for i, s := range p.Steps {
				assert.Equal(t, i == tc.current, s.Current, "step %d current", i)
				assert.Equal(t, i < tc.current || (i == 3 && tc.current == 3), s.Done, "step %d done", i)
			}
			assert.Equal(t, tc.remaining, p.RemainingLabel)
			if tc.remaining == "" {
				assert.Nil(t, p.RemainingMinutes)
			} else {
				require.NotNil(t, p.RemainingMinutes)
				assert.GreaterOrEqual(t, *p.RemainingMinutes, 0)
			}
		})
	}
}

func TestDeriveCancelledHasNoSteps(t *testing.T) {
	p := Derive(domain.Order{Status: domain.StatusCancelled, CreatedAt: created}, created.Add(time.Minute), 20*time.Minute)
	assert.True(t, p.Cancelled)
	assert.Equal(t, "Cancelled", p.Label)
	assert.Empty(t, p.Steps)
	assert.Nil(t, p.RemainingMinutes)
}

func TestDeriveClockSkew(t *testing.T) {
	p := Derive(domain.Order{Status: domain.StatusPending, CreatedAt: created}, created.Add(-time.Minute), 20*time.Minute)
	assert.Zero(t, p.ElapsedMinutes)
	require.NotNil(t, p.RemainingMinutes)
	assert.Equal(t, 20, *p.RemainingMinutes)
}

func seeded(t *testing.T) (*TrackerService, domain.Order) {
	t.Helper()
	store := orderrepo.NewMemoryOrders()
	o := domain.Order{
		ID: "o-1", Number: "ORD_20261015_001", Type: domain.OrderTypeTakeaway,
		Status: domain.StatusPending, Customer: domain.Customer{Name: "Awa"},
		CreatedAt: created, UpdatedAt: created, Version: 1,
	}
	ctx := context.Background()
	require.NoError(t, store.AddOrder(ctx, o))
	kitchen := domain.StatusInKitchen
	_, err := store.UpdateOrder(ctx, o.ID, orderrepo.Patch{
		ExpectedVersion: 1, Status: &kitchen, ChangedBy: "chef-1", At: created.Add(2 * time.Minute),
	})
	require.NoError(t, err)

	svc := NewTrackerService(repository.NewTrackerRepo(store), 20*time.Minute,
		func() time.Time { return created.Add(5 * time.Minute) })
	return svc, o
}

func TestProgressByNumber(t *testing.T) {
	svc, o := seeded(t)

	p, err := svc.Progress(context.Background(), " "+o.Number+" ")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInKitchen, p.Status)
	assert.Equal(t, 5, p.ElapsedMinutes)
	assert.Equal(t, "15 min", p.RemainingLabel)

	_, err = svc.Progress(context.Background(), "ORD_20261015_999")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Progress(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTimelineFollowsStatusLog(t *testing.T) {
	svc, o := seeded(t)

	tl, err := svc.Timeline(context.Background(), o.Number)
	require.NoError(t, err)
	require.Len(t, tl, 2)
	assert.Equal(t, "Order Received", tl[0].Label)
	assert.Equal(t, "Preparing", tl[1].Label)
	assert.Equal(t, "chef-1", tl[1].ChangedBy)
	assert.True(t, tl[0].At.Before(tl[1].At))
}
