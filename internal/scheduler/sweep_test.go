package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	invoicedomain "github.com/smallbiznis/garagedesk/internal/invoice/domain"
	"github.com/smallbiznis/garagedesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	acquired int
	released int
}

func (l *fakeLocker) TryLock(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return "", false, nil
	}
	if l.held == nil {
		l.held = map[string]bool{}
	}
	l.held[key] = true
	l.acquired++
	return "token", true, nil
}

func (l *fakeLocker) Release(_ context.Context, key, _ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	l.released++
	return nil
}

func newSweepScheduler(t *testing.T, g *testutil.Garage, batch int) *Scheduler {
	t.Helper()
	s, err := New(Params{
		Log:        zap.NewNop(),
		GenID:      g.GenID,
		Clock:      g.Clock,
		InvoiceSvc: g.Invoices,
		Config:     Config{BatchSize: batch},
	})
	require.NoError(t, err)
	return s
}

func TestOverdueSweepWorksThroughBatches(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	vehicle := g.SeedVehicle(t)

	var ids []string
	for range 5 {
		res := g.Invoices.Generate(ctx, g.SeedService(t, vehicle.ID, "40", false, "0").ID.String())
		require.NoError(t, res.Err)
		ids = append(ids, res.Invoice.ID.String())
	}

	s := newSweepScheduler(t, g, 2)
	require.NoError(t, s.RunOnce(ctx))
	for _, id := range ids {
		inv, err := g.Invoices.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, invoicedomain.InvoiceStatusSent, inv.Status)
	}

	g.Clock.Advance(31 * 24 * time.Hour)
	require.NoError(t, s.RunOnce(ctx))
	for _, id := range ids {
		inv, err := g.Invoices.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, invoicedomain.InvoiceStatusOverdue, inv.Status)
	}
}

func TestOverdueSweepSkipsWhenLockHeld(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	res := g.Invoices.Generate(ctx, g.SeedService(t, g.SeedVehicle(t).ID, "40", false, "0").ID.String())
	require.NoError(t, res.Err)
	g.Clock.Advance(31 * 24 * time.Hour)

	locker := &fakeLocker{held: map[string]bool{"garagedesk:scheduler:overdue_sweep": true}}
	s := newSweepScheduler(t, g, 10)
	s.locker = locker

	require.NoError(t, s.RunOnce(ctx))
	assert.Equal(t, invoicedomain.InvoiceStatusSent, g.Invoice(t, res.Invoice.ID).Status)

	require.NoError(t, locker.Release(ctx, "garagedesk:scheduler:overdue_sweep", ""))
	require.NoError(t, s.RunOnce(ctx))
	assert.Equal(t, invoicedomain.InvoiceStatusOverdue, g.Invoice(t, res.Invoice.ID).Status)
	assert.Equal(t, 1, locker.acquired)
	assert.Equal(t, 2, locker.released)
}

func TestDisabledJobIsNotRun(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	res := g.Invoices.Generate(ctx, g.SeedService(t, g.SeedVehicle(t).ID, "40", false, "0").ID.String())
	require.NoError(t, res.Err)
	g.Clock.Advance(31 * 24 * time.Hour)

	s := newSweepScheduler(t, g, 10)
	s.cfg.EnabledJobs = []string{"something_else"}
	require.NoError(t, s.RunOnce(ctx))
	assert.Equal(t, invoicedomain.InvoiceStatusSent, g.Invoice(t, res.Invoice.ID).Status)
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop()})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestProvideConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, time.Hour, cfg.RunInterval)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, time.Minute, cfg.JobTimeout)
}
