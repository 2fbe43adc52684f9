package service_test

import (
	"context"
	"testing"

	servicedomain "github.com/smallbiznis/garagedesk/internal/servicerecord/domain"
	"github.com/smallbiznis/garagedesk/internal/technician/domain"
	"github.com/smallbiznis/garagedesk/internal/technician/service"
	"github.com/smallbiznis/garagedesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newService(t *testing.T, g *testutil.Garage) domain.Service {
	t.Helper()
	return service.New(service.Params{
		DB:    g.DB,
		Log:   zap.NewNop(),
		GenID: g.GenID,
		Clock: g.Clock,
	})
}

func boolPtr(v bool) *bool { return &v }

func TestTechnicianLifecycle(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	svc := newService(t, g)

	tech, err := svc.Create(ctx, domain.CreateTechnicianRequest{Name: "  Nimal ", Specialization: "Engines"})
	require.NoError(t, err)
	assert.Equal(t, "Nimal", tech.Name)
	assert.True(t, tech.Active)

	_, err = svc.Create(ctx, domain.CreateTechnicianRequest{Name: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	name := "Nimal Silva"
	updated, err := svc.Update(ctx, domain.UpdateTechnicianRequest{ID: tech.ID.String(), Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Nimal Silva", updated.Name)

	require.NoError(t, svc.Delete(ctx, tech.ID.String()))
	_, err = svc.GetByID(ctx, tech.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestTechnicianWorkload(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	svc := newService(t, g)

	tech, err := svc.Create(ctx, domain.CreateTechnicianRequest{Name: "Kamal"})
	require.NoError(t, err)
	vehicleID := g.SeedVehicle(t).ID.String()

	assign := func(status string) servicedomain.MutationResult {
		res, err := g.Services.Create(ctx, servicedomain.CreateServiceRequest{
			VehicleID:    vehicleID,
			TechnicianID: tech.ID.String(),
			Type:         "Diagnostics",
			Cost:         testutil.Dec("40"),
			Status:       status,
		})
		require.NoError(t, err)
		return res
	}
	open := assign(servicedomain.StatusPending)
	assign(servicedomain.StatusInProgress)
	assign(servicedomain.StatusCompleted)

	got, err := svc.GetByID(ctx, tech.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Workload)

	_, err = svc.Update(ctx, domain.UpdateTechnicianRequest{ID: tech.ID.String(), Active: boolPtr(false)})
	assert.ErrorIs(t, err, domain.ErrHasWorkload)

	assert.ErrorIs(t, svc.Delete(ctx, tech.ID.String()), domain.ErrHasHistories)

	empty := ""
	_, err = g.Services.Update(ctx, servicedomain.UpdateServiceRequest{ID: open.Service.ID.String(), TechnicianID: &empty})
	require.NoError(t, err)

	list, err := svc.List(ctx, domain.ListTechnicianRequest{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), list[0].Workload)
}
