package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/garagedesk/internal/clock"
	customerdomain "github.com/smallbiznis/garagedesk/internal/customer/domain"
	"github.com/smallbiznis/garagedesk/internal/testutil"
	"github.com/smallbiznis/garagedesk/internal/vehicle/domain"
	"github.com/smallbiznis/garagedesk/internal/vehicle/repository"
	"github.com/smallbiznis/garagedesk/internal/vehicle/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	svc      domain.Service
	customer snowflake.ID
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.NewDB(t)
	node := testutil.NewNode(t)
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	customer := customerdomain.Customer{
		ID:        node.Generate(),
		Name:      "Nimal",
		Email:     "nimal@example.com",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.Create(&customer).Error)

	return fixture{
		db:   db,
		node: node,
		svc: service.New(service.Params{
			DB:    db,
			Log:   zap.NewNop(),
			GenID: node,
			Clock: clock.NewFakeClock(now),
			Repo:  repository.Provide(),
		}),
		customer: customer.ID,
	}
}

func (f fixture) create(t *testing.T, plate string) domain.Vehicle {
	t.Helper()
	v, err := f.svc.Create(context.Background(), domain.CreateVehicleRequest{
		CustomerID:  f.customer.String(),
		Brand:       "Toyota",
		Model:       "Axio",
		Year:        2016,
		PlateNumber: plate,
		Mileage:     84000,
	})
	require.NoError(t, err)
	return v
}

func TestCreateVehicleDefaultsFuelType(t *testing.T) {
	f := setup(t)
	v := f.create(t, " wp  cab-1234 ")
	assert.Equal(t, "WP CAB-1234", v.PlateNumber)
	assert.Equal(t, domain.DefaultFuelType, v.FuelType)

	got, err := f.svc.GetByID(context.Background(), v.ID.String())
	require.NoError(t, err)
	assert.Equal(t, v.PlateNumber, got.PlateNumber)
}

func TestCreateVehicleRejectsUnknownCustomer(t *testing.T) {
	f := setup(t)
	_, err := f.svc.Create(context.Background(), domain.CreateVehicleRequest{
		CustomerID:  f.node.Generate().String(),
		Brand:       "Honda",
		Model:       "Fit",
		Year:        2014,
		PlateNumber: "CAA-0001",
	})
	assert.ErrorIs(t, err, domain.ErrCustomerMissing)
}

func TestCreateVehicleValidation(t *testing.T) {
	f := setup(t)
	base := domain.CreateVehicleRequest{
		CustomerID:  f.customer.String(),
		Brand:       "Honda",
		Model:       "Fit",
		Year:        2014,
		PlateNumber: "CAA-0001",
	}

	noBrand := base
	noBrand.Brand = " "
	_, err := f.svc.Create(context.Background(), noBrand)
	assert.ErrorIs(t, err, domain.ErrInvalidBrand)

	future := base
	future.Year = 2040
	_, err = f.svc.Create(context.Background(), future)
	assert.ErrorIs(t, err, domain.ErrInvalidYear)

	negative := base
	negative.Mileage = -1
	_, err = f.svc.Create(context.Background(), negative)
	assert.ErrorIs(t, err, domain.ErrInvalidMileage)
}

func TestPlateNumberIsUnique(t *testing.T) {
	f := setup(t)
	first := f.create(t, "CAB-1234")
	second := f.create(t, "CAB-9999")

	_, err := f.svc.Create(context.Background(), domain.CreateVehicleRequest{
		CustomerID:  f.customer.String(),
		Brand:       "Nissan",
		Model:       "Leaf",
		Year:        2019,
		PlateNumber: "cab-1234",
	})
	assert.ErrorIs(t, err, domain.ErrDuplicatePlate)

	plate := "CAB-1234"
	_, err = f.svc.Update(context.Background(), domain.UpdateVehicleRequest{ID: second.ID.String(), PlateNumber: &plate})
	assert.ErrorIs(t, err, domain.ErrDuplicatePlate)

	// re-saving a vehicle with its own plate is fine
	mileage := 90000
	updated, err := f.svc.Update(context.Background(), domain.UpdateVehicleRequest{ID: first.ID.String(), PlateNumber: &plate, Mileage: &mileage})
	require.NoError(t, err)
	assert.Equal(t, 90000, updated.Mileage)
}

func TestListVehiclesByCustomer(t *testing.T) {
	f := setup(t)
	f.create(t, "AAA-0001")
	f.create(t, "AAA-0002")

	resp, err := f.svc.List(context.Background(), domain.ListVehicleRequest{CustomerID: f.customer.String()})
	require.NoError(t, err)
	assert.Len(t, resp.Vehicles, 2)

	other, err := f.svc.List(context.Background(), domain.ListVehicleRequest{CustomerID: f.node.Generate().String()})
	require.NoError(t, err)
	assert.Empty(t, other.Vehicles)
}

func TestDeleteVehicle(t *testing.T) {
	f := setup(t)
	v := f.create(t, "DEL-0001")

	require.NoError(t, f.svc.Delete(context.Background(), v.ID.String()))
	_, err := f.svc.GetByID(context.Background(), v.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
