package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallbiznis/garagedesk/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/garagedesk/internal/payment/domain"
	"github.com/smallbiznis/garagedesk/internal/servicerecord/domain"
	"github.com/smallbiznis/garagedesk/internal/servicerecord/service"
	techniciandomain "github.com/smallbiznis/garagedesk/internal/technician/domain"
	"github.com/smallbiznis/garagedesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func ptr[T any](v T) *T { return &v }

func TestCompletingServiceBillsAndSettles(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	vehicle := g.SeedVehicle(t)

	created, err := g.Services.Create(ctx, domain.CreateServiceRequest{
		VehicleID: vehicle.ID.String(),
		Type:      "Brake inspection",
		Cost:      testutil.Dec("85"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, created.Service.Status)
	assert.Equal(t, invoicedomain.OutcomeSkipped, created.Billing.Outcome)
	testutil.AssertDec(t, "85", created.Service.RemainingBalance)

	completed, err := g.Services.UpdateStatus(ctx, domain.UpdateStatusRequest{
		ID:     created.Service.ID.String(),
		Status: domain.StatusCompleted,
	})
	require.NoError(t, err)
	require.Equal(t, invoicedomain.OutcomeCreated, completed.Billing.Outcome)
	invoice := completed.Billing.Invoice
	testutil.AssertDec(t, "93.50", invoice.Total)
	assert.Equal(t, invoicedomain.InvoiceStatusSent, invoice.Status)
	testutil.AssertDec(t, "93.50", completed.Service.RemainingBalance)

	res, err := g.Payments.Record(ctx, paymentdomain.CreatePaymentRequest{
		InvoiceID: invoice.ID.String(),
		Amount:    testutil.Dec("93.50"),
		Method:    "card",
	})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, res.Reconciliation.Status)
	testutil.AssertDec(t, "0", g.Service(t, created.Service.ID).RemainingBalance)

	// completing again keeps the same invoice
	again, err := g.Services.UpdateStatus(ctx, domain.UpdateStatusRequest{
		ID:     created.Service.ID.String(),
		Status: domain.StatusCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.OutcomeExisting, again.Billing.Outcome)
	assert.Equal(t, invoice.ID, again.Billing.Invoice.ID)
}

func TestCreateWithAdvanceBillsImmediately(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	vehicle := g.SeedVehicle(t)

	created, err := g.Services.Create(ctx, domain.CreateServiceRequest{
		VehicleID:            vehicle.ID.String(),
		Type:                 "Timing belt",
		Cost:                 testutil.Dec("200"),
		AdvancePayment:       testutil.Dec("50"),
		AdvancePaymentMethod: "Bank Transfer",
	})
	require.NoError(t, err)
	require.Equal(t, invoicedomain.OutcomeCreated, created.Billing.Outcome)
	testutil.AssertDec(t, "170", created.Service.RemainingBalance)
	testutil.AssertDec(t, "170", created.Billing.Invoice.BalanceDue)

	payments, err := g.Payments.ListByInvoice(ctx, created.Billing.Invoice.ID.String())
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, paymentdomain.MethodBankTransfer, payments[0].Method)
}

func TestEditingInvoicedServiceResyncsInvoice(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	vehicle := g.SeedVehicle(t)

	created, err := g.Services.Create(ctx, domain.CreateServiceRequest{
		VehicleID: vehicle.ID.String(),
		Type:      "Clutch",
		Cost:      testutil.Dec("100"),
		Status:    domain.StatusCompleted,
	})
	require.NoError(t, err)
	invoiceID := created.Billing.Invoice.ID
	id := created.Service.ID.String()

	updated, err := g.Services.Update(ctx, domain.UpdateServiceRequest{
		ID:             id,
		Cost:           ptr(testutil.Dec("200")),
		AdvancePayment: ptr(testutil.Dec("20")),
	})
	require.NoError(t, err)
	require.Equal(t, invoicedomain.OutcomeSynced, updated.Billing.Outcome)

	invoice := g.Invoice(t, invoiceID)
	testutil.AssertDec(t, "200", invoice.Subtotal)
	testutil.AssertDec(t, "220", invoice.Total)
	testutil.AssertDec(t, "20", invoice.PaidAmount)
	testutil.AssertDec(t, "200", invoice.BalanceDue)
	testutil.AssertDec(t, "200", updated.Service.RemainingBalance)

	// dropping the advance removes its payment row
	updated, err = g.Services.Update(ctx, domain.UpdateServiceRequest{ID: id, AdvancePayment: ptr(decimal.Zero)})
	require.NoError(t, err)
	payments, err := g.Payments.ListByInvoice(ctx, invoiceID.String())
	require.NoError(t, err)
	assert.Empty(t, payments)
	testutil.AssertDec(t, "220", updated.Service.RemainingBalance)

	// switching to tax inclusive re-derives from the gross cost
	_, err = g.Services.Update(ctx, domain.UpdateServiceRequest{ID: id, TaxIncluded: ptr(true), Cost: ptr(testutil.Dec("110"))})
	require.NoError(t, err)
	invoice = g.Invoice(t, invoiceID)
	testutil.AssertDec(t, "100", invoice.Subtotal)
	testutil.AssertDec(t, "110", invoice.Total)
}

func seedTechnician(t *testing.T, g *testutil.Garage, name string) techniciandomain.Technician {
	t.Helper()
	now := g.Clock.Now()
	tech := techniciandomain.Technician{ID: g.GenID.Generate(), Name: name, Active: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, g.DB.Create(&tech).Error)
	return tech
}

func TestEditingServiceOfDeactivatedTechnician(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	vehicle := g.SeedVehicle(t)
	mechanic := seedTechnician(t, g, "Ravi")

	created, err := g.Services.Create(ctx, domain.CreateServiceRequest{
		VehicleID:    vehicle.ID.String(),
		TechnicianID: mechanic.ID.String(),
		Type:         "Gearbox",
		Cost:         testutil.Dec("100"),
		Status:       domain.StatusCompleted,
	})
	require.NoError(t, err)
	require.Equal(t, invoicedomain.OutcomeCreated, created.Billing.Outcome)

	require.NoError(t, g.DB.Model(&techniciandomain.Technician{}).
		Where("id = ?", mechanic.ID).Update("active", false).Error)

	updated, err := g.Services.Update(ctx, domain.UpdateServiceRequest{
		ID:             created.Service.ID.String(),
		AdvancePayment: ptr(testutil.Dec("20")),
	})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.OutcomeSynced, updated.Billing.Outcome)
	testutil.AssertDec(t, "20", g.Invoice(t, created.Billing.Invoice.ID).PaidAmount)
	testutil.AssertDec(t, "90", updated.Service.RemainingBalance)

	// a newly assigned technician must still be active
	retired := seedTechnician(t, g, "Omar")
	require.NoError(t, g.DB.Model(&techniciandomain.Technician{}).
		Where("id = ?", retired.ID).Update("active", false).Error)
	_, err = g.Services.Update(ctx, domain.UpdateServiceRequest{
		ID:           created.Service.ID.String(),
		TechnicianID: ptr(retired.ID.String()),
	})
	assert.ErrorIs(t, err, domain.ErrTechnicianNotFound)
}

func TestCanceledInvoiceIsNotResynced(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	created, err := g.Services.Create(ctx, domain.CreateServiceRequest{
		VehicleID: g.SeedVehicle(t).ID.String(),
		Type:      "Tyres",
		Cost:      testutil.Dec("100"),
		Status:    domain.StatusCompleted,
	})
	require.NoError(t, err)
	invoiceID := created.Billing.Invoice.ID
	_, err = g.Invoices.Cancel(ctx, invoiceID.String(), "duplicate job")
	require.NoError(t, err)

	updated, err := g.Services.Update(ctx, domain.UpdateServiceRequest{ID: created.Service.ID.String(), Cost: ptr(testutil.Dec("300"))})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.OutcomeSkipped, updated.Billing.Outcome)
	testutil.AssertDec(t, "110", g.Invoice(t, invoiceID).Total)
}

func TestDeleteService(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	vehicle := g.SeedVehicle(t)

	plain := g.SeedService(t, vehicle.ID, "50", false, "0")
	require.NoError(t, g.Services.Delete(ctx, plain.ID.String()))
	_, err := g.Services.GetByID(ctx, plain.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	billed := g.SeedService(t, vehicle.ID, "50", false, "0")
	require.NoError(t, g.Invoices.Generate(ctx, billed.ID.String()).Err)
	assert.ErrorIs(t, g.Services.Delete(ctx, billed.ID.String()), domain.ErrHasInvoice)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	vehicleID := g.SeedVehicle(t).ID.String()

	cases := []struct {
		name string
		req  domain.CreateServiceRequest
		want error
	}{
		{"missing vehicle", domain.CreateServiceRequest{Type: "x", Cost: testutil.Dec("1")}, domain.ErrInvalidVehicle},
		{"unknown vehicle", domain.CreateServiceRequest{VehicleID: "42", Type: "x", Cost: testutil.Dec("1")}, domain.ErrVehicleNotFound},
		{"unknown technician", domain.CreateServiceRequest{VehicleID: vehicleID, TechnicianID: "42", Type: "x", Cost: testutil.Dec("1")}, domain.ErrTechnicianNotFound},
		{"no type", domain.CreateServiceRequest{VehicleID: vehicleID, Cost: testutil.Dec("1")}, domain.ErrInvalidType},
		{"negative cost", domain.CreateServiceRequest{VehicleID: vehicleID, Type: "x", Cost: testutil.Dec("-1")}, domain.ErrInvalidCost},
		{"sub cent cost", domain.CreateServiceRequest{VehicleID: vehicleID, Type: "x", Cost: testutil.Dec("1.001")}, domain.ErrInvalidCost},
		{"bad advance method", domain.CreateServiceRequest{VehicleID: vehicleID, Type: "x", Cost: testutil.Dec("1"), AdvancePaymentMethod: "barter"}, domain.ErrInvalidAdvanceMethod},
		{"bad status", domain.CreateServiceRequest{VehicleID: vehicleID, Type: "x", Cost: testutil.Dec("1"), Status: "Done"}, domain.ErrInvalidStatus},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := g.Services.Create(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestListServices(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	first := g.SeedVehicle(t)
	second := g.SeedVehicle(t)
	g.SeedService(t, first.ID, "10", false, "0")
	g.SeedService(t, first.ID, "20", false, "0")
	g.SeedService(t, second.ID, "30", false, "0")

	resp, err := g.Services.List(ctx, domain.ListServiceRequest{VehicleID: first.ID.String()})
	require.NoError(t, err)
	assert.Len(t, resp.Services, 2)

	resp, err = g.Services.List(ctx, domain.ListServiceRequest{CustomerID: second.CustomerID.String()})
	require.NoError(t, err)
	assert.Len(t, resp.Services, 1)

	_, err = g.Services.List(ctx, domain.ListServiceRequest{Status: "Finished"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) GenerateTx(ctx context.Context, tx *gorm.DB, serviceID snowflake.ID) invoicedomain.GenerateResult {
	args := m.Called(serviceID)
	return args.Get(0).(invoicedomain.GenerateResult)
}

func (m *mockGenerator) SyncServiceTx(ctx context.Context, tx *gorm.DB, serviceID snowflake.ID) invoicedomain.GenerateResult {
	args := m.Called(serviceID)
	return args.Get(0).(invoicedomain.GenerateResult)
}

func (m *mockGenerator) AfterCommit(ctx context.Context, result invoicedomain.GenerateResult) {
	m.Called(result)
}

func TestBillingFailureKeepsServiceChange(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	gen := &mockGenerator{}
	gen.On("GenerateTx", mock.Anything).
		Return(invoicedomain.GenerateResult{Outcome: invoicedomain.OutcomeFailed, Err: errors.New("numbering unavailable")}).
		Once()
	svc := service.New(service.Params{
		DB:        g.DB,
		Log:       zap.NewNop(),
		GenID:     g.GenID,
		Clock:     g.Clock,
		Repo:      g.ServiceRepo,
		Generator: gen,
	})

	res, err := svc.Create(ctx, domain.CreateServiceRequest{
		VehicleID: g.SeedVehicle(t).ID.String(),
		Type:      "Battery",
		Cost:      testutil.Dec("120"),
		Status:    domain.StatusCompleted,
	})
	require.NoError(t, err)
	assert.True(t, res.Billing.Failed())
	gen.AssertExpectations(t)
	gen.AssertNotCalled(t, "AfterCommit", mock.Anything)

	stored := g.Service(t, res.Service.ID)
	assert.Equal(t, domain.StatusCompleted, stored.Status)
	testutil.AssertDec(t, "120", stored.RemainingBalance)
}
