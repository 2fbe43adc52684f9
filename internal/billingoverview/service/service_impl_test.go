package service_test

import (
	"context"
	"testing"
	"time"

	billingoverview "github.com/smallbiznis/garagedesk/internal/billingoverview/domain"
	"github.com/smallbiznis/garagedesk/internal/billingoverview/service"
	paymentdomain "github.com/smallbiznis/garagedesk/internal/payment/domain"
	servicedomain "github.com/smallbiznis/garagedesk/internal/servicerecord/domain"
	"github.com/smallbiznis/garagedesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newService(g *testutil.Garage) billingoverview.Service {
	return service.NewService(service.Params{DB: g.DB, Log: zap.NewNop(), Clock: g.Clock})
}

func day(year int, month time.Month, d int) *time.Time {
	v := time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
	return &v
}

// seedRevenue bills a brake job and an oil change, then records payments
// across March and April 2026. The oil change carries a cash advance paid on
// the first of March.
func seedRevenue(t *testing.T, g *testutil.Garage) {
	t.Helper()
	ctx := context.Background()
	vehicle := g.SeedVehicle(t)

	brakes, err := g.Services.Create(ctx, servicedomain.CreateServiceRequest{
		VehicleID: vehicle.ID.String(),
		Type:      "Brake pads",
		Cost:      testutil.Dec("100"),
		Status:    servicedomain.StatusCompleted,
	})
	require.NoError(t, err)
	require.NotNil(t, brakes.Billing.Invoice)

	oil, err := g.Services.Create(ctx, servicedomain.CreateServiceRequest{
		VehicleID:            vehicle.ID.String(),
		Type:                 "Oil change",
		Cost:                 testutil.Dec("50"),
		AdvancePayment:       testutil.Dec("20"),
		AdvancePaymentMethod: paymentdomain.MethodCash,
	})
	require.NoError(t, err)
	require.NotNil(t, oil.Billing.Invoice)

	record := func(invoiceID, amount, method string, paidAt *time.Time) {
		_, err := g.Payments.Record(ctx, paymentdomain.CreatePaymentRequest{
			InvoiceID: invoiceID,
			Amount:    testutil.Dec(amount),
			Method:    method,
			PaidAt:    paidAt,
		})
		require.NoError(t, err)
	}
	record(brakes.Billing.Invoice.ID.String(), "60", paymentdomain.MethodCard, day(2026, time.March, 5))
	record(brakes.Billing.Invoice.ID.String(), "50", paymentdomain.MethodCash, day(2026, time.March, 31))
	record(oil.Billing.Invoice.ID.String(), "35", paymentdomain.MethodCard, day(2026, time.April, 2))
}

func TestRevenueForPeriod(t *testing.T) {
	g := testutil.NewGarage(t)
	seedRevenue(t, g)

	report, err := newService(g).GetRevenue(context.Background(), billingoverview.RevenueRequest{
		Start: day(2026, time.March, 1),
		End:   day(2026, time.March, 31),
	})
	require.NoError(t, err)

	assert.True(t, report.HasData)
	assert.Equal(t, int64(3), report.PaymentCount)
	testutil.AssertDec(t, "130", report.TotalRevenue)
	testutil.AssertDec(t, "43.33", report.AveragePayment)

	require.Len(t, report.ByMethod, 2)
	assert.Equal(t, paymentdomain.MethodCash, report.ByMethod[0].Key)
	testutil.AssertDec(t, "70", report.ByMethod[0].Amount)
	assert.Equal(t, int64(2), report.ByMethod[0].Count)
	assert.Equal(t, paymentdomain.MethodCard, report.ByMethod[1].Key)
	testutil.AssertDec(t, "60", report.ByMethod[1].Amount)

	require.Len(t, report.ByServiceType, 2)
	assert.Equal(t, "Brake pads", report.ByServiceType[0].Key)
	testutil.AssertDec(t, "110", report.ByServiceType[0].Amount)
	assert.Equal(t, "Oil change", report.ByServiceType[1].Key)
	testutil.AssertDec(t, "20", report.ByServiceType[1].Amount)
}

func TestRevenueWithoutBounds(t *testing.T) {
	g := testutil.NewGarage(t)
	seedRevenue(t, g)

	report, err := newService(g).GetRevenue(context.Background(), billingoverview.RevenueRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), report.PaymentCount)
	testutil.AssertDec(t, "165", report.TotalRevenue)
	testutil.AssertDec(t, "41.25", report.AveragePayment)
	assert.Nil(t, report.Start)
	assert.Nil(t, report.End)
}

func TestRevenueEmptyPeriod(t *testing.T) {
	g := testutil.NewGarage(t)
	seedRevenue(t, g)

	report, err := newService(g).GetRevenue(context.Background(), billingoverview.RevenueRequest{
		Start: day(2025, time.January, 1),
		End:   day(2025, time.January, 31),
	})
	require.NoError(t, err)
	assert.False(t, report.HasData)
	assert.Zero(t, report.PaymentCount)
	testutil.AssertDec(t, "0", report.TotalRevenue)
	testutil.AssertDec(t, "0", report.AveragePayment)
	assert.Empty(t, report.ByMethod)
	assert.Empty(t, report.ByServiceType)
}

func TestRevenueRejectsInvertedPeriod(t *testing.T) {
	g := testutil.NewGarage(t)

	_, err := newService(g).GetRevenue(context.Background(), billingoverview.RevenueRequest{
		Start: day(2026, time.April, 1),
		End:   day(2026, time.March, 1),
	})
	assert.ErrorIs(t, err, billingoverview.ErrInvalidPeriod)
}
