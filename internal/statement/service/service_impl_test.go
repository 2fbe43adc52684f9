package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/garagedesk/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/garagedesk/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/garagedesk/internal/payment/domain"
	statementdomain "github.com/smallbiznis/garagedesk/internal/statement/domain"
	"github.com/smallbiznis/garagedesk/internal/statement/service"
	"github.com/smallbiznis/garagedesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newService(g *testutil.Garage) statementdomain.Service {
	return service.NewService(service.Params{
		DB:           g.DB,
		Log:          zap.NewNop(),
		Clock:        g.Clock,
		CustomerRepo: g.CustomerRepo,
		InvoiceRepo:  g.InvoiceRepo,
		PaymentRepo:  g.PaymentRepo,
	})
}

func TestStatementTotals(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	svc := newService(g)
	vehicle := g.SeedVehicle(t)

	first := g.Invoices.Generate(ctx, g.SeedService(t, vehicle.ID, "100", false, "0").ID.String())
	second := g.Invoices.Generate(ctx, g.SeedService(t, vehicle.ID, "50", false, "0").ID.String())
	require.NoError(t, first.Err)
	require.NoError(t, second.Err)

	_, err := g.Payments.Record(ctx, paymentdomain.CreatePaymentRequest{
		InvoiceID: first.Invoice.ID.String(),
		Amount:    testutil.Dec("30"),
		Method:    "cash",
		Reference: "R-7",
	})
	require.NoError(t, err)
	_, err = g.Invoices.Cancel(ctx, second.Invoice.ID.String(), "")
	require.NoError(t, err)

	stmt, err := svc.Generate(ctx, statementdomain.StatementRequest{CustomerID: vehicle.CustomerID.String()})
	require.NoError(t, err)
	assert.Equal(t, vehicle.CustomerID, stmt.Customer.ID)
	assert.Len(t, stmt.Invoices, 2)
	assert.Len(t, stmt.Payments, 1)
	assert.Len(t, stmt.History, 3)
	assert.True(t, stmt.HasData)
	testutil.AssertDec(t, "110", stmt.Totals.TotalBilled)
	testutil.AssertDec(t, "30", stmt.Totals.TotalPaid)
	testutil.AssertDec(t, "80", stmt.Totals.Balance)
	testutil.AssertDec(t, "0", stmt.Totals.Overdue)

	var descriptions []string
	for _, entry := range stmt.History {
		descriptions = append(descriptions, entry.Description)
	}
	assert.Contains(t, descriptions, "Payment received: cash (R-7)")
	assert.Contains(t, descriptions, "Invoice generated: "+first.Invoice.InvoiceNumber)
}

func TestStatementPeriodAndOverdue(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	svc := newService(g)
	vehicle := g.SeedVehicle(t)

	old := g.Invoices.Generate(ctx, g.SeedService(t, vehicle.ID, "100", false, "0").ID.String())
	require.NoError(t, old.Err)

	g.Clock.Advance(40 * 24 * time.Hour)
	_, err := g.Invoices.MarkOverdue(ctx, 10)
	require.NoError(t, err)
	recent := g.Invoices.Generate(ctx, g.SeedService(t, vehicle.ID, "20", false, "5").ID.String())
	require.NoError(t, recent.Err)

	start := testutil.GarageEpoch.AddDate(0, 0, 35)
	end := g.Clock.Now()
	stmt, err := svc.Generate(ctx, statementdomain.StatementRequest{
		CustomerID: vehicle.CustomerID.String(),
		Start:      &start,
		End:        &end,
	})
	require.NoError(t, err)
	require.Len(t, stmt.Invoices, 1)
	assert.Equal(t, recent.Invoice.ID, stmt.Invoices[0].ID)
	testutil.AssertDec(t, "22", stmt.Totals.TotalBilled)
	testutil.AssertDec(t, "5", stmt.Totals.TotalPaid)
	// balance and overdue span every invoice of the customer
	testutil.AssertDec(t, "127", stmt.Totals.Balance)
	testutil.AssertDec(t, "110", stmt.Totals.Overdue)
	assert.Equal(t, invoicedomain.InvoiceStatusOverdue, g.Invoice(t, old.Invoice.ID).Status)
}

func TestStatementErrors(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	svc := newService(g)

	_, err := svc.Generate(ctx, statementdomain.StatementRequest{CustomerID: "abc"})
	assert.ErrorIs(t, err, statementdomain.ErrInvalidCustomer)

	_, err = svc.Generate(ctx, statementdomain.StatementRequest{CustomerID: "12345"})
	assert.ErrorIs(t, err, statementdomain.ErrCustomerNotFound)

	customer := domain.Customer{ID: g.GenID.Generate(), Name: "Empty", Email: "empty@example.com", CreatedAt: g.Clock.Now(), UpdatedAt: g.Clock.Now()}
	require.NoError(t, g.CustomerRepo.Insert(ctx, g.DB, &customer))

	start := g.Clock.Now()
	end := start.AddDate(0, 0, -2)
	_, err = svc.Generate(ctx, statementdomain.StatementRequest{CustomerID: customer.ID.String(), Start: &start, End: &end})
	assert.ErrorIs(t, err, statementdomain.ErrInvalidPeriod)

	stmt, err := svc.Generate(ctx, statementdomain.StatementRequest{CustomerID: customer.ID.String()})
	require.NoError(t, err)
	assert.False(t, stmt.HasData)
	assert.Empty(t, stmt.Invoices)
	testutil.AssertDec(t, "0", stmt.Totals.Balance)
}
