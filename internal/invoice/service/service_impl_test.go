package service_test

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	billingdomain "github.com/smallbiznis/garagedesk/internal/billingsetting/domain"
	invoicedomain "github.com/smallbiznis/garagedesk/internal/invoice/domain"
	invoiceservice "github.com/smallbiznis/garagedesk/internal/invoice/service"
	paymentdomain "github.com/smallbiznis/garagedesk/internal/payment/domain"
	"github.com/smallbiznis/garagedesk/internal/providers/pdf"
	"github.com/smallbiznis/garagedesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestGenerateTaxExclusive(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	vehicle := g.SeedVehicle(t)
	record := g.SeedService(t, vehicle.ID, "85", false, "0")

	res := g.Invoices.Generate(ctx, record.ID.String())
	require.NoError(t, res.Err)
	require.Equal(t, invoicedomain.OutcomeCreated, res.Outcome)

	inv := res.Invoice
	assert.Equal(t, "INV-1001", inv.InvoiceNumber)
	assert.Equal(t, invoicedomain.InvoiceStatusSent, inv.Status)
	assert.Equal(t, vehicle.CustomerID, inv.CustomerID)
	testutil.AssertDec(t, "85", inv.Subtotal)
	testutil.AssertDec(t, "8.50", inv.TaxAmount)
	testutil.AssertDec(t, "93.50", inv.Total)
	testutil.AssertDec(t, "0", inv.PaidAmount)
	testutil.AssertDec(t, "93.50", inv.BalanceDue)
	assert.True(t, inv.DueDate.Equal(testutil.GarageEpoch.AddDate(0, 0, 30)))
	assert.Equal(t, "Net 30", inv.PaymentTerms)

	require.Len(t, inv.Items, 1)
	assert.Equal(t, "Service: Oil change", inv.Items[0].Description)
	assert.Equal(t, "Engine oil and filter", inv.Items[0].Detail)
	testutil.AssertDec(t, "1", inv.Items[0].Quantity)
	testutil.AssertDec(t, "85", inv.Items[0].UnitPrice)
	testutil.AssertDec(t, "85", inv.Items[0].LineTotal)

	// the service mirrors the reconciled balance
	testutil.AssertDec(t, "93.50", g.Service(t, record.ID).RemainingBalance)

	settings, err := g.Settings.Get(ctx)
	require.NoError(t, err)
	assert.False(t, settings.IsDefault)
	assert.Equal(t, int64(1002), settings.NextInvoiceNumber)
}

func TestGenerateTaxInclusive(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	vehicle := g.SeedVehicle(t)
	record := g.SeedService(t, vehicle.ID, "110", true, "0")

	res := g.Invoices.Generate(ctx, record.ID.String())
	require.NoError(t, res.Err)

	testutil.AssertDec(t, "100", res.Invoice.Subtotal)
	testutil.AssertDec(t, "10", res.Invoice.TaxAmount)
	testutil.AssertDec(t, "110", res.Invoice.Total)
	assert.True(t, res.Invoice.TaxIncluded)
}

func TestGenerateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	record := g.SeedService(t, g.SeedVehicle(t).ID, "40", false, "0")

	first := g.Invoices.Generate(ctx, record.ID.String())
	require.Equal(t, invoicedomain.OutcomeCreated, first.Outcome)

	second := g.Invoices.Generate(ctx, record.ID.String())
	require.Equal(t, invoicedomain.OutcomeExisting, second.Outcome)
	assert.Equal(t, first.Invoice.ID, second.Invoice.ID)
	assert.Equal(t, first.Invoice.InvoiceNumber, second.Invoice.InvoiceNumber)
	assert.Len(t, second.Invoice.Items, 1)

	settings, err := g.Settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1002), settings.NextInvoiceNumber)
}

func TestGenerateWithAdvancePayment(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	record := g.SeedService(t, g.SeedVehicle(t).ID, "100", false, "50")

	res := g.Invoices.Generate(ctx, record.ID.String())
	require.NoError(t, res.Err)

	testutil.AssertDec(t, "110", res.Invoice.Total)
	testutil.AssertDec(t, "50", res.Invoice.PaidAmount)
	testutil.AssertDec(t, "60", res.Invoice.BalanceDue)
	assert.Equal(t, invoicedomain.InvoiceStatusSent, res.Invoice.Status)

	payments, err := g.Payments.ListByInvoice(ctx, res.Invoice.ID.String())
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, paymentdomain.AdvancePaymentNote, payments[0].Notes)
	assert.Equal(t, paymentdomain.MethodCash, payments[0].Method)
	testutil.AssertDec(t, "50", payments[0].Amount)

	testutil.AssertDec(t, "60", g.Service(t, record.ID).RemainingBalance)
}

func TestGenerateAdvanceCoversTotal(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	record := g.SeedService(t, g.SeedVehicle(t).ID, "100", false, "110")

	res := g.Invoices.Generate(ctx, record.ID.String())
	require.NoError(t, res.Err)
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, res.Invoice.Status)
	testutil.AssertDec(t, "0", res.Invoice.BalanceDue)
}

func TestGenerateUnknownService(t *testing.T) {
	g := testutil.NewGarage(t)

	res := g.Invoices.Generate(context.Background(), "123456")
	assert.True(t, res.Failed())
	assert.ErrorIs(t, res.Err, invoicedomain.ErrServiceNotFound)

	res = g.Invoices.Generate(context.Background(), "not-an-id")
	assert.ErrorIs(t, res.Err, invoicedomain.ErrInvalidServiceID)
}

func TestGenerateUsesStoredSettings(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)

	rate := testutil.Dec("0.15")
	prefix := "grg"
	next := int64(5000)
	_, err := g.Settings.Update(ctx, billingdomain.UpdateBillingSettingRequest{
		TaxRate:           &rate,
		InvoicePrefix:     &prefix,
		NextInvoiceNumber: &next,
	})
	require.NoError(t, err)

	record := g.SeedService(t, g.SeedVehicle(t).ID, "200", false, "0")
	res := g.Invoices.Generate(ctx, record.ID.String())
	require.NoError(t, res.Err)
	assert.Equal(t, "GRG-5000", res.Invoice.InvoiceNumber)
	testutil.AssertDec(t, "30", res.Invoice.TaxAmount)
	testutil.AssertDec(t, "230", res.Invoice.Total)
}

func TestNumberingSkipsTakenNumbers(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	vehicle := g.SeedVehicle(t)

	first := g.Invoices.Generate(ctx, g.SeedService(t, vehicle.ID, "10", false, "0").ID.String())
	require.Equal(t, "INV-1001", first.Invoice.InvoiceNumber)

	// counter rewound by hand onto a number that is already used
	reset := int64(1001)
	_, err := g.Settings.Update(ctx, billingdomain.UpdateBillingSettingRequest{NextInvoiceNumber: &reset})
	require.NoError(t, err)

	second := g.Invoices.Generate(ctx, g.SeedService(t, vehicle.ID, "10", false, "0").ID.String())
	require.NoError(t, second.Err)
	assert.Equal(t, "INV-1002", second.Invoice.InvoiceNumber)

	settings, err := g.Settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1003), settings.NextInvoiceNumber)
}

func TestConcurrentGenerationYieldsUniqueNumbers(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	vehicle := g.SeedVehicle(t)

	const n = 50
	ids := make([]string, n)
	for i := range ids {
		ids[i] = g.SeedService(t, vehicle.ID, "25", false, "0").ID.String()
	}

	results := make([]invoicedomain.GenerateResult, n)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = g.Invoices.Generate(ctx, ids[i])
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, res := range results {
		require.NoError(t, res.Err)
		require.Equal(t, invoicedomain.OutcomeCreated, res.Outcome)
		assert.False(t, seen[res.Invoice.InvoiceNumber], "duplicate %s", res.Invoice.InvoiceNumber)
		seen[res.Invoice.InvoiceNumber] = true
	}
	assert.Len(t, seen, n)

	settings, err := g.Settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1001+n), settings.NextInvoiceNumber)
}

func TestConcurrentGenerationForOneService(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	record := g.SeedService(t, g.SeedVehicle(t).ID, "25", false, "0")

	const n = 10
	results := make([]invoicedomain.GenerateResult, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = g.Invoices.Generate(ctx, record.ID.String())
		}(i)
	}
	wg.Wait()

	created := 0
	for _, res := range results {
		require.NoError(t, res.Err)
		if res.Outcome == invoicedomain.OutcomeCreated {
			created++
		}
		assert.Equal(t, results[0].Invoice.ID, res.Invoice.ID)
	}
	assert.Equal(t, 1, created)
}

func TestUpdateDiscountRederivesTotals(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	record := g.SeedService(t, g.SeedVehicle(t).ID, "100", false, "0")
	res := g.Invoices.Generate(ctx, record.ID.String())
	require.NoError(t, res.Err)

	discount := testutil.Dec("10")
	notes := " thanks for your custom "
	updated, err := g.Invoices.Update(ctx, invoicedomain.UpdateInvoiceRequest{
		ID:       res.Invoice.ID.String(),
		Discount: &discount,
		Notes:    &notes,
	})
	require.NoError(t, err)
	testutil.AssertDec(t, "100", updated.Subtotal)
	testutil.AssertDec(t, "10", updated.Discount)
	testutil.AssertDec(t, "9", updated.TaxAmount)
	testutil.AssertDec(t, "99", updated.Total)
	testutil.AssertDec(t, "99", updated.BalanceDue)
	assert.Equal(t, "thanks for your custom", updated.Notes)
	testutil.AssertDec(t, "99", g.Service(t, record.ID).RemainingBalance)

	tooMuch := testutil.Dec("150")
	_, err = g.Invoices.Update(ctx, invoicedomain.UpdateInvoiceRequest{ID: res.Invoice.ID.String(), Discount: &tooMuch})
	assert.Error(t, err)
}

func TestUpdateRejectsDiscountOnInclusiveInvoice(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	record := g.SeedService(t, g.SeedVehicle(t).ID, "110", true, "0")
	res := g.Invoices.Generate(ctx, record.ID.String())
	require.NoError(t, res.Err)

	discount := testutil.Dec("5")
	_, err := g.Invoices.Update(ctx, invoicedomain.UpdateInvoiceRequest{ID: res.Invoice.ID.String(), Discount: &discount})
	assert.ErrorIs(t, err, invoicedomain.ErrDiscountNotAllowed)
}

func TestSendAndCancel(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	res := g.Invoices.Generate(ctx, g.SeedService(t, g.SeedVehicle(t).ID, "50", false, "0").ID.String())
	require.NoError(t, res.Err)
	id := res.Invoice.ID.String()

	_, err := g.Invoices.Send(ctx, id)
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceNotDraft)

	canceled, err := g.Invoices.Cancel(ctx, id, "customer declined")
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusCanceled, canceled.Status)
	assert.Contains(t, canceled.Notes, "customer declined")

	_, err = g.Invoices.Cancel(ctx, id, "")
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceCanceled)

	_, err = g.Payments.Record(ctx, paymentdomain.CreatePaymentRequest{
		InvoiceID: id, Amount: testutil.Dec("10"), Method: "cash",
	})
	assert.ErrorIs(t, err, paymentdomain.ErrInvoiceCanceled)
}

func TestCancelPaidInvoiceRejected(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	res := g.Invoices.Generate(ctx, g.SeedService(t, g.SeedVehicle(t).ID, "100", false, "110").ID.String())
	require.NoError(t, res.Err)

	_, err := g.Invoices.Cancel(ctx, res.Invoice.ID.String(), "")
	assert.ErrorIs(t, err, invoicedomain.ErrInvoicePaid)
}

func TestMarkOverdue(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	vehicle := g.SeedVehicle(t)
	open := g.Invoices.Generate(ctx, g.SeedService(t, vehicle.ID, "50", false, "0").ID.String())
	settled := g.Invoices.Generate(ctx, g.SeedService(t, vehicle.ID, "50", false, "55").ID.String())
	require.NoError(t, open.Err)
	require.NoError(t, settled.Err)

	marked, err := g.Invoices.MarkOverdue(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, marked)

	g.Clock.Advance(31 * 24 * time.Hour)
	marked, err = g.Invoices.MarkOverdue(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	assert.Equal(t, invoicedomain.InvoiceStatusOverdue, g.Invoice(t, open.Invoice.ID).Status)
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, g.Invoice(t, settled.Invoice.ID).Status)

	marked, err = g.Invoices.MarkOverdue(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, marked)
}

func TestListInvoicesByStatus(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	vehicle := g.SeedVehicle(t)
	for _, advance := range []string{"0", "0", "200"} {
		res := g.Invoices.Generate(ctx, g.SeedService(t, vehicle.ID, "100", false, advance).ID.String())
		require.NoError(t, res.Err)
		g.Clock.Advance(time.Minute)
	}

	sent, err := g.Invoices.List(ctx, invoicedomain.ListInvoiceRequest{Status: "sent"})
	require.NoError(t, err)
	assert.Len(t, sent.Invoices, 2)

	firstPage, err := g.Invoices.List(ctx, invoicedomain.ListInvoiceRequest{PageSize: 2, CustomerID: vehicle.CustomerID.String()})
	require.NoError(t, err)
	assert.Len(t, firstPage.Invoices, 2)
	assert.True(t, firstPage.HasMore)

	rest, err := g.Invoices.List(ctx, invoicedomain.ListInvoiceRequest{PageSize: 2, PageToken: firstPage.NextPageToken})
	require.NoError(t, err)
	assert.Len(t, rest.Invoices, 1)
	assert.False(t, rest.HasMore)

	_, err = g.Invoices.List(ctx, invoicedomain.ListInvoiceRequest{Status: "bogus"})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidStatus)
}

func TestRenderPDF(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	res := g.Invoices.Generate(ctx, g.SeedService(t, g.SeedVehicle(t).ID, "85", false, "0").ID.String())
	require.NoError(t, res.Err)

	doc, err := g.Invoices.RenderPDF(ctx, res.Invoice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "invoice-INV-1001.pdf", doc.Filename)
	assert.True(t, bytes.HasPrefix(doc.Content, []byte("%PDF")))

	_, err = g.Invoices.RenderPDF(ctx, "42")
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceNotFound)
}

// ignoredInsertRepo reports every invoice insert as ignored, like MySQL does
// when ON DUPLICATE KEY swallows an invoice number collision.
type ignoredInsertRepo struct {
	invoicedomain.Repository
}

func (ignoredInsertRepo) Insert(context.Context, *gorm.DB, *invoicedomain.Invoice) (bool, error) {
	return false, nil
}

func TestIgnoredInsertWithoutInvoiceIsNumberConflict(t *testing.T) {
	ctx := context.Background()
	g := testutil.NewGarage(t)
	vehicle := g.SeedVehicle(t)
	record := g.SeedService(t, vehicle.ID, "85", false, "0")

	invoices := invoiceservice.New(invoiceservice.Params{
		DB:           g.DB,
		Log:          zap.NewNop(),
		GenID:        g.GenID,
		Clock:        g.Clock,
		Repo:         ignoredInsertRepo{g.InvoiceRepo},
		ServiceRepo:  g.ServiceRepo,
		PaymentRepo:  g.PaymentRepo,
		Reconciler:   g.Reconciler,
		SettingsRepo: g.SettingsRepo,
		Settings:     g.Provider,
		CustomerRepo: g.CustomerRepo,
		VehicleRepo:  g.VehicleRepo,
		AuditSvc:     g.Audit,
		PDF:          pdf.New(),
	})

	res := invoices.Generate(ctx, record.ID.String())
	assert.Equal(t, invoicedomain.OutcomeFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, invoicedomain.ErrDuplicateNumber)
	assert.Nil(t, res.Invoice)
}
