package service_test

import (
	"testing"
	"time"

	invoicedomain "github.com/smallbiznis/garagedesk/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/garagedesk/internal/payment/domain"
	"github.com/smallbiznis/garagedesk/internal/payment/service"
	"github.com/smallbiznis/garagedesk/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -1)
	future := now.AddDate(0, 0, 1)

	cases := []struct {
		name    string
		current invoicedomain.InvoiceStatus
		balance string
		due     time.Time
		want    invoicedomain.InvoiceStatus
	}{
		{"settled sent", invoicedomain.InvoiceStatusSent, "0", future, invoicedomain.InvoiceStatusPaid},
		{"overpaid overdue", invoicedomain.InvoiceStatusOverdue, "-5", past, invoicedomain.InvoiceStatusPaid},
		{"settled draft", invoicedomain.InvoiceStatusDraft, "0", future, invoicedomain.InvoiceStatusPaid},
		{"reopened before due", invoicedomain.InvoiceStatusPaid, "10", future, invoicedomain.InvoiceStatusSent},
		{"reopened after due", invoicedomain.InvoiceStatusPaid, "10", past, invoicedomain.InvoiceStatusOverdue},
		{"open sent", invoicedomain.InvoiceStatusSent, "10", past, invoicedomain.InvoiceStatusSent},
		{"open draft", invoicedomain.InvoiceStatusDraft, "10", future, invoicedomain.InvoiceStatusDraft},
		{"canceled settled", invoicedomain.InvoiceStatusCanceled, "0", future, invoicedomain.InvoiceStatusCanceled},
		{"canceled open", invoicedomain.InvoiceStatusCanceled, "10", past, invoicedomain.InvoiceStatusCanceled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := service.DeriveStatus(tc.current, testutil.Dec(tc.balance), tc.due, now)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSumAmounts(t *testing.T) {
	payments := []paymentdomain.Payment{
		{Amount: testutil.Dec("10.25")},
		{Amount: testutil.Dec("4.75")},
		{Amount: testutil.Dec("0.01")},
	}
	testutil.AssertDec(t, "15.01", service.SumAmounts(payments))
	testutil.AssertDec(t, "0", service.SumAmounts(nil))
}
