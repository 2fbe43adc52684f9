package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	customerdomain "github.com/smallbiznis/garagedesk/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/garagedesk/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/garagedesk/internal/payment/domain"
	"github.com/smallbiznis/garagedesk/pkg/apperr"
)

type EntryType string

const (
	EntryInvoice EntryType = "invoice"
	EntryPayment EntryType = "payment"
)

// StatementRequest selects a customer and an optional issue period.
// Start and End are inclusive dates.
type StatementRequest struct {
	CustomerID string
	Start      *time.Time
	End        *time.Time
}

type Totals struct {
	TotalBilled decimal.Decimal `json:"total_billed"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
	Balance     decimal.Decimal `json:"balance"`
	Overdue     decimal.Decimal `json:"overdue"`
}

// HistoryEntry is one line of the combined invoice and payment history,
// newest first.
type HistoryEntry struct {
	Type        EntryType                   `json:"type"`
	ID          string                      `json:"id"`
	Date        time.Time                   `json:"date"`
	Amount      decimal.Decimal             `json:"amount"`
	Description string                      `json:"description"`
	Status      invoicedomain.InvoiceStatus `json:"status"`
}

type Statement struct {
	Customer    customerdomain.Customer `json:"customer"`
	Start       *time.Time              `json:"start,omitempty"`
	End         *time.Time              `json:"end,omitempty"`
	GeneratedAt time.Time               `json:"generated_at"`
	Totals      Totals                  `json:"totals"`
	Invoices    []invoicedomain.Invoice `json:"invoices"`
	Payments    []paymentdomain.Payment `json:"payments"`
	History     []HistoryEntry          `json:"history"`
	HasData     bool                    `json:"has_data"`
}

type Service interface {
	Generate(ctx context.Context, req StatementRequest) (Statement, error)
}

var (
	ErrInvalidCustomer  = apperr.Validation("invalid_customer_id")
	ErrInvalidPeriod    = apperr.Validation("invalid_period")
	ErrCustomerNotFound = apperr.NotFound("customer_not_found")
)
