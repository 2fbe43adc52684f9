package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallbiznis/garagedesk/internal/invoice/domain"
	"github.com/smallbiznis/garagedesk/pkg/apperr"
	"gorm.io/gorm"
)

// Reconciliation is the invoice state after a reconcile pass.
type Reconciliation struct {
	InvoiceID  snowflake.ID                `json:"invoice_id"`
	PaidAmount decimal.Decimal             `json:"paid_amount"`
	BalanceDue decimal.Decimal             `json:"balance_due"`
	Status     invoicedomain.InvoiceStatus `json:"status"`
	// StatusChanged is set when the pass moved the invoice to another status.
	StatusChanged bool `json:"-"`
}

// Reconciler recomputes an invoice's paid amount, balance and status from
// its payments and mirrors the balance onto the originating service. It
// runs inside the caller's transaction.
type Reconciler interface {
	ReconcileTx(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID) (Reconciliation, error)
}

type CreatePaymentRequest struct {
	InvoiceID string          `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	PaidAt    *time.Time      `json:"paid_at"`
	Reference string          `json:"reference"`
	Notes     string          `json:"notes"`
}

type UpdatePaymentRequest struct {
	ID        string           `json:"-"`
	Amount    *decimal.Decimal `json:"amount"`
	Method    *string          `json:"method"`
	PaidAt    *time.Time       `json:"paid_at"`
	Reference *string          `json:"reference"`
	Notes     *string          `json:"notes"`
}

// PaymentResult carries the payment together with the reconciled invoice state.
type PaymentResult struct {
	Payment        Payment        `json:"payment"`
	Reconciliation Reconciliation `json:"reconciliation"`
}

type Receipt struct {
	Filename string
	Content  []byte
}

type Service interface {
	Record(ctx context.Context, req CreatePaymentRequest) (PaymentResult, error)
	Update(ctx context.Context, req UpdatePaymentRequest) (PaymentResult, error)
	Delete(ctx context.Context, id string) (Reconciliation, error)
	Get(ctx context.Context, id string) (Payment, error)
	ListByInvoice(ctx context.Context, invoiceID string) ([]Payment, error)
	Receipt(ctx context.Context, id string) (Receipt, error)
}

var (
	ErrInvalidPaymentID  = apperr.Validation("invalid_payment_id")
	ErrInvalidInvoiceID  = apperr.Validation("invalid_invoice_id")
	ErrInvalidAmount     = apperr.Validation("invalid_amount")
	ErrInvalidMethod     = apperr.Validation("invalid_payment_method")
	ErrReservedNote      = apperr.Validation("reserved_payment_note")
	ErrPaymentNotFound   = apperr.NotFound("payment_not_found")
	ErrInvoiceNotFound   = apperr.NotFound("invoice_not_found")
	ErrInvoiceCanceled   = apperr.Conflict("invoice_canceled")
	ErrAdvancePaymentRow = apperr.Conflict("advance_payment_managed_by_service")
)
