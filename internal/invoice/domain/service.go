package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/garagedesk/pkg/apperr"
	"github.com/smallbiznis/garagedesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type Outcome string

const (
	OutcomeCreated  Outcome = "created"
	OutcomeExisting Outcome = "existing"
	OutcomeSynced   Outcome = "synced"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
)

// GenerateResult reports what a billing side effect did. Err is set only
// when Outcome is failed.
type GenerateResult struct {
	Outcome Outcome  `json:"outcome"`
	Invoice *Invoice `json:"invoice,omitempty"`
	Err     error    `json:"-"`
}

func (r GenerateResult) Failed() bool {
	return r.Outcome == OutcomeFailed
}

// Generator derives and keeps invoices in step with service records.
// The Tx variants run in a savepoint of the caller's transaction so a
// failure never rolls back the caller's own writes.
type Generator interface {
	GenerateTx(ctx context.Context, tx *gorm.DB, serviceID snowflake.ID) GenerateResult
	SyncServiceTx(ctx context.Context, tx *gorm.DB, serviceID snowflake.ID) GenerateResult
	// AfterCommit records audit entries for a result once the caller's
	// transaction has committed.
	AfterCommit(ctx context.Context, result GenerateResult)
}

type ListInvoiceRequest struct {
	PageToken  string
	PageSize   int32
	Status     string
	CustomerID string
	VehicleID  string
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

// UpdateInvoiceRequest edits the fields staff may change after generation.
// Amounts are re-derived from the service cost.
type UpdateInvoiceRequest struct {
	ID           string           `json:"-"`
	Discount     *decimal.Decimal `json:"discount"`
	Notes        *string          `json:"notes"`
	DueDate      *time.Time       `json:"due_date"`
	PaymentTerms *string          `json:"payment_terms"`
}

type Document struct {
	Filename string
	Content  []byte
}

type Service interface {
	Generate(ctx context.Context, serviceID string) GenerateResult
	GetByID(ctx context.Context, id string) (Invoice, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
	Update(ctx context.Context, req UpdateInvoiceRequest) (Invoice, error)
	Send(ctx context.Context, id string) (Invoice, error)
	Cancel(ctx context.Context, id string, reason string) (Invoice, error)
	RenderPDF(ctx context.Context, id string) (Document, error)
	// MarkOverdue flags sent invoices past their due date. It returns the number flagged.
	MarkOverdue(ctx context.Context, limit int) (int, error)
}

var (
	ErrInvalidInvoiceID     = apperr.Validation("invalid_invoice_id")
	ErrInvalidServiceID     = apperr.Validation("invalid_service_id")
	ErrInvalidStatus        = apperr.Validation("invalid_status")
	ErrInvalidCustomer      = apperr.Validation("invalid_customer_id")
	ErrInvalidVehicle       = apperr.Validation("invalid_vehicle_id")
	ErrInvalidPaymentTerms  = apperr.Validation("invalid_payment_terms")
	ErrInvalidDueDate       = apperr.Validation("invalid_due_date")
	ErrDiscountNotAllowed   = apperr.Validation("discount_not_applicable_tax_inclusive")
	ErrInvoiceNotFound      = apperr.NotFound("invoice_not_found")
	ErrServiceNotFound      = apperr.NotFound("service_not_found")
	ErrVehicleNotFound      = apperr.NotFound("vehicle_not_found")
	ErrInvoiceNotDraft      = apperr.Conflict("invoice_not_draft")
	ErrInvoiceCanceled      = apperr.Conflict("invoice_canceled")
	ErrInvoicePaid          = apperr.Conflict("invoice_paid")
	ErrDuplicateNumber      = apperr.Conflict("invoice_number_taken")
	ErrNumberSpaceExhausted = apperr.Conflict("invoice_number_space_exhausted")
)
