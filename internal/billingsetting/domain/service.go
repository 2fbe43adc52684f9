package domain

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/garagedesk/pkg/apperr"
	"gorm.io/gorm"
)

// Provider resolves billing settings, falling back to configured defaults
// when the row is missing. It never fails because the row is absent.
type Provider interface {
	Current(ctx context.Context, db *gorm.DB) (Settings, error)
	// Defaults builds a row from configured defaults.
	Defaults() BillingSetting
}

type UpdateBillingSettingRequest struct {
	TaxRate           *decimal.Decimal `json:"tax_rate"`
	InvoicePrefix     *string          `json:"invoice_prefix"`
	NextInvoiceNumber *int64           `json:"next_invoice_number"`
	PaymentTerms      *string          `json:"payment_terms"`
	DueDays           *int             `json:"due_days"`
	CompanyName       *string          `json:"company_name"`
	CompanyAddress    *string          `json:"company_address"`
	CompanyCity       *string          `json:"company_city"`
	CompanyPhone      *string          `json:"company_phone"`
	CompanyEmail      *string          `json:"company_email"`
}

type Service interface {
	Get(ctx context.Context) (Settings, error)
	Update(ctx context.Context, req UpdateBillingSettingRequest) (Settings, error)
}

var (
	ErrInvalidTaxRate       = apperr.Validation("invalid_tax_rate")
	ErrInvalidInvoicePrefix = apperr.Validation("invalid_invoice_prefix")
	ErrInvalidCounter       = apperr.Validation("invalid_next_invoice_number")
	ErrInvalidPaymentTerms  = apperr.Validation("invalid_payment_terms")
	ErrInvalidDueDays       = apperr.Validation("invalid_due_days")
	ErrMissingSettings      = apperr.Configuration("billing_settings_missing")
)
