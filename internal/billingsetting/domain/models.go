package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SingletonID is the primary key of the only billing_settings row.
const SingletonID int64 = 1

type BillingSetting struct {
	ID                int64           `gorm:"primaryKey;autoIncrement:false" json:"-"`
	TaxRate           decimal.Decimal `gorm:"type:decimal(6,4);not null" json:"tax_rate"`
	InvoicePrefix     string          `gorm:"type:varchar(10);not null" json:"invoice_prefix"`
	NextInvoiceNumber int64           `gorm:"not null" json:"next_invoice_number"`
	PaymentTerms      string          `gorm:"type:varchar(100);not null" json:"payment_terms"`
	DueDays           int             `gorm:"not null" json:"due_days"`
	CompanyName       string          `gorm:"type:varchar(200)" json:"company_name"`
	CompanyAddress    string          `gorm:"type:text" json:"company_address"`
	CompanyCity       string          `gorm:"type:varchar(100)" json:"company_city"`
	CompanyPhone      string          `gorm:"type:varchar(20)" json:"company_phone"`
	CompanyEmail      string          `gorm:"type:varchar(255)" json:"company_email"`
	UpdatedAt         time.Time       `gorm:"not null" json:"updated_at"`
}

func (BillingSetting) TableName() string { return "billing_settings" }

// Settings is the resolved configuration. IsDefault is set when no row
// exists and the values come from configured defaults.
type Settings struct {
	BillingSetting
	IsDefault bool `json:"is_default"`
}
