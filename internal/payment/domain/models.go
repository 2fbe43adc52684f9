package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	MethodCash         = "cash"
	MethodCard         = "card"
	MethodCheck        = "check"
	MethodBankTransfer = "bank_transfer"
)

func ValidMethod(method string) bool {
	switch method {
	case MethodCash, MethodCard, MethodCheck, MethodBankTransfer:
		return true
	}
	return false
}

// AdvancePaymentNote tags the payment row that mirrors a service's advance payment.
const AdvancePaymentNote = "Advance payment from Service record"

type Payment struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Method    string          `gorm:"type:varchar(20);not null" json:"method"`
	PaidAt    datatypes.Date  `gorm:"not null" json:"paid_at"`
	Reference string          `gorm:"type:varchar(100)" json:"reference"`
	Notes     string          `gorm:"type:text" json:"notes"`
	CreatedAt time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null" json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }

// IsAdvance reports whether the row was created from a service's advance payment.
func (p Payment) IsAdvance() bool {
	return p.Notes == AdvancePaymentNote
}
