// Package domain contains persistence models for invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft    InvoiceStatus = "draft"
	InvoiceStatusSent     InvoiceStatus = "sent"
	InvoiceStatusPaid     InvoiceStatus = "paid"
	InvoiceStatusOverdue  InvoiceStatus = "overdue"
	InvoiceStatusCanceled InvoiceStatus = "canceled"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCanceled:
		return true
	}
	return false
}

const LineKindService = "service"

// Invoice is the billing document for exactly one service record.
type Invoice struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceNumber string          `gorm:"type:varchar(50);not null;uniqueIndex:ux_invoices_invoice_number" json:"invoice_number"`
	ServiceID     snowflake.ID    `gorm:"not null;uniqueIndex:ux_invoices_service_id" json:"service_id"`
	CustomerID    snowflake.ID    `gorm:"not null;index" json:"customer_id"`
	VehicleID     snowflake.ID    `gorm:"not null;index" json:"vehicle_id"`
	Status        InvoiceStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	IssuedAt      time.Time       `gorm:"not null" json:"issued_at"`
	DueDate       time.Time       `gorm:"not null;index" json:"due_date"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	TaxRate       decimal.Decimal `gorm:"type:decimal(6,4);not null" json:"tax_rate"`
	TaxAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax_amount"`
	Discount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	PaidAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"paid_amount"`
	BalanceDue    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"balance_due"`
	TaxIncluded   bool            `gorm:"not null" json:"tax_included"`
	PaymentTerms  string          `gorm:"type:varchar(100);not null" json:"payment_terms"`
	Notes         string          `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null" json:"updated_at"`

	Items []LineItem `gorm:"-" json:"line_items,omitempty"`
}

func (Invoice) TableName() string { return "invoices" }

type LineItem struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID   snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	Position    int             `gorm:"not null" json:"position"`
	Description string          `gorm:"type:varchar(255);not null" json:"description"`
	Detail      string          `gorm:"type:text" json:"detail"`
	Quantity    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"line_total"`
	Kind        string          `gorm:"type:varchar(20);not null" json:"kind"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
}

func (LineItem) TableName() string { return "invoice_line_items" }
