package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	StatusPending    = "Pending"
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"
)

func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ServiceRecord is one repair or maintenance job on a vehicle.
// RemainingBalance is cost - advance until an invoice exists, then it
// mirrors the invoice balance due.
type ServiceRecord struct {
	ID                   snowflake.ID    `gorm:"primaryKey" json:"id"`
	VehicleID            snowflake.ID    `gorm:"not null;index" json:"vehicle_id"`
	TechnicianID         *snowflake.ID   `gorm:"index" json:"technician_id,omitempty"`
	ServiceType          string          `gorm:"column:service_type;type:varchar(100);not null" json:"type"`
	Description          string          `gorm:"type:text" json:"description"`
	ServiceDate          datatypes.Date  `gorm:"not null" json:"service_date"`
	Cost                 decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"cost"`
	TaxIncluded          bool            `gorm:"not null" json:"tax_included"`
	AdvancePayment       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"advance_payment"`
	AdvancePaymentMethod string          `gorm:"type:varchar(20)" json:"advance_payment_method,omitempty"`
	RemainingBalance     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"remaining_balance"`
	Status               string          `gorm:"type:varchar(20);not null;index" json:"status"`
	EstimatedHours       decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"estimated_hours"`
	CreatedAt            time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt            time.Time       `gorm:"not null" json:"updated_at"`
}

func (ServiceRecord) TableName() string { return "service_records" }
