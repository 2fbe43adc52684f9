package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Technician struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	Name           string       `gorm:"type:varchar(100);not null" json:"name"`
	Specialization string       `gorm:"type:varchar(100)" json:"specialization"`
	Phone          string       `gorm:"type:varchar(20)" json:"phone"`
	Active         bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt      time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null" json:"updated_at"`

	// Workload counts assigned services that are Pending or In Progress.
	Workload int64 `gorm:"-" json:"workload"`
}

func (Technician) TableName() string { return "technicians" }
