package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Customer struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:varchar(150);not null" json:"name"`
	NIC       *string      `gorm:"column:nic;type:varchar(20);uniqueIndex:ux_customers_nic" json:"nic,omitempty"`
	Email     string       `gorm:"type:varchar(255);not null;uniqueIndex:ux_customers_email" json:"email"`
	Phone     string       `gorm:"type:varchar(20)" json:"phone"`
	Address   string       `gorm:"type:text" json:"address"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

func (Customer) TableName() string { return "customers" }
