package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const DefaultFuelType = "Petrol"

type Vehicle struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID  snowflake.ID `gorm:"not null;index" json:"customer_id"`
	Brand       string       `gorm:"type:varchar(50);not null" json:"brand"`
	Model       string       `gorm:"type:varchar(50);not null" json:"model"`
	Year        int          `gorm:"not null" json:"year"`
	PlateNumber string       `gorm:"type:varchar(20);not null;uniqueIndex:ux_vehicles_plate_number" json:"plate_number"`
	Color       string       `gorm:"type:varchar(30)" json:"color"`
	Mileage     int          `gorm:"not null;default:0" json:"mileage"`
	FuelType    string       `gorm:"type:varchar(20);not null;default:'Petrol'" json:"fuel_type"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null" json:"updated_at"`
}

func (Vehicle) TableName() string { return "vehicles" }
