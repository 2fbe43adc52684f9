package domain

import (
	"context"

	"github.com/smallbiznis/garagedesk/pkg/apperr"
	"github.com/smallbiznis/garagedesk/pkg/db/pagination"
)

type CreateVehicleRequest struct {
	CustomerID  string `json:"customer_id"`
	Brand       string `json:"brand"`
	Model       string `json:"model"`
	Year        int    `json:"year"`
	PlateNumber string `json:"plate_number"`
	Color       string `json:"color"`
	Mileage     int    `json:"mileage"`
	FuelType    string `json:"fuel_type"`
}

type UpdateVehicleRequest struct {
	ID          string  `json:"-"`
	Brand       *string `json:"brand"`
	Model       *string `json:"model"`
	Year        *int    `json:"year"`
	PlateNumber *string `json:"plate_number"`
	Color       *string `json:"color"`
	Mileage     *int    `json:"mileage"`
	FuelType    *string `json:"fuel_type"`
}

type ListVehicleRequest struct {
	PageToken  string
	PageSize   int32
	CustomerID string
	Plate      string
}

type ListVehicleFilter struct {
	CustomerID int64
	Plate      string
}

type ListVehicleResponse struct {
	pagination.PageInfo
	Vehicles []Vehicle `json:"vehicles"`
}

type Service interface {
	Create(context.Context, CreateVehicleRequest) (Vehicle, error)
	Update(context.Context, UpdateVehicleRequest) (Vehicle, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Vehicle, error)
	List(context.Context, ListVehicleRequest) (ListVehicleResponse, error)
}

var (
	ErrInvalidID       = apperr.Validation("invalid_id")
	ErrInvalidCustomer = apperr.Validation("invalid_customer")
	ErrInvalidBrand    = apperr.Validation("invalid_brand")
	ErrInvalidModel    = apperr.Validation("invalid_model")
	ErrInvalidYear     = apperr.Validation("invalid_year")
	ErrInvalidPlate    = apperr.Validation("invalid_plate_number")
	ErrInvalidMileage  = apperr.Validation("invalid_mileage")
	ErrInvalidFuelType = apperr.Validation("invalid_fuel_type")
	ErrCustomerMissing = apperr.NotFound("customer_not_found")
	ErrNotFound        = apperr.NotFound("vehicle_not_found")
	ErrDuplicatePlate  = apperr.Conflict("plate_number_taken")
	ErrHasServices     = apperr.Conflict("vehicle_has_services")
)
