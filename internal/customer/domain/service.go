package domain

import (
	"context"

	"github.com/smallbiznis/garagedesk/pkg/apperr"
	"github.com/smallbiznis/garagedesk/pkg/db/pagination"
)

type ListCustomerRequest struct {
	PageToken string
	PageSize  int32
	Name      string
	Email     string
}

type ListCustomerFilter struct {
	Name  string
	Email string
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

type CreateCustomerRequest struct {
	Name    string  `json:"name"`
	NIC     *string `json:"nic"`
	Email   string  `json:"email"`
	Phone   string  `json:"phone"`
	Address string  `json:"address"`
}

// UpdateCustomerRequest changes only the fields that are set.
type UpdateCustomerRequest struct {
	ID      string  `json:"-"`
	Name    *string `json:"name"`
	NIC     *string `json:"nic"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

type GetCustomerRequest struct {
	ID string
}

type Service interface {
	Create(context.Context, CreateCustomerRequest) (Customer, error)
	Update(context.Context, UpdateCustomerRequest) (Customer, error)
	Delete(context.Context, GetCustomerRequest) error
	List(context.Context, ListCustomerRequest) (ListCustomerResponse, error)
	GetByID(context.Context, GetCustomerRequest) (Customer, error)
}

var (
	ErrInvalidName    = apperr.Validation("invalid_name")
	ErrInvalidEmail   = apperr.Validation("invalid_email")
	ErrInvalidNIC     = apperr.Validation("invalid_nic")
	ErrInvalidID      = apperr.Validation("invalid_id")
	ErrNotFound       = apperr.NotFound("customer_not_found")
	ErrDuplicateEmail = apperr.Conflict("customer_email_taken")
	ErrDuplicateNIC   = apperr.Conflict("customer_nic_taken")
	ErrHasVehicles    = apperr.Conflict("customer_has_vehicles")
)
