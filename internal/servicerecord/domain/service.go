package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallbiznis/garagedesk/internal/invoice/domain"
	"github.com/smallbiznis/garagedesk/pkg/apperr"
	"github.com/smallbiznis/garagedesk/pkg/db/pagination"
)

type CreateServiceRequest struct {
	VehicleID            string          `json:"vehicle_id"`
	TechnicianID         string          `json:"technician_id"`
	Type                 string          `json:"type"`
	Description          string          `json:"description"`
	ServiceDate          *time.Time      `json:"service_date"`
	Cost                 decimal.Decimal `json:"cost"`
	TaxIncluded          bool            `json:"tax_included"`
	AdvancePayment       decimal.Decimal `json:"advance_payment"`
	AdvancePaymentMethod string          `json:"advance_payment_method"`
	Status               string          `json:"status"`
	EstimatedHours       decimal.Decimal `json:"estimated_hours"`
}

// UpdateServiceRequest changes only the fields that are set. An empty
// TechnicianID unassigns the technician.
type UpdateServiceRequest struct {
	ID                   string           `json:"-"`
	TechnicianID         *string          `json:"technician_id"`
	Type                 *string          `json:"type"`
	Description          *string          `json:"description"`
	ServiceDate          *time.Time       `json:"service_date"`
	Cost                 *decimal.Decimal `json:"cost"`
	TaxIncluded          *bool            `json:"tax_included"`
	AdvancePayment       *decimal.Decimal `json:"advance_payment"`
	AdvancePaymentMethod *string          `json:"advance_payment_method"`
	Status               *string          `json:"status"`
	EstimatedHours       *decimal.Decimal `json:"estimated_hours"`
}

type UpdateStatusRequest struct {
	ID     string `json:"-"`
	Status string `json:"status"`
}

type ListServiceRequest struct {
	PageToken    string
	PageSize     int32
	VehicleID    string
	TechnicianID string
	CustomerID   string
	Status       string
}

type ListServiceFilter struct {
	VehicleID    int64
	TechnicianID int64
	CustomerID   int64
	Status       string
}

type ListServiceResponse struct {
	pagination.PageInfo
	Services []ServiceRecord `json:"services"`
}

// MutationResult is the committed service and what happened to its invoice.
// A failed Billing outcome never undoes the service change.
type MutationResult struct {
	Service ServiceRecord                `json:"service"`
	Billing invoicedomain.GenerateResult `json:"billing"`
}

type Service interface {
	Create(ctx context.Context, req CreateServiceRequest) (MutationResult, error)
	Update(ctx context.Context, req UpdateServiceRequest) (MutationResult, error)
	UpdateStatus(ctx context.Context, req UpdateStatusRequest) (MutationResult, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (ServiceRecord, error)
	List(ctx context.Context, req ListServiceRequest) (ListServiceResponse, error)
}

var (
	ErrInvalidID             = apperr.Validation("invalid_id")
	ErrInvalidVehicle        = apperr.Validation("invalid_vehicle_id")
	ErrInvalidTechnician     = apperr.Validation("invalid_technician_id")
	ErrInvalidType           = apperr.Validation("invalid_type")
	ErrInvalidCost           = apperr.Validation("invalid_cost")
	ErrInvalidAdvance        = apperr.Validation("invalid_advance_payment")
	ErrInvalidAdvanceMethod  = apperr.Validation("invalid_advance_payment_method")
	ErrInvalidStatus         = apperr.Validation("invalid_status")
	ErrInvalidEstimatedHours = apperr.Validation("invalid_estimated_hours")
	ErrInvalidPageToken      = apperr.Validation("invalid_page_token")
	ErrNotFound              = apperr.NotFound("service_not_found")
	ErrVehicleNotFound       = apperr.NotFound("vehicle_not_found")
	ErrTechnicianNotFound    = apperr.NotFound("technician_not_found")
	ErrHasInvoice            = apperr.Conflict("service_has_invoice")
)
