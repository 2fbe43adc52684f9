package domain

import (
	"context"

	"github.com/smallbiznis/garagedesk/pkg/apperr"
)

type CreateTechnicianRequest struct {
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	Phone          string `json:"phone"`
}

type UpdateTechnicianRequest struct {
	ID             string  `json:"-"`
	Name           *string `json:"name"`
	Specialization *string `json:"specialization"`
	Phone          *string `json:"phone"`
	Active         *bool   `json:"active"`
}

type ListTechnicianRequest struct {
	ActiveOnly bool
}

type Service interface {
	Create(context.Context, CreateTechnicianRequest) (Technician, error)
	Update(context.Context, UpdateTechnicianRequest) (Technician, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Technician, error)
	List(context.Context, ListTechnicianRequest) ([]Technician, error)
}

var (
	ErrInvalidID    = apperr.Validation("invalid_id")
	ErrInvalidName  = apperr.Validation("invalid_name")
	ErrNotFound     = apperr.NotFound("technician_not_found")
	ErrHasWorkload  = apperr.Conflict("technician_has_open_services")
	ErrHasHistories = apperr.Conflict("technician_has_services")
)
