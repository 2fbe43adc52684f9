package domain

import (
	"context"
	"time"

	"github.com/smallbiznis/garagedesk/pkg/apperr"
	"github.com/smallbiznis/garagedesk/pkg/db/pagination"
)

// Entry describes one audited change. Actor fields default to the actor
// stored on the context, then to system.
type Entry struct {
	ActorType  string
	ActorID    string
	Action     string
	TargetType string
	TargetID   string
	Metadata   map[string]any
}

type ListAuditLogRequest struct {
	pagination.Pagination
	Action     string
	TargetType string
	TargetID   string
	StartAt    *time.Time
	EndAt      *time.Time
}

type ListAuditLogResponse struct {
	pagination.PageInfo
	AuditLogs []AuditLog `json:"audit_logs"`
}

type Service interface {
	AuditLog(ctx context.Context, entry Entry) error
	List(ctx context.Context, req ListAuditLogRequest) (ListAuditLogResponse, error)
}

var (
	ErrInvalidPageToken = apperr.Validation("invalid_page_token")
	ErrInvalidTimeRange = apperr.Validation("invalid_time_range")
	ErrInvalidAction    = apperr.Validation("invalid_action")
)
