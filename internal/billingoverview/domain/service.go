package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/garagedesk/pkg/apperr"
)

// RevenueRequest bounds the report by payment date. Start and End are
// inclusive; either may be left open.
type RevenueRequest struct {
	Start *time.Time
	End   *time.Time
}

// Breakdown is the revenue collected under one payment method or service type.
type Breakdown struct {
	Key    string          `json:"key"`
	Amount decimal.Decimal `json:"amount"`
	Count  int64           `json:"count"`
}

type RevenueReport struct {
	Start          *time.Time      `json:"start,omitempty"`
	End            *time.Time      `json:"end,omitempty"`
	GeneratedAt    time.Time       `json:"generated_at"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	PaymentCount   int64           `json:"payment_count"`
	AveragePayment decimal.Decimal `json:"average_payment"`
	ByMethod       []Breakdown     `json:"by_method"`
	ByServiceType  []Breakdown     `json:"by_service_type"`
	HasData        bool            `json:"has_data"`
}

// Service reports money received over a period.
type Service interface {
	GetRevenue(ctx context.Context, req RevenueRequest) (RevenueReport, error)
}

var ErrInvalidPeriod = apperr.Validation("invalid_period")
