package service

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	billingoverview "github.com/smallbiznis/garagedesk/internal/billingoverview/domain"
	"github.com/smallbiznis/garagedesk/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
}

func NewService(p Params) billingoverview.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("billingoverview.service"),
		clock: p.Clock,
	}
}

type revenueRow struct {
	Method      string
	Amount      decimal.Decimal
	ServiceType string
}

// GetRevenue totals every payment received in the period, advance payments
// included, and splits it by payment method and by the service type of the
// invoiced job.
func (s *Service) GetRevenue(ctx context.Context, req billingoverview.RevenueRequest) (billingoverview.RevenueReport, error) {
	start, end, err := normalizeRange(req.Start, req.End)
	if err != nil {
		return billingoverview.RevenueReport{}, err
	}

	rows, err := s.listRevenueRows(ctx, start, end)
	if err != nil {
		return billingoverview.RevenueReport{}, err
	}

	report := billingoverview.RevenueReport{
		Start:          start,
		End:            end,
		GeneratedAt:    s.clock.Now(),
		TotalRevenue:   decimal.Zero,
		AveragePayment: decimal.Zero,
		ByMethod:       []billingoverview.Breakdown{},
		ByServiceType:  []billingoverview.Breakdown{},
	}

	byMethod := map[string]*billingoverview.Breakdown{}
	byType := map[string]*billingoverview.Breakdown{}
	for _, row := range rows {
		report.TotalRevenue = report.TotalRevenue.Add(row.Amount)
		report.PaymentCount++
		accumulate(byMethod, row.Method, row.Amount)
		accumulate(byType, row.ServiceType, row.Amount)
	}
	if report.PaymentCount > 0 {
		report.AveragePayment = report.TotalRevenue.
			Div(decimal.NewFromInt(report.PaymentCount)).
			Round(2)
	}
	report.ByMethod = sortedBreakdown(byMethod)
	report.ByServiceType = sortedBreakdown(byType)
	report.HasData = report.PaymentCount > 0

	s.log.Debug("revenue report generated",
		zap.Int64("payments", report.PaymentCount),
		zap.String("total", report.TotalRevenue.StringFixed(2)),
	)
	return report, nil
}

func (s *Service) listRevenueRows(ctx context.Context, start, end *time.Time) ([]revenueRow, error) {
	stmt := s.db.WithContext(ctx).
		Table("payments AS p").
		Select("p.method AS method, p.amount AS amount, sr.service_type AS service_type").
		Joins("JOIN invoices i ON i.id = p.invoice_id").
		Joins("JOIN service_records sr ON sr.id = i.service_id")
	if start != nil {
		stmt = stmt.Where("p.paid_at >= ?", *start)
	}
	if end != nil {
		stmt = stmt.Where("p.paid_at <= ?", *end)
	}

	var rows []revenueRow
	if err := stmt.Order("p.paid_at ASC, p.id ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func accumulate(into map[string]*billingoverview.Breakdown, key string, amount decimal.Decimal) {
	entry, ok := into[key]
	if !ok {
		entry = &billingoverview.Breakdown{Key: key, Amount: decimal.Zero}
		into[key] = entry
	}
	entry.Amount = entry.Amount.Add(amount)
	entry.Count++
}

// sortedBreakdown orders by amount, largest first, then by key.
func sortedBreakdown(in map[string]*billingoverview.Breakdown) []billingoverview.Breakdown {
	out := make([]billingoverview.Breakdown, 0, len(in))
	for _, entry := range in {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].Amount.Cmp(out[j].Amount); cmp != 0 {
			return cmp > 0
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// normalizeRange starts at midnight and widens End to the end of its day.
func normalizeRange(start, end *time.Time) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if start != nil {
		v := start.UTC().Truncate(24 * time.Hour)
		from = &v
	}
	if end != nil {
		v := end.UTC().Truncate(24 * time.Hour).Add(24*time.Hour - time.Nanosecond)
		to = &v
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, nil, billingoverview.ErrInvalidPeriod
	}
	return from, to, nil
}
