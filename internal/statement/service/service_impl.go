package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/garagedesk/internal/clock"
	customerdomain "github.com/smallbiznis/garagedesk/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/garagedesk/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/garagedesk/internal/payment/domain"
	"github.com/smallbiznis/garagedesk/internal/statement/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Clock        clock.Clock
	CustomerRepo customerdomain.Repository
	InvoiceRepo  invoicedomain.Repository
	PaymentRepo  paymentdomain.Repository
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	clock        clock.Clock
	customerRepo customerdomain.Repository
	invoiceRepo  invoicedomain.Repository
	paymentRepo  paymentdomain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("statement.service"),
		clock:        p.Clock,
		customerRepo: p.CustomerRepo,
		invoiceRepo:  p.InvoiceRepo,
		paymentRepo:  p.PaymentRepo,
	}
}

// Generate builds a customer statement. Canceled invoices are listed but
// excluded from the totals, together with their payments. Balance is the
// outstanding amount across all of the customer's invoices, not just the
// period.
func (s *Service) Generate(ctx context.Context, req domain.StatementRequest) (domain.Statement, error) {
	customerID, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
	if err != nil || customerID == 0 {
		return domain.Statement{}, domain.ErrInvalidCustomer
	}
	start, end, err := normalizePeriod(req.Start, req.End)
	if err != nil {
		return domain.Statement{}, err
	}

	customer, err := s.customerRepo.FindByID(ctx, s.db, customerID)
	if err != nil {
		return domain.Statement{}, err
	}
	if customer == nil {
		return domain.Statement{}, domain.ErrCustomerNotFound
	}

	all, err := s.invoiceRepo.ListByCustomer(ctx, s.db, customerID)
	if err != nil {
		return domain.Statement{}, err
	}

	now := s.clock.Now()
	stmt := domain.Statement{
		Customer:    *customer,
		Start:       start,
		End:         end,
		GeneratedAt: now,
		Totals: domain.Totals{
			TotalBilled: decimal.Zero,
			TotalPaid:   decimal.Zero,
			Balance:     decimal.Zero,
			Overdue:     decimal.Zero,
		},
		Invoices: make([]invoicedomain.Invoice, 0, len(all)),
		Payments: []paymentdomain.Payment{},
		History:  []domain.HistoryEntry{},
	}

	counted := map[snowflake.ID]bool{}
	ids := make([]snowflake.ID, 0, len(all))
	for _, inv := range all {
		if inv.Status != invoicedomain.InvoiceStatusCanceled {
			stmt.Totals.Balance = stmt.Totals.Balance.Add(inv.BalanceDue)
			if inv.Status == invoicedomain.InvoiceStatusOverdue {
				stmt.Totals.Overdue = stmt.Totals.Overdue.Add(inv.BalanceDue)
			}
		}
		if !inPeriod(inv.IssuedAt, start, end) {
			continue
		}
		stmt.Invoices = append(stmt.Invoices, inv)
		ids = append(ids, inv.ID)
		if inv.Status != invoicedomain.InvoiceStatusCanceled {
			counted[inv.ID] = true
			stmt.Totals.TotalBilled = stmt.Totals.TotalBilled.Add(inv.Total)
		}
		stmt.History = append(stmt.History, domain.HistoryEntry{
			Type:        domain.EntryInvoice,
			ID:          inv.ID.String(),
			Date:        inv.IssuedAt,
			Amount:      inv.Total,
			Description: "Invoice generated: " + inv.InvoiceNumber,
			Status:      inv.Status,
		})
	}

	payments, err := s.paymentRepo.ListByInvoices(ctx, s.db, ids)
	if err != nil {
		return domain.Statement{}, err
	}
	for _, p := range payments {
		paidAt := time.Time(p.PaidAt)
		if !inPeriod(paidAt, start, end) {
			continue
		}
		stmt.Payments = append(stmt.Payments, p)
		if counted[p.InvoiceID] {
			stmt.Totals.TotalPaid = stmt.Totals.TotalPaid.Add(p.Amount)
		}
		stmt.History = append(stmt.History, domain.HistoryEntry{
			Type:        domain.EntryPayment,
			ID:          p.ID.String(),
			Date:        paidAt,
			Amount:      p.Amount,
			Description: paymentDescription(p),
			Status:      invoicedomain.InvoiceStatusPaid,
		})
	}

	sort.SliceStable(stmt.History, func(i, j int) bool {
		return stmt.History[i].Date.After(stmt.History[j].Date)
	})
	stmt.HasData = len(stmt.History) > 0

	s.log.Debug("statement generated",
		zap.String("customer_id", customerID.String()),
		zap.Int("invoices", len(stmt.Invoices)),
		zap.Int("payments", len(stmt.Payments)),
	)
	return stmt, nil
}

func paymentDescription(p paymentdomain.Payment) string {
	desc := fmt.Sprintf("Payment received: %s", p.Method)
	if p.IsAdvance() {
		desc = fmt.Sprintf("Advance payment: %s", p.Method)
	}
	if p.Reference != "" {
		desc += " (" + p.Reference + ")"
	}
	return desc
}

// normalizePeriod widens End to the end of its day.
func normalizePeriod(start, end *time.Time) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if start != nil {
		v := start.UTC()
		from = &v
	}
	if end != nil {
		v := end.UTC().Truncate(24 * time.Hour).Add(24*time.Hour - time.Nanosecond)
		to = &v
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, nil, domain.ErrInvalidPeriod
	}
	return from, to, nil
}

func inPeriod(t time.Time, start, end *time.Time) bool {
	if start != nil && t.Before(*start) {
		return false
	}
	if end != nil && t.After(*end) {
		return false
	}
	return true
}
