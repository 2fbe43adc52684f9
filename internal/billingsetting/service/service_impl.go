package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/garagedesk/internal/audit/domain"
	"github.com/smallbiznis/garagedesk/internal/billingsetting/domain"
	"github.com/smallbiznis/garagedesk/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxPrefixLength = 10

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Repo     domain.Repository
	Provider domain.Provider
	AuditSvc auditdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	repo     domain.Repository
	provider domain.Provider
	auditSvc auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("billingsetting.service"),
		clock:    p.Clock,
		repo:     p.Repo,
		provider: p.Provider,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Get(ctx context.Context) (domain.Settings, error) {
	return s.provider.Current(ctx, s.db)
}

func (s *Service) Update(ctx context.Context, req domain.UpdateBillingSettingRequest) (domain.Settings, error) {
	var (
		saved   domain.BillingSetting
		changes = map[string]any{}
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		defaults := s.provider.Defaults()
		if err := s.repo.InsertIfMissing(ctx, tx, &defaults); err != nil {
			return err
		}
		current, err := s.repo.FindForUpdate(ctx, tx)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrMissingSettings
		}

		next := *current
		if err := applyUpdate(&next, req, changes); err != nil {
			return err
		}
		next.UpdatedAt = s.clock.Now()
		if err := s.repo.Save(ctx, tx, &next); err != nil {
			return err
		}
		saved = next
		return nil
	})
	if err != nil {
		return domain.Settings{}, err
	}

	if len(changes) > 0 {
		_ = s.auditSvc.AuditLog(ctx, auditdomain.Entry{
			Action:     auditdomain.ActionBillingSettingsUpdated,
			TargetType: "billing_settings",
			Metadata:   changes,
		})
	}
	s.log.Info("billing settings updated", zap.Int("changed_fields", len(changes)))
	return domain.Settings{BillingSetting: saved}, nil
}

func applyUpdate(next *domain.BillingSetting, req domain.UpdateBillingSettingRequest, changes map[string]any) error {
	if req.TaxRate != nil {
		rate := *req.TaxRate
		if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) || !rate.Equal(rate.Round(4)) {
			return domain.ErrInvalidTaxRate
		}
		next.TaxRate = rate
		changes["tax_rate"] = rate.String()
	}
	if req.InvoicePrefix != nil {
		prefix := strings.ToUpper(strings.TrimSpace(*req.InvoicePrefix))
		if prefix == "" || len(prefix) > maxPrefixLength || strings.ContainsAny(prefix, " \t") {
			return domain.ErrInvalidInvoicePrefix
		}
		next.InvoicePrefix = prefix
		changes["invoice_prefix"] = prefix
	}
	if req.NextInvoiceNumber != nil {
		if *req.NextInvoiceNumber < 1 {
			return domain.ErrInvalidCounter
		}
		next.NextInvoiceNumber = *req.NextInvoiceNumber
		changes["next_invoice_number"] = *req.NextInvoiceNumber
	}
	if req.PaymentTerms != nil {
		terms := strings.TrimSpace(*req.PaymentTerms)
		if terms == "" {
			return domain.ErrInvalidPaymentTerms
		}
		next.PaymentTerms = terms
		changes["payment_terms"] = terms
	}
	if req.DueDays != nil {
		if *req.DueDays < 1 {
			return domain.ErrInvalidDueDays
		}
		next.DueDays = *req.DueDays
		changes["due_days"] = *req.DueDays
	}
	company := []struct {
		value *string
		dest  *string
		key   string
	}{
		{req.CompanyName, &next.CompanyName, "company_name"},
		{req.CompanyAddress, &next.CompanyAddress, "company_address"},
		{req.CompanyCity, &next.CompanyCity, "company_city"},
		{req.CompanyPhone, &next.CompanyPhone, "company_phone"},
		{req.CompanyEmail, &next.CompanyEmail, "company_email"},
	}
	for _, field := range company {
		if field.value == nil {
			continue
		}
		*field.dest = strings.TrimSpace(*field.value)
		changes[field.key] = *field.dest
	}
	return nil
}
