package service

import (
	"context"
	"time"

	"github.com/smallbiznis/garagedesk/internal/billingsetting/domain"
	"github.com/smallbiznis/garagedesk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ProviderParams struct {
	fx.In

	Log      *zap.Logger
	Defaults *config.BillingDefaultsHolder
	Repo     domain.Repository
}

type provider struct {
	log      *zap.Logger
	defaults *config.BillingDefaultsHolder
	repo     domain.Repository
}

func NewProvider(p ProviderParams) domain.Provider {
	return &provider{
		log:      p.Log.Named("billingsetting.provider"),
		defaults: p.Defaults,
		repo:     p.Repo,
	}
}

func (p *provider) Current(ctx context.Context, db *gorm.DB) (domain.Settings, error) {
	row, err := p.repo.Find(ctx, db)
	if err != nil {
		return domain.Settings{}, err
	}
	if row != nil {
		return domain.Settings{BillingSetting: *row}, nil
	}

	p.log.Warn("billing settings row missing, using configured defaults",
		zap.String("error_code", domain.ErrMissingSettings.Code),
	)
	return domain.Settings{BillingSetting: p.Defaults(), IsDefault: true}, nil
}

func (p *provider) Defaults() domain.BillingSetting {
	d := p.defaults.Get()
	return domain.BillingSetting{
		ID:                domain.SingletonID,
		TaxRate:           d.Rate(),
		InvoicePrefix:     d.InvoicePrefix,
		NextInvoiceNumber: d.FirstInvoiceNumber,
		PaymentTerms:      d.PaymentTerms,
		DueDays:           d.DueDays,
		CompanyName:       d.Company.Name,
		CompanyAddress:    d.Company.Address,
		CompanyCity:       d.Company.City,
		CompanyPhone:      d.Company.Phone,
		CompanyEmail:      d.Company.Email,
		UpdatedAt:         time.Now().UTC(),
	}
}
