package repository

import (
	"context"

	"github.com/smallbiznis/garagedesk/internal/billingsetting/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Find(ctx context.Context, db *gorm.DB) (*domain.BillingSetting, error) {
	return r.find(db.WithContext(ctx))
}

func (r *repo) FindForUpdate(ctx context.Context, db *gorm.DB) (*domain.BillingSetting, error) {
	return r.find(db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}))
}

func (r *repo) find(stmt *gorm.DB) (*domain.BillingSetting, error) {
	var rows []domain.BillingSetting
	err := stmt.
		Model(&domain.BillingSetting{}).
		Where("id = ?", domain.SingletonID).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *repo) InsertIfMissing(ctx context.Context, db *gorm.DB, setting *domain.BillingSetting) error {
	setting.ID = domain.SingletonID
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(setting).Error
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, setting *domain.BillingSetting) error {
	return db.WithContext(ctx).Exec(
		`UPDATE billing_settings SET tax_rate = ?, invoice_prefix = ?, next_invoice_number = ?,
		 payment_terms = ?, due_days = ?, company_name = ?, company_address = ?, company_city = ?,
		 company_phone = ?, company_email = ?, updated_at = ?
		 WHERE id = ?`,
		setting.TaxRate,
		setting.InvoicePrefix,
		setting.NextInvoiceNumber,
		setting.PaymentTerms,
		setting.DueDays,
		setting.CompanyName,
		setting.CompanyAddress,
		setting.CompanyCity,
		setting.CompanyPhone,
		setting.CompanyEmail,
		setting.UpdatedAt,
		domain.SingletonID,
	).Error
}

func (r *repo) UpdateCounter(ctx context.Context, db *gorm.DB, next int64) error {
	return db.WithContext(ctx).Exec(
		`UPDATE billing_settings SET next_invoice_number = ? WHERE id = ?`,
		next, domain.SingletonID,
	).Error
}
