package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/garagedesk/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, p *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (
			id, invoice_id, amount, method, paid_at, reference, notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.InvoiceID,
		p.Amount,
		p.Method,
		p.PaidAt,
		p.Reference,
		p.Notes,
		p.CreatedAt,
		p.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, p *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payments SET amount = ?, method = ?, paid_at = ?, reference = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		p.Amount,
		p.Method,
		p.PaidAt,
		p.Reference,
		p.Notes,
		p.UpdatedAt,
		p.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM payments WHERE id = ?`, id).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Payment, error) {
	var rows []domain.Payment
	if err := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *repo) ListByInvoice(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]domain.Payment, error) {
	var rows []domain.Payment
	err := db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("paid_at asc, created_at asc, id asc").
		Find(&rows).Error
	return rows, err
}

func (r *repo) ListByInvoices(ctx context.Context, db *gorm.DB, invoiceIDs []snowflake.ID) ([]domain.Payment, error) {
	if len(invoiceIDs) == 0 {
		return nil, nil
	}
	raw := make([]int64, 0, len(invoiceIDs))
	for _, id := range invoiceIDs {
		raw = append(raw, id.Int64())
	}
	var rows []domain.Payment
	err := db.WithContext(ctx).
		Where("invoice_id IN ?", raw).
		Order("paid_at asc, created_at asc, id asc").
		Find(&rows).Error
	return rows, err
}

func (r *repo) FindAdvance(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) (*domain.Payment, error) {
	var rows []domain.Payment
	err := db.WithContext(ctx).
		Where("invoice_id = ? AND notes = ?", invoiceID, domain.AdvancePaymentNote).
		Order("created_at asc, id asc").
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
