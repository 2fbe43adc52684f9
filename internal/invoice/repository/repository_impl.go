package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/garagedesk/internal/invoice/domain"
	"github.com/smallbiznis/garagedesk/pkg/db/option"
	"github.com/smallbiznis/garagedesk/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) (bool, error) {
	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "service_id"}}, DoNothing: true}).
		Create(invoice)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) InsertLineItems(ctx context.Context, db *gorm.DB, items []domain.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&items).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	return r.findOne(db.WithContext(ctx), "id = ?", id)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	return r.findOne(db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
}

func (r *repo) FindByServiceID(ctx context.Context, db *gorm.DB, serviceID snowflake.ID) (*domain.Invoice, error) {
	return r.findOne(db.WithContext(ctx), "service_id = ?", serviceID)
}

func (r *repo) findOne(stmt *gorm.DB, query string, args ...any) (*domain.Invoice, error) {
	var rows []domain.Invoice
	if err := stmt.Model(&domain.Invoice{}).Where(query, args...).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *repo) NumberExists(ctx context.Context, db *gorm.DB, number string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM invoices WHERE invoice_number = ?`, number,
	).Scan(&count).Error
	return count > 0, err
}

func (r *repo) CustomerOfVehicle(ctx context.Context, db *gorm.DB, vehicleID snowflake.ID) (snowflake.ID, error) {
	var customerID int64
	err := db.WithContext(ctx).Raw(
		`SELECT customer_id FROM vehicles WHERE id = ?`, vehicleID,
	).Scan(&customerID).Error
	return snowflake.ID(customerID), err
}

func (r *repo) ListLineItems(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]domain.LineItem, error) {
	var items []domain.LineItem
	err := db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("position asc").
		Find(&items).Error
	return items, err
}

func (r *repo) SaveAmounts(ctx context.Context, db *gorm.DB, inv *domain.Invoice) error {
	return db.WithContext(ctx).Exec(
		`UPDATE invoices SET
			subtotal = ?, tax_rate = ?, tax_amount = ?, discount = ?, total = ?,
			paid_amount = ?, balance_due = ?, tax_included = ?, status = ?,
			due_date = ?, payment_terms = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		inv.Subtotal,
		inv.TaxRate,
		inv.TaxAmount,
		inv.Discount,
		inv.Total,
		inv.PaidAmount,
		inv.BalanceDue,
		inv.TaxIncluded,
		inv.Status,
		inv.DueDate,
		inv.PaymentTerms,
		inv.Notes,
		inv.UpdatedAt,
		inv.ID,
	).Error
}

func (r *repo) UpdateBalances(ctx context.Context, db *gorm.DB, inv *domain.Invoice) error {
	return db.WithContext(ctx).Exec(
		`UPDATE invoices SET paid_amount = ?, balance_due = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		inv.PaidAmount,
		inv.BalanceDue,
		inv.Status,
		inv.UpdatedAt,
		inv.ID,
	).Error
}

func (r *repo) UpdateServiceLine(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID, item domain.LineItem) error {
	return db.WithContext(ctx).Exec(
		`UPDATE invoice_line_items SET description = ?, detail = ?, unit_price = ?, line_total = ?
		 WHERE invoice_id = ? AND kind = ?`,
		item.Description,
		item.Detail,
		item.UnitPrice,
		item.LineTotal,
		invoiceID,
		domain.LineKindService,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, page pagination.Pagination) ([]*domain.Invoice, error) {
	var invoices []*domain.Invoice
	stmt := db.WithContext(ctx).Model(&domain.Invoice{})
	if filter.Status != "" {
		stmt = option.ApplyOperator(option.Condition{Field: "status", Operator: option.EQ, Value: filter.Status}).Apply(stmt)
	}
	if filter.CustomerID != 0 {
		stmt = option.ApplyOperator(option.Condition{Field: "customer_id", Operator: option.EQ, Value: filter.CustomerID}).Apply(stmt)
	}
	if filter.VehicleID != 0 {
		stmt = option.ApplyOperator(option.Condition{Field: "vehicle_id", Operator: option.EQ, Value: filter.VehicleID}).Apply(stmt)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	if err := stmt.Order("created_at desc, id desc").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repo) ListByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	err := db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("issued_at asc, id asc").
		Find(&invoices).Error
	return invoices, err
}

func (r *repo) ListOverdueCandidates(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	stmt := db.WithContext(ctx).
		Where("status = ? AND balance_due > 0 AND due_date < ?", domain.InvoiceStatusSent, now).
		Order("due_date asc, id asc")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	err := stmt.Find(&invoices).Error
	return invoices, err
}

func (r *repo) MarkOverdue(ctx context.Context, db *gorm.DB, ids []snowflake.ID, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	raw := make([]int64, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, id.Int64())
	}
	// status is re-checked so a payment that landed meanwhile is not overwritten
	result := db.WithContext(ctx).Exec(
		`UPDATE invoices SET status = ?, updated_at = ?
		 WHERE id IN ? AND status = ? AND balance_due > 0`,
		domain.InvoiceStatusOverdue, now, raw, domain.InvoiceStatusSent,
	)
	return result.RowsAffected, result.Error
}
