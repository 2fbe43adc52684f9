package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/garagedesk/internal/servicerecord/domain"
	"github.com/smallbiznis/garagedesk/pkg/db/option"
	"github.com/smallbiznis/garagedesk/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, rec *domain.ServiceRecord) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO service_records (
			id, vehicle_id, technician_id, service_type, description, service_date,
			cost, tax_included, advance_payment, advance_payment_method, remaining_balance,
			status, estimated_hours, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.VehicleID,
		rec.TechnicianID,
		rec.ServiceType,
		rec.Description,
		rec.ServiceDate,
		rec.Cost,
		rec.TaxIncluded,
		rec.AdvancePayment,
		rec.AdvancePaymentMethod,
		rec.RemainingBalance,
		rec.Status,
		rec.EstimatedHours,
		rec.CreatedAt,
		rec.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, rec *domain.ServiceRecord) error {
	return db.WithContext(ctx).Exec(
		`UPDATE service_records SET
			technician_id = ?, service_type = ?, description = ?, service_date = ?,
			cost = ?, tax_included = ?, advance_payment = ?, advance_payment_method = ?,
			remaining_balance = ?, status = ?, estimated_hours = ?, updated_at = ?
		 WHERE id = ?`,
		rec.TechnicianID,
		rec.ServiceType,
		rec.Description,
		rec.ServiceDate,
		rec.Cost,
		rec.TaxIncluded,
		rec.AdvancePayment,
		rec.AdvancePaymentMethod,
		rec.RemainingBalance,
		rec.Status,
		rec.EstimatedHours,
		rec.UpdatedAt,
		rec.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM service_records WHERE id = ?`, id).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ServiceRecord, error) {
	return r.findOne(db.WithContext(ctx), id)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ServiceRecord, error) {
	return r.findOne(db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *repo) findOne(stmt *gorm.DB, id snowflake.ID) (*domain.ServiceRecord, error) {
	var rows []domain.ServiceRecord
	if err := stmt.Model(&domain.ServiceRecord{}).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListServiceFilter, page pagination.Pagination) ([]*domain.ServiceRecord, error) {
	var records []*domain.ServiceRecord
	stmt := db.WithContext(ctx).Model(&domain.ServiceRecord{})
	if filter.VehicleID != 0 {
		stmt = stmt.Where("vehicle_id = ?", filter.VehicleID)
	}
	if filter.TechnicianID != 0 {
		stmt = stmt.Where("technician_id = ?", filter.TechnicianID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.CustomerID != 0 {
		stmt = stmt.Where("vehicle_id IN (?)",
			db.Table("vehicles").Select("id").Where("customer_id = ?", filter.CustomerID))
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	if err := stmt.Order("created_at desc, id desc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) UpdateRemainingBalance(ctx context.Context, db *gorm.DB, id snowflake.ID, balance decimal.Decimal) error {
	return db.WithContext(ctx).Exec(
		`UPDATE service_records SET remaining_balance = ? WHERE id = ?`,
		balance, id,
	).Error
}

func (r *repo) HasInvoice(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	return r.exists(ctx, db, `SELECT COUNT(1) FROM invoices WHERE service_id = ?`, id)
}

func (r *repo) VehicleExists(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	return r.exists(ctx, db, `SELECT COUNT(1) FROM vehicles WHERE id = ?`, id)
}

func (r *repo) TechnicianExists(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	return r.exists(ctx, db, `SELECT COUNT(1) FROM technicians WHERE id = ? AND active = ?`, id, true)
}

func (r *repo) exists(ctx context.Context, db *gorm.DB, query string, args ...any) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
