package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/garagedesk/internal/vehicle/domain"
	"github.com/smallbiznis/garagedesk/pkg/db/option"
	"github.com/smallbiznis/garagedesk/pkg/db/pagination"
	"gorm.io/gorm"
)

const vehicleColumns = `id, customer_id, brand, model, year, plate_number, color, mileage, fuel_type, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, v *domain.Vehicle) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO vehicles (`+vehicleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.CustomerID, v.Brand, v.Model, v.Year, v.PlateNumber,
		v.Color, v.Mileage, v.FuelType, v.CreatedAt, v.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, v *domain.Vehicle) error {
	return db.WithContext(ctx).Exec(
		`UPDATE vehicles SET brand = ?, model = ?, year = ?, plate_number = ?, color = ?,
		 mileage = ?, fuel_type = ?, updated_at = ? WHERE id = ?`,
		v.Brand, v.Model, v.Year, v.PlateNumber, v.Color,
		v.Mileage, v.FuelType, v.UpdatedAt, v.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM vehicles WHERE id = ?`, id).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Vehicle, error) {
	return r.findOne(ctx, db, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = ?`, id)
}

func (r *repo) FindByPlate(ctx context.Context, db *gorm.DB, plate string) (*domain.Vehicle, error) {
	return r.findOne(ctx, db, `SELECT `+vehicleColumns+` FROM vehicles WHERE plate_number = ?`, plate)
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, query string, args ...any) (*domain.Vehicle, error) {
	var vehicle domain.Vehicle
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&vehicle).Error; err != nil {
		return nil, err
	}
	if vehicle.ID == 0 {
		return nil, nil
	}
	return &vehicle, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListVehicleFilter, page pagination.Pagination) ([]*domain.Vehicle, error) {
	var vehicles []*domain.Vehicle
	stmt := db.WithContext(ctx).Model(&domain.Vehicle{})
	if filter.CustomerID != 0 {
		stmt = stmt.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.Plate != "" {
		stmt = stmt.Where("plate_number LIKE ?", "%"+filter.Plate+"%")
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	if err := stmt.Order("created_at desc, id desc").Find(&vehicles).Error; err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (r *repo) CustomerExists(ctx context.Context, db *gorm.DB, customerID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(1) FROM customers WHERE id = ?`, customerID).Scan(&count).Error
	return count > 0, err
}

func (r *repo) CountServices(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(1) FROM service_records WHERE vehicle_id = ?`, id).Scan(&count).Error
	return count, err
}
