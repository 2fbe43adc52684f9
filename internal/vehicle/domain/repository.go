package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/garagedesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, vehicle *Vehicle) error
	Update(ctx context.Context, db *gorm.DB, vehicle *Vehicle) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Vehicle, error)
	FindByPlate(ctx context.Context, db *gorm.DB, plate string) (*Vehicle, error)
	List(ctx context.Context, db *gorm.DB, filter ListVehicleFilter, page pagination.Pagination) ([]*Vehicle, error)
	CustomerExists(ctx context.Context, db *gorm.DB, customerID snowflake.ID) (bool, error)
	CountServices(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
}
