package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/garagedesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *ServiceRecord) error
	Update(ctx context.Context, db *gorm.DB, record *ServiceRecord) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ServiceRecord, error)
	// FindByIDForUpdate locks the row for the rest of the transaction.
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ServiceRecord, error)
	List(ctx context.Context, db *gorm.DB, filter ListServiceFilter, page pagination.Pagination) ([]*ServiceRecord, error)
	UpdateRemainingBalance(ctx context.Context, db *gorm.DB, id snowflake.ID, balance decimal.Decimal) error
	HasInvoice(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
	VehicleExists(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
	TechnicianExists(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
}
