package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/garagedesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListFilter struct {
	Status     InvoiceStatus
	CustomerID int64
	VehicleID  int64
}

type Repository interface {
	// Insert returns false when an invoice for the same service already exists.
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) (bool, error)
	InsertLineItems(ctx context.Context, db *gorm.DB, items []LineItem) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	// FindByIDForUpdate locks the invoice row for the rest of the transaction.
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	FindByServiceID(ctx context.Context, db *gorm.DB, serviceID snowflake.ID) (*Invoice, error)
	NumberExists(ctx context.Context, db *gorm.DB, number string) (bool, error)
	CustomerOfVehicle(ctx context.Context, db *gorm.DB, vehicleID snowflake.ID) (snowflake.ID, error)
	ListLineItems(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]LineItem, error)
	// SaveAmounts writes totals, balances, status and editable fields.
	SaveAmounts(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	UpdateBalances(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	UpdateServiceLine(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID, item LineItem) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Pagination) ([]*Invoice, error)
	ListByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]Invoice, error)
	ListOverdueCandidates(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]Invoice, error)
	MarkOverdue(ctx context.Context, db *gorm.DB, ids []snowflake.ID, now time.Time) (int64, error)
}
