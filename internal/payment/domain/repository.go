package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	Update(ctx context.Context, db *gorm.DB, payment *Payment) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)
	ListByInvoice(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]Payment, error)
	ListByInvoices(ctx context.Context, db *gorm.DB, invoiceIDs []snowflake.ID) ([]Payment, error)
	// FindAdvance returns the synthetic advance row of an invoice, or nil.
	FindAdvance(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) (*Payment, error)
}
