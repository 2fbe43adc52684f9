package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Find(ctx context.Context, db *gorm.DB) (*BillingSetting, error)
	// FindForUpdate reads the row under a row lock. Callers must be inside a transaction.
	FindForUpdate(ctx context.Context, db *gorm.DB) (*BillingSetting, error)
	// InsertIfMissing creates the row unless another writer already did.
	InsertIfMissing(ctx context.Context, db *gorm.DB, setting *BillingSetting) error
	Save(ctx context.Context, db *gorm.DB, setting *BillingSetting) error
	UpdateCounter(ctx context.Context, db *gorm.DB, next int64) error
}
