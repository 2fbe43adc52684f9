package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/garagedesk/pkg/db/option"
	"gorm.io/gorm"
)

// Repository is a generic gorm-backed store. Zero-valued fields of a
// query struct are ignored when filtering.
type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Create(ctx context.Context, resource *T) error
	Update(ctx context.Context, resourceID snowflake.ID, fields map[string]any) error
	Delete(ctx context.Context, resourceID snowflake.ID) error
	Count(ctx context.Context, query *T, opts ...option.QueryOption) (int64, error)
}
