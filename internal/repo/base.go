package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
)

// Base holds the connection shared by gorm-backed repositories and maps
// driver failures onto storefront error codes.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx. A nil ctx yields the raw handle.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Active scopes model to rows flagged is_active.
func (b Base) Active(ctx context.Context, model any) *gorm.DB {
	return b.DB(ctx).Model(model).Where("is_active = ?", true)
}

// Upsert creates rows, overwriting every column of rows whose primary key
// already exists.
func (b Base) Upsert(ctx context.Context, rows any) error {
	return b.DB(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(rows).Error
}

// Classify wraps err as ITEM_NOT_FOUND for missing rows and DEPENDENCY for
// anything else. A nil err stays nil.
func Classify(err error, op string, details map[string]any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeItemNotFound, err, op+": not found").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
