// Package versioned holds the compare-and-set writes shared by the gorm
// repositories. Every row carries a version column; an update only lands
// when the stored version still matches the one the aggregate was read with.
package versioned

import (
	"context"
	"errors"

	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
)

// Insert creates the row. A primary or unique key collision means another
// transaction created the same aggregate first and is reported as a conflict.
//
// The connection must be opened with gorm.Config{TranslateError: true}.
func Insert(ctx context.Context, db *gorm.DB, entity string, id any, dto any) error {
	err := db.WithContext(ctx).Create(dto).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.NewConcurrentConflictError(entity, id)
	}
	return err
}

// Update overwrites every column of the row identified by id when its stored
// version equals expected. dto must already carry expected+1 as its version,
// and id is bound as a query argument, so pass the column value (uuid.UUID)
// rather than a domain identifier.
func Update(ctx context.Context, db *gorm.DB, entity string, id any, expected int, dto any) error {
	result := db.WithContext(ctx).
		Model(dto).
		Where("id = ? AND version = ?", id, expected).
		Select("*").
		Updates(dto)
	if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
		return errs.NewConcurrentConflictError(entity, id)
	}
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewConcurrentConflictError(entity, id)
	}
	return nil
}
