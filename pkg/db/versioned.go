package db

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrStaleVersion means a compare-and-swap update matched no row: someone else wrote first.
var ErrStaleVersion = errors.New("row version changed")

// UpdateVersioned writes the selected columns of model when the stored version still equals
// *version, bumping both the row and *version on success. model must carry its primary key.
func UpdateVersioned(ctx context.Context, tx *gorm.DB, model any, version *int64, columns ...string) error {
	prev := *version
	*version = prev + 1
	res := tx.WithContext(ctx).
		Model(model).
		Where("version = ?", prev).
		Select(append(columns, "version")).
		Updates(model)
	if res.Error != nil {
		*version = prev
		return res.Error
	}
	if res.RowsAffected == 0 {
		*version = prev
		return ErrStaleVersion
	}
	return nil
}
