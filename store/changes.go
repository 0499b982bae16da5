// Package store owns the three persistent collections behind the tab
// engine: table pointers, session documents, and the append-only order log.
// Writes that must be observable go through a transaction and leave a
// ChangeEvent outbox row behind in that same transaction.
package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/sharedtab/tab-engine/apperrors"
	"github.com/sharedtab/tab-engine/models"
)

// recordChange appends the outbox row that makes this write observable.
// Must run inside the same transaction as the write it describes.
func recordChange(tx *gorm.DB, kind, key, action string) error {
	event := models.ChangeEvent{Kind: kind, Key: key, Action: action}
	if err := tx.Create(&event).Error; err != nil {
		return wrapStoreErr(err)
	}
	return nil
}

// apperrorsConflict is a conflict with the losing document named, so retry
// exhaustion logs say which document was contended.
func apperrorsConflict(what string) error {
	return fmt.Errorf("%w: %s changed concurrently", apperrors.ErrConflict, what)
}

// wrapStoreErr folds driver-level failures into the engine taxonomy. A not
// found read and a duplicate key keep their own identity; everything else is
// treated as transient unavailability.
func wrapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.ErrConflict
	default:
		return fmt.Errorf("%w: %v", apperrors.ErrUnavailable, err)
	}
}
