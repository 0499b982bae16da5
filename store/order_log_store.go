package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/sharedtab/tab-engine/models"
)

// OrderLogStore is the append-only submission log. Entries are never
// mutated; replay order is the auto-increment id the database assigned at
// append time.
type OrderLogStore struct {
	db *gorm.DB
}

func NewOrderLogStore(db *gorm.DB) *OrderLogStore {
	return &OrderLogStore{db: db}
}

func (s *OrderLogStore) Append(tx *gorm.DB, entry *models.OrderLogEntry) error {
	if entry.SubmittedAt.IsZero() {
		entry.SubmittedAt = time.Now()
	}
	if err := tx.Create(entry).Error; err != nil {
		return wrapStoreErr(err)
	}
	return recordChange(tx, models.ChangeKindOrderLog, entry.SessionID, models.ChangeActionInsert)
}

// RawEntry is a log row with its item batch still serialized. The view
// layer decodes entries itself so one corrupt row can be skipped instead of
// failing the whole replay.
type RawEntry struct {
	ID          uint
	SessionID   string
	TableID     uint
	Items       []byte
	SubmittedAt time.Time
}

// Replay returns every entry for a session in submission order.
func (s *OrderLogStore) Replay(ctx context.Context, sessionID string) ([]RawEntry, error) {
	var rows []RawEntry
	err := s.db.WithContext(ctx).
		Model(&models.OrderLogEntry{}).
		Select("id", "session_id", "table_id", "items", "submitted_at").
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return rows, nil
}

// Entries returns decoded entries newest first, for the audit endpoints.
func (s *OrderLogStore) Entries(ctx context.Context, sessionID string) ([]models.OrderLogEntry, error) {
	var entries []models.OrderLogEntry
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return entries, nil
}
