package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/sharedtab/tab-engine/events"
	"github.com/sharedtab/tab-engine/models"
)

// TableStore reads and conditionally writes per-table pointer records.
// Pointer writes are owned by the ingestion engine; everything else only
// reads.
type TableStore struct {
	db *gorm.DB
}

func NewTableStore(db *gorm.DB) *TableStore {
	return &TableStore{db: db}
}

func (s *TableStore) Get(ctx context.Context, restaurantID string, tableID uint) (*models.Table, error) {
	var table models.Table
	err := s.db.WithContext(ctx).
		Where("restaurant_id = ? AND id = ?", restaurantID, tableID).
		First(&table).Error
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return &table, nil
}

func (s *TableStore) List(ctx context.Context, restaurantID string) ([]models.Table, error) {
	var tables []models.Table
	err := s.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("name ASC").
		Find(&tables).Error
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return tables, nil
}

// Create belongs to catalog management; the engine never creates tables.
func (s *TableStore) Create(ctx context.Context, table *models.Table) error {
	if table.Status == "" {
		table.Status = models.TableStatusFree
	}
	if err := s.db.WithContext(ctx).Create(table).Error; err != nil {
		return wrapStoreErr(err)
	}
	return nil
}

// UpdatePointer conditionally writes the pointer fields of a table. The
// write only lands if nobody bumped the version since our read; otherwise
// it reports a conflict and the caller restarts its cycle.
func (s *TableStore) UpdatePointer(tx *gorm.DB, table *models.Table, expectedVersion uint) error {
	res := tx.Model(&models.Table{}).
		Where("id = ? AND version = ?", table.ID, expectedVersion).
		Updates(map[string]interface{}{
			"active_session_id": table.ActiveSessionID,
			"status":            table.Status,
			"session_total":     table.SessionTotal,
			"version":           expectedVersion + 1,
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return wrapStoreErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrorsConflict("table pointer")
	}
	table.Version = expectedVersion + 1
	return recordChange(tx, models.ChangeKindTable,
		events.TableKey(table.RestaurantID, table.ID), models.ChangeActionUpdate)
}
