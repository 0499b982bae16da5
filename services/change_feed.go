package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/sharedtab/tab-engine/events"
	"github.com/sharedtab/tab-engine/models"
	"github.com/sharedtab/tab-engine/utils"
)

// ChangeFeed drains the change-event outbox onto the in-process bus. Rows
// are written transactionally with the data they describe, so the feed is
// the point where committed writes become notifications; polling in id
// order preserves write order for every topic.
type ChangeFeed struct {
	DB       *gorm.DB
	Bus      *events.Bus
	Interval time.Duration
	Batch    int

	stopChan chan struct{}
	doneChan chan struct{}
}

func NewChangeFeed(db *gorm.DB, bus *events.Bus) *ChangeFeed {
	return &ChangeFeed{
		DB:       db,
		Bus:      bus,
		Interval: 250 * time.Millisecond,
		Batch:    200,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

func (f *ChangeFeed) Start() {
	go func() {
		defer close(f.doneChan)
		ticker := time.NewTicker(f.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				f.Drain()
			case <-f.stopChan:
				return
			}
		}
	}()
}

func (f *ChangeFeed) Stop() {
	close(f.stopChan)
	<-f.doneChan
}

// Drain processes one batch of unprocessed outbox rows: mark them inside a
// transaction, publish after commit. If the commit fails nothing was
// published and the rows are picked up again; subscribers re-read state on
// every signal, so a replayed notification is harmless.
func (f *ChangeFeed) Drain() {
	var changes []models.ChangeEvent

	tx := f.DB.Begin()
	if tx.Error != nil {
		utils.ErrorLogger.Printf("change feed: begin failed: %v", tx.Error)
		return
	}

	if err := tx.Where("processed = ?", false).
		Order("id ASC").
		Limit(f.Batch).
		Find(&changes).Error; err != nil {
		tx.Rollback()
		utils.ErrorLogger.Printf("change feed: fetch failed: %v", err)
		return
	}
	if len(changes) == 0 {
		tx.Rollback()
		return
	}

	ids := make([]uint, len(changes))
	for i, change := range changes {
		ids[i] = change.ID
	}
	if err := tx.Model(&models.ChangeEvent{}).
		Where("id IN ?", ids).
		Update("processed", true).Error; err != nil {
		tx.Rollback()
		utils.ErrorLogger.Printf("change feed: mark failed: %v", err)
		return
	}
	if err := tx.Commit().Error; err != nil {
		utils.ErrorLogger.Printf("change feed: commit failed: %v", err)
		return
	}

	for _, change := range changes {
		f.Bus.Publish(events.Topic(change.Kind, change.Key))
	}
}
