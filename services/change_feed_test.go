package services_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sharedtab/tab-engine/events"
	"github.com/sharedtab/tab-engine/models"
	"github.com/sharedtab/tab-engine/services"
)

var dbCounter int

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbCounter++
	dsn := fmt.Sprintf("file:feed_test_%d?mode=memory&cache=shared&_busy_timeout=5000", dbCounter)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ChangeEvent{}))
	return db
}

func pending(sub *events.Subscription) bool {
	select {
	case <-sub.C():
		return true
	default:
		return false
	}
}

func TestDrainPublishesAndMarksProcessed(t *testing.T) {
	db := setupTestDB(t)
	bus := events.NewBus()
	feed := services.NewChangeFeed(db, bus)

	require.NoError(t, db.Create(&models.ChangeEvent{
		Kind: models.ChangeKindSession, Key: "s1", Action: models.ChangeActionUpdate,
	}).Error)
	require.NoError(t, db.Create(&models.ChangeEvent{
		Kind: models.ChangeKindOrderLog, Key: "s1", Action: models.ChangeActionInsert,
	}).Error)

	sessionSub := bus.Subscribe(events.SessionTopic("s1"))
	defer sessionSub.Close()
	logSub := bus.Subscribe(events.OrderLogTopic("s1"))
	defer logSub.Close()
	otherSub := bus.Subscribe(events.SessionTopic("s2"))
	defer otherSub.Close()

	feed.Drain()

	assert.True(t, pending(sessionSub))
	assert.True(t, pending(logSub))
	assert.False(t, pending(otherSub))

	var unprocessed int64
	require.NoError(t, db.Model(&models.ChangeEvent{}).
		Where("processed = ?", false).Count(&unprocessed).Error)
	assert.Zero(t, unprocessed)

	// Nothing left, so a second drain stays quiet.
	feed.Drain()
	assert.False(t, pending(sessionSub))
	assert.False(t, pending(logSub))
}

func TestDrainRespectsBatchLimit(t *testing.T) {
	db := setupTestDB(t)
	bus := events.NewBus()
	feed := services.NewChangeFeed(db, bus)
	feed.Batch = 2

	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&models.ChangeEvent{
			Kind: models.ChangeKindTable, Key: fmt.Sprintf("r1/%d", i),
			Action: models.ChangeActionUpdate,
		}).Error)
	}

	feed.Drain()
	var unprocessed int64
	require.NoError(t, db.Model(&models.ChangeEvent{}).
		Where("processed = ?", false).Count(&unprocessed).Error)
	assert.Equal(t, int64(1), unprocessed)

	feed.Drain()
	require.NoError(t, db.Model(&models.ChangeEvent{}).
		Where("processed = ?", false).Count(&unprocessed).Error)
	assert.Zero(t, unprocessed)
}
