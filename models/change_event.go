package models

import "time"

const (
	ChangeKindTable    = "table"
	ChangeKindSession  = "session"
	ChangeKindOrderLog = "orderlog"
)

const (
	ChangeActionInsert = "INSERT"
	ChangeActionUpdate = "UPDATE"
)

// ChangeEvent is the transactional outbox row behind store change
// notifications. Stores append one in the same transaction as the write it
// describes, so a committed write and its notification are atomic; the
// change feed polls unprocessed rows in id order and publishes them.
type ChangeEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Kind      string    `gorm:"type:varchar(20);not null;index:idx_change_unprocessed,priority:2" json:"kind"`
	Key       string    `gorm:"type:varchar(120);not null" json:"key"`
	Action    string    `gorm:"type:varchar(10);not null" json:"action"`
	Processed bool      `gorm:"not null;default:false;index:idx_change_unprocessed,priority:1" json:"processed"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}
