package models

import "time"

// OrderLogEntry is one ingestion event: the batch of items one actor
// submitted at one moment. Entries are immutable once written and the
// auto-increment ID is the per-store submission order the view layer
// replays in. The log is the authoritative record of the bill; the
// session document is a cache of it.
type OrderLogEntry struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SessionID   string    `gorm:"type:varchar(36);not null;index" json:"session_id"`
	TableID     uint      `json:"table_id"`
	Items       ItemList  `gorm:"type:json" json:"items"`
	SubmittedAt time.Time `gorm:"not null" json:"submitted_at"`
}
