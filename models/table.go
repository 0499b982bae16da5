package models

import "time"

const (
	TableStatusFree     = "free"
	TableStatusOccupied = "occupied"
)

// Table is the per-table pointer record. ActiveSessionID and SessionTotal
// are owned by the ingestion engine; SessionTotal is an advisory cache of
// the running tab, the order log stays authoritative.
type Table struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	RestaurantID    string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_restaurant_table,priority:1" json:"restaurant_id"`
	Name            string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_restaurant_table,priority:2" json:"name"`
	ActiveSessionID *string   `gorm:"type:varchar(36)" json:"active_session_id,omitempty"`
	Status          string    `gorm:"type:varchar(20);not null;default:'free'" json:"status"`
	SessionTotal    float64   `gorm:"type:decimal(10,2);not null;default:0.00" json:"session_total"`
	Version         uint      `gorm:"not null;default:0" json:"-"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}
