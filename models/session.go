package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

const (
	SessionStatusActive = "active"
	SessionStatusClosed = "closed"
)

const (
	PaymentStatusUnpaid  = "unpaid"
	PaymentStatusPartial = "partial"
	PaymentStatusPaid    = "paid"
)

// StaffRef is one staff member attending a session, unique by id.
type StaffRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type StaffList []StaffRef

func (l StaffList) Value() (driver.Value, error) {
	if l == nil {
		l = StaffList{}
	}
	return json.Marshal(l)
}

func (l *StaffList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("unsupported staff list column type")
	}
}

// Session is the running tab for one dining period at one table. Items and
// the money fields are a cache of the order log; while active the document
// is written only by the ingestion engine, except the payment fields which
// belong to the payment writer.
type Session struct {
	ID              string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	RestaurantID    string    `gorm:"type:varchar(64);not null;index" json:"restaurant_id"`
	TableID         uint      `gorm:"index" json:"table_id"`
	TableName       string    `gorm:"type:varchar(50)" json:"table_name"`
	Status          string    `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	Items           ItemList  `gorm:"type:json" json:"items"`
	Subtotal        float64   `gorm:"type:decimal(10,2);not null;default:0.00" json:"subtotal"`
	Tax             float64   `gorm:"type:decimal(10,2);not null;default:0.00" json:"tax"`
	Total           float64   `gorm:"type:decimal(10,2);not null;default:0.00" json:"total"`
	AmountPaid      float64   `gorm:"type:decimal(10,2);not null;default:0.00" json:"amount_paid"`
	RemainingAmount float64   `gorm:"type:decimal(10,2);not null;default:0.00" json:"remaining_amount"`
	PaymentStatus   string    `gorm:"type:varchar(20);not null;default:'unpaid'" json:"payment_status"`
	Staff           StaffList `gorm:"type:json" json:"staff"`
	Version         uint      `gorm:"not null;default:0" json:"-"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}

// AddStaff records an attending staff member, keeping the set unique by id.
func (s *Session) AddStaff(ref StaffRef) {
	for _, existing := range s.Staff {
		if existing.ID == ref.ID {
			return
		}
	}
	s.Staff = append(s.Staff, ref)
}
