package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/sharedtab/tab-engine/models"
)

// SessionStore reads and conditionally writes session documents. While a
// session is active only the ingestion engine writes to it, except the
// payment fields which have their own writer and their own update method.
type SessionStore struct {
	db *gorm.DB
}

func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	var session models.Session
	err := s.db.WithContext(ctx).First(&session, "id = ?", sessionID).Error
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return &session, nil
}

// Create inserts a brand-new session document. A duplicate id means another
// ingestion created the same session between our read and write, which is a
// conflict to retry, not a failure.
func (s *SessionStore) Create(tx *gorm.DB, session *models.Session) error {
	session.Version = 0
	if err := tx.Create(session).Error; err != nil {
		return wrapStoreErr(err)
	}
	return recordChange(tx, models.ChangeKindSession, session.ID, models.ChangeActionInsert)
}

// Update conditionally rewrites the engine-owned fields of a session.
func (s *SessionStore) Update(tx *gorm.DB, session *models.Session, expectedVersion uint) error {
	res := tx.Model(&models.Session{}).
		Where("id = ? AND version = ?", session.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":           session.Status,
			"items":            session.Items,
			"subtotal":         session.Subtotal,
			"tax":              session.Tax,
			"total":            session.Total,
			"remaining_amount": session.RemainingAmount,
			"payment_status":   session.PaymentStatus,
			"staff":            session.Staff,
			"version":          expectedVersion + 1,
			"updated_at":       time.Now(),
		})
	if res.Error != nil {
		return wrapStoreErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrorsConflict("session")
	}
	session.Version = expectedVersion + 1
	return recordChange(tx, models.ChangeKindSession, session.ID, models.ChangeActionUpdate)
}

// UpdatePayment is the scoped write path for the payment subsystem: it may
// touch amount_paid, remaining_amount and payment_status, nothing else.
func (s *SessionStore) UpdatePayment(tx *gorm.DB, session *models.Session, expectedVersion uint) error {
	res := tx.Model(&models.Session{}).
		Where("id = ? AND version = ?", session.ID, expectedVersion).
		Updates(map[string]interface{}{
			"amount_paid":      session.AmountPaid,
			"remaining_amount": session.RemainingAmount,
			"payment_status":   session.PaymentStatus,
			"version":          expectedVersion + 1,
			"updated_at":       time.Now(),
		})
	if res.Error != nil {
		return wrapStoreErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrorsConflict("session payment fields")
	}
	session.Version = expectedVersion + 1
	return recordChange(tx, models.ChangeKindSession, session.ID, models.ChangeActionUpdate)
}
