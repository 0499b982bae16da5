package engine

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/sharedtab/tab-engine/apperrors"
	"github.com/sharedtab/tab-engine/models"
	"github.com/sharedtab/tab-engine/pricing"
	"github.com/sharedtab/tab-engine/retry"
)

// CloseSession ends the dining period at a table: the session is marked
// closed and the table pointer is cleared so the next order starts a fresh
// session. Live viewers observe the cleared pointer and drop to an empty
// bill.
func (e *Engine) CloseSession(ctx context.Context, restaurantID string, tableID uint) error {
	return retry.Do(ctx, e.retryCfg, func() error {
		table, err := e.tables.Get(ctx, restaurantID, tableID)
		if err != nil {
			return err
		}
		if table.ActiveSessionID == nil {
			return fmt.Errorf("%w: table has no active session", apperrors.ErrNotFound)
		}
		session, err := e.sessions.Get(ctx, *table.ActiveSessionID)
		if err != nil {
			return err
		}

		sessionVersion := session.Version
		session.Status = models.SessionStatusClosed

		tableVersion := table.Version
		table.ActiveSessionID = nil
		table.Status = models.TableStatusFree
		table.SessionTotal = 0

		return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := e.sessions.Update(tx, session, sessionVersion); err != nil {
				return err
			}
			return e.tables.UpdatePointer(tx, table, tableVersion)
		})
	}, apperrors.Retryable)
}

// RecordPayment is the scoped second writer on a session: it adjusts only
// amount_paid, remaining_amount and payment_status. Totals are opaque
// numbers here; no settlement math beyond the running remainder.
func (e *Engine) RecordPayment(ctx context.Context, sessionID string, amount float64) (*models.Session, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: payment amount must be positive", apperrors.ErrInvalidInput)
	}

	var updated *models.Session
	err := retry.Do(ctx, e.retryCfg, func() error {
		session, err := e.sessions.Get(ctx, sessionID)
		if err != nil {
			return err
		}

		version := session.Version
		session.AmountPaid += amount
		session.RemainingAmount = session.Total - session.AmountPaid
		session.PaymentStatus = paymentStatusFor(session.AmountPaid, session.Total)

		if err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return e.sessions.UpdatePayment(tx, session, version)
		}); err != nil {
			return err
		}
		updated = session
		return nil
	}, apperrors.Retryable)
	return updated, err
}

// UpdateItemStatus moves one line through the kitchen workflow. The item is
// addressed by its position in the session's item sequence; everything else
// on the line survives untouched.
func (e *Engine) UpdateItemStatus(ctx context.Context, sessionID string, index int, status string) (*models.Session, error) {
	switch status {
	case models.ItemStatusSent, models.ItemStatusPreparing, models.ItemStatusReady, models.ItemStatusServed:
	default:
		return nil, fmt.Errorf("%w: unknown item status %q", apperrors.ErrInvalidInput, status)
	}

	var updated *models.Session
	err := retry.Do(ctx, e.retryCfg, func() error {
		session, err := e.sessions.Get(ctx, sessionID)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(session.Items) {
			return fmt.Errorf("%w: item index %d out of range", apperrors.ErrNotFound, index)
		}

		version := session.Version
		session.Items[index].Status = status

		if err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return e.sessions.Update(tx, session, version)
		}); err != nil {
			return err
		}
		updated = session
		return nil
	}, apperrors.Retryable)
	return updated, err
}

// ReconcileFromLog repairs a session whose cached items drifted from the
// order log, which stays authoritative. Kitchen statuses carried on the
// cached copy are kept for line positions that still line up.
func (e *Engine) ReconcileFromLog(ctx context.Context, sessionID string) (*models.Session, error) {
	var updated *models.Session
	err := retry.Do(ctx, e.retryCfg, func() error {
		session, err := e.sessions.Get(ctx, sessionID)
		if err != nil {
			return err
		}
		items, _, err := e.composeFromLog(ctx, sessionID)
		if err != nil {
			return err
		}
		for i := range items {
			if i < len(session.Items) && session.Items[i].ProductID == items[i].ProductID {
				items[i].Status = session.Items[i].Status
			}
		}

		version := session.Version
		session.Items = items
		session.Subtotal = pricing.BatchSubtotal(items)
		session.Tax = pricing.Tax(session.Subtotal, e.taxRate)
		session.Total = session.Subtotal + session.Tax
		session.RemainingAmount = session.Total - session.AmountPaid
		session.PaymentStatus = paymentStatusFor(session.AmountPaid, session.Total)

		if err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return e.sessions.Update(tx, session, version)
		}); err != nil {
			return err
		}
		updated = session
		return nil
	}, apperrors.Retryable)
	return updated, err
}
