package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sharedtab/tab-engine/apperrors"
	"github.com/sharedtab/tab-engine/models"
	"github.com/sharedtab/tab-engine/pricing"
	"github.com/sharedtab/tab-engine/retry"
)

// Target names where a batch lands: a table for the dine-in flow, or a
// pre-known session id for counter flows. Exactly one must be set.
type Target struct {
	TableID   uint
	SessionID string
}

// Ingest atomically merges a priced batch into the target's running
// session, creating the session on the first order of a dining period. The
// whole read-compute-write cycle reruns from scratch when a concurrent
// submission wins the conditional write; a failed ingestion leaves no
// partial state.
func (e *Engine) Ingest(ctx context.Context, restaurantID string, target Target, batch []models.OrderItem, actor models.Actor) (string, error) {
	if len(batch) == 0 {
		return "", fmt.Errorf("%w: empty batch", apperrors.ErrInvalidInput)
	}
	for i, item := range batch {
		if item.ProductID == "" || item.Name == "" {
			return "", fmt.Errorf("%w: item %d is missing product", apperrors.ErrInvalidInput, i)
		}
		if item.Quantity <= 0 {
			return "", fmt.Errorf("%w: item %d has non-positive quantity", apperrors.ErrInvalidInput, i)
		}
	}
	if !actor.Role.Valid() {
		return "", fmt.Errorf("%w: unknown actor role %q", apperrors.ErrInvalidInput, actor.Role)
	}
	if target.SessionID == "" && target.TableID == 0 {
		return "", fmt.Errorf("%w: no table or session target", apperrors.ErrInvalidInput)
	}

	var sessionID string
	err := retry.Do(ctx, e.retryCfg, func() error {
		sid, err := e.attemptIngest(ctx, restaurantID, target, batch, actor)
		if err != nil {
			return err
		}
		sessionID = sid
		return nil
	}, apperrors.Retryable)
	return sessionID, err
}

// attemptIngest is one read-compute-write cycle. All reads happen first,
// the merge is computed in memory, and every write lands in one database
// transaction guarded by the documents' versions.
func (e *Engine) attemptIngest(ctx context.Context, restaurantID string, target Target, batch []models.OrderItem, actor models.Actor) (string, error) {
	// Read phase.
	var table *models.Table
	sessionID := target.SessionID
	if sessionID == "" {
		t, err := e.tables.Get(ctx, restaurantID, target.TableID)
		if err != nil {
			return "", err
		}
		table = t
		if t.ActiveSessionID != nil {
			sessionID = *t.ActiveSessionID
		}
	}

	create := false
	var session *models.Session
	if sessionID == "" {
		create = true
		sessionID = uuid.NewString()
	} else {
		s, err := e.sessions.Get(ctx, sessionID)
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			// Only a table pointer to a missing document heals into a fresh
			// session under the same id. A pre-known session id that does
			// not resolve is a caller mistake, not a pointer to repair.
			if target.SessionID != "" {
				return "", fmt.Errorf("%w: session %s", apperrors.ErrNotFound, sessionID)
			}
			create = true
		case err != nil:
			return "", err
		default:
			session = s
		}
	}

	if session != nil {
		// Items are append-only while the session is active; a stale id
		// replayed after close must not resurrect the dining period.
		if session.Status != models.SessionStatusActive {
			return "", fmt.Errorf("%w: session %s is closed", apperrors.ErrNotFound, session.ID)
		}
		if target.SessionID != "" && session.RestaurantID != restaurantID {
			return "", fmt.Errorf("%w: session %s", apperrors.ErrNotFound, session.ID)
		}
	}

	// A session targeted directly may be anchored to a table whose cached
	// total must follow the new running total.
	if table == nil && session != nil && session.TableID != 0 {
		t, err := e.tables.Get(ctx, session.RestaurantID, session.TableID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return "", err
		}
		table = t
	}

	// Compute phase, memory only.
	stamped := stampBatch(batch, actor)
	batchSubtotal := pricing.BatchSubtotal(stamped)
	batchTax := pricing.Tax(batchSubtotal, e.taxRate)

	var sessionVersion uint
	if create {
		session = &models.Session{
			ID:           sessionID,
			RestaurantID: restaurantID,
			Status:       models.SessionStatusActive,
			Items:        stamped,
			Subtotal:     batchSubtotal,
			Tax:          batchTax,
			Total:        batchSubtotal + batchTax,
		}
		if table != nil {
			session.TableID = table.ID
			session.TableName = table.Name
			session.RestaurantID = table.RestaurantID
		}
	} else {
		sessionVersion = session.Version
		// Incremental update: the new batch's contribution is added to the
		// cached totals instead of re-summing the whole item list.
		session.Items = append(session.Items, stamped...)
		session.Subtotal += batchSubtotal
		session.Tax += batchTax
		session.Total += batchSubtotal + batchTax
	}
	if actor.Role == models.ActorRoleWaiter {
		session.AddStaff(models.StaffRef{ID: actor.ID, Name: actor.DisplayName})
	}
	session.RemainingAmount = session.Total - session.AmountPaid
	session.PaymentStatus = paymentStatusFor(session.AmountPaid, session.Total)

	var tableVersion uint
	if table != nil {
		tableVersion = table.Version
		active := session.ID
		table.ActiveSessionID = &active
		table.Status = models.TableStatusOccupied
		table.SessionTotal = session.Total
	}

	// Write phase: one transaction, conditional on the versions read above.
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if create {
			if err := e.sessions.Create(tx, session); err != nil {
				return err
			}
		} else {
			if err := e.sessions.Update(tx, session, sessionVersion); err != nil {
				return err
			}
		}
		if table != nil {
			if err := e.tables.UpdatePointer(tx, table, tableVersion); err != nil {
				return err
			}
		}
		entry := &models.OrderLogEntry{
			SessionID: session.ID,
			TableID:   session.TableID,
			Items:     stamped,
		}
		return e.log.Append(tx, entry)
	})
	if err != nil {
		return "", err
	}
	return session.ID, nil
}

// stampBatch copies the batch with submission state applied: fresh items
// are always "sent", and attribution comes from the explicit actor, never
// from the shape of an id.
func stampBatch(batch []models.OrderItem, actor models.Actor) models.ItemList {
	stamped := make(models.ItemList, len(batch))
	for i, item := range batch {
		item.Status = models.ItemStatusSent
		item.CreatedByRole = actor.Role
		item.CreatedByID = actor.ID
		item.CreatedByName = actor.DisplayName
		stamped[i] = item
	}
	return stamped
}

func paymentStatusFor(amountPaid, total float64) string {
	switch {
	case amountPaid <= 0:
		return models.PaymentStatusUnpaid
	case amountPaid >= total:
		return models.PaymentStatusPaid
	default:
		return models.PaymentStatusPartial
	}
}
