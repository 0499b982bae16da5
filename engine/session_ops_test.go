package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharedtab/tab-engine/apperrors"
	"github.com/sharedtab/tab-engine/engine"
	"github.com/sharedtab/tab-engine/models"
)

func TestCloseSessionFreesTable(t *testing.T) {
	eng, db, _ := newTestEngine(t, engine.Options{})
	table := createTable(t, db, "r1", "T1")
	ctx := context.Background()

	sid, err := eng.Ingest(ctx, "r1", engine.Target{TableID: table.ID},
		[]models.OrderItem{{ProductID: "pA", Name: "A", UnitPrice: 5, Quantity: 1}}, guest("g1"))
	require.NoError(t, err)

	require.NoError(t, eng.CloseSession(ctx, "r1", table.ID))

	got, err := eng.Tables().Get(ctx, "r1", table.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ActiveSessionID)
	assert.Equal(t, models.TableStatusFree, got.Status)
	assert.Equal(t, 0.0, got.SessionTotal)

	session, err := eng.Sessions().Get(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusClosed, session.Status)

	// Closing again has nothing to close.
	err = eng.CloseSession(ctx, "r1", table.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// The next order opens a fresh session.
	sid2, err := eng.Ingest(ctx, "r1", engine.Target{TableID: table.ID},
		[]models.OrderItem{{ProductID: "pB", Name: "B", UnitPrice: 3, Quantity: 1}}, guest("g2"))
	require.NoError(t, err)
	assert.NotEqual(t, sid, sid2)
}

func TestRecordPaymentTransitions(t *testing.T) {
	eng, db, _ := newTestEngine(t, engine.Options{})
	table := createTable(t, db, "r1", "T1")
	ctx := context.Background()

	sid, err := eng.Ingest(ctx, "r1", engine.Target{TableID: table.ID},
		[]models.OrderItem{{ProductID: "pA", Name: "A", UnitPrice: 10, Quantity: 1}}, guest("g1"))
	require.NoError(t, err)

	_, err = eng.RecordPayment(ctx, sid, 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	session, err := eng.RecordPayment(ctx, sid, 4)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPartial, session.PaymentStatus)
	assert.Equal(t, 4.0, session.AmountPaid)
	assert.Equal(t, 6.0, session.RemainingAmount)

	session, err = eng.RecordPayment(ctx, sid, 6)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, session.PaymentStatus)
	assert.Equal(t, 0.0, session.RemainingAmount)

	// The payment writer never touches the engine-owned fields.
	assert.Equal(t, 10.0, session.Total)
	assert.Len(t, session.Items, 1)
}

func TestUpdateItemStatusSurvivesMerge(t *testing.T) {
	eng, db, _ := newTestEngine(t, engine.Options{})
	table := createTable(t, db, "r1", "T1")
	ctx := context.Background()

	sid, err := eng.Ingest(ctx, "r1", engine.Target{TableID: table.ID},
		[]models.OrderItem{{ProductID: "pA", Name: "A", UnitPrice: 5, Quantity: 1}}, guest("g1"))
	require.NoError(t, err)

	_, err = eng.UpdateItemStatus(ctx, sid, 0, "grilled")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = eng.UpdateItemStatus(ctx, sid, 5, models.ItemStatusReady)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	session, err := eng.UpdateItemStatus(ctx, sid, 0, models.ItemStatusPreparing)
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusPreparing, session.Items[0].Status)

	// Merging a later batch keeps the kitchen status on earlier lines.
	_, err = eng.Ingest(ctx, "r1", engine.Target{SessionID: sid},
		[]models.OrderItem{{ProductID: "pB", Name: "B", UnitPrice: 3, Quantity: 1}}, guest("g2"))
	require.NoError(t, err)

	session, err = eng.Sessions().Get(ctx, sid)
	require.NoError(t, err)
	require.Len(t, session.Items, 2)
	assert.Equal(t, models.ItemStatusPreparing, session.Items[0].Status)
	assert.Equal(t, models.ItemStatusSent, session.Items[1].Status)
}

func TestReconcileFromLogRepairsDrift(t *testing.T) {
	eng, db, _ := newTestEngine(t, engine.Options{})
	table := createTable(t, db, "r1", "T1")
	ctx := context.Background()

	sid, err := eng.Ingest(ctx, "r1", engine.Target{TableID: table.ID},
		[]models.OrderItem{{ProductID: "pA", Name: "A", UnitPrice: 5, Quantity: 2}}, guest("g1"))
	require.NoError(t, err)
	_, err = eng.Ingest(ctx, "r1", engine.Target{SessionID: sid},
		[]models.OrderItem{{ProductID: "pB", Name: "B", UnitPrice: 3, Quantity: 1}}, guest("g2"))
	require.NoError(t, err)

	_, err = eng.UpdateItemStatus(ctx, sid, 0, models.ItemStatusServed)
	require.NoError(t, err)

	// Corrupt the cached copy behind the engine's back.
	require.NoError(t, db.Model(&models.Session{}).Where("id = ?", sid).
		Updates(map[string]interface{}{"items": "[]", "total": 0, "subtotal": 0}).Error)

	session, err := eng.ReconcileFromLog(ctx, sid)
	require.NoError(t, err)
	require.Len(t, session.Items, 2)
	assert.Equal(t, 13.0, session.Total)
	assertTotalInvariant(t, session)
	// Length no longer lines up with the corrupted cache, so statuses reset.
	assert.Equal(t, models.ItemStatusSent, session.Items[0].Status)
}
