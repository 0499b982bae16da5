package engine_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharedtab/tab-engine/apperrors"
	"github.com/sharedtab/tab-engine/engine"
	"github.com/sharedtab/tab-engine/models"
	"github.com/sharedtab/tab-engine/services"
)

// updateRecorder collects composer updates from the watcher goroutine.
type updateRecorder struct {
	mu      sync.Mutex
	updates []engine.Update
}

func (r *updateRecorder) record(u engine.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

func (r *updateRecorder) last() (engine.Update, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.updates) == 0 {
		return engine.Update{}, false
	}
	return r.updates[len(r.updates)-1], true
}

func (r *updateRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.updates)
}

func (r *updateRecorder) lastTotal() float64 {
	u, _ := r.last()
	return u.Total
}

func TestWatchDeliversLiveUpdates(t *testing.T) {
	eng, db, bus := newTestEngine(t, engine.Options{})
	table := createTable(t, db, "r1", "T1")
	ctx := context.Background()

	feed := services.NewChangeFeed(db, bus)
	feed.Interval = 5 * time.Millisecond
	feed.Start()
	defer feed.Stop()

	rec := &updateRecorder{}
	unsubscribe, err := eng.Watch(ctx, "r1", table.ID, rec.record)
	require.NoError(t, err)
	defer unsubscribe()

	// No active session yet: the initial delivery is an empty bill.
	require.Eventually(t, func() bool {
		u, ok := rec.last()
		return ok && u.SessionID == "" && u.Total == 0
	}, 2*time.Second, 5*time.Millisecond)

	sid, err := eng.Ingest(ctx, "r1", engine.Target{TableID: table.ID},
		[]models.OrderItem{{ProductID: "pA", Name: "A", UnitPrice: 5, Quantity: 2}}, guest("g1"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		u, ok := rec.last()
		return ok && u.SessionID == sid && u.Total == 10 && len(u.Items) == 1
	}, 2*time.Second, 5*time.Millisecond)

	_, err = eng.Ingest(ctx, "r1", engine.Target{SessionID: sid},
		[]models.OrderItem{{ProductID: "pB", Name: "B", UnitPrice: 3, Quantity: 1}}, guest("g2"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return rec.lastTotal() == 13
	}, 2*time.Second, 5*time.Millisecond)

	// Totals for one session only ever grow.
	rec.mu.Lock()
	defer rec.mu.Unlock()
	prev := 0.0
	for _, u := range rec.updates {
		if u.SessionID != sid {
			continue
		}
		assert.GreaterOrEqual(t, u.Total, prev)
		prev = u.Total
	}
}

func TestWatchReAnchorsAcrossSessions(t *testing.T) {
	eng, db, bus := newTestEngine(t, engine.Options{})
	table := createTable(t, db, "r1", "T1")
	ctx := context.Background()

	feed := services.NewChangeFeed(db, bus)
	feed.Interval = 5 * time.Millisecond
	feed.Start()
	defer feed.Stop()

	rec := &updateRecorder{}
	unsubscribe, err := eng.Watch(ctx, "r1", table.ID, rec.record)
	require.NoError(t, err)
	defer unsubscribe()

	sid1, err := eng.Ingest(ctx, "r1", engine.Target{TableID: table.ID},
		[]models.OrderItem{{ProductID: "pA", Name: "A", UnitPrice: 5, Quantity: 1}}, guest("g1"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		u, ok := rec.last()
		return ok && u.SessionID == sid1
	}, 2*time.Second, 5*time.Millisecond)

	// Closing drops the viewer to an empty bill.
	require.NoError(t, eng.CloseSession(ctx, "r1", table.ID))
	require.Eventually(t, func() bool {
		u, ok := rec.last()
		return ok && u.SessionID == "" && u.Total == 0 && len(u.Items) == 0
	}, 2*time.Second, 5*time.Millisecond)

	// The next dining period re-anchors onto the new session.
	sid2, err := eng.Ingest(ctx, "r1", engine.Target{TableID: table.ID},
		[]models.OrderItem{{ProductID: "pB", Name: "B", UnitPrice: 7, Quantity: 1}}, guest("g2"))
	require.NoError(t, err)
	require.NotEqual(t, sid1, sid2)
	require.Eventually(t, func() bool {
		u, ok := rec.last()
		return ok && u.SessionID == sid2 && u.Total == 7 && len(u.Items) == 1
	}, 2*time.Second, 5*time.Millisecond)

	// Only the new session's items appear; nothing from the closed one leaks.
	u, _ := rec.last()
	assert.Equal(t, "pB", u.Items[0].ProductID)
}

func TestUnsubscribeIsIdempotentAndFinal(t *testing.T) {
	eng, db, bus := newTestEngine(t, engine.Options{})
	table := createTable(t, db, "r1", "T1")
	ctx := context.Background()

	feed := services.NewChangeFeed(db, bus)
	feed.Interval = 5 * time.Millisecond
	feed.Start()
	defer feed.Stop()

	rec := &updateRecorder{}
	unsubscribe, err := eng.Watch(ctx, "r1", table.ID, rec.record)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return rec.count() > 0 }, 2*time.Second, 5*time.Millisecond)

	unsubscribe()
	unsubscribe() // second call is a no-op

	seen := rec.count()
	_, err = eng.Ingest(ctx, "r1", engine.Target{TableID: table.ID},
		[]models.OrderItem{{ProductID: "pA", Name: "A", UnitPrice: 5, Quantity: 1}}, guest("g1"))
	require.NoError(t, err)

	// Give the feed time to publish; the detached watcher must stay silent.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, seen, rec.count())
}

func TestWatchUnknownTable(t *testing.T) {
	eng, _, _ := newTestEngine(t, engine.Options{})
	_, err := eng.Watch(context.Background(), "r1", 404, func(engine.Update) {})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestComposeBillSkipsMalformedLogEntry(t *testing.T) {
	eng, db, _ := newTestEngine(t, engine.Options{})
	table := createTable(t, db, "r1", "T1")
	ctx := context.Background()

	sid, err := eng.Ingest(ctx, "r1", engine.Target{TableID: table.ID},
		[]models.OrderItem{{ProductID: "pA", Name: "A", UnitPrice: 5, Quantity: 1}}, guest("g1"))
	require.NoError(t, err)

	// A corrupt entry lands in the middle of the log.
	require.NoError(t, db.Exec(
		"INSERT INTO order_log_entries (session_id, table_id, items, submitted_at) VALUES (?, ?, ?, ?)",
		sid, table.ID, "{not json", time.Now()).Error)

	_, err = eng.Ingest(ctx, "r1", engine.Target{SessionID: sid},
		[]models.OrderItem{{ProductID: "pB", Name: "B", UnitPrice: 3, Quantity: 1}}, guest("g2"))
	require.NoError(t, err)

	bill, err := eng.ComposeBill(ctx, "r1", table.ID)
	require.NoError(t, err)
	assert.Equal(t, sid, bill.SessionID)
	assert.Len(t, bill.Items, 2)
	assert.Equal(t, 8.0, bill.Total)
}

func TestComposeBillIsDeterministic(t *testing.T) {
	eng, db, _ := newTestEngine(t, engine.Options{})
	table := createTable(t, db, "r1", "T1")
	ctx := context.Background()

	_, err := eng.Ingest(ctx, "r1", engine.Target{TableID: table.ID},
		[]models.OrderItem{{ProductID: "pA", Name: "A", UnitPrice: 5, Quantity: 2}}, guest("g1"))
	require.NoError(t, err)

	first, err := eng.ComposeBill(ctx, "r1", table.ID)
	require.NoError(t, err)
	second, err := eng.ComposeBill(ctx, "r1", table.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestComposeBillEmptyTable(t *testing.T) {
	eng, db, _ := newTestEngine(t, engine.Options{})
	table := createTable(t, db, "r1", "T1")

	bill, err := eng.ComposeBill(context.Background(), "r1", table.ID)
	require.NoError(t, err)
	assert.Empty(t, bill.SessionID)
	assert.Empty(t, bill.Items)
	assert.Equal(t, 0.0, bill.Total)
}
