package engine

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sharedtab/tab-engine/events"
	"github.com/sharedtab/tab-engine/models"
	"github.com/sharedtab/tab-engine/pricing"
	"github.com/sharedtab/tab-engine/utils"
)

// Update is one consistent snapshot of a table's bill. Items and Total are
// recomputed from the order log on every delivery; SessionID is empty when
// the table has no active session.
type Update struct {
	SessionID string             `json:"session_id,omitempty"`
	Items     []models.OrderItem `json:"items"`
	Total     float64            `json:"total"`
}

type UpdateFunc func(Update)

// Unsubscribe tears down a watch. It is idempotent, and once it returns no
// further callbacks will fire.
type Unsubscribe func()

// Watch composes a live bill for one table from three cascaded
// subscriptions: the table pointer, the anchored session document, and the
// session's order log. Every change on any of the three produces one
// onUpdate call with freshly recomputed state. Callbacks are delivered from
// a single goroutine, so a viewer sees totals change in submission order.
func (e *Engine) Watch(ctx context.Context, restaurantID string, tableID uint, onUpdate UpdateFunc) (Unsubscribe, error) {
	if _, err := e.tables.Get(ctx, restaurantID, tableID); err != nil {
		return nil, err
	}

	w := &watcher{
		engine:       e,
		restaurantID: restaurantID,
		tableID:      tableID,
		onUpdate:     onUpdate,
		// Subscribed before the first read so a write landing in between
		// still wakes the loop.
		tableSub: e.bus.Subscribe(events.TableTopic(restaurantID, tableID)),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.run(ctx)

	return func() {
		w.stopOnce.Do(func() { close(w.stop) })
		<-w.done
	}, nil
}

// watcher is the per-table subscription state machine. It is idle when no
// session is anchored and holds exactly one session+log subscription pair
// while anchored; the pair is torn down completely before a new one goes
// up, so two generations of log subscriptions can never deliver at once.
type watcher struct {
	engine       *Engine
	restaurantID string
	tableID      uint
	onUpdate     UpdateFunc

	tableSub   *events.Subscription
	sessionSub *events.Subscription
	logSub     *events.Subscription
	anchored   string // session id, "" when idle

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func (w *watcher) run(ctx context.Context) {
	defer close(w.done)
	defer w.teardownNested()
	defer w.tableSub.Close()

	w.refresh(ctx)
	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case <-w.tableSub.C():
			w.refresh(ctx)
		case <-subSignal(w.sessionSub):
			w.deliver(ctx)
		case <-subSignal(w.logSub):
			w.deliver(ctx)
		}
	}
}

// refresh re-reads the table pointer and re-anchors the nested
// subscriptions when the active session changed.
func (w *watcher) refresh(ctx context.Context) {
	table, err := w.engine.tables.Get(ctx, w.restaurantID, w.tableID)
	if err != nil {
		// Transient read failure: stay in the current state, the next
		// notification retries. A live bill prefers staleness to crashing.
		utils.ErrorLogger.Printf("watch table %s/%d: %v", w.restaurantID, w.tableID, err)
		return
	}

	sessionID := ""
	if table.ActiveSessionID != nil {
		sessionID = *table.ActiveSessionID
	}

	if sessionID == "" {
		w.teardownNested()
		w.anchored = ""
		w.onUpdate(Update{Items: []models.OrderItem{}, Total: 0})
		return
	}

	if sessionID != w.anchored {
		w.teardownNested()
		w.sessionSub = w.engine.bus.Subscribe(events.SessionTopic(sessionID))
		w.logSub = w.engine.bus.Subscribe(events.OrderLogTopic(sessionID))
		w.anchored = sessionID
	}
	w.deliver(ctx)
}

// deliver recomputes the bill from the authoritative log and invokes the
// callback.
func (w *watcher) deliver(ctx context.Context) {
	if w.anchored == "" {
		return
	}
	items, total, err := w.engine.composeFromLog(ctx, w.anchored)
	if err != nil {
		utils.ErrorLogger.Printf("watch session %s: replay failed: %v", w.anchored, err)
		return
	}
	w.onUpdate(Update{SessionID: w.anchored, Items: items, Total: total})
}

func (w *watcher) teardownNested() {
	if w.sessionSub != nil {
		w.sessionSub.Close()
		w.sessionSub = nil
	}
	if w.logSub != nil {
		w.logSub.Close()
		w.logSub = nil
	}
}

// subSignal lets the select above ignore a subscription that is not held;
// a nil channel never fires.
func subSignal(s *events.Subscription) <-chan struct{} {
	if s == nil {
		return nil
	}
	return s.C()
}

// composeFromLog replays the full order log of a session into a merged item
// list and its total. A malformed entry is logged and excluded rather than
// failing the view; replaying twice without intervening writes yields
// identical results because entries are immutable and ordered by append id.
func (e *Engine) composeFromLog(ctx context.Context, sessionID string) ([]models.OrderItem, float64, error) {
	rows, err := e.log.Replay(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}

	items := make([]models.OrderItem, 0, len(rows))
	for _, row := range rows {
		var batch []models.OrderItem
		if err := json.Unmarshal(row.Items, &batch); err != nil {
			utils.ErrorLogger.Printf("order log entry %d (session %s) is malformed, skipping: %v", row.ID, sessionID, err)
			continue
		}
		items = append(items, batch...)
	}
	return items, pricing.BatchSubtotal(items), nil
}

// ComposeBill is the one-shot flavor of Watch for request/response callers.
func (e *Engine) ComposeBill(ctx context.Context, restaurantID string, tableID uint) (Update, error) {
	table, err := e.tables.Get(ctx, restaurantID, tableID)
	if err != nil {
		return Update{}, err
	}
	if table.ActiveSessionID == nil {
		return Update{Items: []models.OrderItem{}}, nil
	}
	items, total, err := e.composeFromLog(ctx, *table.ActiveSessionID)
	if err != nil {
		return Update{}, err
	}
	return Update{SessionID: *table.ActiveSessionID, Items: items, Total: total}, nil
}
