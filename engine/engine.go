// Package engine is the consistency core of the shared-tab backend: the
// transactional merge of submitted batches into a table's running session,
// and the live view composition that replays the order log for every
// viewer. All session and table-pointer writes in the system go through
// this package.
package engine

import (
	"gorm.io/gorm"

	"github.com/sharedtab/tab-engine/events"
	"github.com/sharedtab/tab-engine/retry"
	"github.com/sharedtab/tab-engine/store"
)

type Engine struct {
	db       *gorm.DB
	tables   *store.TableStore
	sessions *store.SessionStore
	log      *store.OrderLogStore
	bus      *events.Bus
	taxRate  float64
	retryCfg *retry.Config
}

type Options struct {
	// TaxRate is applied to each ingested batch. Zero means no tax.
	TaxRate float64
	// RetryConfig bounds the optimistic-conflict retry loop. Nil uses
	// retry.DefaultConfig.
	RetryConfig *retry.Config
}

func New(db *gorm.DB, bus *events.Bus, opts Options) *Engine {
	cfg := opts.RetryConfig
	if cfg == nil {
		cfg = retry.DefaultConfig()
	}
	return &Engine{
		db:       db,
		tables:   store.NewTableStore(db),
		sessions: store.NewSessionStore(db),
		log:      store.NewOrderLogStore(db),
		bus:      bus,
		taxRate:  opts.TaxRate,
		retryCfg: cfg,
	}
}

func (e *Engine) Tables() *store.TableStore      { return e.tables }
func (e *Engine) Sessions() *store.SessionStore  { return e.sessions }
func (e *Engine) OrderLog() *store.OrderLogStore { return e.log }
