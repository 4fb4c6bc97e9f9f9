package racewindow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/raceboard/go/internal/models"
	"github.com/rs/zerolog/log"
)

// ErrEngineRunning is returned when Start is called on a running engine.
var ErrEngineRunning = errors.New("engine already running")

// EventStore is what the engine needs from the remote event store.
type EventStore interface {
	FetchAll(ctx context.Context) ([]models.TimerItem, error)
	DeleteOne(ctx context.Context, name, time string) (bool, error)
}

// Config holds the engine's pacing and capacity.
type Config struct {
	MaxOnScreen    int
	ResyncInterval time.Duration
	TickInterval   time.Duration
	// KeepLastGoodOnMalformed keeps the current queue and window when the
	// store answers with something other than a JSON array. Off by default,
	// in which case a malformed read empties the board.
	KeepLastGoodOnMalformed bool
}

// DefaultConfig returns the standard board pacing.
func DefaultConfig() Config {
	return Config{
		MaxOnScreen:    5,
		ResyncInterval: 15 * time.Second,
		TickInterval:   time.Second,
	}
}

// DeleteFailure describes a best-effort delete the store did not accept.
type DeleteFailure struct {
	Item     models.TimerItem
	Err      error
	FailedAt time.Time
}

// DeleteObserver is told about failed deletes. The engine never retries;
// observers may.
type DeleteObserver interface {
	DeleteFailed(ctx context.Context, failure DeleteFailure)
}

// DeleteObserverFunc adapts a function to DeleteObserver.
type DeleteObserverFunc func(ctx context.Context, failure DeleteFailure)

func (f DeleteObserverFunc) DeleteFailed(ctx context.Context, failure DeleteFailure) {
	f(ctx, failure)
}

type Option func(*Engine)

// WithClock sets the clock. In production, use clockwork.NewRealClock(). In tests, a FakeClock.
func WithClock(clock clockwork.Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

func WithMetrics(metrics MetricsCollector) Option {
	return func(e *Engine) { e.metrics = metrics }
}

func WithDeleteObserver(observer DeleteObserver) Option {
	return func(e *Engine) { e.observers = append(e.observers, observer) }
}

// Engine keeps the display window in step with the event store. The
// pending queue and window are one unit of state guarded by mu; fetches and
// deletes never run while mu is held.
type Engine struct {
	store     EventStore
	display   Display
	config    Config
	clock     clockwork.Clock
	metrics   MetricsCollector
	observers []DeleteObserver

	mu      sync.Mutex
	pending []scheduledItem // ascending by start, superset of window
	window  []scheduledItem

	lastResyncAt  time.Time
	lastResyncErr error
	startedAt     time.Time

	// fetchSeq numbers store reads as they begin; appliedSeq is the newest
	// one whose outcome has been applied. Older results are dropped.
	fetchSeq   uint64
	appliedSeq uint64

	runMu     sync.Mutex
	scheduler *Scheduler
	cancel    context.CancelFunc
	deletes   sync.WaitGroup
}

// NewEngine creates an engine. Zero config fields fall back to DefaultConfig.
func NewEngine(store EventStore, display Display, config Config, opts ...Option) *Engine {
	defaults := DefaultConfig()
	if config.MaxOnScreen <= 0 {
		config.MaxOnScreen = defaults.MaxOnScreen
	}
	if config.ResyncInterval <= 0 {
		config.ResyncInterval = defaults.ResyncInterval
	}
	if config.TickInterval <= 0 {
		config.TickInterval = defaults.TickInterval
	}
	if display == nil {
		display = NopDisplay{}
	}

	e := &Engine{
		store:   store,
		display: display,
		config:  config,
		clock:   clockwork.NewRealClock(),
		metrics: NoOpMetricsCollector{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start performs the hard reseed and begins the resync and tick loops. It
// returns immediately; the loops run until ctx is cancelled or Stop.
func (e *Engine) Start(ctx context.Context) error {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	if e.scheduler != nil {
		return ErrEngineRunning
	}

	runCtx, cancel := context.WithCancel(ctx)

	e.mu.Lock()
	e.startedAt = e.clock.Now()
	e.mu.Unlock()

	scheduler := NewScheduler(e.clock)
	scheduler.Once("reseed", func(ctx context.Context) {
		_ = e.Reconcile(ctx, true)
	})
	scheduler.Every("resync", e.config.ResyncInterval, func(ctx context.Context) {
		_ = e.Reconcile(ctx, false)
	})
	scheduler.Every("tick", e.config.TickInterval, e.Tick)

	if err := scheduler.Start(runCtx); err != nil {
		cancel()
		return err
	}

	e.scheduler = scheduler
	e.cancel = cancel

	log.Info().
		Int("max_on_screen", e.config.MaxOnScreen).
		Dur("resync_interval", e.config.ResyncInterval).
		Dur("tick_interval", e.config.TickInterval).
		Msg("race window engine started")
	return nil
}

// Stop halts both loops, waits for in-flight deletes and clears the local
// window. Remote state is left alone.
func (e *Engine) Stop() {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	if e.scheduler == nil {
		return
	}

	e.cancel()
	e.scheduler.Stop()
	e.waitForDeletes()
	e.scheduler = nil
	e.cancel = nil

	e.mu.Lock()
	e.pending = nil
	e.window = nil
	e.lastResyncAt = time.Time{}
	e.lastResyncErr = nil
	e.startedAt = time.Time{}
	e.display.Render(nil)
	e.metrics.RecordWindow(0, 0)
	e.mu.Unlock()

	log.Info().Msg("race window engine stopped")
}

// Snapshot returns the displayed entries with countdowns as of now.
func (e *Engine) Snapshot() []Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.entriesLocked(e.clock.Now())
}

// Stats describes the engine for health checks.
type Stats struct {
	Running       bool
	Displayed     int
	Pending       int
	LastResyncAt  time.Time
	LastResyncErr error
	// StartedAt is when the engine was last started; zero when stopped.
	StartedAt time.Time
}

// Stats returns the current counts and the outcome of the last resync.
func (e *Engine) Stats() Stats {
	e.runMu.Lock()
	running := e.scheduler != nil
	e.runMu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{
		Running:       running,
		Displayed:     len(e.window),
		Pending:       len(e.pending),
		LastResyncAt:  e.lastResyncAt,
		LastResyncErr: e.lastResyncErr,
		StartedAt:     e.startedAt,
	}
}

// Pending returns a copy of the pending queue.
func (e *Engine) Pending() []models.TimerItem {
	e.mu.Lock()
	defer e.mu.Unlock()

	items := make([]models.TimerItem, len(e.pending))
	for i, item := range e.pending {
		items[i] = item.TimerItem
	}
	return items
}

// Lookup finds a known race by id, checking the window first.
func (e *Engine) Lookup(id string) (models.TimerItem, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, item := range e.window {
		if item.ID == id {
			return item.TimerItem, true
		}
	}
	for _, item := range e.pending {
		if item.ID == id {
			return item.TimerItem, true
		}
	}
	return models.TimerItem{}, false
}

func (e *Engine) entriesLocked(now time.Time) []Entry {
	entries := make([]Entry, len(e.window))
	for i, item := range e.window {
		entries[i] = newEntry(item, now)
	}
	return entries
}

// dispatchDelete sends a fire-and-forget delete for an expired race.
func (e *Engine) dispatchDelete(ctx context.Context, item models.TimerItem) {
	e.deletes.Add(1)
	go func() {
		defer e.deletes.Done()

		removed, err := e.store.DeleteOne(ctx, item.Name, item.Time)
		if err != nil && ctx.Err() != nil {
			log.Debug().Str("event_id", item.ID).Msg("delete abandoned on shutdown")
			return
		}
		if err != nil {
			e.metrics.RecordDelete(false)
			log.Warn().
				Err(err).
				Str("event_id", item.ID).
				Str("name", item.Name).
				Str("time", item.Time).
				Msg("failed to delete expired event")

			failure := DeleteFailure{Item: item, Err: err, FailedAt: e.clock.Now()}
			for _, observer := range e.observers {
				observer.DeleteFailed(ctx, failure)
			}
			return
		}

		e.metrics.RecordDelete(true)
		log.Debug().
			Str("event_id", item.ID).
			Bool("removed", removed).
			Msg("deleted expired event")
	}()
}

// waitForDeletes blocks until dispatched deletes have returned.
func (e *Engine) waitForDeletes() {
	e.deletes.Wait()
}
