package racewindow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ErrSchedulerRunning is returned when Start is called twice.
var ErrSchedulerRunning = errors.New("scheduler already running")

type task struct {
	name     string
	interval time.Duration // zero runs fn once
	fn       func(ctx context.Context)
}

// Scheduler runs named periodic tasks on a clockwork clock until stopped.
// Each task runs on its own goroutine; a slow run drops ticks instead of
// queueing them.
type Scheduler struct {
	clock clockwork.Clock
	tasks []task

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

func NewScheduler(clock clockwork.Clock) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{clock: clock}
}

// Every registers fn to run every interval once the scheduler starts.
func (s *Scheduler) Every(name string, interval time.Duration, fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, task{name: name, interval: interval, fn: fn})
}

// Once registers fn to run a single time when the scheduler starts.
func (s *Scheduler) Once(name string, fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, task{name: name, fn: fn})
}

// Start launches every registered task. Tasks stop when ctx is cancelled
// or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSchedulerRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	for _, t := range s.tasks {
		s.wg.Add(1)
		if t.interval <= 0 {
			go s.runOnce(runCtx, t)
		} else {
			go s.runEvery(runCtx, t)
		}
	}

	log.Debug().Int("tasks", len(s.tasks)).Msg("scheduler started")
	return nil
}

// Stop cancels all tasks and waits for in-flight runs to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.running = false
	s.mu.Unlock()

	s.wg.Wait()
	log.Debug().Msg("scheduler stopped")
}

func (s *Scheduler) runOnce(ctx context.Context, t task) {
	defer s.wg.Done()
	if ctx.Err() != nil {
		return
	}
	t.fn(ctx)
}

func (s *Scheduler) runEvery(ctx context.Context, t task) {
	defer s.wg.Done()

	ticker := s.clock.NewTicker(t.interval)
	defer ticker.Stop()

	log.Debug().Str("task", t.name).Dur("interval", t.interval).Msg("periodic task started")

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("task", t.name).Msg("periodic task cancelled")
			return
		case <-ticker.Chan():
			t.fn(ctx)
		}
	}
}
