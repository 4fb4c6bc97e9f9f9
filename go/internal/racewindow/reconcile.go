package racewindow

import (
	"context"
	"errors"
	"fmt"

	"github.com/mcdev12/raceboard/go/clients/eventstore_client"
	"github.com/rs/zerolog/log"
)

// Reconcile re-fetches the store and refreshes the pending queue. The
// window is replaced only when reseed is set or the soonest MaxOnScreen
// ids differ, in order, from what is displayed; an unchanged top leaves
// the window and display untouched.
//
// A failed fetch leaves all state as it was and returns the error. A
// malformed response counts as an empty store unless the engine was
// configured to keep the last good state.
//
// Fetches may overlap. A result that arrives after a newer fetch has
// already been applied is dropped without touching state.
func (e *Engine) Reconcile(ctx context.Context, reseed bool) error {
	started := e.clock.Now()

	e.mu.Lock()
	e.fetchSeq++
	seq := e.fetchSeq
	e.mu.Unlock()

	items, err := e.store.FetchAll(ctx)
	if err != nil {
		if !errors.Is(err, eventstore_client.ErrMalformedResponse) || e.config.KeepLastGoodOnMalformed {
			e.metrics.RecordResync(false, e.clock.Since(started))
			log.Error().Err(err).Bool("reseed", reseed).Msg("resync failed, keeping current window")
			e.mu.Lock()
			if seq > e.appliedSeq {
				e.lastResyncErr = err
			}
			e.mu.Unlock()
			return fmt.Errorf("fetch events: %w", err)
		}
		log.Warn().Err(err).Msg("malformed store response, treating as empty")
		items = nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if seq < e.appliedSeq {
		log.Debug().
			Uint64("fetch", seq).
			Uint64("applied", e.appliedSeq).
			Bool("reseed", reseed).
			Msg("dropping stale fetch result")
		return nil
	}
	e.appliedSeq = seq

	now := e.clock.Now()
	fresh := eligible(items, now)
	freshTop := top(fresh, e.config.MaxOnScreen)

	e.pending = fresh
	e.lastResyncAt = now
	e.lastResyncErr = nil

	if reseed || !sameOrder(freshTop, e.window) {
		e.window = freshTop
		e.display.Render(e.entriesLocked(now))
		e.metrics.RecordReseed()

		log.Info().
			Bool("hard", reseed).
			Strs("window", itemIDs(e.window)).
			Int("pending", len(e.pending)).
			Msg("window reseeded")
	} else {
		log.Debug().
			Int("pending", len(e.pending)).
			Msg("resync unchanged, window kept")
	}

	e.metrics.RecordResync(true, e.clock.Since(started))
	e.metrics.RecordWindow(len(e.window), len(e.pending))
	return nil
}
