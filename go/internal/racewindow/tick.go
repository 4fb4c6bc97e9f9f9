package racewindow

import (
	"context"
	"time"

	"github.com/mcdev12/raceboard/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Tick advances every countdown by the clock. Races whose start has passed
// leave the window and the pending queue and get a best-effort delete; if
// any left, the window is backfilled once. Expiry always happens before
// backfill so backfill sees the shrunken window.
func (e *Engine) Tick(ctx context.Context) {
	e.mu.Lock()

	now := e.clock.Now()

	var expired []models.TimerItem
	gone := make(map[string]bool)
	kept := make([]scheduledItem, 0, len(e.window))
	for _, item := range e.window {
		if item.expiredAt(now) {
			expired = append(expired, item.TimerItem)
			gone[item.ID] = true
			continue
		}
		kept = append(kept, item)
	}

	if len(expired) == 0 {
		e.display.Refresh(e.entriesLocked(now))
		e.mu.Unlock()
		return
	}

	e.window = kept
	e.pending = withoutIDs(e.pending, gone)
	stale := e.backfillLocked(now)

	e.display.Render(e.entriesLocked(now))
	e.metrics.RecordExpired(len(expired) + len(stale))
	e.metrics.RecordWindow(len(e.window), len(e.pending))

	log.Info().
		Strs("expired", expiredIDs(expired, stale)).
		Strs("window", itemIDs(e.window)).
		Msg("expired races retired")

	e.mu.Unlock()

	for _, item := range expired {
		e.dispatchDelete(ctx, item)
	}
	for _, item := range stale {
		e.dispatchDelete(ctx, item)
	}
}

// backfillLocked fills open window slots from the pending queue, earliest
// first. Candidates that already started (possible when the queue is older
// than the clock) are dropped from the queue and returned for deletion
// instead of being shown. Appended races go to the end of the window.
func (e *Engine) backfillLocked(now time.Time) []models.TimerItem {
	var stale []models.TimerItem

	for len(e.window) < e.config.MaxOnScreen {
		idx := nextCandidate(e.pending, e.window)
		if idx < 0 {
			break
		}
		candidate := e.pending[idx]

		if candidate.expiredAt(now) {
			stale = append(stale, candidate.TimerItem)
			e.pending = append(e.pending[:idx:idx], e.pending[idx+1:]...)
			continue
		}

		e.window = append(e.window, candidate)
		log.Debug().Str("event_id", candidate.ID).Msg("backfilled race into window")
	}

	return stale
}

func expiredIDs(groups ...[]models.TimerItem) []string {
	var ids []string
	for _, group := range groups {
		for _, item := range group {
			ids = append(ids, item.ID)
		}
	}
	return ids
}
