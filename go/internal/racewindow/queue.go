package racewindow

import (
	"sort"
	"time"

	"github.com/mcdev12/raceboard/go/internal/models"
	"github.com/rs/zerolog/log"
)

// scheduledItem pairs a store item with its parsed start instant.
type scheduledItem struct {
	models.TimerItem
	start time.Time
}

func (s scheduledItem) expiredAt(now time.Time) bool {
	return !s.start.After(now)
}

// eligible drops items that have started (or whose time does not parse)
// and sorts the rest ascending by start. Ties keep store order.
func eligible(items []models.TimerItem, now time.Time) []scheduledItem {
	fresh := make([]scheduledItem, 0, len(items))
	for _, item := range items {
		start, err := item.StartTime()
		if err != nil {
			log.Warn().Err(err).Str("event_id", item.ID).Str("time", item.Time).Msg("skipping event with unparseable time")
			continue
		}
		if !start.After(now) {
			continue
		}
		fresh = append(fresh, scheduledItem{TimerItem: item, start: start})
	}
	sort.SliceStable(fresh, func(i, j int) bool {
		return fresh[i].start.Before(fresh[j].start)
	})
	return fresh
}

// top returns at most n leading items as a new slice.
func top(items []scheduledItem, n int) []scheduledItem {
	if len(items) > n {
		items = items[:n]
	}
	out := make([]scheduledItem, len(items))
	copy(out, items)
	return out
}

// sameOrder reports whether a and b hold the same ids in the same order.
func sameOrder(a, b []scheduledItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}

// withoutIDs returns items minus any whose id is in drop.
func withoutIDs(items []scheduledItem, drop map[string]bool) []scheduledItem {
	if len(drop) == 0 {
		return items
	}
	kept := make([]scheduledItem, 0, len(items))
	for _, item := range items {
		if !drop[item.ID] {
			kept = append(kept, item)
		}
	}
	return kept
}

// nextCandidate returns the index of the earliest pending item not already
// displayed, or -1.
func nextCandidate(pending, window []scheduledItem) int {
	onScreen := make(map[string]bool, len(window))
	for _, item := range window {
		onScreen[item.ID] = true
	}
	for i, item := range pending {
		if !onScreen[item.ID] {
			return i
		}
	}
	return -1
}

func itemIDs(items []scheduledItem) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}
