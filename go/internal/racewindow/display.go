package racewindow

import (
	"context"
	"net/url"
	"time"

	"github.com/mcdev12/raceboard/go/internal/models"
)

// Entry is one displayed race with its formatted countdown.
type Entry struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Time      string         `json:"time"`
	StartsAt  time.Time      `json:"starts_at"`
	Remaining string         `json:"remaining"`
	Summary   string         `json:"summary,omitempty"`
	Stats     map[string]any `json:"stats,omitempty"`
}

// Display consumes the window. Render is called whenever the set or order
// of displayed races changes, Refresh on ticks that only move countdowns.
// Both are called with the engine's state lock held, so implementations
// must not block or call back into the Engine.
type Display interface {
	Render(entries []Entry)
	Refresh(entries []Entry)
}

// NopDisplay discards everything.
type NopDisplay struct{}

func (NopDisplay) Render([]Entry)  {}
func (NopDisplay) Refresh([]Entry) {}

// MultiDisplay fans out to several displays in order.
type MultiDisplay []Display

func (m MultiDisplay) Render(entries []Entry) {
	for _, d := range m {
		d.Render(entries)
	}
}

func (m MultiDisplay) Refresh(entries []Entry) {
	for _, d := range m {
		d.Refresh(entries)
	}
}

// Activation is produced by a display when a user selects a race.
type Activation struct {
	ID string `json:"id"`
}

// Navigation is the intent resolved from an activation.
type Navigation struct {
	ID          string           `json:"id"`
	Path        string           `json:"path"`
	Item        models.TimerItem `json:"item"`
	ActivatedAt time.Time        `json:"activated_at"`
}

// NavigationPath is the race detail route for an event id.
func NavigationPath(id string) string {
	return "/races2/" + url.PathEscape(id)
}

// ActivationSink receives resolved navigation intents.
type ActivationSink interface {
	Navigate(ctx context.Context, nav Navigation) error
}

// ActivationHandler resolves activations coming from a display.
type ActivationHandler interface {
	Activate(ctx context.Context, activation Activation) (Navigation, error)
}

func newEntry(item scheduledItem, now time.Time) Entry {
	return Entry{
		ID:        item.ID,
		Name:      item.Name,
		Time:      item.Time,
		StartsAt:  item.start,
		Remaining: FormatCountdown(item.start.Sub(now)),
		Summary:   item.Summary(),
		Stats:     item.Stats,
	}
}
