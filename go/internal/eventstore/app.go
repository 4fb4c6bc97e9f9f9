package eventstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/mcdev12/raceboard/go/internal/models"
	"github.com/rs/zerolog/log"
)

// App handles event store business logic. Every delete is a
// read-modify-write of the whole list; mu serialises them within this
// process only, so separate writers still race and the last one wins.
type App struct {
	repo Repository
	mu   sync.Mutex
}

// NewApp creates a new event store App
func NewApp(repo Repository) *App {
	return &App{repo: repo}
}

// ListEvents returns every event in stored order.
func (a *App) ListEvents(ctx context.Context) ([]models.TimerItem, error) {
	items, err := a.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	return items, nil
}

// GetEvent returns the event with the given id.
func (a *App) GetEvent(ctx context.Context, id string) (*models.TimerItem, error) {
	items, err := a.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// DeleteEventByID removes every event with the given id and reports
// whether anything was removed. Nothing is written when nothing matches.
func (a *App) DeleteEventByID(ctx context.Context, id string) (bool, error) {
	return a.deleteWhere(ctx, func(item models.TimerItem) bool {
		return item.ID == id
	})
}

// DeleteEventByNameAndTime removes events whose name and time both match
// exactly.
func (a *App) DeleteEventByNameAndTime(ctx context.Context, name, time string) (bool, error) {
	if name == "" || time == "" {
		return false, ErrMissingQueryParameter
	}
	return a.deleteWhere(ctx, func(item models.TimerItem) bool {
		return item.Name == name && item.Time == time
	})
}

// ReplaceEvents overwrites the stored list.
func (a *App) ReplaceEvents(ctx context.Context, items []models.TimerItem) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.repo.Save(ctx, items); err != nil {
		return fmt.Errorf("failed to save events: %w", err)
	}
	log.Info().Int("count", len(items)).Msg("event list replaced")
	return nil
}

func (a *App) deleteWhere(ctx context.Context, match func(models.TimerItem) bool) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	items, err := a.repo.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load events: %w", err)
	}

	next := make([]models.TimerItem, 0, len(items))
	for _, item := range items {
		if !match(item) {
			next = append(next, item)
		}
	}

	if len(next) == len(items) {
		return false, nil
	}

	if err := a.repo.Save(ctx, next); err != nil {
		return false, fmt.Errorf("failed to save events: %w", err)
	}

	log.Info().
		Int("removed", len(items)-len(next)).
		Int("remaining", len(next)).
		Msg("events deleted")
	return true, nil
}
