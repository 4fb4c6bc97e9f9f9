package racewindow

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/raceboard/go/internal/models"
	"github.com/rs/zerolog/log"
)

// ErrUnknownRace is returned when an activation names a race the engine
// does not know.
var ErrUnknownRace = errors.New("unknown race")

// RaceLookup resolves a race id to the item the engine holds.
type RaceLookup interface {
	Lookup(id string) (models.TimerItem, bool)
}

// Activator turns display activations into navigation intents.
type Activator struct {
	lookup RaceLookup
	sinks  []ActivationSink
	clock  clockwork.Clock
}

func NewActivator(lookup RaceLookup, clock clockwork.Clock, sinks ...ActivationSink) *Activator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Activator{lookup: lookup, sinks: sinks, clock: clock}
}

// Activate resolves the activation and hands the intent to every sink. Sink
// failures are logged; the intent is still returned.
func (a *Activator) Activate(ctx context.Context, activation Activation) (Navigation, error) {
	item, ok := a.lookup.Lookup(activation.ID)
	if !ok {
		return Navigation{}, fmt.Errorf("%w: %s", ErrUnknownRace, activation.ID)
	}

	nav := Navigation{
		ID:          item.ID,
		Path:        NavigationPath(item.ID),
		Item:        item,
		ActivatedAt: a.clock.Now(),
	}

	for _, sink := range a.sinks {
		if err := sink.Navigate(ctx, nav); err != nil {
			log.Error().Err(err).Str("event_id", item.ID).Msg("failed to deliver navigation intent")
		}
	}

	log.Info().Str("event_id", item.ID).Str("path", nav.Path).Msg("race activated")
	return nav, nil
}
