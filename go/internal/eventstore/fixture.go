package eventstore

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/raceboard/go/internal/models"
	"gopkg.in/yaml.v3"
)

// Fixture is a seed file for the event store. JSON files load too since
// YAML is a superset.
type Fixture struct {
	Events []FixtureEvent `yaml:"events"`
}

// FixtureEvent is one seeded race. Either Time or StartsIn must be set;
// StartsIn is resolved against the seeding clock.
type FixtureEvent struct {
	ID       string         `yaml:"id"`
	Name     string         `yaml:"name"`
	Time     string         `yaml:"time"`
	StartsIn time.Duration  `yaml:"starts_in"`
	Stats    map[string]any `yaml:"stats"`
}

// LoadFixture reads and parses a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}

	var fixture Fixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return &fixture, nil
}

// Items resolves the fixture into stored events. Missing ids get a fresh
// UUID.
func (f *Fixture) Items(now time.Time) ([]models.TimerItem, error) {
	items := make([]models.TimerItem, 0, len(f.Events))
	for i, ev := range f.Events {
		if ev.Name == "" {
			return nil, fmt.Errorf("fixture event %d: missing name", i)
		}

		start := ev.Time
		switch {
		case start != "":
			if _, err := time.Parse(time.RFC3339Nano, start); err != nil {
				return nil, fmt.Errorf("fixture event %d (%s): invalid time: %w", i, ev.Name, err)
			}
		case ev.StartsIn != 0:
			start = now.Add(ev.StartsIn).UTC().Format(time.RFC3339)
		default:
			return nil, fmt.Errorf("fixture event %d (%s): %w", i, ev.Name, errMissingStart)
		}

		id := ev.ID
		if id == "" {
			id = uuid.NewString()
		}

		items = append(items, models.TimerItem{
			ID:    id,
			Name:  ev.Name,
			Time:  start,
			Stats: ev.Stats,
		})
	}
	return items, nil
}

var errMissingStart = errors.New("one of time or starts_in is required")
