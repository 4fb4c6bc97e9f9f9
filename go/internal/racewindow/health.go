package racewindow

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// StatsSource is satisfied by *Engine.
type StatsSource interface {
	Stats() Stats
}

// Dependency reports whether an optional collaborator (e.g. NATS) is up.
type Dependency struct {
	Name      string
	Connected func() bool
}

type HealthStatus struct {
	Healthy      bool            `json:"healthy"`
	Running      bool            `json:"running"`
	Displayed    int             `json:"displayed"`
	Pending      int             `json:"pending"`
	LastResyncAt *time.Time      `json:"last_resync_at,omitempty"`
	Dependencies map[string]bool `json:"dependencies,omitempty"`
	Errors       []string        `json:"errors"`
}

// HealthChecker reports the board unhealthy when the engine is stopped or
// has not resynced successfully within threshold. Before the first
// successful resync the threshold runs from the engine's start.
type HealthChecker struct {
	source    StatsSource
	clock     clockwork.Clock
	threshold time.Duration
	deps      []Dependency
}

func NewHealthChecker(source StatsSource, clock clockwork.Clock, threshold time.Duration, deps ...Dependency) *HealthChecker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &HealthChecker{source: source, clock: clock, threshold: threshold, deps: deps}
}

func (h *HealthChecker) Check() HealthStatus {
	stats := h.source.Stats()
	status := HealthStatus{
		Healthy:   true,
		Running:   stats.Running,
		Displayed: stats.Displayed,
		Pending:   stats.Pending,
		Errors:    []string{},
	}

	if !stats.Running {
		status.Healthy = false
		status.Errors = append(status.Errors, "engine not running")
	}

	if stats.LastResyncErr != nil {
		status.Errors = append(status.Errors, fmt.Sprintf("last resync failed: %v", stats.LastResyncErr))
	}

	if stats.LastResyncAt.IsZero() {
		if stats.Running {
			if since := h.clock.Since(stats.StartedAt); h.threshold > 0 && since > h.threshold {
				status.Healthy = false
				status.Errors = append(status.Errors, fmt.Sprintf("no successful resync since start (%s)", since))
			} else {
				status.Errors = append(status.Errors, "no successful resync yet")
			}
		}
	} else {
		last := stats.LastResyncAt
		status.LastResyncAt = &last
		if since := h.clock.Since(last); h.threshold > 0 && since > h.threshold {
			status.Healthy = false
			status.Errors = append(status.Errors, fmt.Sprintf("no successful resync for %s", since))
		}
	}

	if len(h.deps) > 0 {
		status.Dependencies = make(map[string]bool, len(h.deps))
		for _, dep := range h.deps {
			connected := dep.Connected()
			status.Dependencies[dep.Name] = connected
			if !connected {
				status.Errors = append(status.Errors, dep.Name+" disconnected")
			}
		}
	}

	return status
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check()

	w.Header().Set("Content-Type", "application/json")
	if status.Healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("failed to encode health status")
	}
}
