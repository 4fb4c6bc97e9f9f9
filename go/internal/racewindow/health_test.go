package racewindow

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticStats Stats

func (s staticStats) Stats() Stats { return Stats(s) }

func TestHealthChecker(t *testing.T) {
	clock := clockwork.NewFakeClockAt(baseTime)

	t.Run("fresh resync is healthy", func(t *testing.T) {
		h := NewHealthChecker(staticStats{Running: true, Displayed: 2, Pending: 4, LastResyncAt: baseTime.Add(-10 * time.Second)}, clock, 45*time.Second)
		status := h.Check()
		assert.True(t, status.Healthy)
		assert.Empty(t, status.Errors)
		assert.Equal(t, 4, status.Pending)
	})

	t.Run("stale resync is unhealthy", func(t *testing.T) {
		h := NewHealthChecker(staticStats{
			Running:       true,
			LastResyncAt:  baseTime.Add(-time.Minute),
			LastResyncErr: errors.New("store unavailable"),
		}, clock, 45*time.Second)
		status := h.Check()
		assert.False(t, status.Healthy)
		assert.Len(t, status.Errors, 2)
	})

	t.Run("never resynced within threshold of start is healthy", func(t *testing.T) {
		h := NewHealthChecker(staticStats{Running: true, StartedAt: baseTime.Add(-30 * time.Second)}, clock, 45*time.Second)
		status := h.Check()
		assert.True(t, status.Healthy)
		assert.Equal(t, []string{"no successful resync yet"}, status.Errors)
	})

	t.Run("never resynced past threshold of start is unhealthy", func(t *testing.T) {
		h := NewHealthChecker(staticStats{Running: true, StartedAt: baseTime.Add(-time.Minute)}, clock, 45*time.Second)
		status := h.Check()
		assert.False(t, status.Healthy)
		assert.Nil(t, status.LastResyncAt)
		require.Len(t, status.Errors, 1)
		assert.Contains(t, status.Errors[0], "no successful resync since start")
	})

	t.Run("stopped engine is unhealthy", func(t *testing.T) {
		status := NewHealthChecker(staticStats{}, clock, 45*time.Second).Check()
		assert.False(t, status.Healthy)
		assert.Contains(t, status.Errors, "engine not running")
	})

	t.Run("dependencies are reported but advisory", func(t *testing.T) {
		h := NewHealthChecker(staticStats{Running: true, LastResyncAt: baseTime}, clock, 45*time.Second,
			Dependency{Name: "nats", Connected: func() bool { return false }})
		status := h.Check()
		assert.True(t, status.Healthy)
		assert.Equal(t, map[string]bool{"nats": false}, status.Dependencies)
	})
}

func TestHealthCheckerServeHTTP(t *testing.T) {
	clock := clockwork.NewFakeClockAt(baseTime)
	h := NewHealthChecker(staticStats{}, clock, time.Minute)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Healthy)
}

func TestEngineStatsTrackResync(t *testing.T) {
	ctx := context.Background()
	e, store, _, clock := newTestEngine(t, 5)
	store.setItems(race("a", time.Minute), race("b", 2*time.Minute))

	require.NoError(t, e.Reconcile(ctx, true))
	stats := e.Stats()
	assert.False(t, stats.Running)
	assert.Equal(t, 2, stats.Displayed)
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, baseTime, stats.LastResyncAt)
	assert.NoError(t, stats.LastResyncErr)

	clock.Advance(15 * time.Second)
	store.mu.Lock()
	store.fetchErr = errors.New("connection refused")
	store.mu.Unlock()

	require.Error(t, e.Reconcile(ctx, false))
	stats = e.Stats()
	assert.Equal(t, baseTime, stats.LastResyncAt)
	assert.Error(t, stats.LastResyncErr)
}

func TestHealthChecker_EngineThatNeverResyncs(t *testing.T) {
	e, store, _, clock := newTestEngine(t, 5)
	refused := errors.New("connection refused")
	store.setFetchErr(refused)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, e.Start(ctx))
	t.Cleanup(e.Stop)

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.fetches >= 1
	}, 2*time.Second, 5*time.Millisecond)

	h := NewHealthChecker(e, clock, 45*time.Second)
	assert.Equal(t, baseTime, e.Stats().StartedAt)
	assert.True(t, h.Check().Healthy, "still inside the first threshold")

	// resync and tick tickers
	require.NoError(t, clock.BlockUntilContext(ctx, 2))
	for i := 0; i < 10; i++ {
		clock.Advance(15 * time.Second)
	}

	status := h.Check()
	assert.False(t, status.Healthy)
	assert.True(t, status.Running)
	assert.Nil(t, status.LastResyncAt)
	require.Eventually(t, func() bool {
		return errors.Is(e.Stats().LastResyncErr, refused)
	}, 2*time.Second, 5*time.Millisecond)

	e.Stop()
	assert.True(t, e.Stats().StartedAt.IsZero())
}
