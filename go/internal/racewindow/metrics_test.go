package racewindow

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics_TrackEngineActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(reg)

	engine, store, _, clock := newTestEngine(t, 2, WithMetrics(metrics))
	store.setItems(race("a", time.Second), race("b", time.Minute), race("c", time.Hour))

	require.NoError(t, engine.Reconcile(context.Background(), true))
	require.NoError(t, engine.Reconcile(context.Background(), false))

	clock.Advance(2 * time.Second)
	engine.Tick(context.Background())
	engine.waitForDeletes()

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.resyncs.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.reseeds))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.expired))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.deletes.WithLabelValues("success")))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.displayed))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.pending))
}
