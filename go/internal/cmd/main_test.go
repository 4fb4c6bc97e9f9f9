package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/raceboard/go/internal/eventstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{Backend: backendFile, FilePath: "info.txt", Port: 8080}.validate())
	assert.NoError(t, Config{Backend: backendPostgres, Port: 8080}.validate())
	assert.Error(t, Config{Backend: backendFile, Port: 8080}.validate())
	assert.Error(t, Config{Backend: "redis", Port: 8080}.validate())
	assert.Error(t, Config{Backend: backendFile, FilePath: "info.txt"}.validate())
}

func TestDefaultConfigReadsEnv(t *testing.T) {
	t.Setenv("STORE_BACKEND", backendPostgres)
	t.Setenv("PORT", "9090")

	cfg := defaultConfig()
	assert.Equal(t, backendPostgres, cfg.Backend)
	assert.Equal(t, 9090, cfg.Port)
}

func TestLoadConfigFileOverlays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.yaml")
	require.NoError(t, os.WriteFile(path, []byte("file_path: /tmp/races.json\n"), 0o644))

	cfg := Config{Backend: backendFile, FilePath: "public/info.txt", Port: 8080}
	require.NoError(t, loadConfigFile(path, &cfg))
	assert.Equal(t, "/tmp/races.json", cfg.FilePath)
	assert.Equal(t, 8080, cfg.Port)
}

func TestRunSeedWritesFileBackend(t *testing.T) {
	dir := t.TempDir()
	fixture := filepath.Join(dir, "races.yaml")
	require.NoError(t, os.WriteFile(fixture, []byte(`
events:
  - id: "1"
    name: Churchill Downs Classic
    starts_in: 5m
`), 0o644))

	store := filepath.Join(dir, "public", "info.txt")
	cfg := Config{Backend: backendFile, FilePath: store, Port: 8080}
	clock := clockwork.NewFakeClockAt(time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC))

	require.NoError(t, runSeed(context.Background(), cfg, fixture, clock))

	items, err := eventstore.NewFileRepository(store).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "2026-10-18T12:05:00Z", items[0].Time)
}
