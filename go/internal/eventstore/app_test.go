package eventstore

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mcdev12/raceboard/go/internal/eventstore/db"
	"github.com/mcdev12/raceboard/go/internal/models"
	"github.com/sqlc-dev/pqtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepository struct {
	items   []models.TimerItem
	saves   int
	loadErr error
}

func (r *memoryRepository) Load(context.Context) ([]models.TimerItem, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return append([]models.TimerItem(nil), r.items...), nil
}

func (r *memoryRepository) Save(_ context.Context, items []models.TimerItem) error {
	r.saves++
	r.items = append([]models.TimerItem(nil), items...)
	return nil
}

func TestDeleteSkipsWriteWhenNothingMatches(t *testing.T) {
	repo := &memoryRepository{items: []models.TimerItem{{ID: "1", Name: "A", Time: "2026-10-18T12:00:00Z"}}}
	app := NewApp(repo)

	removed, err := app.DeleteEventByNameAndTime(context.Background(), "A", "2026-10-18T12:00:01Z")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Zero(t, repo.saves)

	removed, err = app.DeleteEventByID(context.Background(), "1")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 1, repo.saves)
	assert.Empty(t, repo.items)
}

func TestDeleteByIDRemovesEveryDuplicate(t *testing.T) {
	repo := &memoryRepository{items: []models.TimerItem{
		{ID: "1", Name: "A"}, {ID: "2", Name: "B"}, {ID: "1", Name: "A again"},
	}}

	removed, err := NewApp(repo).DeleteEventByID(context.Background(), "1")
	require.NoError(t, err)
	assert.True(t, removed)
	require.Len(t, repo.items, 1)
	assert.Equal(t, "2", repo.items[0].ID)
}

func TestDeleteByNameAndTimeRequiresBoth(t *testing.T) {
	repo := &memoryRepository{items: []models.TimerItem{{ID: "1", Name: "A", Time: "2026-10-18T12:00:00Z"}}}

	_, err := NewApp(repo).DeleteEventByNameAndTime(context.Background(), "A", "")
	assert.ErrorIs(t, err, ErrMissingQueryParameter)
	assert.Len(t, repo.items, 1)
}

func TestGetEventNotFound(t *testing.T) {
	_, err := NewApp(&memoryRepository{}).GetEvent(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadErrorsAreWrapped(t *testing.T) {
	boom := errors.New("disk gone")
	_, err := NewApp(&memoryRepository{loadErr: boom}).ListEvents(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestPostgresRowConversion(t *testing.T) {
	repo := &PostgresRepository{}
	item := models.TimerItem{
		ID:    "1",
		Name:  "Churchill Downs Classic",
		Time:  "2026-10-18T12:15:00Z",
		Stats: map[string]any{"horses": float64(8), "track": "Dirt"},
	}

	row, err := repo.modelToDBEvent(3, item)
	require.NoError(t, err)
	assert.Equal(t, int32(3), row.Position)
	assert.True(t, row.Stats.Valid)
	assert.JSONEq(t, `{"horses":8,"track":"Dirt"}`, string(row.Stats.RawMessage))

	back, err := repo.dbEventToModel(row)
	require.NoError(t, err)
	assert.Equal(t, item, back)

	bare, err := repo.dbEventToModel(db.RaceEvent{ID: "2", Name: "B", Time: "2026-10-18T13:00:00Z"})
	require.NoError(t, err)
	assert.Nil(t, bare.Stats)

	_, err = repo.dbEventToModel(db.RaceEvent{ID: "3", Stats: pqtype.NullRawMessage{RawMessage: json.RawMessage(`not json`), Valid: true}})
	assert.Error(t, err)
}
