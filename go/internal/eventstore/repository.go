package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mcdev12/raceboard/go/internal/eventstore/db"
	"github.com/mcdev12/raceboard/go/internal/models"
	"github.com/mcdev12/raceboard/go/internal/sqlutil"
	"github.com/rs/zerolog/log"
)

// Repository persists the store's single ordered event list. Save replaces
// the whole list.
type Repository interface {
	Load(ctx context.Context) ([]models.TimerItem, error)
	Save(ctx context.Context, items []models.TimerItem) error
}

// FileRepository keeps the list as a pretty-printed JSON array on disk.
type FileRepository struct {
	path string
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

func (r *FileRepository) Path() string {
	return r.path
}

// Load reads the file. Valid JSON that is not an array yields an empty
// list; unreadable or unparseable files are errors.
func (r *FileRepository) Load(_ context.Context) ([]models.TimerItem, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read events file: %w", err)
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse events file: %w", err)
	}
	if _, ok := data.([]any); !ok {
		log.Warn().Str("path", r.path).Msg("events file is not a JSON array, treating as empty")
		return []models.TimerItem{}, nil
	}

	var items []models.TimerItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	return items, nil
}

func (r *FileRepository) Save(_ context.Context, items []models.TimerItem) error {
	if items == nil {
		items = []models.TimerItem{}
	}
	raw, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode events: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create events directory: %w", err)
	}
	if err := os.WriteFile(r.path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write events file: %w", err)
	}
	return nil
}

// PostgresRepository keeps the list in the race_events table, one row per
// event ordered by position.
type PostgresRepository struct {
	database *sql.DB
	queries  *db.Queries
}

func NewPostgresRepository(database *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		database: database,
		queries:  db.New(database),
	}
}

// Migrate creates the race_events table if it does not exist.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.database.ExecContext(ctx, db.Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Load(ctx context.Context) ([]models.TimerItem, error) {
	rows, err := r.queries.ListRaceEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list race events: %w", err)
	}

	items := make([]models.TimerItem, 0, len(rows))
	for _, row := range rows {
		item, err := r.dbEventToModel(row)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Save rewrites the table inside one transaction.
func (r *PostgresRepository) Save(ctx context.Context, items []models.TimerItem) error {
	return sqlutil.Run(ctx, r.database, func(tx *sql.Tx) *db.Queries { return db.New(tx) }, func(q *db.Queries) error {
		if err := q.DeleteAllRaceEvents(ctx); err != nil {
			return fmt.Errorf("failed to clear race events: %w", err)
		}
		for i, item := range items {
			row, err := r.modelToDBEvent(int32(i), item)
			if err != nil {
				return err
			}
			if err := q.InsertRaceEvent(ctx, row); err != nil {
				return fmt.Errorf("failed to insert race event %s: %w", item.ID, err)
			}
		}
		return nil
	})
}

func (r *PostgresRepository) dbEventToModel(row db.RaceEvent) (models.TimerItem, error) {
	item := models.TimerItem{
		ID:   row.ID,
		Name: row.Name,
		Time: row.Time,
	}
	stats, err := sqlutil.FromNullJSON[map[string]any](row.Stats)
	if err != nil {
		return models.TimerItem{}, fmt.Errorf("failed to decode stats for race event %s: %w", row.ID, err)
	}
	if stats != nil {
		item.Stats = *stats
	}
	return item, nil
}

func (r *PostgresRepository) modelToDBEvent(position int32, item models.TimerItem) (db.RaceEvent, error) {
	row := db.RaceEvent{
		Position: position,
		ID:       item.ID,
		Name:     item.Name,
		Time:     item.Time,
	}
	if item.Stats != nil {
		stats, err := sqlutil.ToNullJSON(&item.Stats)
		if err != nil {
			return db.RaceEvent{}, fmt.Errorf("failed to encode stats for race event %s: %w", item.ID, err)
		}
		row.Stats = stats
	}
	return row, nil
}
