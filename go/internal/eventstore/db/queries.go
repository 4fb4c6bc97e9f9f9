package db

import (
	"context"
	"database/sql"

	"github.com/sqlc-dev/pqtype"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

type RaceEvent struct {
	Position int32
	ID       string
	Name     string
	Time     string
	Stats    pqtype.NullRawMessage
}

const listRaceEvents = `-- name: ListRaceEvents :many
SELECT position, id, name, time, stats FROM race_events ORDER BY position
`

func (q *Queries) ListRaceEvents(ctx context.Context) ([]RaceEvent, error) {
	rows, err := q.db.QueryContext(ctx, listRaceEvents)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RaceEvent
	for rows.Next() {
		var i RaceEvent
		if err := rows.Scan(&i.Position, &i.ID, &i.Name, &i.Time, &i.Stats); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteAllRaceEvents = `-- name: DeleteAllRaceEvents :exec
DELETE FROM race_events
`

func (q *Queries) DeleteAllRaceEvents(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllRaceEvents)
	return err
}

const insertRaceEvent = `-- name: InsertRaceEvent :exec
INSERT INTO race_events (position, id, name, time, stats) VALUES ($1, $2, $3, $4, $5)
`

func (q *Queries) InsertRaceEvent(ctx context.Context, arg RaceEvent) error {
	_, err := q.db.ExecContext(ctx, insertRaceEvent, arg.Position, arg.ID, arg.Name, arg.Time, arg.Stats)
	return err
}
