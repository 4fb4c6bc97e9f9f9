package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/raceboard/go/internal/dbconfig"
	"github.com/mcdev12/raceboard/go/internal/eventstore"
	eventsdb "github.com/mcdev12/raceboard/go/internal/eventstore/db"
)

func main() {
	path := "go/internal/assets/races.yaml"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	// 1) Load the fixture, resolving relative starts against now
	fixture, err := eventstore.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		os.Exit(1)
	}
	races, err := fixture.Items(time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve fixture: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	ctx := context.Background()
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, eventsdb.Schema); err != nil {
		fmt.Fprintf(os.Stderr, "apply schema: %v\n", err)
		os.Exit(1)
	}

	// 3) Append races not already stored, keeping fixture order
	var (
		total    = len(races)
		inserted int
		skipped  int
		errs     int
	)

	for _, r := range races {
		var stats []byte
		if r.Stats != nil {
			if stats, err = json.Marshal(r.Stats); err != nil {
				fmt.Fprintf(os.Stderr, "encode stats for %s: %v\n", r.ID, err)
				errs++
				continue
			}
		}

		cmdTag, err := pool.Exec(ctx, `
            INSERT INTO race_events (position, id, name, time, stats)
            SELECT COALESCE(MAX(position) + 1, 0), $1::text, $2::text, $3::text, $4::jsonb
            FROM race_events
            HAVING NOT EXISTS (SELECT 1 FROM race_events WHERE id = $1::text)
        `,
			r.ID, r.Name, r.Time, stats,
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error inserting race %s: %v\n", r.ID, err)
			errs++
			continue
		}
		if cmdTag.RowsAffected() == 1 {
			inserted++
		} else {
			skipped++
		}
	}

	// 4) Print summary
	fmt.Printf(
		"Races seed complete: %d total, %d inserted, %d skipped, %d errors\n",
		total, inserted, skipped, errs,
	)
}
