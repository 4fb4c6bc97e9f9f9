package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mcdev12/raceboard/go/internal/eventstore"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Events *eventstore.Service
	App    *eventstore.App

	database *sql.DB
}

// setupServices wires Repository → App → Service for the configured
// backend.
func setupServices(ctx context.Context, cfg Config) (*Services, error) {
	var (
		repo     eventstore.Repository
		database *sql.DB
	)

	switch cfg.Backend {
	case backendPostgres:
		db, err := setupDatabase(ctx)
		if err != nil {
			return nil, err
		}
		database = db
		pgRepo := eventstore.NewPostgresRepository(db)
		if err := pgRepo.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		repo = pgRepo
	case backendFile:
		repo = eventstore.NewFileRepository(cfg.FilePath)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	log.Info().Str("backend", cfg.Backend).Msg("event store backend ready")

	app := eventstore.NewApp(repo)
	return &Services{
		Events:   eventstore.NewService(app),
		App:      app,
		database: database,
	}, nil
}

func (s *Services) Close() {
	if s.database == nil {
		return
	}
	if err := s.database.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close database")
	}
}
