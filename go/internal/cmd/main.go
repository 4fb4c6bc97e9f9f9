package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/raceboard/go/internal/eventstore"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	flagConfigPath string
	flagBackend    string
	flagFilePath   string
	flagPort       int
	flagFixture    string
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if err := newRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("event store exited")
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "eventstore",
		Short:         "Race event store",
		Long:          "Serves the ordered race event list over HTTP and removes races as boards retire them.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "storage backend (file or postgres)")
	cmd.PersistentFlags().StringVar(&flagFilePath, "file", "", "events file for the file backend")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSeedCmd())
	return cmd
}

// resolveConfig layers defaults/env, the optional config file and flags.
func resolveConfig(cmd *cobra.Command) (Config, error) {
	cfg := defaultConfig()
	if flagConfigPath != "" {
		if err := loadConfigFile(flagConfigPath, &cfg); err != nil {
			return Config{}, err
		}
	}
	if cmd.Flags().Changed("backend") {
		cfg.Backend = flagBackend
	}
	if cmd.Flags().Changed("file") {
		cfg.FilePath = flagFilePath
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = flagPort
	}
	return cfg, cfg.validate()
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the event list over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServer(ctx, cfg)
		},
	}
	cmd.Flags().IntVar(&flagPort, "port", 0, "listen port")
	return cmd
}

func runServer(ctx context.Context, cfg Config) error {
	services, err := setupServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer services.Close()

	server := setupServer(cfg, services)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("event store listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down event store")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace the stored event list with a fixture",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			return runSeed(cmd.Context(), cfg, flagFixture, clockwork.NewRealClock())
		},
	}
	cmd.Flags().StringVar(&flagFixture, "from", "", "fixture file (YAML or JSON)")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func runSeed(ctx context.Context, cfg Config, fixturePath string, clock clockwork.Clock) error {
	fixture, err := eventstore.LoadFixture(fixturePath)
	if err != nil {
		return err
	}
	items, err := fixture.Items(clock.Now())
	if err != nil {
		return err
	}

	services, err := setupServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer services.Close()

	if err := services.App.ReplaceEvents(ctx, items); err != nil {
		return err
	}
	log.Info().Int("count", len(items)).Str("fixture", fixturePath).Msg("event store seeded")
	return nil
}
