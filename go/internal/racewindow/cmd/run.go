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

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/raceboard/go/clients/eventstore_client"
	"github.com/mcdev12/raceboard/go/internal/config"
	"github.com/mcdev12/raceboard/go/internal/racewindow"
	"github.com/mcdev12/raceboard/go/internal/racewindow/gateway"
	"github.com/mcdev12/raceboard/go/internal/racewindow/notify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the board server (WebSocket display, snapshot API, metrics)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(flagConfigPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runBoard(ctx, cfg)
		},
	}
}

func runBoard(ctx context.Context, cfg config.Config) error {
	clock := clockwork.NewRealClock()

	log.Info().
		Str("store_url", cfg.Store.BaseURL).
		Str("port", cfg.Gateway.Port).
		Bool("nats", cfg.NATS.Enabled()).
		Msg("starting race board")

	opts := []racewindow.Option{racewindow.WithClock(clock)}

	registry := prometheus.NewRegistry()
	if cfg.Metrics.Enabled {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts = append(opts, racewindow.WithMetrics(racewindow.NewPrometheusMetrics(registry)))
	}

	var (
		sinks []racewindow.ActivationSink
		deps  []racewindow.Dependency
	)
	if cfg.NATS.Enabled() {
		jsConfig := notify.DefaultJetStreamConfig()
		jsConfig.URL = cfg.NATS.URL
		jsConfig.StreamName = cfg.NATS.StreamName
		jsConfig.SubjectPrefix = cfg.NATS.SubjectPrefix

		publisher, err := notify.NewJetStreamPublisher(ctx, jsConfig, clock)
		if err != nil {
			return fmt.Errorf("failed to create NATS publisher: %w", err)
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close NATS publisher")
			}
		}()
		opts = append(opts, racewindow.WithDeleteObserver(publisher))
		sinks = append(sinks, publisher)
		deps = append(deps, racewindow.Dependency{Name: "nats", Connected: publisher.IsConnected})
	}

	board := gateway.NewService(gateway.Config{
		ConnectionConfig: connectionConfig(cfg.Gateway),
		Clock:            clock,
	}, nil, nil)

	engine := racewindow.NewEngine(newStoreClient(cfg.Store), board, engineConfig(cfg.Window), opts...)
	board.SetSource(engine)
	board.SetActivationHandler(racewindow.NewActivator(engine, clock, sinks...))

	mux := http.NewServeMux()
	board.RegisterRoutes(mux)
	mux.Handle("GET /health", racewindow.NewHealthChecker(engine, clock, 3*cfg.Window.ResyncInterval, deps...))
	if cfg.Metrics.Enabled {
		mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	}

	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodHead, http.MethodGet},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Gateway.Port),
		Handler:           c.Handler(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return board.Start(ctx)
	})

	g.Go(func() error {
		if err := engine.Start(ctx); err != nil {
			return fmt.Errorf("failed to start engine: %w", err)
		}
		<-ctx.Done()
		engine.Stop()
		return nil
	})

	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("race board listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	log.Info().Msg("race board stopped")
	return err
}

func newStoreClient(cfg config.StoreConfig) *eventstore_client.EventStoreClient {
	client := eventstore_client.NewEventStoreClient(cfg.BaseURL)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	return client
}

func engineConfig(cfg config.WindowConfig) racewindow.Config {
	return racewindow.Config{
		MaxOnScreen:             cfg.MaxOnScreen,
		ResyncInterval:          cfg.ResyncInterval,
		TickInterval:            cfg.TickInterval,
		KeepLastGoodOnMalformed: cfg.KeepLastGoodOnMalformed,
	}
}

func connectionConfig(cfg config.GatewayConfig) gateway.ConnectionConfig {
	cc := gateway.DefaultConnectionConfig()
	cc.WriteTimeout = cfg.WriteTimeout
	cc.ReadTimeout = cfg.PongTimeout
	cc.PingInterval = cfg.PingInterval
	if cfg.MaxMessageSize > 0 {
		cc.MaxMessageSize = cfg.MaxMessageSize
	}
	return cc
}
