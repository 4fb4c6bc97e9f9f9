package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/raceboard/go/internal/config"
	"github.com/mcdev12/raceboard/go/internal/racewindow"
	"github.com/mcdev12/raceboard/go/internal/racewindow/console"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Show the board in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(flagConfigPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			engine := racewindow.NewEngine(
				newStoreClient(cfg.Store),
				console.New(os.Stdout),
				engineConfig(cfg.Window),
				racewindow.WithClock(clockwork.NewRealClock()),
			)
			if err := engine.Start(ctx); err != nil {
				return err
			}
			<-ctx.Done()
			engine.Stop()
			return nil
		},
	}
}
