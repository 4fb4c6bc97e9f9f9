package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var flagConfigPath string

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if err := newRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("race board exited")
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "raceboard",
		Short:         "Race countdown board",
		Long:          "Keeps a window of the next races in step with the event store and counts each one down.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", os.Getenv("BOARD_CONFIG"), "config file path")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newWatchCmd())
	return cmd
}
