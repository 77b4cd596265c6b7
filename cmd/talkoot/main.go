package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/harava/talkoot/internal/app"
	"github.com/harava/talkoot/internal/config"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	envFile     string
	logLevelInt int
	logLevel    zerolog.Level = 1
	// The root command of our program
	rootCmd = &cobra.Command{
		Use:   "talkoot",
		Short: "Volunteer clean-up event booking for contract zones.",
		Long: `Talkoot accepts volunteer clean-up event proposals, checks them against the
contract zones and their booking rules, and keeps officials and contractors informed.`,
		SilenceUsage: true,
	}
)

// Go, go, go
func main() {
	rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Bind our args to the command
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "The env file to read.")
	rootCmd.PersistentFlags().IntVar(&logLevelInt, "log", 1, "The logging level to use.")

	rootCmd.AddCommand(serverCmd, importCmd, remindCmd, availabilityCmd, zonesCmd, migrateCmd)
}

func initConfig() {
	setLogLevel()

	err := godotenv.Load(envFile)
	if err != nil {
		log.Info().Err(err).Msg("failed to load env file")
	}
}

func setLogLevel() {
	logLevel = zerolog.Level(logLevelInt)
	zerolog.SetGlobalLevel(logLevel)
}

// withApp loads the configuration and runs fn with a connected app, stopping
// on SIGINT or SIGTERM.
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
