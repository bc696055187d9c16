package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nabhacare/backend/internal/infrastructure/clients/postgres"
	"github.com/nabhacare/backend/pkg/config"
	"github.com/nabhacare/backend/pkg/secrets"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "nabhactl",
		Short: "Operational tooling for the Nabha Care backend",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			level := zerolog.WarnLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	root.AddCommand(migrateCmd())
	root.AddCommand(seedCmd())
	root.AddCommand(reindexDoctorsCmd())
	root.AddCommand(issueTokenCmd())
	root.AddCommand(whoamiCmd())
	root.AddCommand(watchCmd())

	return root
}

// loadConfig applies Vault secrets when enabled and loads configuration
func loadConfig(ctx context.Context) (*config.Config, error) {
	return secrets.LoadConfig(ctx)
}

// openDatabase connects to Postgres with the loaded configuration
func openDatabase(ctx context.Context) (*config.Config, *postgres.Client, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return cfg, pgClient, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
