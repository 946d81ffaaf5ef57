package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizgen/internal/config"
	"github.com/abhisek/quizgen/internal/store"
)

var rootCmd = &cobra.Command{
	Use:          "quizgen",
	Short:        "AI quiz generator",
	Long:         "quizgen turns a topic into a short multiple-choice quiz using an LLM, optionally grounded in Wikipedia.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Database DSN or SQLite file path (overrides QUIZGEN_DB_DSN)")
	rootCmd.PersistentFlags().String("db-driver", "", "Database driver: sqlite or postgres (overrides QUIZGEN_DB_DRIVER)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the service configuration and applies the database
// flags, which take priority over the environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dsn, _ := cmd.Flags().GetString("db"); dsn != "" {
		cfg.DBDSN = dsn
	}
	if driver, _ := cmd.Flags().GetString("db-driver"); driver != "" {
		cfg.DBDriver = driver
	}
	return cfg, cfg.Validate()
}

// newLogger returns a JSON logger at level. Commands pass their stderr so
// logs never mix with the output on stdout.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// openStore opens the configured database. It returns a nil Store when no
// DSN is configured.
func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	if cfg.DBDSN == "" {
		return nil, nil
	}
	s, err := store.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// requireStore is openStore for commands that cannot run without one.
func requireStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	s, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("no database configured: set QUIZGEN_DB_DSN or pass --db")
	}
	return s, nil
}
