package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/marshallshelly/pebble-record/cmd/record/output"
	"github.com/marshallshelly/pebble-record/internal/config"
	"github.com/marshallshelly/pebble-record/pkg/runtime"
)

var (
	// Global flags
	cfgFile    string
	jsonOutput bool

	// cfg is loaded before every command runs.
	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "record",
	Short: "pebble-record - active-record entities for MySQL",
	Long: `record drives the pebble-record entity layer against a MySQL database.

Features:
  - Connection check and table listing
  - Query compilation without a database
  - Guided create, read, update and delete walkthrough
  - Eager loading of hasMany, hasOne and belongsTo relations
  - Interactive user browser`,
	Version:           "0.3.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default record.yaml)")
	flags.String("host", "", "Database host")
	flags.Int("port", 0, "Database port")
	flags.String("database", "", "Database name")
	flags.String("username", "", "Database user")
	flags.String("password", "", "Database password")
	flags.String("charset", "", "Connection character set")
	flags.Duration("slow-query", 0, "Log statements slower than this at warn level")
	flags.String("format", "", "Output format: text, json or msgpack")
	flags.BoolP("verbose", "v", false, "Log every statement")
	flags.BoolVar(&jsonOutput, "json", false, "Output in JSON format (same as --format json)")
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if jsonOutput {
		c.Format = config.FormatJSON
	}
	cfg = c
	output.Out = cmd.OutOrStdout()
	return nil
}

// newLogger logs to stderr so structured output on stdout stays clean.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// connect opens the configured database.
func connect(ctx context.Context) (*runtime.DB, error) {
	db, err := runtime.Open(ctx, cfg.Database,
		runtime.WithLogger(newLogger()),
		runtime.WithSlowThreshold(cfg.SlowQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}
