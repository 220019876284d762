package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marshallshelly/pebble-record/cmd/record/output"
	"github.com/marshallshelly/pebble-record/pkg/runtime"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check the database connection",
	Long:  `Connects to the configured database and lists its tables.`,
	RunE:  runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
}

type pingResult struct {
	Host     string   `json:"host"`
	Port     int      `json:"port"`
	Database string   `json:"database"`
	Tables   []string `json:"tables"`
}

func runPing(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	tables, err := listTables(ctx, db)
	if err != nil {
		return err
	}

	res := pingResult{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Database,
		Tables:   tables,
	}
	if structured() {
		return emit(cmd.OutOrStdout(), res)
	}

	output.Success("Connected to %s:%d/%s", res.Host, res.Port, res.Database)
	output.Section("Tables")
	if len(tables) == 0 {
		output.Muted("No tables found")
		return nil
	}
	for _, t := range tables {
		output.Info("%s", t)
	}
	return nil
}

func listTables(ctx context.Context, db *runtime.DB) ([]string, error) {
	rows, err := db.Query(ctx, "SHOW TABLES", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}
