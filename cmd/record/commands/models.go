package commands

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marshallshelly/pebble-record/cmd/record/output"
	"github.com/marshallshelly/pebble-record/pkg/registry"
	"github.com/marshallshelly/pebble-record/pkg/schema"

	// Registers the User and Post entity types.
	_ "github.com/marshallshelly/pebble-record/internal/models"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List registered entity types",
	Long: `Lists every registered entity type with its table, primary key,
mass-assignment rules, casts and relations. No database connection is made.`,
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

type modelInfo struct {
	Name       string            `json:"name"`
	Table      string            `json:"table"`
	PrimaryKey string            `json:"primary_key"`
	Fillable   []string          `json:"fillable"`
	Hidden     []string          `json:"hidden"`
	Casts      map[string]string `json:"casts"`
	Timestamps bool              `json:"timestamps"`
	Relations  []relationInfo    `json:"relations"`
}

type relationInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Related    string `json:"related"`
	ForeignKey string `json:"foreign_key"`
	LocalKey   string `json:"local_key"`
}

func describe(def *schema.Definition) modelInfo {
	info := modelInfo{
		Name:       def.Name,
		Table:      def.Table,
		PrimaryKey: def.PrimaryKey,
		Fillable:   slices.Clone(def.Fillable),
		Hidden:     slices.Clone(def.Hidden),
		Casts:      make(map[string]string, len(def.Casts)),
		Timestamps: def.Timestamps,
		Relations:  []relationInfo{},
	}
	for k, v := range def.Casts {
		info.Casts[k] = string(v)
	}
	for _, r := range def.Relations {
		info.Relations = append(info.Relations, relationInfo{
			Name:       r.Name,
			Type:       string(r.Type),
			Related:    r.Related,
			ForeignKey: r.ForeignKey,
			LocalKey:   r.LocalKey,
		})
	}
	return info
}

func runModels(cmd *cobra.Command, _ []string) error {
	defs := registry.All()
	infos := make([]modelInfo, 0, len(defs))
	for _, def := range defs {
		infos = append(infos, describe(def))
	}

	if structured() {
		return emit(cmd.OutOrStdout(), infos)
	}

	output.Section(fmt.Sprintf("Entity types (%d)", len(infos)))
	rows := make([][]string, 0, len(infos))
	for _, m := range infos {
		rows = append(rows, []string{m.Name, m.Table, m.PrimaryKey, orAll(m.Fillable), orNone(m.Hidden)})
	}
	output.Table([]string{"NAME", "TABLE", "KEY", "FILLABLE", "HIDDEN"}, rows)

	for _, m := range infos {
		if len(m.Casts) == 0 && len(m.Relations) == 0 {
			continue
		}
		output.Section(m.Name)
		for _, k := range slices.Sorted(maps.Keys(m.Casts)) {
			output.Muted("  cast %s: %s", k, m.Casts[k])
		}
		for _, r := range m.Relations {
			output.Info("%s %s %s (%s -> %s)", r.Name, r.Type, r.Related, r.ForeignKey, r.LocalKey)
		}
	}
	return nil
}

func orAll(fields []string) string {
	if len(fields) == 0 {
		return "*"
	}
	return strings.Join(fields, ", ")
}

func orNone(fields []string) string {
	if len(fields) == 0 {
		return "-"
	}
	return strings.Join(fields, ", ")
}
