package commands

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/marshallshelly/pebble-record/cmd/record/output"
	"github.com/marshallshelly/pebble-record/internal/models"
	"github.com/marshallshelly/pebble-record/pkg/builder"
)

var (
	sqlConds   []conditionArg
	sqlOrder   []string
	sqlSelect  []string
	sqlWith    []string
	sqlLimit   int
	sqlOffset  int
	sqlDelete  bool
)

var sqlCmd = &cobra.Command{
	Use:   "sql <model>",
	Short: "Compile a query without running it",
	Long: `Builds a query over an entity type's table from flags and prints the
SQL with its named parameters. No database connection is made.

Conditions take the form column<op>value where op is one of
= != <> >= <= > < or ~ for LIKE. --where, --or-where and --in are applied
in the order they appear on the command line.`,
	Example: `  record sql users --where name=Alice --or-where "email~%@x.com"
  record sql posts --in user_id=1,2,3 --order created_at:desc --limit 10
  record sql users --where id=3 --delete`,
	Args: cobra.ExactArgs(1),
	RunE: runSQL,
}

func init() {
	rootCmd.AddCommand(sqlCmd)

	sqlCmd.Flags().Var(&conditionFlag{kind: condWhere, list: &sqlConds}, "where", "AND condition column<op>value (repeatable)")
	sqlCmd.Flags().Var(&conditionFlag{kind: condOrWhere, list: &sqlConds}, "or-where", "OR condition column<op>value (repeatable)")
	sqlCmd.Flags().Var(&conditionFlag{kind: condIn, list: &sqlConds}, "in", "IN condition column=a,b,c (repeatable)")
	sqlCmd.Flags().StringArrayVar(&sqlOrder, "order", nil, "Ordering column[:asc|desc] (repeatable)")
	sqlCmd.Flags().StringSliceVar(&sqlSelect, "select", nil, "Columns to select")
	sqlCmd.Flags().StringSliceVar(&sqlWith, "with", nil, "Relations to eager load")
	sqlCmd.Flags().IntVar(&sqlLimit, "limit", 0, "Maximum number of rows")
	sqlCmd.Flags().IntVar(&sqlOffset, "offset", 0, "Rows to skip")
	sqlCmd.Flags().BoolVar(&sqlDelete, "delete", false, "Compile a DELETE instead of a SELECT")
}

type compiledSQL struct {
	Model    string            `json:"model"`
	SQL      string            `json:"sql"`
	Bindings []compiledBinding `json:"bindings"`
	With     []string          `json:"with,omitempty"`
}

type compiledBinding struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

func runSQL(cmd *cobra.Command, args []string) error {
	typ, ok := models.Lookup(args[0])
	if !ok {
		return fmt.Errorf("unknown model %q", args[0])
	}

	q := typ.Query(nil)
	if err := applyQueryFlags(q); err != nil {
		return err
	}

	var (
		query string
		err   error
	)
	if sqlDelete {
		query, err = q.DeleteSQL()
	} else {
		query, err = q.ToSQL()
	}
	if err != nil {
		return fmt.Errorf("failed to compile query: %w", err)
	}

	res := compiledSQL{Model: typ.Name(), SQL: query, Bindings: []compiledBinding{}, With: q.Eager()}
	params := make([][2]string, 0, len(q.Bindings()))
	for _, b := range q.Bindings() {
		res.Bindings = append(res.Bindings, compiledBinding{Name: b.Name, Value: b.Value})
		params = append(params, [2]string{b.Name, fmt.Sprint(b.Value)})
	}

	if structured() {
		return emit(cmd.OutOrStdout(), res)
	}

	output.SQL(query, params)
	if len(res.With) > 0 {
		output.Muted("eager: %s", strings.Join(res.With, ", "))
	}
	return nil
}

func applyQueryFlags(q *builder.Builder) error {
	if len(sqlSelect) > 0 {
		q.Select(sqlSelect...)
	}
	for _, c := range sqlConds {
		if err := c.apply(q); err != nil {
			return err
		}
	}
	for _, o := range sqlOrder {
		col, dir, _ := strings.Cut(o, ":")
		if dir == "" {
			dir = "asc"
		}
		q.OrderBy(col, dir)
	}
	if sqlLimit > 0 {
		q.Limit(sqlLimit)
	}
	if sqlOffset > 0 {
		q.Offset(sqlOffset)
	}
	if len(sqlWith) > 0 {
		q.With(sqlWith...)
	}
	return q.Err()
}

// conditionOps is ordered so two character operators match first.
var conditionOps = []string{">=", "<=", "!=", "<>", "=", ">", "<", "~"}

// parseCondition splits column<op>value at the first operator.
func parseCondition(s string) (column, op, value string, err error) {
	best := -1
	for _, candidate := range conditionOps {
		i := strings.Index(s, candidate)
		if i <= 0 {
			continue
		}
		if best == -1 || i < best || (i == best && len(candidate) > len(op)) {
			best, op = i, candidate
		}
	}
	if best == -1 {
		return "", "", "", fmt.Errorf("invalid condition %q, want column<op>value", s)
	}

	column = strings.TrimSpace(s[:best])
	value = s[best+len(op):]
	if op == "~" {
		op = string(builder.OpLike)
	}
	return column, op, value, nil
}

type conditionKind string

const (
	condWhere   conditionKind = "where"
	condOrWhere conditionKind = "or-where"
	condIn      conditionKind = "in"
)

// conditionArg is one condition flag as given on the command line.
type conditionArg struct {
	kind  conditionKind
	value string
}

func (c conditionArg) apply(q *builder.Builder) error {
	switch c.kind {
	case condIn:
		col, vals, ok := strings.Cut(c.value, "=")
		if !ok || col == "" {
			return fmt.Errorf("invalid --in %q, want column=a,b,c", c.value)
		}
		var values []any
		if vals != "" {
			for _, v := range strings.Split(vals, ",") {
				values = append(values, v)
			}
		}
		q.WhereIn(col, values...)
	default:
		col, op, val, err := parseCondition(c.value)
		if err != nil {
			return err
		}
		if c.kind == condOrWhere {
			q.OrWhere(col, op, val)
		} else {
			q.Where(col, op, val)
		}
	}
	return nil
}

// conditionFlag appends to a list shared by every condition flag so the
// command line order is kept.
type conditionFlag struct {
	kind conditionKind
	list *[]conditionArg
}

var _ pflag.SliceValue = (*conditionFlag)(nil)

func (f *conditionFlag) String() string {
	return "[" + strings.Join(f.GetSlice(), ",") + "]"
}

func (f *conditionFlag) Set(v string) error { return f.Append(v) }

func (f *conditionFlag) Type() string { return "stringArray" }

func (f *conditionFlag) Append(v string) error {
	*f.list = append(*f.list, conditionArg{kind: f.kind, value: v})
	return nil
}

// Replace swaps this flag's values and keeps those of the other kinds.
func (f *conditionFlag) Replace(vals []string) error {
	kept := slices.DeleteFunc(*f.list, func(c conditionArg) bool { return c.kind == f.kind })
	*f.list = kept
	for _, v := range vals {
		_ = f.Append(v)
	}
	return nil
}

func (f *conditionFlag) GetSlice() []string {
	var out []string
	for _, c := range *f.list {
		if c.kind == f.kind {
			out = append(out, c.value)
		}
	}
	return out
}
