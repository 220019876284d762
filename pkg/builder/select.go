package builder

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/marshallshelly/pebble-record/pkg/runtime"
)

var columnPattern = regexp.MustCompile(`(?i)^([A-Za-z_][A-Za-z0-9_]*\.)?(\*|[A-Za-z_][A-Za-z0-9_]*)( AS [A-Za-z_][A-Za-z0-9_]*)?$`)

const countColumn = "COUNT(*) AS count"

// Select replaces the selected columns. No columns selects "*".
func (b *Builder) Select(columns ...string) *Builder {
	if len(columns) == 0 {
		b.columns = []string{"*"}
		return b
	}
	for _, col := range columns {
		if !columnPattern.MatchString(col) {
			b.fail(fmt.Errorf("%w: %q", ErrInvalidIdentifier, col))
		}
	}
	b.columns = slices.Clone(columns)
	return b
}

// Join adds an INNER JOIN.
func (b *Builder) Join(table, first, op, second string) *Builder {
	return b.addJoin(InnerJoin, table, first, op, second)
}

// LeftJoin adds a LEFT JOIN.
func (b *Builder) LeftJoin(table, first, op, second string) *Builder {
	return b.addJoin(LeftJoin, table, first, op, second)
}

// RightJoin adds a RIGHT JOIN.
func (b *Builder) RightJoin(table, first, op, second string) *Builder {
	return b.addJoin(RightJoin, table, first, op, second)
}

func (b *Builder) addJoin(joinType JoinType, table, first, op, second string) *Builder {
	operator := Operator(strings.ToUpper(strings.TrimSpace(op)))
	b.checkIdentifier(table)
	b.checkIdentifier(first)
	b.checkIdentifier(second)
	b.checkOperator(operator)
	b.joins = append(b.joins, Join{
		Type:     joinType,
		Table:    table,
		First:    first,
		Operator: operator,
		Second:   second,
	})
	return b
}

// OrderBy adds an ORDER BY term. "asc" in any case sorts ascending; any
// other direction sorts descending.
func (b *Builder) OrderBy(column, direction string) *Builder {
	dir := Desc
	if strings.EqualFold(strings.TrimSpace(direction), "asc") {
		dir = Asc
	}
	b.checkIdentifier(column)
	b.orderBy = append(b.orderBy, OrderBy{Column: column, Direction: dir})
	return b
}

// OrderByAsc adds an ascending ORDER BY term.
func (b *Builder) OrderByAsc(column string) *Builder {
	return b.OrderBy(column, string(Asc))
}

// OrderByDesc adds a descending ORDER BY term.
func (b *Builder) OrderByDesc(column string) *Builder {
	return b.OrderBy(column, string(Desc))
}

// Limit sets the LIMIT clause.
func (b *Builder) Limit(n int) *Builder {
	b.limit = &n
	return b
}

// Offset sets the OFFSET clause. It is only emitted together with a limit.
func (b *Builder) Offset(n int) *Builder {
	b.offset = &n
	return b
}

// With marks relations to eager load on the next Get.
func (b *Builder) With(relations ...string) *Builder {
	for _, name := range relations {
		if !slices.Contains(b.with, name) {
			b.with = append(b.with, name)
		}
	}
	return b
}

// Eager returns the relation names marked for eager loading.
func (b *Builder) Eager() []string {
	return slices.Clone(b.with)
}

// ToSQL compiles the SELECT statement. Each call starts from an empty
// binding list, so repeated calls yield the same text and bindings.
func (b *Builder) ToSQL() (string, error) {
	b.bindings = nil
	if b.err != nil {
		return "", b.err
	}

	var out strings.Builder

	columns := b.columns
	if len(columns) == 0 {
		columns = []string{"*"}
	}
	out.WriteString("SELECT ")
	out.WriteString(strings.Join(columns, ", "))
	out.WriteString(" FROM ")
	out.WriteString(b.table)

	for _, join := range b.joins {
		fmt.Fprintf(&out, " %s %s ON %s %s %s", join.Type, join.Table, join.First, join.Operator, join.Second)
	}

	if len(b.where) > 0 {
		out.WriteString(" WHERE ")
		out.WriteString(b.compileWheres())
	}

	if len(b.orderBy) > 0 {
		terms := make([]string, len(b.orderBy))
		for i, ob := range b.orderBy {
			terms[i] = fmt.Sprintf("%s %s", ob.Column, ob.Direction)
		}
		out.WriteString(" ORDER BY ")
		out.WriteString(strings.Join(terms, ", "))
	}

	if b.limit != nil {
		fmt.Fprintf(&out, " LIMIT %d", *b.limit)
		if b.offset != nil {
			fmt.Fprintf(&out, " OFFSET %d", *b.offset)
		}
	}

	return out.String(), nil
}

// Bindings returns the parameters produced by the last compilation that
// have not been consumed by an execution yet.
func (b *Builder) Bindings() runtime.Bindings {
	return slices.Clone(b.bindings)
}

// Rows executes the query and returns the raw result rows.
func (b *Builder) Rows(ctx context.Context) ([]*Record, error) {
	query, err := b.ToSQL()
	if err != nil {
		return nil, err
	}

	rows, err := b.query(ctx, query)
	if err != nil {
		return nil, err
	}

	return scanRecords(rows)
}

// Get executes the query and hydrates one entity per row, then eager
// loads the relations marked with With.
func (b *Builder) Get(ctx context.Context) ([]Model, error) {
	if b.newModel == nil {
		return nil, ErrNoModel
	}

	records, err := b.Rows(ctx)
	if err != nil {
		return nil, err
	}

	models := make([]Model, len(records))
	for i, rec := range records {
		m := b.newModel()
		m.Hydrate(rec)
		models[i] = m
	}

	if len(b.with) > 0 && len(models) > 0 {
		if err := b.eagerLoad(ctx, models); err != nil {
			return nil, err
		}
	}

	return models, nil
}

// First limits the query to one row and returns it, or nil when there is
// no match.
func (b *Builder) First(ctx context.Context) (Model, error) {
	models, err := b.Limit(1).Get(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	return models[0], nil
}

// Count runs the query with the select list swapped for COUNT(*) and
// restores the select list afterwards.
func (b *Builder) Count(ctx context.Context) (int64, error) {
	columns := b.columns
	b.columns = []string{countColumn}
	defer func() { b.columns = columns }()

	records, err := b.Rows(ctx)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	return int64Value(records[0].Value("count"))
}

// query executes a row-returning statement and clears the pending bindings.
func (b *Builder) query(ctx context.Context, query string) (*sql.Rows, error) {
	bindings := b.bindings
	b.bindings = nil

	if b.db == nil {
		return nil, &runtime.ConnectionError{Err: runtime.ErrNotConfigured}
	}
	return b.db.Query(ctx, query, bindings)
}

// exec executes a statement and clears the pending bindings.
func (b *Builder) exec(ctx context.Context, query string) (int64, error) {
	bindings := b.bindings
	b.bindings = nil

	if b.db == nil {
		return 0, &runtime.ConnectionError{Err: runtime.ErrNotConfigured}
	}
	return b.db.Exec(ctx, query, bindings)
}
