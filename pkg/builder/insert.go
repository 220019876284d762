package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/marshallshelly/pebble-record/pkg/runtime"
)

// InsertSQL compiles an INSERT of values into the builder's table. Each
// column is bound under its own name.
func (b *Builder) InsertSQL(values *Record) (string, error) {
	b.bindings = nil
	if b.err != nil {
		return "", b.err
	}
	if values.Len() == 0 {
		return "", fmt.Errorf("insert into %s: %w", b.table, ErrNoValues)
	}

	columns := values.Keys()
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		if !identifierPattern.MatchString(col) || strings.Contains(col, ".") {
			return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, col)
		}
		placeholders[i] = ":" + col
		b.bindings = append(b.bindings, runtime.Binding{Name: col, Value: values.Value(col)})
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		b.table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	), nil
}

// Insert writes one row and reports whether a row was affected.
func (b *Builder) Insert(ctx context.Context, values *Record) (bool, error) {
	ok, _, err := b.InsertGetID(ctx, values)
	return ok, err
}

// InsertGetID is like Insert but also returns the id generated by this
// insert, or 0 when the table generated none.
func (b *Builder) InsertGetID(ctx context.Context, values *Record) (bool, int64, error) {
	query, err := b.InsertSQL(values)
	if err != nil {
		return false, 0, err
	}

	bindings := b.bindings
	b.bindings = nil
	if b.db == nil {
		return false, 0, &runtime.ConnectionError{Err: runtime.ErrNotConfigured}
	}

	res, err := b.db.ExecResult(ctx, query, bindings)
	if err != nil {
		return false, 0, err
	}
	return res.RowsAffected > 0, res.LastInsertID, nil
}
