package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/marshallshelly/pebble-record/pkg/runtime"
)

// UpdateSQL compiles an UPDATE of values constrained by the accumulated
// predicates. Set values are bound under their column names, followed by
// the predicate values.
func (b *Builder) UpdateSQL(values *Record) (string, error) {
	b.bindings = nil
	if b.err != nil {
		return "", b.err
	}
	if values.Len() == 0 {
		return "", fmt.Errorf("update %s: %w", b.table, ErrNoValues)
	}

	columns := values.Keys()
	sets := make([]string, len(columns))
	for i, col := range columns {
		if !identifierPattern.MatchString(col) || strings.Contains(col, ".") {
			return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, col)
		}
		sets[i] = fmt.Sprintf("%s = :%s", col, col)
		b.bindings = append(b.bindings, runtime.Binding{Name: col, Value: values.Value(col)})
	}

	var out strings.Builder
	out.WriteString("UPDATE ")
	out.WriteString(b.table)
	out.WriteString(" SET ")
	out.WriteString(strings.Join(sets, ", "))

	if len(b.where) > 0 {
		out.WriteString(" WHERE ")
		out.WriteString(b.compileWheres())
	}

	return out.String(), nil
}

// Update writes values to every row matching the predicates and reports
// whether a row was affected.
func (b *Builder) Update(ctx context.Context, values *Record) (bool, error) {
	query, err := b.UpdateSQL(values)
	if err != nil {
		return false, err
	}

	affected, err := b.exec(ctx, query)
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
