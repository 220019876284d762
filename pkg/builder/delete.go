package builder

import (
	"context"
	"strings"
)

// DeleteSQL compiles a DELETE constrained by the accumulated predicates.
func (b *Builder) DeleteSQL() (string, error) {
	b.bindings = nil
	if b.err != nil {
		return "", b.err
	}

	var out strings.Builder
	out.WriteString("DELETE FROM ")
	out.WriteString(b.table)

	if len(b.where) > 0 {
		out.WriteString(" WHERE ")
		out.WriteString(b.compileWheres())
	}

	return out.String(), nil
}

// Delete removes every row matching the predicates and reports whether a
// row was affected.
func (b *Builder) Delete(ctx context.Context) (bool, error) {
	query, err := b.DeleteSQL()
	if err != nil {
		return false, err
	}

	affected, err := b.exec(ctx, query)
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
