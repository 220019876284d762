package builder

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/marshallshelly/pebble-record/pkg/runtime"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// New creates a builder for table whose rows are hydrated with newModel.
// Usage: builder.New(db, "users", newUser).Where("age", ">", 18).Get(ctx)
func New(db *runtime.DB, table string, newModel func() Model) *Builder {
	b := &Builder{
		db:       db,
		table:    table,
		newModel: newModel,
		columns:  []string{"*"},
	}
	b.checkIdentifier(table)
	return b
}

// Table creates a builder that is not bound to an entity type. Its rows are
// read with Rows.
func Table(db *runtime.DB, table string) *Builder {
	return New(db, table, nil)
}

// DB returns the database the builder executes against.
func (b *Builder) DB() *runtime.DB {
	return b.db
}

// TableName returns the builder's table.
func (b *Builder) TableName() string {
	return b.table
}

// Err returns the first error recorded while composing the query.
func (b *Builder) Err() error {
	return b.err
}

// Clone returns an independent copy of the builder's clauses.
func (b *Builder) Clone() *Builder {
	c := *b
	c.columns = slices.Clone(b.columns)
	c.where = slices.Clone(b.where)
	c.joins = slices.Clone(b.joins)
	c.orderBy = slices.Clone(b.orderBy)
	c.with = slices.Clone(b.with)
	c.bindings = nil
	if b.limit != nil {
		n := *b.limit
		c.limit = &n
	}
	if b.offset != nil {
		n := *b.offset
		c.offset = &n
	}
	return &c
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *Builder) checkIdentifier(name string) {
	if !identifierPattern.MatchString(name) {
		b.fail(fmt.Errorf("%w: %q", ErrInvalidIdentifier, name))
	}
}

func (b *Builder) checkOperator(op Operator) {
	switch op {
	case OpEqual, OpNotEqual, OpNotEqualStd, OpGreaterThan, OpGreaterThanOrEqual,
		OpLessThan, OpLessThanOrEqual, OpLike, OpNotLike:
	default:
		b.fail(fmt.Errorf("%w: %q", ErrInvalidOperator, op))
	}
}
