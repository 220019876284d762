// Package builder composes SQL for a single table, executes it through a
// runtime.DB and maps result rows back into entities.
package builder

import (
	"context"
	"errors"

	"github.com/marshallshelly/pebble-record/pkg/runtime"
)

var (
	// ErrInvalidOperator is returned for comparison operators outside the
	// supported set.
	ErrInvalidOperator = errors.New("invalid operator")

	// ErrInvalidIdentifier is returned for table or column names that are not
	// plain (optionally table-qualified) identifiers.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrUnknownRelation is returned when eager loading names a relation the
	// entity type does not declare.
	ErrUnknownRelation = errors.New("unknown relation")

	// ErrNoValues is returned by Insert and Update without any columns.
	ErrNoValues = errors.New("no values to write")

	// ErrNoModel is returned by Get and First on a builder that is not bound
	// to an entity type.
	ErrNoModel = errors.New("builder has no entity type")
)

// Model is an entity the builder can hydrate and eager-load relations onto.
type Model interface {
	// Table returns the backing table name.
	Table() string
	// KeyName returns the primary key column.
	KeyName() string
	// Attribute returns the raw stored value of key, or nil.
	Attribute(key string) any
	// Hydrate replaces the state with a row read from storage.
	Hydrate(row *Record)
	// Relation builds the named relation descriptor.
	Relation(name string) (Relation, error)
	// SetRelation attaches an eagerly loaded result.
	SetRelation(name string, value any)
	// NewQuery returns a fresh builder for the entity's table.
	NewQuery() *Builder
}

// Relation is a relation descriptor bound to one owning entity.
type Relation interface {
	// Related returns a template instance of the related entity type.
	Related() Model
	// ForeignKey returns the referencing column.
	ForeignKey() string
	// Query returns a builder scoped to the owner.
	Query() *Builder
	// Results resolves the relation: []Model for to-many, Model or nil
	// for to-one.
	Results(ctx context.Context) (any, error)
}

// Builder accumulates the clauses of one query. It is not safe for
// concurrent use.
type Builder struct {
	db       *runtime.DB
	table    string
	newModel func() Model

	columns []string
	where   []Condition
	joins   []Join
	orderBy []OrderBy
	limit   *int
	offset  *int
	with    []string

	bindings runtime.Bindings
	err      error
}

// Condition represents a WHERE predicate.
type Condition struct {
	Column   string
	Operator Operator
	Value    any
	Values   []any // For IN / NOT IN
	Logic    LogicOperator
}

// Join represents a JOIN clause.
type Join struct {
	Type     JoinType
	Table    string
	First    string
	Operator Operator
	Second   string
}

// OrderBy represents an ORDER BY term.
type OrderBy struct {
	Column    string
	Direction OrderDirection
}

// Operator represents a comparison operator.
type Operator string

const (
	// OpEqual represents the = operator.
	OpEqual Operator = "="
	// OpNotEqual represents the != operator.
	OpNotEqual Operator = "!="
	// OpNotEqualStd represents the <> operator.
	OpNotEqualStd Operator = "<>"
	// OpGreaterThan represents the > operator.
	OpGreaterThan Operator = ">"
	// OpGreaterThanOrEqual represents the >= operator.
	OpGreaterThanOrEqual Operator = ">="
	// OpLessThan represents the < operator.
	OpLessThan Operator = "<"
	// OpLessThanOrEqual represents the <= operator.
	OpLessThanOrEqual Operator = "<="
	// OpLike represents the LIKE operator.
	OpLike Operator = "LIKE"
	// OpNotLike represents the NOT LIKE operator.
	OpNotLike Operator = "NOT LIKE"
	// OpIn represents the IN operator.
	OpIn Operator = "IN"
	// OpNotIn represents the NOT IN operator.
	OpNotIn Operator = "NOT IN"
	// OpIsNull represents the IS NULL operator.
	OpIsNull Operator = "IS NULL"
	// OpIsNotNull represents the IS NOT NULL operator.
	OpIsNotNull Operator = "IS NOT NULL"
)

// LogicOperator represents a logical operator (AND/OR).
type LogicOperator string

const (
	// LogicAnd represents the AND operator.
	LogicAnd LogicOperator = "AND"
	// LogicOr represents the OR operator.
	LogicOr LogicOperator = "OR"
)

// JoinType represents a type of JOIN.
type JoinType string

const (
	// InnerJoin represents an INNER JOIN.
	InnerJoin JoinType = "INNER JOIN"
	// LeftJoin represents a LEFT JOIN.
	LeftJoin JoinType = "LEFT JOIN"
	// RightJoin represents a RIGHT JOIN.
	RightJoin JoinType = "RIGHT JOIN"
)

// OrderDirection represents the sort direction.
type OrderDirection string

const (
	// Asc represents ascending order.
	Asc OrderDirection = "ASC"
	// Desc represents descending order.
	Desc OrderDirection = "DESC"
)
