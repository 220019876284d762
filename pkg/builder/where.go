package builder

import (
	"fmt"
	"strings"

	"github.com/marshallshelly/pebble-record/pkg/runtime"
)

// Where appends "column operator value" joined with AND.
func (b *Builder) Where(column string, op string, value any) *Builder {
	return b.addBasic(column, op, value, LogicAnd)
}

// WhereEq appends "column = value" joined with AND.
func (b *Builder) WhereEq(column string, value any) *Builder {
	return b.addBasic(column, string(OpEqual), value, LogicAnd)
}

// OrWhere appends "column operator value" joined with OR.
func (b *Builder) OrWhere(column string, op string, value any) *Builder {
	return b.addBasic(column, op, value, LogicOr)
}

// OrWhereEq appends "column = value" joined with OR.
func (b *Builder) OrWhereEq(column string, value any) *Builder {
	return b.addBasic(column, string(OpEqual), value, LogicOr)
}

// WhereIn appends "column IN (values...)" joined with AND.
func (b *Builder) WhereIn(column string, values ...any) *Builder {
	return b.addIn(column, values, OpIn, LogicAnd)
}

// OrWhereIn appends "column IN (values...)" joined with OR.
func (b *Builder) OrWhereIn(column string, values ...any) *Builder {
	return b.addIn(column, values, OpIn, LogicOr)
}

// WhereNotIn appends "column NOT IN (values...)" joined with AND.
func (b *Builder) WhereNotIn(column string, values ...any) *Builder {
	return b.addIn(column, values, OpNotIn, LogicAnd)
}

// OrWhereNotIn appends "column NOT IN (values...)" joined with OR.
func (b *Builder) OrWhereNotIn(column string, values ...any) *Builder {
	return b.addIn(column, values, OpNotIn, LogicOr)
}

// WhereNull appends "column IS NULL" joined with AND.
func (b *Builder) WhereNull(column string) *Builder {
	b.checkIdentifier(column)
	b.where = append(b.where, Condition{Column: column, Operator: OpIsNull, Logic: LogicAnd})
	return b
}

// WhereNotNull appends "column IS NOT NULL" joined with AND.
func (b *Builder) WhereNotNull(column string) *Builder {
	b.checkIdentifier(column)
	b.where = append(b.where, Condition{Column: column, Operator: OpIsNotNull, Logic: LogicAnd})
	return b
}

// Conditions returns the accumulated predicates in order.
func (b *Builder) Conditions() []Condition {
	return append([]Condition(nil), b.where...)
}

func (b *Builder) addBasic(column, op string, value any, logic LogicOperator) *Builder {
	operator := Operator(strings.ToUpper(strings.TrimSpace(op)))
	b.checkIdentifier(column)
	b.checkOperator(operator)
	b.where = append(b.where, Condition{
		Column:   column,
		Operator: operator,
		Value:    value,
		Logic:    logic,
	})
	return b
}

func (b *Builder) addIn(column string, values []any, op Operator, logic LogicOperator) *Builder {
	b.checkIdentifier(column)
	b.where = append(b.where, Condition{
		Column:   column,
		Operator: op,
		Values:   append([]any(nil), values...),
		Logic:    logic,
	})
	return b
}

// compileWheres renders the predicates without the WHERE keyword and
// appends their values to b.bindings. Parameter names embed the number of
// bindings accumulated so far, so they are unique within one statement.
func (b *Builder) compileWheres() string {
	parts := make([]string, 0, len(b.where))

	for i, cond := range b.where {
		var prefix string
		if i > 0 {
			logic := cond.Logic
			if logic == "" {
				logic = LogicAnd
			}
			prefix = string(logic) + " "
		}

		switch cond.Operator {
		case OpIn, OpNotIn:
			parts = append(parts, prefix+b.compileIn(cond))
		case OpIsNull, OpIsNotNull:
			parts = append(parts, fmt.Sprintf("%s%s %s", prefix, cond.Column, cond.Operator))
		default:
			name := b.bind("where_"+paramColumn(cond.Column), cond.Value)
			parts = append(parts, fmt.Sprintf("%s%s %s :%s", prefix, cond.Column, cond.Operator, name))
		}
	}

	return strings.Join(parts, " ")
}

func (b *Builder) compileIn(cond Condition) string {
	if len(cond.Values) == 0 {
		// Nothing is a member of the empty set.
		if cond.Operator == OpNotIn {
			return "1 = 1"
		}
		return "0 = 1"
	}

	placeholders := make([]string, len(cond.Values))
	for i, v := range cond.Values {
		placeholders[i] = ":" + b.bind("where_in_"+paramColumn(cond.Column), v)
	}
	return fmt.Sprintf("%s %s (%s)", cond.Column, cond.Operator, strings.Join(placeholders, ", "))
}

// bind records value under prefix_<n> and returns the parameter name.
func (b *Builder) bind(prefix string, value any) string {
	name := fmt.Sprintf("%s_%d", prefix, len(b.bindings))
	b.bindings = append(b.bindings, runtime.Binding{Name: name, Value: value})
	return name
}

func paramColumn(column string) string {
	return strings.ReplaceAll(column, ".", "_")
}
