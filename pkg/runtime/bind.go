package runtime

import (
	"fmt"
	"strings"
	"time"
)

// DateTimeLayout is the canonical layout used for date/time bindings.
const DateTimeLayout = "2006-01-02 15:04:05"

// Binding is a named statement parameter.
type Binding struct {
	Name  string
	Value any
}

// Bindings is an ordered list of named parameters.
type Bindings []Binding

// Lookup returns the value bound to name.
func (b Bindings) Lookup(name string) (any, bool) {
	for _, binding := range b {
		if binding.Name == name {
			return binding.Value, true
		}
	}
	return nil, false
}

// Values returns the bound values in binding order.
func (b Bindings) Values() []any {
	values := make([]any, len(b))
	for i, binding := range b {
		values[i] = bindValue(binding.Value)
	}
	return values
}

// bindNamed rewrites :name placeholders into positional ? markers and
// returns the arguments in placeholder order. Quoted literals and
// identifiers are copied verbatim. A statement without named placeholders
// receives the bindings positionally.
func bindNamed(query string, bindings Bindings) (string, []any, error) {
	if !strings.Contains(query, ":") {
		return query, bindings.Values(), nil
	}

	var (
		out   strings.Builder
		args  []any
		quote byte
		named bool
	)
	out.Grow(len(query))

	for i := 0; i < len(query); i++ {
		c := query[i]

		if quote != 0 {
			out.WriteByte(c)
			if c == quote {
				quote = 0
			}
			continue
		}

		switch {
		case c == '\'' || c == '"' || c == '`':
			quote = c
			out.WriteByte(c)
		case c == ':' && i+1 < len(query) && isNameStart(query[i+1]) && (i == 0 || query[i-1] != ':'):
			j := i + 1
			for j < len(query) && isNamePart(query[j]) {
				j++
			}
			name := query[i+1 : j]
			value, ok := bindings.Lookup(name)
			if !ok {
				return "", nil, fmt.Errorf("%w: %s", ErrMissingBinding, name)
			}
			out.WriteByte('?')
			args = append(args, bindValue(value))
			named = true
			i = j - 1
		default:
			out.WriteByte(c)
		}
	}

	if !named {
		return query, bindings.Values(), nil
	}
	return out.String(), args, nil
}

// bindValue serializes date/time values to the canonical string form.
func bindValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.Format(DateTimeLayout)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.Format(DateTimeLayout)
	}
	return v
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNamePart(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}
