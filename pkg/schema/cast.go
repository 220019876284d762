package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CastType names the semantic type an attribute is read as.
type CastType string

const (
	CastInt      CastType = "int"
	CastInteger  CastType = "integer"
	CastFloat    CastType = "float"
	CastDouble   CastType = "double"
	CastString   CastType = "string"
	CastBool     CastType = "bool"
	CastBoolean  CastType = "boolean"
	CastArray    CastType = "array"
	CastJSON     CastType = "json"
	CastDateTime CastType = "datetime"
	CastDate     CastType = "date"
	// CastHashed marks a field holding a pre-hashed secret. It is stored and
	// read as-is.
	CastHashed CastType = "hashed"
)

// Layouts used when formatting temporal casts.
const (
	DateTimeLayout = "2006-01-02 15:04:05"
	DateLayout     = "2006-01-02"
)

// Valid reports whether c is a known cast.
func (c CastType) Valid() bool {
	switch c {
	case CastInt, CastInteger, CastFloat, CastDouble, CastString, CastBool, CastBoolean,
		CastArray, CastJSON, CastDateTime, CastDate, CastHashed:
		return true
	}
	return false
}

// IsTemporal reports whether c is datetime or date.
func (c CastType) IsTemporal() bool {
	return c == CastDateTime || c == CastDate
}

// ErrParse is matched by every *ParseError.
var ErrParse = errors.New("cast failed")

// ParseError reports a value that cannot be read as its declared cast.
type ParseError struct {
	Type  CastType
	Value any
	Err   error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("cannot cast %v (%T) to %s", e.Value, e.Value, e.Type)
	}
	return fmt.Sprintf("cannot cast %v (%T) to %s: %v", e.Value, e.Value, e.Type, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is matches ErrParse.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// Cast converts v to the representation of t. Nil stays nil. Temporal
// casts return a time.Time; use FormatCast for the string form.
func Cast(t CastType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}

	switch t {
	case CastInt, CastInteger:
		return toInt(t, v)
	case CastFloat, CastDouble:
		return toFloat(t, v)
	case CastString:
		return toString(v), nil
	case CastBool, CastBoolean:
		return toBool(v), nil
	case CastArray, CastJSON:
		s, ok := v.(string)
		if !ok {
			return v, nil
		}
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return nil, &ParseError{Type: t, Value: v, Err: err}
		}
		return decoded, nil
	case CastDateTime, CastDate:
		return AsDateTime(v)
	default:
		return v, nil
	}
}

// FormatCast renders temporal values with the layout of t and returns other
// values unchanged.
func FormatCast(t CastType, v any) any {
	tm, ok := v.(time.Time)
	if !ok {
		return v
	}
	switch t {
	case CastDate:
		return tm.Format(DateLayout)
	case CastDateTime:
		return tm.Format(DateTimeLayout)
	}
	return v
}

var datePattern = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`)

// dateTimeLayouts are tried in order for free-form strings.
var dateTimeLayouts = []string{
	DateTimeLayout,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.RFC822Z,
	time.RFC822,
	time.ANSIC,
	time.UnixDate,
	"January 2, 2006",
	"January 2, 2006 15:04:05",
	"Jan 2, 2006",
	"2 January 2006",
	"02 Jan 2006",
	"2006/01/02",
	"2006/01/02 15:04:05",
}

// AsDateTime interprets v as an instant. It accepts a time.Time, a numeric
// Unix timestamp, a YYYY-MM-DD calendar date or any of the known date/time
// layouts. Results without an explicit zone are in UTC.
func AsDateTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t == nil {
			return time.Time{}, &ParseError{Type: CastDateTime, Value: v}
		}
		return *t, nil
	case int:
		return time.Unix(int64(t), 0).UTC(), nil
	case int32:
		return time.Unix(int64(t), 0).UTC(), nil
	case int64:
		return time.Unix(t, 0).UTC(), nil
	case uint32:
		return time.Unix(int64(t), 0).UTC(), nil
	case uint64:
		return time.Unix(int64(t), 0).UTC(), nil
	case float64:
		return unixFloat(t), nil
	case float32:
		return unixFloat(float64(t)), nil
	case []byte:
		return AsDateTime(string(t))
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.Unix(n, 0).UTC(), nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return unixFloat(f), nil
		}
		if datePattern.MatchString(s) {
			d, err := time.Parse("2006-1-2", s)
			if err != nil {
				return time.Time{}, &ParseError{Type: CastDate, Value: v, Err: err}
			}
			return d, nil
		}
		for _, layout := range dateTimeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, nil
			}
		}
		return time.Time{}, &ParseError{Type: CastDateTime, Value: v}
	}
	return time.Time{}, &ParseError{Type: CastDateTime, Value: v}
}

func unixFloat(f float64) time.Time {
	sec := int64(f)
	nsec := int64((f - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC()
}

func toInt(t CastType, v any) (any, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case bool:
		if n {
			return int64(1), nil
		}
		return int64(0), nil
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, &ParseError{Type: t, Value: v, Err: err}
		}
		return int64(f), nil
	}
	return nil, &ParseError{Type: t, Value: v}
}

func toFloat(t CastType, v any) (any, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case bool:
		if n {
			return 1.0, nil
		}
		return 0.0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil, &ParseError{Type: t, Value: v, Err: err}
		}
		return f, nil
	}
	return nil, &ParseError{Type: t, Value: v}
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case time.Time:
		return s.Format(DateTimeLayout)
	case fmt.Stringer:
		return s.String()
	}
	return fmt.Sprint(v)
}

// toBool follows the usual loose truthiness: zero numbers, "", "0" and
// "false" are false.
func toBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		s := strings.TrimSpace(b)
		return s != "" && s != "0" && !strings.EqualFold(s, "false")
	case int:
		return b != 0
	case int8:
		return b != 0
	case int16:
		return b != 0
	case int32:
		return b != 0
	case int64:
		return b != 0
	case uint:
		return b != 0
	case uint8:
		return b != 0
	case uint16:
		return b != 0
	case uint32:
		return b != 0
	case uint64:
		return b != 0
	case float32:
		return b != 0
	case float64:
		return b != 0
	}
	return true
}
