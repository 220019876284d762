package builder

import (
	"bytes"
	"encoding/json"
	"maps"
	"reflect"
	"slices"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Record is an ordered column to value mapping. It carries result rows,
// INSERT/UPDATE payloads and entity attribute state.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord creates an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]any)}
}

// RecordFromMap builds a record with keys in sorted order.
func RecordFromMap(m map[string]any) *Record {
	r := NewRecord()
	for _, k := range slices.Sorted(maps.Keys(m)) {
		r.Set(k, m[k])
	}
	return r
}

// Set stores value under key. An existing key keeps its position.
func (r *Record) Set(key string, value any) *Record {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
	return r
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.values[key]
	return v, ok
}

// Value returns the value stored under key, or nil.
func (r *Record) Value(key string) any {
	v, _ := r.Get(key)
	return v
}

// Has reports whether key is present.
func (r *Record) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Delete removes key.
func (r *Record) Delete(key string) {
	if _, ok := r.values[key]; !ok {
		return
	}
	delete(r.values, key)
	r.keys = slices.DeleteFunc(r.keys, func(k string) bool { return k == key })
}

// Keys returns the keys in insertion order.
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	return slices.Clone(r.keys)
}

// Len returns the number of keys.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Range calls fn for each key in order until fn returns false.
func (r *Record) Range(fn func(key string, value any) bool) {
	if r == nil {
		return
	}
	for _, k := range r.keys {
		if !fn(k, r.values[k]) {
			return
		}
	}
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	c := NewRecord()
	r.Range(func(k string, v any) bool {
		c.Set(k, cloneValue(v))
		return true
	})
	return c
}

// Map returns the values as a plain map.
func (r *Record) Map() map[string]any {
	m := make(map[string]any, r.Len())
	r.Range(func(k string, v any) bool {
		m[k] = v
		return true
	})
	return m
}

// Equal reports whether both records hold the same keys with equal values.
// Key order is ignored.
func (r *Record) Equal(other *Record) bool {
	if r.Len() != other.Len() {
		return false
	}
	equal := true
	r.Range(func(k string, v any) bool {
		ov, ok := other.Get(k)
		if !ok || !ValuesEqual(v, ov) {
			equal = false
		}
		return equal
	})
	return equal
}

// MarshalJSON encodes the record as an object in key order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	var err error
	i := 0
	r.Range(func(k string, v any) bool {
		if i > 0 {
			buf.WriteByte(',')
		}
		i++
		var kb, vb []byte
		if kb, err = json.Marshal(k); err != nil {
			return false
		}
		if vb, err = json.Marshal(v); err != nil {
			return false
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
		return true
	})
	if err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

var (
	_ msgpack.CustomEncoder = (*Record)(nil)
	_ msgpack.CustomDecoder = (*Record)(nil)
)

// EncodeMsgpack encodes the record as a msgpack map in key order.
func (r *Record) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(r.Len()); err != nil {
		return err
	}
	var err error
	r.Range(func(k string, v any) bool {
		if err = enc.EncodeString(k); err != nil {
			return false
		}
		err = enc.Encode(v)
		return err == nil
	})
	return err
}

// DecodeMsgpack decodes a msgpack map, keeping the encoded key order.
func (r *Record) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return err
	}
	r.keys = nil
	r.values = make(map[string]any, max(n, 0))
	for range max(n, 0) {
		k, err := dec.DecodeString()
		if err != nil {
			return err
		}
		v, err := dec.DecodeInterface()
		if err != nil {
			return err
		}
		r.Set(k, v)
	}
	return nil
}

// ValuesEqual compares two attribute values. Instants compare by time.Equal,
// everything else strictly by type and value.
func ValuesEqual(a, b any) bool {
	if ta, ok := asTime(a); ok {
		tb, ok := asTime(b)
		return ok && ta.Equal(tb)
	}
	return reflect.DeepEqual(a, b)
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t != nil {
			return *t, true
		}
	}
	return time.Time{}, false
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return bytes.Clone(t)
	case []any:
		c := make([]any, len(t))
		for i, e := range t {
			c[i] = cloneValue(e)
		}
		return c
	case map[string]any:
		c := make(map[string]any, len(t))
		for k, e := range t {
			c[k] = cloneValue(e)
		}
		return c
	case *time.Time:
		if t == nil {
			return t
		}
		tt := *t
		return &tt
	case *Record:
		return t.Clone()
	}
	return v
}
