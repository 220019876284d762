package model

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/marshallshelly/pebble-record/pkg/builder"
	"github.com/marshallshelly/pebble-record/pkg/runtime"
	"github.com/marshallshelly/pebble-record/pkg/schema"
)

// Entity is one row of an entity type's table.
//
// attributes holds the current values and original the values as of the
// last load or save. Relations resolved through eager loading or
// SetRelation are kept per instance and never written back to storage.
type Entity struct {
	typ        *Type
	db         *runtime.DB
	attributes *builder.Record
	original   *builder.Record
	exists     bool
	relations  map[string]any
}

var _ builder.Model = (*Entity)(nil)

// Type returns the entity's type.
func (e *Entity) Type() *Type { return e.typ }

// DB returns the database the entity is bound to.
func (e *Entity) DB() *runtime.DB { return e.db }

// Table implements builder.Model.
func (e *Entity) Table() string { return e.typ.def.Table }

// KeyName implements builder.Model.
func (e *Entity) KeyName() string { return e.typ.def.PrimaryKey }

// Exists reports whether the entity has a persisted row.
func (e *Entity) Exists() bool { return e.exists }

// Key returns the primary key value, or nil.
func (e *Entity) Key() any { return e.attributes.Value(e.KeyName()) }

// Hydrate implements builder.Model. The row is trusted: every column is
// copied and the entity becomes persisted and clean.
func (e *Entity) Hydrate(row *builder.Record) {
	e.attributes = row.Clone()
	e.original = row.Clone()
	e.exists = true
	e.relations = nil
}

// NewQuery implements builder.Model.
func (e *Entity) NewQuery() *builder.Builder {
	return e.typ.Query(e.db)
}

// IsFillable reports whether key may be assigned.
func (e *Entity) IsFillable(key string) bool {
	return e.typ.def.IsFillable(key)
}

// Fill assigns every fillable key of attrs in sorted key order. Other keys
// are dropped silently.
func (e *Entity) Fill(attrs map[string]any) *Entity {
	for _, k := range slices.Sorted(maps.Keys(attrs)) {
		e.Set(k, attrs[k])
	}
	return e
}

// FillRecord is Fill with the record's key order.
func (e *Entity) FillRecord(attrs *builder.Record) *Entity {
	attrs.Range(func(k string, v any) bool {
		e.Set(k, v)
		return true
	})
	return e
}

// Set assigns value to key when key is fillable and is a no-op otherwise.
func (e *Entity) Set(key string, value any) *Entity {
	if e.IsFillable(key) {
		e.attributes.Set(key, value)
	}
	return e
}

// Unset removes key from the attributes.
func (e *Entity) Unset(key string) {
	e.attributes.Delete(key)
}

// Has reports whether key is a stored attribute.
func (e *Entity) Has(key string) bool {
	return e.attributes.Has(key)
}

// Attribute implements builder.Model and returns the raw stored value.
func (e *Entity) Attribute(key string) any {
	return e.attributes.Value(key)
}

// Attributes returns a copy of the current attributes.
func (e *Entity) Attributes() *builder.Record {
	return e.attributes.Clone()
}

// Value returns the stored value of key with its cast applied. Temporal
// casts are rendered as "2006-01-02 15:04:05" or "2006-01-02". Missing keys
// return nil.
func (e *Entity) Value(key string) (any, error) {
	v, ok := e.attributes.Get(key)
	if !ok {
		return nil, nil
	}
	cast, ok := e.typ.def.CastFor(key)
	if !ok {
		return v, nil
	}
	cv, err := schema.Cast(cast, v)
	if err != nil {
		return nil, fmt.Errorf("attribute %s: %w", key, err)
	}
	return schema.FormatCast(cast, cv), nil
}

// StringValue returns Value(key) as text. Nil and unreadable values give
// the empty string.
func (e *Entity) StringValue(key string) string {
	v, err := e.Value(key)
	if err != nil || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Int64 returns the attribute as an integer.
func (e *Entity) Int64(key string) (int64, bool) {
	v, err := schema.Cast(schema.CastInt, e.attributes.Value(key))
	if err != nil || v == nil {
		return 0, false
	}
	n, ok := v.(int64)
	return n, ok
}

// Get resolves key the way property access does: a stored attribute is
// returned cast, then an eager loaded relation, then a lazily fetched
// relation. Anything else is nil.
func (e *Entity) Get(ctx context.Context, key string) (any, error) {
	if e.attributes.Has(key) {
		return e.Value(key)
	}
	_, declared := e.typ.relations[key]
	_, loaded := e.relations[key]
	if !declared && !loaded {
		return nil, nil
	}

	v, err := e.related(ctx, key)
	if err != nil {
		return nil, err
	}
	switch r := v.(type) {
	case []builder.Model:
		return Entities(r), nil
	case builder.Model:
		return asEntity(r), nil
	}
	return v, nil
}

// IsDirty reports unsaved changes. Without fields it compares the whole
// attribute set with the original; with fields it reports whether any of
// them is missing from either side or differs.
func (e *Entity) IsDirty(fields ...string) bool {
	if len(fields) == 0 {
		return !e.attributes.Equal(e.original)
	}
	for _, f := range fields {
		cur, ok := e.attributes.Get(f)
		if !ok {
			return true
		}
		orig, ok := e.original.Get(f)
		if !ok || !builder.ValuesEqual(cur, orig) {
			return true
		}
	}
	return false
}

// Dirty returns the attributes whose value differs from the original.
func (e *Entity) Dirty() *builder.Record {
	dirty := builder.NewRecord()
	e.attributes.Range(func(k string, v any) bool {
		if e.IsDirty(k) {
			dirty.Set(k, v)
		}
		return true
	})
	return dirty
}

// Original returns a copy of the attributes as of the last load or save.
func (e *Entity) Original() *builder.Record {
	return e.original.Clone()
}

// syncOriginal makes the original a deep copy of the current attributes.
func (e *Entity) syncOriginal() {
	e.original = e.attributes.Clone()
}
