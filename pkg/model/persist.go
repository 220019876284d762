package model

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/marshallshelly/pebble-record/pkg/builder"
	"github.com/marshallshelly/pebble-record/pkg/schema"
)

// now is replaced in tests.
var now = func() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// Save inserts a new entity or updates a persisted one and reports whether
// a row was written. Timestamps are refreshed first when the type keeps
// them.
func (e *Entity) Save(ctx context.Context) (bool, error) {
	if e.typ.def.Timestamps {
		e.touchTimestamps()
	}

	if e.exists {
		return e.performUpdate(ctx)
	}
	return e.performInsert(ctx)
}

// touchTimestamps sets created_at on a new entity that has none and always
// refreshes updated_at.
func (e *Entity) touchTimestamps() {
	t := now()
	if !e.exists && e.attributes.Value(schema.CreatedAtColumn) == nil {
		e.attributes.Set(schema.CreatedAtColumn, t)
	}
	e.attributes.Set(schema.UpdatedAtColumn, t)
}

func (e *Entity) performInsert(ctx context.Context) (bool, error) {
	payload, err := e.payload()
	if err != nil {
		return false, err
	}
	if isEmptyKey(e.Key()) {
		payload.Delete(e.KeyName())
	}
	if payload.Len() == 0 {
		return true, nil
	}

	ok, id, err := e.NewQuery().InsertGetID(ctx, payload)
	if err != nil {
		return false, fmt.Errorf("failed to insert %s: %w", e.typ.def.Name, err)
	}
	if !ok {
		return false, nil
	}

	e.exists = true
	if isEmptyKey(e.Key()) && id != 0 {
		e.attributes.Set(e.KeyName(), id)
	}
	e.syncOriginal()
	return true, nil
}

func (e *Entity) performUpdate(ctx context.Context) (bool, error) {
	payload, err := e.payload()
	if err != nil {
		return false, err
	}
	if payload.Len() == 0 {
		return true, nil
	}

	ok, err := e.NewQuery().WhereEq(e.KeyName(), e.Key()).Update(ctx, payload)
	if err != nil {
		return false, fmt.Errorf("failed to update %s %v: %w", e.typ.def.Name, e.Key(), err)
	}
	if ok {
		e.syncOriginal()
	}
	return ok, nil
}

// Delete removes the entity's row. An entity that was never saved is
// reported as deleted without touching the database.
func (e *Entity) Delete(ctx context.Context) (bool, error) {
	if !e.exists {
		return true, nil
	}

	ok, err := e.NewQuery().WhereEq(e.KeyName(), e.Key()).Delete(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to delete %s %v: %w", e.typ.def.Name, e.Key(), err)
	}
	if ok {
		e.exists = false
	}
	return ok, nil
}

// payload returns the attributes to write. Structured json and array
// values are encoded to text.
func (e *Entity) payload() (*builder.Record, error) {
	out := builder.NewRecord()
	var err error
	e.attributes.Range(func(k string, v any) bool {
		cast, ok := e.typ.def.CastFor(k)
		if ok && (cast == schema.CastJSON || cast == schema.CastArray) {
			v, err = encodeJSON(v)
			if err != nil {
				err = fmt.Errorf("attribute %s: %w", k, err)
				return false
			}
		}
		out.Set(k, v)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func encodeJSON(v any) (any, error) {
	switch v.(type) {
	case nil, string, []byte:
		return v, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// isEmptyKey reports whether a primary key value is unset. Zero values of
// every numeric kind count as unset.
func isEmptyKey(v any) bool {
	switch k := v.(type) {
	case nil:
		return true
	case string:
		return k == ""
	case []byte:
		return len(k) == 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return rv.IsZero()
	}
	return false
}
