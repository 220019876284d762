package model

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/marshallshelly/pebble-record/pkg/builder"
	"github.com/marshallshelly/pebble-record/pkg/schema"
)

// ToArray returns the stored attributes without hidden fields.
func (e *Entity) ToArray() *builder.Record {
	out := builder.NewRecord()
	e.attributes.Range(func(k string, v any) bool {
		if !e.typ.def.IsHidden(k) {
			out.Set(k, v)
		}
		return true
	})
	return out
}

// serializable is ToArray with temporal casts rendered as text.
func (e *Entity) serializable() *builder.Record {
	out := e.ToArray()
	out.Range(func(k string, v any) bool {
		cast, ok := e.typ.def.CastFor(k)
		if !ok || !cast.IsTemporal() || v == nil {
			return true
		}
		if t, err := schema.AsDateTime(v); err == nil {
			out.Set(k, schema.FormatCast(cast, t))
		}
		return true
	})
	return out
}

// MarshalJSON encodes the visible attributes as a JSON object.
func (e *Entity) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.serializable())
}

var _ msgpack.Marshaler = (*Entity)(nil)

// MarshalMsgpack encodes the visible attributes as a msgpack map.
func (e *Entity) MarshalMsgpack() ([]byte, error) {
	return msgpack.Marshal(e.serializable())
}

// String returns the JSON form of the entity.
func (e *Entity) String() string {
	b, err := e.MarshalJSON()
	if err != nil {
		return "{}"
	}
	return string(b)
}
