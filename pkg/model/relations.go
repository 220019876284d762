package model

import (
	"context"
	"fmt"

	"github.com/marshallshelly/pebble-record/pkg/builder"
)

// Relation implements builder.Model. Each call builds a fresh descriptor.
func (e *Entity) Relation(name string) (builder.Relation, error) {
	fn, ok := e.typ.relations[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no relation %q", builder.ErrUnknownRelation, e.typ.def.Name, name)
	}
	return fn(e), nil
}

// SetRelation implements builder.Model. It stores a resolved relation value
// on this instance.
func (e *Entity) SetRelation(name string, value any) {
	if e.relations == nil {
		e.relations = make(map[string]any)
	}
	e.relations[name] = value
}

// Loaded returns the relation value stored by eager loading or
// SetRelation.
func (e *Entity) Loaded(name string) (any, bool) {
	v, ok := e.relations[name]
	return v, ok
}

// Many returns a to-many relation, from the eager loaded value when present
// and from the database otherwise.
func (e *Entity) Many(ctx context.Context, name string) ([]*Entity, error) {
	v, err := e.related(ctx, name)
	if err != nil {
		return nil, err
	}
	switch r := v.(type) {
	case nil:
		return []*Entity{}, nil
	case []builder.Model:
		return Entities(r), nil
	case []*Entity:
		return r, nil
	}
	return nil, fmt.Errorf("relation %s is not to-many (%T)", name, v)
}

// One returns a to-one relation, or nil when there is no related row.
func (e *Entity) One(ctx context.Context, name string) (*Entity, error) {
	v, err := e.related(ctx, name)
	if err != nil {
		return nil, err
	}
	switch r := v.(type) {
	case nil:
		return nil, nil
	case builder.Model:
		return asEntity(r), nil
	}
	return nil, fmt.Errorf("relation %s is not to-one (%T)", name, v)
}

func (e *Entity) related(ctx context.Context, name string) (any, error) {
	if v, ok := e.relations[name]; ok {
		return v, nil
	}
	rel, err := e.Relation(name)
	if err != nil {
		return nil, err
	}
	v, err := rel.Results(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load relationship %s: %w", name, err)
	}
	return v, nil
}

// HasMany builds a to-many descriptor to related. Empty keys default to
// this entity's foreign key name and primary key.
func (e *Entity) HasMany(related *Type, foreignKey, localKey string) *builder.HasMany {
	foreignKey, localKey = e.typ.ownedKeys(foreignKey, localKey)
	return builder.NewHasMany(e, related.newEntity(e.db), foreignKey, localKey)
}

// HasOne builds a to-one descriptor where related holds the foreign key.
func (e *Entity) HasOne(related *Type, foreignKey, localKey string) *builder.HasOne {
	foreignKey, localKey = e.typ.ownedKeys(foreignKey, localKey)
	return builder.NewHasOne(e, related.newEntity(e.db), foreignKey, localKey)
}

// BelongsTo builds a to-one descriptor where this entity holds the foreign
// key. Empty keys default to the related type's foreign key name and
// primary key.
func (e *Entity) BelongsTo(related *Type, foreignKey, ownerKey string) *builder.BelongsTo {
	foreignKey, ownerKey = related.ownedKeys(foreignKey, ownerKey)
	return builder.NewBelongsTo(e, related.newEntity(e.db), foreignKey, ownerKey)
}
