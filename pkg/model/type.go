// Package model implements active-record entities on top of the query
// builder: attribute tracking, mass-assignment rules, casts, dirty state,
// persistence and relation accessors.
//
// An entity type is declared once with Define and then used to create,
// query and load entities:
//
//	var User = model.MustDefine(schema.Definition{
//		Name:     "User",
//		Fillable: []string{"name", "email"},
//		Hidden:   []string{"password"},
//	})
//
//	u := User.New(db, map[string]any{"name": "Alice"})
//	ok, err := u.Save(ctx)
package model

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/marshallshelly/pebble-record/pkg/builder"
	"github.com/marshallshelly/pebble-record/pkg/registry"
	"github.com/marshallshelly/pebble-record/pkg/runtime"
	"github.com/marshallshelly/pebble-record/pkg/schema"
)

// RelationFunc builds a fresh relation descriptor for an owning entity.
type RelationFunc func(owner *Entity) builder.Relation

// Type is a declared entity type. It owns the definition and the relation
// accessors registered for it.
type Type struct {
	def       *schema.Definition
	relations map[string]RelationFunc
}

// Define normalizes def and registers it in the global registry.
func Define(def schema.Definition) (*Type, error) {
	return DefineIn(nil, def)
}

// DefineIn is Define with an explicit registry. A nil registry uses the
// global one.
func DefineIn(reg *registry.Registry, def schema.Definition) (*Type, error) {
	d := def
	d.Fillable = slices.Clone(def.Fillable)
	d.Hidden = slices.Clone(def.Hidden)
	d.Casts = maps.Clone(def.Casts)
	d.Relations = slices.Clone(def.Relations)

	var err error
	if reg == nil {
		err = registry.Register(&d)
	} else {
		err = reg.Register(&d)
	}
	if err != nil {
		return nil, err
	}

	return &Type{def: &d, relations: make(map[string]RelationFunc)}, nil
}

// MustDefine is like Define but panics on an invalid definition.
func MustDefine(def schema.Definition) *Type {
	t, err := Define(def)
	if err != nil {
		panic(fmt.Sprintf("model: %v", err))
	}
	return t
}

// Definition returns the normalized definition.
func (t *Type) Definition() *schema.Definition { return t.def }

// Name returns the entity type name.
func (t *Type) Name() string { return t.def.Name }

// Table returns the backing table.
func (t *Type) Table() string { return t.def.Table }

// KeyName returns the primary key column.
func (t *Type) KeyName() string { return t.def.PrimaryKey }

// Relate registers a relation accessor under name, replacing any previous
// one.
func (t *Type) Relate(name string, fn RelationFunc) *Type {
	t.relations[name] = fn
	return t
}

// RelationNames returns the registered relation names in sorted order.
func (t *Type) RelationNames() []string {
	return slices.Sorted(maps.Keys(t.relations))
}

// HasMany declares a to-many relation where related rows reference this
// type. Empty keys default to this type's foreign key name and primary key.
func (t *Type) HasMany(name string, related *Type, foreignKey, localKey string) *Type {
	foreignKey, localKey = t.ownedKeys(foreignKey, localKey)
	t.declare(schema.RelationMetadata{
		Name: name, Type: schema.HasMany, Related: related.Name(),
		ForeignKey: foreignKey, LocalKey: localKey,
	})
	return t.Relate(name, func(owner *Entity) builder.Relation {
		return owner.HasMany(related, foreignKey, localKey)
	})
}

// HasOne declares a to-one relation where the related row references this
// type.
func (t *Type) HasOne(name string, related *Type, foreignKey, localKey string) *Type {
	foreignKey, localKey = t.ownedKeys(foreignKey, localKey)
	t.declare(schema.RelationMetadata{
		Name: name, Type: schema.HasOne, Related: related.Name(),
		ForeignKey: foreignKey, LocalKey: localKey,
	})
	return t.Relate(name, func(owner *Entity) builder.Relation {
		return owner.HasOne(related, foreignKey, localKey)
	})
}

// BelongsTo declares a to-one relation where this type holds the foreign
// key. Empty keys default to the related type's foreign key name and
// primary key.
func (t *Type) BelongsTo(name string, related *Type, foreignKey, ownerKey string) *Type {
	foreignKey, ownerKey = related.ownedKeys(foreignKey, ownerKey)
	t.declare(schema.RelationMetadata{
		Name: name, Type: schema.BelongsTo, Related: related.Name(),
		ForeignKey: foreignKey, LocalKey: ownerKey,
	})
	return t.Relate(name, func(owner *Entity) builder.Relation {
		return owner.BelongsTo(related, foreignKey, ownerKey)
	})
}

// ownedKeys resolves default keys for a relation that references t.
func (t *Type) ownedKeys(foreignKey, key string) (string, string) {
	if foreignKey == "" {
		foreignKey = t.def.ForeignKeyName()
	}
	if key == "" {
		key = t.def.PrimaryKey
	}
	return foreignKey, key
}

func (t *Type) declare(meta schema.RelationMetadata) {
	t.def.Relations = slices.DeleteFunc(t.def.Relations, func(r schema.RelationMetadata) bool {
		return r.Name == meta.Name
	})
	t.def.Relations = append(t.def.Relations, meta)
}

// New creates a new, unsaved entity and fills it with attrs.
func (t *Type) New(db *runtime.DB, attrs map[string]any) *Entity {
	e := t.newEntity(db)
	e.Fill(attrs)
	return e
}

// Hydrate creates a persisted entity from a stored row. Mass-assignment
// rules do not apply.
func (t *Type) Hydrate(db *runtime.DB, row *builder.Record) *Entity {
	e := t.newEntity(db)
	e.Hydrate(row)
	return e
}

// Query returns a builder over the type's table whose results are entities
// of this type.
func (t *Type) Query(db *runtime.DB) *builder.Builder {
	return builder.New(db, t.def.Table, t.factory(db))
}

// Find returns the entity whose primary key equals id, or nil.
func (t *Type) Find(ctx context.Context, db *runtime.DB, id any) (*Entity, error) {
	m, err := t.Query(db).WhereEq(t.def.PrimaryKey, id).First(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s %v: %w", t.def.Name, id, err)
	}
	return asEntity(m), nil
}

// All returns every row of the table.
func (t *Type) All(ctx context.Context, db *runtime.DB) ([]*Entity, error) {
	models, err := t.Query(db).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", t.def.Table, err)
	}
	return Entities(models), nil
}

func (t *Type) newEntity(db *runtime.DB) *Entity {
	return &Entity{
		typ:        t,
		db:         db,
		attributes: builder.NewRecord(),
		original:   builder.NewRecord(),
	}
}

func (t *Type) factory(db *runtime.DB) func() builder.Model {
	return func() builder.Model { return t.newEntity(db) }
}

// Entities converts builder results into entities. Models of other
// implementations are skipped.
func Entities(models []builder.Model) []*Entity {
	out := make([]*Entity, 0, len(models))
	for _, m := range models {
		if e := asEntity(m); e != nil {
			out = append(out, e)
		}
	}
	return out
}

func asEntity(m builder.Model) *Entity {
	e, _ := m.(*Entity)
	return e
}
