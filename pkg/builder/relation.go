package builder

import (
	"context"
)

// HasMany relates an owner to every related row whose foreign key equals
// the owner's local key.
type HasMany struct {
	parent     Model
	related    Model
	foreignKey string
	localKey   string
}

// NewHasMany creates a to-many relation descriptor.
func NewHasMany(parent, related Model, foreignKey, localKey string) *HasMany {
	return &HasMany{parent: parent, related: related, foreignKey: foreignKey, localKey: localKey}
}

// Parent returns the owning entity.
func (r *HasMany) Parent() Model { return r.parent }

// Related returns the related entity template.
func (r *HasMany) Related() Model { return r.related }

// ForeignKey returns the column on the related table.
func (r *HasMany) ForeignKey() string { return r.foreignKey }

// LocalKey returns the owner column the foreign key references.
func (r *HasMany) LocalKey() string { return r.localKey }

// Query returns a builder scoped to foreignKey = owner.localKey.
func (r *HasMany) Query() *Builder {
	return r.related.NewQuery().WhereEq(r.foreignKey, r.parent.Attribute(r.localKey))
}

// Get returns the related entities. An owner without a key has none and
// no query is issued.
func (r *HasMany) Get(ctx context.Context) ([]Model, error) {
	if r.parent.Attribute(r.localKey) == nil {
		return []Model{}, nil
	}
	return r.Query().Get(ctx)
}

// Results implements Relation.
func (r *HasMany) Results(ctx context.Context) (any, error) {
	return r.Get(ctx)
}

// HasOne relates an owner to the single related row whose foreign key
// equals the owner's local key.
type HasOne struct {
	parent     Model
	related    Model
	foreignKey string
	localKey   string
}

// NewHasOne creates a to-one relation descriptor where the related table
// holds the foreign key.
func NewHasOne(parent, related Model, foreignKey, localKey string) *HasOne {
	return &HasOne{parent: parent, related: related, foreignKey: foreignKey, localKey: localKey}
}

// Parent returns the owning entity.
func (r *HasOne) Parent() Model { return r.parent }

// Related returns the related entity template.
func (r *HasOne) Related() Model { return r.related }

// ForeignKey returns the column on the related table.
func (r *HasOne) ForeignKey() string { return r.foreignKey }

// LocalKey returns the owner column the foreign key references.
func (r *HasOne) LocalKey() string { return r.localKey }

// Query returns a builder scoped to foreignKey = owner.localKey.
func (r *HasOne) Query() *Builder {
	return r.related.NewQuery().WhereEq(r.foreignKey, r.parent.Attribute(r.localKey))
}

// First returns the related entity, or nil.
func (r *HasOne) First(ctx context.Context) (Model, error) {
	if r.parent.Attribute(r.localKey) == nil {
		return nil, nil
	}
	return r.Query().First(ctx)
}

// Results implements Relation.
func (r *HasOne) Results(ctx context.Context) (any, error) {
	m, err := r.First(ctx)
	if err != nil || m == nil {
		return nil, err
	}
	return m, nil
}

// BelongsTo relates an owner holding a foreign key to the related row
// whose owner key matches it.
type BelongsTo struct {
	parent     Model
	related    Model
	foreignKey string
	ownerKey   string
}

// NewBelongsTo creates a to-one relation descriptor where the owner holds
// the foreign key.
func NewBelongsTo(parent, related Model, foreignKey, ownerKey string) *BelongsTo {
	return &BelongsTo{parent: parent, related: related, foreignKey: foreignKey, ownerKey: ownerKey}
}

// Parent returns the owning entity.
func (r *BelongsTo) Parent() Model { return r.parent }

// Related returns the related entity template.
func (r *BelongsTo) Related() Model { return r.related }

// ForeignKey returns the column on the owner's table.
func (r *BelongsTo) ForeignKey() string { return r.foreignKey }

// OwnerKey returns the related column the foreign key references.
func (r *BelongsTo) OwnerKey() string { return r.ownerKey }

// Query returns a builder scoped to ownerKey = owner.foreignKey.
func (r *BelongsTo) Query() *Builder {
	return r.related.NewQuery().WhereEq(r.ownerKey, r.parent.Attribute(r.foreignKey))
}

// First returns the related entity, or nil. A nil foreign key returns nil
// without querying.
func (r *BelongsTo) First(ctx context.Context) (Model, error) {
	if r.parent.Attribute(r.foreignKey) == nil {
		return nil, nil
	}
	return r.Query().First(ctx)
}

// Results implements Relation.
func (r *BelongsTo) Results(ctx context.Context) (any, error) {
	m, err := r.First(ctx)
	if err != nil || m == nil {
		return nil, err
	}
	return m, nil
}

var (
	_ Relation = (*HasMany)(nil)
	_ Relation = (*HasOne)(nil)
	_ Relation = (*BelongsTo)(nil)
)
