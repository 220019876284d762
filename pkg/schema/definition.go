// Package schema describes entity types: their table, primary key,
// mass-assignment rules, hidden fields, casts and relations.
package schema

import (
	"fmt"
	"slices"
)

// DefaultPrimaryKey is the key column used when a definition names none.
const DefaultPrimaryKey = "id"

// Timestamp columns maintained on save when Definition.Timestamps is set.
const (
	CreatedAtColumn = "created_at"
	UpdatedAtColumn = "updated_at"
)

// Definition declares an entity type.
type Definition struct {
	// Name is the entity type name, e.g. "User".
	Name string

	// Table defaults to the pluralized snake case of Name.
	Table string

	// PrimaryKey defaults to "id".
	PrimaryKey string

	// Fillable lists the mass-assignable fields. Empty means every field.
	Fillable []string

	// Hidden lists fields removed from serialized output.
	Hidden []string

	Casts map[string]CastType

	// Timestamps enables created_at / updated_at maintenance on save.
	Timestamps bool

	Relations []RelationMetadata
}

// Normalize fills defaults and validates the definition.
func (d *Definition) Normalize() error {
	if d.Name == "" {
		return fmt.Errorf("definition name is required")
	}
	if d.Table == "" {
		d.Table = TableName(d.Name)
	}
	if d.PrimaryKey == "" {
		d.PrimaryKey = DefaultPrimaryKey
	}
	return Validate(d)
}

// IsFillable reports whether key may be mass-assigned.
func (d *Definition) IsFillable(key string) bool {
	if len(d.Fillable) == 0 {
		return true
	}
	return slices.Contains(d.Fillable, key)
}

// IsHidden reports whether key is excluded from serialization.
func (d *Definition) IsHidden(key string) bool {
	return slices.Contains(d.Hidden, key)
}

// CastFor returns the cast registered for key.
func (d *Definition) CastFor(key string) (CastType, bool) {
	if d.Casts == nil {
		return "", false
	}
	c, ok := d.Casts[key]
	return c, ok
}

// ForeignKeyName returns the column other tables use to reference this
// entity, e.g. "user_id" for "User".
func (d *Definition) ForeignKeyName() string {
	return ForeignKeyName(d.Name)
}
