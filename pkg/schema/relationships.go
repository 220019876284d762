package schema

// RelationType identifies the direction of a relation.
type RelationType string

const (
	// HasMany: the related table holds a foreign key to this entity, many rows.
	HasMany RelationType = "hasMany"
	// HasOne: the related table holds a foreign key to this entity, one row.
	HasOne RelationType = "hasOne"
	// BelongsTo: this entity holds the foreign key.
	BelongsTo RelationType = "belongsTo"
)

// IsToMany reports whether the relation resolves to a list.
func (t RelationType) IsToMany() bool {
	return t == HasMany
}

// RelationMetadata describes a declared relation.
type RelationMetadata struct {
	Name    string
	Type    RelationType
	Related string // related definition name

	// ForeignKey is the referencing column: on the related table for
	// HasMany/HasOne, on this table for BelongsTo.
	ForeignKey string

	// LocalKey is this table's key for HasMany/HasOne, or the related
	// table's key for BelongsTo.
	LocalKey string
}

// Relation returns the relation declared under name.
func (d *Definition) Relation(name string) *RelationMetadata {
	for i := range d.Relations {
		if d.Relations[i].Name == name {
			return &d.Relations[i]
		}
	}
	return nil
}

// RelationsByType returns all relations of the given type.
func (d *Definition) RelationsByType(relType RelationType) []RelationMetadata {
	var result []RelationMetadata
	for _, rel := range d.Relations {
		if rel.Type == relType {
			result = append(result, rel)
		}
	}
	return result
}

// HasRelations checks if the definition declares any relations.
func (d *Definition) HasRelations() bool {
	return len(d.Relations) > 0
}
