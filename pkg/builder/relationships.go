package builder

import (
	"context"
	"fmt"
)

// eagerLoad resolves every relation named in With for parents, issuing one
// query per relation.
func (b *Builder) eagerLoad(ctx context.Context, parents []Model) error {
	for _, name := range b.with {
		// Relation descriptors are built from one representative parent;
		// keys are then read from every parent.
		rel, err := parents[0].Relation(name)
		if err != nil {
			return fmt.Errorf("failed to load relationship %s: %w", name, err)
		}
		if err := loadRelationship(ctx, parents, name, rel); err != nil {
			return fmt.Errorf("failed to load relationship %s: %w", name, err)
		}
	}
	return nil
}

func loadRelationship(ctx context.Context, parents []Model, name string, rel Relation) error {
	switch r := rel.(type) {
	case *HasMany:
		return loadHasMany(ctx, parents, name, r)
	case *HasOne:
		return loadHasOne(ctx, parents, name, r)
	case *BelongsTo:
		return loadBelongsTo(ctx, parents, name, r)
	default:
		return fmt.Errorf("unsupported relationship type %T", rel)
	}
}

// loadHasMany loads hasMany relationships.
// Example: User hasMany Post (posts.user_id -> users.id)
func loadHasMany(ctx context.Context, parents []Model, name string, rel *HasMany) error {
	grouped, err := fetchGrouped(ctx, parents, rel.localKey, rel.related, rel.foreignKey)
	if err != nil {
		return err
	}

	for _, parent := range parents {
		children := grouped[keyOf(parent.Attribute(rel.localKey))]
		if children == nil || parent.Attribute(rel.localKey) == nil {
			children = []Model{}
		}
		parent.SetRelation(name, children)
	}
	return nil
}

// loadHasOne loads hasOne relationships.
// Example: User hasOne Profile (profiles.user_id -> users.id)
func loadHasOne(ctx context.Context, parents []Model, name string, rel *HasOne) error {
	grouped, err := fetchGrouped(ctx, parents, rel.localKey, rel.related, rel.foreignKey)
	if err != nil {
		return err
	}

	for _, parent := range parents {
		var child any
		if parent.Attribute(rel.localKey) != nil {
			if matches := grouped[keyOf(parent.Attribute(rel.localKey))]; len(matches) > 0 {
				child = matches[0]
			}
		}
		parent.SetRelation(name, child)
	}
	return nil
}

// loadBelongsTo loads belongsTo relationships.
// Example: Post belongsTo User (posts.user_id -> users.id)
func loadBelongsTo(ctx context.Context, parents []Model, name string, rel *BelongsTo) error {
	grouped, err := fetchGrouped(ctx, parents, rel.foreignKey, rel.related, rel.ownerKey)
	if err != nil {
		return err
	}

	for _, parent := range parents {
		var owner any
		if parent.Attribute(rel.foreignKey) != nil {
			if matches := grouped[keyOf(parent.Attribute(rel.foreignKey))]; len(matches) > 0 {
				owner = matches[0]
			}
		}
		parent.SetRelation(name, owner)
	}
	return nil
}

// fetchGrouped collects the distinct non-nil parentKey values, fetches the
// related rows whose relatedKey is among them with a single WHERE IN query
// and groups the results by relatedKey. No query is issued when no parent
// has a key.
func fetchGrouped(ctx context.Context, parents []Model, parentKey string, related Model, relatedKey string) (map[string][]Model, error) {
	keys := make([]any, 0, len(parents))
	seen := make(map[string]bool, len(parents))

	for _, parent := range parents {
		v := parent.Attribute(parentKey)
		if v == nil {
			continue
		}
		k := keyOf(v)
		if seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, v)
	}

	grouped := make(map[string][]Model)
	if len(keys) == 0 {
		return grouped, nil
	}

	results, err := related.NewQuery().WhereIn(relatedKey, keys...).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query related records: %w", err)
	}

	for _, m := range results {
		k := keyOf(m.Attribute(relatedKey))
		grouped[k] = append(grouped[k], m)
	}
	return grouped, nil
}
