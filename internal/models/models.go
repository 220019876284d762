// Package models declares the User and Post entity types used by the
// record command and the integration tests.
package models

import (
	"strings"

	"github.com/marshallshelly/pebble-record/pkg/model"
	"github.com/marshallshelly/pebble-record/pkg/schema"
)

var (
	// User is an account. Passwords are stored pre-hashed and never
	// serialized.
	User = model.MustDefine(schema.Definition{
		Name:       "User",
		Table:      "users",
		Fillable:   []string{"id", "name", "email", "password"},
		Hidden:     []string{"password"},
		Timestamps: true,
		Casts: map[string]schema.CastType{
			"email_verified_at": schema.CastDateTime,
			"created_at":        schema.CastDateTime,
			"updated_at":        schema.CastDateTime,
			"password":          schema.CastHashed,
		},
	})

	// Post is an article written by a User.
	Post = model.MustDefine(schema.Definition{
		Name:       "Post",
		Table:      "posts",
		Fillable:   []string{"title", "content", "user_id"},
		Timestamps: true,
		Casts: map[string]schema.CastType{
			"created_at": schema.CastDateTime,
			"updated_at": schema.CastDateTime,
		},
	})
)

func init() {
	User.HasMany("posts", Post, "", "")
	Post.BelongsTo("user", User, "", "")
}

// Lookup returns the entity type whose name or table matches name, ignoring
// case.
func Lookup(name string) (*model.Type, bool) {
	for _, t := range All() {
		if strings.EqualFold(t.Name(), name) || strings.EqualFold(t.Table(), name) {
			return t, true
		}
	}
	return nil, false
}

// All returns the declared entity types in dependency order.
func All() []*model.Type {
	return []*model.Type{User, Post}
}
