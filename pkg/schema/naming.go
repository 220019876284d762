package schema

import (
	"github.com/go-openapi/inflect"
)

// TableName derives a table name from an entity name: "User" becomes
// "users", "BlogPost" becomes "blog_posts".
func TableName(name string) string {
	return inflect.Pluralize(inflect.Underscore(name))
}

// ForeignKeyName derives the referencing column for an entity name:
// "User" becomes "user_id".
func ForeignKeyName(name string) string {
	return inflect.Underscore(name) + "_id"
}
