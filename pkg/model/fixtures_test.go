package model

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/marshallshelly/pebble-record/internal/testutil"
	"github.com/marshallshelly/pebble-record/pkg/registry"
	"github.com/marshallshelly/pebble-record/pkg/runtime"
	"github.com/marshallshelly/pebble-record/pkg/schema"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

const fixedNowText = "2024-06-01 12:00:00"

type fixtures struct {
	user *Type
	post *Type
}

func newFixtures(t *testing.T) fixtures {
	t.Helper()

	restore := now
	now = func() time.Time { return fixedNow }
	t.Cleanup(func() { now = restore })

	reg := registry.NewRegistry()

	user, err := DefineIn(reg, schema.Definition{
		Name:     "User",
		Fillable: []string{"id", "name", "email", "password"},
		Hidden:   []string{"password"},
		Casts: map[string]schema.CastType{
			"email_verified_at": schema.CastDateTime,
			"created_at":        schema.CastDateTime,
			"updated_at":        schema.CastDateTime,
			"password":          schema.CastHashed,
		},
		Timestamps: true,
	})
	require.NoError(t, err)

	post, err := DefineIn(reg, schema.Definition{
		Name:     "Post",
		Fillable: []string{"title", "content", "user_id"},
		Casts: map[string]schema.CastType{
			"created_at": schema.CastDateTime,
			"updated_at": schema.CastDateTime,
		},
		Timestamps: true,
	})
	require.NoError(t, err)

	user.HasMany("posts", post, "", "")
	post.BelongsTo("user", user, "", "")

	return fixtures{user: user, post: post}
}

func newMockDB(t *testing.T) (*runtime.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return runtime.NewDB(conn, runtime.WithLogger(testutil.NewTestLogger(t))), mock
}

func newRegistry() *registry.Registry {
	return registry.NewRegistry()
}
