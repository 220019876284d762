package builder

import (
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/marshallshelly/pebble-record/internal/testutil"
	"github.com/marshallshelly/pebble-record/pkg/runtime"
)

// testModel is a minimal Model with a fixed relation table.
type testModel struct {
	db        *runtime.DB
	table     string
	attrs     *Record
	relations map[string]func(*testModel) Relation
	loaded    map[string]any
}

func (m *testModel) Table() string   { return m.table }
func (m *testModel) KeyName() string { return "id" }

func (m *testModel) Attribute(key string) any { return m.attrs.Value(key) }

func (m *testModel) Hydrate(row *Record) { m.attrs = row.Clone() }

func (m *testModel) Relation(name string) (Relation, error) {
	fn, ok := m.relations[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRelation, name)
	}
	return fn(m), nil
}

func (m *testModel) SetRelation(name string, value any) {
	if m.loaded == nil {
		m.loaded = make(map[string]any)
	}
	m.loaded[name] = value
}

func (m *testModel) NewQuery() *Builder {
	return New(m.db, m.table, m.factory())
}

func (m *testModel) factory() func() Model {
	return func() Model {
		return &testModel{db: m.db, table: m.table, attrs: NewRecord(), relations: m.relations}
	}
}

func newUserModel(db *runtime.DB) *testModel {
	return &testModel{
		db:    db,
		table: "users",
		attrs: NewRecord(),
		relations: map[string]func(*testModel) Relation{
			"posts": func(u *testModel) Relation {
				return NewHasMany(u, newPostModel(u.db), "user_id", "id")
			},
			"latest_post": func(u *testModel) Relation {
				return NewHasOne(u, newPostModel(u.db), "user_id", "id")
			},
		},
	}
}

func newPostModel(db *runtime.DB) *testModel {
	return &testModel{
		db:    db,
		table: "posts",
		attrs: NewRecord(),
		relations: map[string]func(*testModel) Relation{
			"user": func(p *testModel) Relation {
				return NewBelongsTo(p, newUserModel(p.db), "user_id", "id")
			},
		},
	}
}

func newMockDB(t *testing.T) (*runtime.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return runtime.NewDB(conn, runtime.WithLogger(testutil.NewTestLogger(t))), mock
}
