package builder

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marshallshelly/pebble-record/pkg/runtime"
)

func TestBuilder_ToSQL(t *testing.T) {
	tests := []struct {
		name         string
		setupQuery   func() *Builder
		wantSQL      string
		wantBindings runtime.Bindings
	}{
		{
			name:       "simple select all",
			setupQuery: func() *Builder { return Table(nil, "users") },
			wantSQL:    "SELECT * FROM users",
		},
		{
			name:       "select specific columns",
			setupQuery: func() *Builder { return Table(nil, "users").Select("id", "name") },
			wantSQL:    "SELECT id, name FROM users",
		},
		{
			name:       "select qualified and aliased columns",
			setupQuery: func() *Builder { return Table(nil, "users").Select("users.*", "posts.title AS post_title") },
			wantSQL:    "SELECT users.*, posts.title AS post_title FROM users",
		},
		{
			name:       "where equality",
			setupQuery: func() *Builder { return Table(nil, "users").WhereEq("id", 1) },
			wantSQL:    "SELECT * FROM users WHERE id = :where_id_0",
			wantBindings: runtime.Bindings{
				{Name: "where_id_0", Value: 1},
			},
		},
		{
			name: "where and or where",
			setupQuery: func() *Builder {
				return Table(nil, "users").
					Where("age", ">=", 18).
					OrWhere("name", "like", "A%").
					WhereEq("age", 30)
			},
			wantSQL: "SELECT * FROM users WHERE age >= :where_age_0 OR name LIKE :where_name_1 AND age = :where_age_2",
			wantBindings: runtime.Bindings{
				{Name: "where_age_0", Value: 18},
				{Name: "where_name_1", Value: "A%"},
				{Name: "where_age_2", Value: 30},
			},
		},
		{
			name:       "qualified column parameter name",
			setupQuery: func() *Builder { return Table(nil, "posts").WhereEq("posts.user_id", 5) },
			wantSQL:    "SELECT * FROM posts WHERE posts.user_id = :where_posts_user_id_0",
			wantBindings: runtime.Bindings{
				{Name: "where_posts_user_id_0", Value: 5},
			},
		},
		{
			name: "where in expands one parameter per value",
			setupQuery: func() *Builder {
				return Table(nil, "posts").WhereEq("published", true).WhereIn("user_id", 1, 2, 3)
			},
			wantSQL: "SELECT * FROM posts WHERE published = :where_published_0 AND user_id IN (:where_in_user_id_1, :where_in_user_id_2, :where_in_user_id_3)",
			wantBindings: runtime.Bindings{
				{Name: "where_published_0", Value: true},
				{Name: "where_in_user_id_1", Value: 1},
				{Name: "where_in_user_id_2", Value: 2},
				{Name: "where_in_user_id_3", Value: 3},
			},
		},
		{
			name: "repeated in on same column does not collide",
			setupQuery: func() *Builder {
				return Table(nil, "posts").WhereIn("id", 1).OrWhereIn("id", 2)
			},
			wantSQL: "SELECT * FROM posts WHERE id IN (:where_in_id_0) OR id IN (:where_in_id_1)",
			wantBindings: runtime.Bindings{
				{Name: "where_in_id_0", Value: 1},
				{Name: "where_in_id_1", Value: 2},
			},
		},
		{
			name:       "where not in",
			setupQuery: func() *Builder { return Table(nil, "users").WhereNotIn("id", 7) },
			wantSQL:    "SELECT * FROM users WHERE id NOT IN (:where_in_id_0)",
			wantBindings: runtime.Bindings{
				{Name: "where_in_id_0", Value: 7},
			},
		},
		{
			name:       "empty in list matches nothing",
			setupQuery: func() *Builder { return Table(nil, "users").WhereIn("id") },
			wantSQL:    "SELECT * FROM users WHERE 0 = 1",
		},
		{
			name:       "empty not in list matches everything",
			setupQuery: func() *Builder { return Table(nil, "users").WhereNotIn("id") },
			wantSQL:    "SELECT * FROM users WHERE 1 = 1",
		},
		{
			name:       "null checks",
			setupQuery: func() *Builder { return Table(nil, "users").WhereNull("deleted_at").WhereNotNull("email") },
			wantSQL:    "SELECT * FROM users WHERE deleted_at IS NULL AND email IS NOT NULL",
		},
		{
			name: "joins",
			setupQuery: func() *Builder {
				return Table(nil, "users").
					Select("users.name", "posts.title").
					Join("posts", "posts.user_id", "=", "users.id").
					LeftJoin("profiles", "profiles.user_id", "=", "users.id")
			},
			wantSQL: "SELECT users.name, posts.title FROM users INNER JOIN posts ON posts.user_id = users.id LEFT JOIN profiles ON profiles.user_id = users.id",
		},
		{
			name:       "right join",
			setupQuery: func() *Builder { return Table(nil, "posts").RightJoin("users", "users.id", "=", "posts.user_id") },
			wantSQL:    "SELECT * FROM posts RIGHT JOIN users ON users.id = posts.user_id",
		},
		{
			name: "order by normalizes direction",
			setupQuery: func() *Builder {
				return Table(nil, "users").OrderBy("name", "asc").OrderBy("age", "ASC").OrderBy("id", "sideways")
			},
			wantSQL: "SELECT * FROM users ORDER BY name ASC, age ASC, id DESC",
		},
		{
			name:       "order helpers",
			setupQuery: func() *Builder { return Table(nil, "users").OrderByDesc("created_at").OrderByAsc("id") },
			wantSQL:    "SELECT * FROM users ORDER BY created_at DESC, id ASC",
		},
		{
			name:       "limit and offset",
			setupQuery: func() *Builder { return Table(nil, "users").Limit(10).Offset(20) },
			wantSQL:    "SELECT * FROM users LIMIT 10 OFFSET 20",
		},
		{
			name:       "offset without limit is dropped",
			setupQuery: func() *Builder { return Table(nil, "users").Offset(20) },
			wantSQL:    "SELECT * FROM users",
		},
		{
			name: "complex query",
			setupQuery: func() *Builder {
				return Table(nil, "posts").
					Select("posts.*").
					Join("users", "users.id", "=", "posts.user_id").
					WhereEq("users.name", "Alice").
					Where("posts.id", ">", 3).
					OrderByDesc("posts.id").
					Limit(5)
			},
			wantSQL: "SELECT posts.* FROM posts INNER JOIN users ON users.id = posts.user_id WHERE users.name = :where_users_name_0 AND posts.id > :where_posts_id_1 ORDER BY posts.id DESC LIMIT 5",
			wantBindings: runtime.Bindings{
				{Name: "where_users_name_0", Value: "Alice"},
				{Name: "where_posts_id_1", Value: 3},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.setupQuery()
			sql, err := q.ToSQL()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			if tt.wantBindings == nil {
				assert.Empty(t, q.Bindings())
			} else {
				assert.Equal(t, tt.wantBindings, q.Bindings())
			}
		})
	}
}

func TestBuilder_ToSQLIdempotent(t *testing.T) {
	q := Table(nil, "users").WhereEq("name", "A").WhereIn("id", 1, 2).Limit(3)

	first, err := q.ToSQL()
	require.NoError(t, err)
	firstBindings := q.Bindings()

	second, err := q.ToSQL()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstBindings, q.Bindings())
	assert.Len(t, q.Bindings(), 3)
}

func TestBuilder_Validation(t *testing.T) {
	tests := []struct {
		name    string
		query   *Builder
		wantErr error
	}{
		{"bad operator", Table(nil, "users").Where("id", "==", 1), ErrInvalidOperator},
		{"injection operator", Table(nil, "users").Where("id", "= 1 OR 1 =", 1), ErrInvalidOperator},
		{"bad column", Table(nil, "users").WhereEq("id; DROP TABLE users", 1), ErrInvalidIdentifier},
		{"bad table", Table(nil, "users u"), ErrInvalidIdentifier},
		{"bad select", Table(nil, "users").Select("name, password"), ErrInvalidIdentifier},
		{"bad join operator", Table(nil, "users").Join("posts", "posts.user_id", "LIKE!", "users.id"), ErrInvalidOperator},
		{"bad order column", Table(nil, "users").OrderBy("name desc", "asc"), ErrInvalidIdentifier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.query.ToSQL()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Equal(t, err, tt.query.Err())
		})
	}
}

func TestBuilder_OperatorsAccepted(t *testing.T) {
	for _, op := range []string{"=", "!=", "<>", "<", "<=", ">", ">=", "LIKE", "not like"} {
		_, err := Table(nil, "users").Where("name", op, "x").ToSQL()
		assert.NoError(t, err, op)
	}
}

func TestBuilder_Get(t *testing.T) {
	db, mock := newMockDB(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT * FROM users WHERE name = ? ORDER BY id ASC").
		WithArgs("Alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).
			AddRow(int64(1), []byte("Alice"), "alice@example.com").
			AddRow(int64(2), []byte("Alice"), nil))

	q := newUserModel(db).NewQuery().WhereEq("name", "Alice").OrderByAsc("id")
	users, err := q.Get(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, int64(1), users[0].Attribute("id"))
	assert.Equal(t, "Alice", users[0].Attribute("name"))
	assert.Equal(t, "alice@example.com", users[0].Attribute("email"))
	assert.Nil(t, users[1].Attribute("email"))

	// Bindings are consumed by execution and clause state survives.
	assert.Empty(t, q.Bindings())
	sql, err := q.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users WHERE name = :where_name_0 ORDER BY id ASC", sql)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuilder_GetWithoutModel(t *testing.T) {
	_, err := Table(nil, "users").Get(context.Background())
	assert.ErrorIs(t, err, ErrNoModel)
}

func TestBuilder_WithoutDatabase(t *testing.T) {
	_, err := Table(nil, "users").Rows(context.Background())
	assert.ErrorIs(t, err, runtime.ErrNotConfigured)
}

func TestBuilder_First(t *testing.T) {
	db, mock := newMockDB(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT * FROM users WHERE id = ? LIMIT 1").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Alice"))
	mock.ExpectQuery("SELECT * FROM users WHERE id = ? LIMIT 1").
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	user, err := newUserModel(db).NewQuery().WhereEq("id", 1).First(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Alice", user.Attribute("name"))

	missing, err := newUserModel(db).NewQuery().WhereEq("id", 99).First(ctx)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuilder_Count(t *testing.T) {
	db, mock := newMockDB(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT(*) AS count FROM users WHERE age > ?").
		WithArgs(18).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))
	mock.ExpectQuery("SELECT COUNT(*) AS count FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow([]byte("12")))

	q := Table(db, "users").Select("id", "name").Where("age", ">", 18)
	n, err := q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	// The select list is restored.
	sql, err := q.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, name FROM users WHERE age > :where_age_0", sql)

	n, err = Table(db, "users").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuilder_ExecutionError(t *testing.T) {
	db, mock := newMockDB(t)
	boom := errors.New("table missing")

	mock.ExpectQuery("SELECT * FROM ghosts").WillReturnError(boom)

	_, err := Table(db, "ghosts").Rows(context.Background())
	require.Error(t, err)

	var execErr *runtime.ExecutionError
	assert.True(t, errors.As(err, &execErr))
	assert.ErrorIs(t, err, boom)
}
