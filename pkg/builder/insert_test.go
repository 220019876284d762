package builder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marshallshelly/pebble-record/pkg/runtime"
)

func TestBuilder_InsertSQL(t *testing.T) {
	values := NewRecord().Set("name", "Alice").Set("email", "a@x.com")

	q := Table(nil, "users")
	sql, err := q.InsertSQL(values)
	require.NoError(t, err)

	assert.Equal(t, "INSERT INTO users (name, email) VALUES (:name, :email)", sql)
	assert.Equal(t, runtime.Bindings{
		{Name: "name", Value: "Alice"},
		{Name: "email", Value: "a@x.com"},
	}, q.Bindings())
}

func TestBuilder_InsertSQLErrors(t *testing.T) {
	_, err := Table(nil, "users").InsertSQL(NewRecord())
	assert.True(t, errors.Is(err, ErrNoValues))

	_, err = Table(nil, "users").InsertSQL(nil)
	assert.True(t, errors.Is(err, ErrNoValues))

	_, err = Table(nil, "users").InsertSQL(NewRecord().Set("users.name", "x"))
	assert.True(t, errors.Is(err, ErrInvalidIdentifier))
}

func TestBuilder_Insert(t *testing.T) {
	db, mock := newMockDB(t)
	ctx := context.Background()
	created := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO users (name, created_at) VALUES (?, ?)").
		WithArgs("Alice", "2024-06-01 12:00:00").
		WillReturnResult(sqlmock.NewResult(1, 1))

	q := Table(db, "users")
	ok, err := q.Insert(ctx, NewRecord().Set("name", "Alice").Set("created_at", created))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1), db.LastInsertID())
	assert.Empty(t, q.Bindings())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuilder_InsertNoRows(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("INSERT INTO users (name) VALUES (?)").
		WithArgs("Alice").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := Table(db, "users").Insert(context.Background(), NewRecord().Set("name", "Alice"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBuilder_InsertGetID(t *testing.T) {
	db, mock := newMockDB(t)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO users (name) VALUES (?)").
		WithArgs("Alice").
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec("INSERT INTO tags (label) VALUES (?)").
		WithArgs("go").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, id, err := Table(db, "users").InsertGetID(ctx, NewRecord().Set("name", "Alice"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(5), id)

	ok, id, err = Table(db, "tags").InsertGetID(ctx, NewRecord().Set("label", "go"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, id)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuilder_InsertGetIDWithoutDatabase(t *testing.T) {
	_, _, err := Table(nil, "users").InsertGetID(context.Background(), NewRecord().Set("name", "Alice"))
	require.ErrorIs(t, err, runtime.ErrNotConfigured)
}
