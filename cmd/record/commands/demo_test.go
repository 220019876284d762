package commands

import (
	"bytes"
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marshallshelly/pebble-record/cmd/record/output"
	"github.com/marshallshelly/pebble-record/internal/testutil"
	"github.com/marshallshelly/pebble-record/pkg/runtime"
)

var (
	userColumns = []string{"id", "name", "email", "password", "created_at", "updated_at"}
	postColumns = []string{"id", "title", "content", "user_id", "created_at", "updated_at"}
)

const stamp = "2024-06-01 12:00:00"

func q(s string) string { return regexp.QuoteMeta(s) }

func userRows(name string) *sqlmock.Rows {
	return sqlmock.NewRows(userColumns).
		AddRow(int64(1), name, "ahmet@example.com", "$2a$10$hash", stamp, stamp)
}

func postRows() *sqlmock.Rows {
	return sqlmock.NewRows(postColumns).
		AddRow(int64(1), "İlk Gönderi", "Bu benim ilk gönderim. Merhaba dünya!", int64(1), stamp, stamp).
		AddRow(int64(2), "İkinci Gönderi", "Bu da ikinci gönderim. ORM harika çalışıyor!", int64(1), stamp, stamp)
}

// expectWalkthrough registers the statements of one demo run in order.
func expectWalkthrough(mock sqlmock.Sqlmock) {
	mock.ExpectExec(q("INSERT INTO users (email, name, password, created_at, updated_at) VALUES (?, ?, ?, ?, ?)")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(q("SELECT created_at, updated_at FROM users WHERE id = ?")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(stamp, stamp))

	mock.ExpectExec(q("INSERT INTO posts (content, title, user_id, created_at, updated_at)")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(q("INSERT INTO posts (content, title, user_id, created_at, updated_at)")).
		WillReturnResult(sqlmock.NewResult(2, 1))

	mock.ExpectQuery(q("SELECT * FROM users WHERE id = ? LIMIT 1")).
		WithArgs(int64(1)).
		WillReturnRows(userRows("Ahmet Yılmaz"))
	mock.ExpectQuery(q("SELECT * FROM posts WHERE user_id = ?")).
		WithArgs(int64(1)).
		WillReturnRows(postRows())

	mock.ExpectQuery(q("SELECT * FROM posts WHERE id = ? LIMIT 1")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(postColumns).
			AddRow(int64(1), "İlk Gönderi", "Bu benim ilk gönderim. Merhaba dünya!", int64(1), stamp, stamp))
	mock.ExpectQuery(q("SELECT * FROM users WHERE id = ? LIMIT 1")).
		WithArgs(int64(1)).
		WillReturnRows(userRows("Ahmet Yılmaz"))

	mock.ExpectExec(q("UPDATE users SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery(q("SELECT * FROM users")).
		WillReturnRows(userRows("Ahmet Yılmaz (Güncellendi)"))

	mock.ExpectQuery(q("SELECT * FROM users WHERE email LIKE ?")).
		WithArgs("%@example.com").
		WillReturnRows(userRows("Ahmet Yılmaz (Güncellendi)"))
	mock.ExpectQuery(q("SELECT * FROM posts WHERE user_id IN (?)")).
		WithArgs(int64(1)).
		WillReturnRows(postRows())
}

func newDemoDB(t *testing.T) (*runtime.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return runtime.NewDB(conn, runtime.WithLogger(testutil.NewTestLogger(t))), mock
}

func TestDemoWalkthrough(t *testing.T) {
	db, mock := newDemoDB(t)
	expectWalkthrough(mock)

	report, err := demo(context.Background(), db, false)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, int64(1), report.User.Key())
	assert.Equal(t, stamp, report.RawTimestamps["created_at"])
	require.Len(t, report.Posts, 2)
	assert.Equal(t, int64(2), report.Posts[1].Key())
	assert.Equal(t, "ahmet@example.com", report.Found.StringValue("email"))
	assert.Len(t, report.FoundPosts, 2)
	require.NotNil(t, report.Author)
	assert.Equal(t, "Ahmet Yılmaz", report.Author.StringValue("name"))
	assert.Equal(t, "Ahmet Yılmaz (Güncellendi)", report.Renamed)
	assert.Len(t, report.AllUsers, 1)
	require.Len(t, report.ExampleUsers, 1)
	assert.Len(t, report.ExampleUsers[0].Posts, 2)
	assert.False(t, report.RolledBack)

	assert.Equal(t, int64(8), report.Stats.Queries)
	assert.Equal(t, int64(4), report.Stats.Execs)
	assert.Zero(t, report.Stats.Errors)

	var buf bytes.Buffer
	prev := output.Out
	output.Out = &buf
	t.Cleanup(func() { output.Out = prev })

	printDemo(report)
	out := buf.String()
	assert.Contains(t, out, "Created Ahmet Yılmaz (ID: 1)")
	assert.Contains(t, out, "Author: Ahmet Yılmaz (ID: 1)")
	assert.Contains(t, out, "Renamed to Ahmet Yılmaz (Güncellendi)")
	assert.Contains(t, out, "ahmet@example.com): 2 posts")
	assert.NotContains(t, out, "rolled back")
}

func TestDemoRollback(t *testing.T) {
	db, mock := newDemoDB(t)
	mock.ExpectBegin()
	expectWalkthrough(mock)
	mock.ExpectRollback()

	report, err := demo(context.Background(), db, true)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.True(t, report.RolledBack)
	assert.False(t, db.InTransaction())
}

func TestDemoFailure(t *testing.T) {
	db, mock := newDemoDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(q("INSERT INTO users")).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	report, err := demo(context.Background(), db, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Nil(t, report)
	require.NoError(t, mock.ExpectationsWereMet())
}
