package tui

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marshallshelly/pebble-record/internal/models"
	"github.com/marshallshelly/pebble-record/internal/testutil"
	"github.com/marshallshelly/pebble-record/pkg/builder"
	"github.com/marshallshelly/pebble-record/pkg/model"
	"github.com/marshallshelly/pebble-record/pkg/runtime"
)

func newMockDB(t *testing.T) (*runtime.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return runtime.NewDB(conn, runtime.WithLogger(testutil.NewTestLogger(t))), mock
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m BrowseModel, msg tea.Msg) (BrowseModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	bm, ok := next.(BrowseModel)
	require.True(t, ok)
	return bm, cmd
}

func sampleItems(db *runtime.DB) []UserItem {
	alice := models.User.Hydrate(db, builder.RecordFromMap(map[string]any{
		"id": int64(1), "name": "Alice", "email": "alice@example.com", "created_at": "2024-06-01 12:00:00",
	}))
	bob := models.User.Hydrate(db, builder.RecordFromMap(map[string]any{
		"id": int64(2), "name": "Bob", "email": "bob@example.com",
	}))
	post := models.Post.Hydrate(db, builder.RecordFromMap(map[string]any{
		"id": int64(10), "title": "Hello", "content": "First post", "user_id": int64(1),
	}))
	return []UserItem{
		{User: alice, Posts: []*model.Entity{post}},
		{User: bob, Posts: []*model.Entity{}},
	}
}

func loaded(t *testing.T, db *runtime.DB) BrowseModel {
	t.Helper()
	m := NewBrowseModel(context.Background(), db)
	assert.Equal(t, ModeLoading, m.Mode())

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m, _ = update(t, m, usersLoadedMsg{items: sampleItems(db)})
	require.Equal(t, ModeList, m.Mode())
	return m
}

func TestLoadUsers(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users ORDER BY id ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).
			AddRow(int64(1), "Alice", "alice@example.com").
			AddRow(int64(2), "Bob", "bob@example.com"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM posts WHERE user_id IN (?, ?)")).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "user_id"}).
			AddRow(int64(10), "Hello", int64(1)).
			AddRow(int64(11), "Again", int64(1)))

	msg := loadUsersCmd(context.Background(), db)()
	require.NoError(t, mock.ExpectationsWereMet())

	res, ok := msg.(usersLoadedMsg)
	require.True(t, ok, "got %T", msg)
	require.Len(t, res.items, 2)
	assert.Equal(t, "Alice", res.items[0].User.StringValue("name"))
	assert.Len(t, res.items[0].Posts, 2)
	assert.Empty(t, res.items[1].Posts)
}

func TestLoadUsersError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT").WillReturnError(assert.AnError)

	msg := loadUsersCmd(context.Background(), db)()

	res, ok := msg.(errorMsg)
	require.True(t, ok, "got %T", msg)
	assert.ErrorIs(t, res.err, assert.AnError)

	m := NewBrowseModel(context.Background(), db)
	m, _ = update(t, m, res)
	assert.Equal(t, ModeError, m.Mode())
	assert.Contains(t, m.View(), "failed to load users")
}

func TestBrowseDetail(t *testing.T) {
	m := loaded(t, nil)
	require.Len(t, m.Items(), 2)

	m, _ = update(t, m, key("enter"))
	require.Equal(t, ModeDetail, m.Mode())

	view := m.View()
	assert.Contains(t, view, "Alice")
	assert.Contains(t, view, "Hello")
	assert.Contains(t, view, "First post")
	assert.Contains(t, view, "joined 2024-06-01 12:00:00")

	m, _ = update(t, m, key("esc"))
	assert.Equal(t, ModeList, m.Mode())
}

func TestBrowseDeleteCancelled(t *testing.T) {
	m := loaded(t, nil)

	m, _ = update(t, m, key("d"))
	require.Equal(t, ModeConfirm, m.Mode())
	assert.Contains(t, m.View(), "Delete Alice and 1 post?")

	m, cmd := update(t, m, key("n"))
	assert.Equal(t, ModeList, m.Mode())
	assert.Nil(t, cmd)

	m, _ = update(t, m, key("d"))
	m, _ = update(t, m, key("esc"))
	assert.Equal(t, ModeList, m.Mode())
}

func TestBrowseDeleteConfirmed(t *testing.T) {
	db, mock := newMockDB(t)
	m := loaded(t, db)

	m, _ = update(t, m, key("d"))
	m, _ = update(t, m, key("left"))
	m, cmd := update(t, m, key("enter"))
	require.Equal(t, ModeLoading, m.Mode())
	require.NotNil(t, cmd)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM posts WHERE user_id = ?")).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = ?")).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	msg := cmd()
	require.NoError(t, mock.ExpectationsWereMet())

	deleted, ok := msg.(userDeletedMsg)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, int64(1), deleted.item.User.Key())
	assert.False(t, deleted.item.User.Exists())

	m, cmd = update(t, m, deleted)
	assert.Equal(t, ModeLoading, m.Mode())
	assert.NotNil(t, cmd)
}

func TestBrowseDeleteRolledBack(t *testing.T) {
	db, mock := newMockDB(t)
	item := sampleItems(db)[1]

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM posts WHERE user_id = ?")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = ?")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	msg := deleteUserCmd(context.Background(), db, item)()
	require.NoError(t, mock.ExpectationsWereMet())

	res, ok := msg.(errorMsg)
	require.True(t, ok, "got %T", msg)
	assert.Contains(t, res.err.Error(), "no longer exists")
}

func TestConfirmationDialog(t *testing.T) {
	d := NewConfirmationDialog("Delete", "Sure?")
	assert.False(t, d.YesSelected)

	assert.False(t, d.Update(key("left")))
	assert.True(t, d.YesSelected)
	assert.False(t, d.Update(tea.KeyMsg{Type: tea.KeyTab}))
	assert.False(t, d.YesSelected)
	assert.True(t, d.Update(key("y")))
	assert.True(t, d.YesSelected)
	assert.True(t, d.Update(key("n")))
	assert.False(t, d.YesSelected)
	assert.True(t, d.Update(key("enter")))
	assert.False(t, d.Update(tea.WindowSizeMsg{}))

	view := d.View()
	assert.Contains(t, view, "Delete")
	assert.Contains(t, view, "Sure?")
}

func TestFormatCount(t *testing.T) {
	assert.Contains(t, FormatCount(0, "post"), "0 posts")
	assert.Contains(t, FormatCount(1, "post"), "1 post")
	assert.Contains(t, FormatCount(3, "post"), "3 posts")
}
