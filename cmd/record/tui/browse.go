// Package tui implements the interactive user browser.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/marshallshelly/pebble-record/internal/models"
	"github.com/marshallshelly/pebble-record/pkg/builder"
	"github.com/marshallshelly/pebble-record/pkg/model"
	"github.com/marshallshelly/pebble-record/pkg/runtime"
)

// BrowseMode represents the current mode of the browser
type BrowseMode int

const (
	ModeLoading BrowseMode = iota
	ModeList
	ModeDetail
	ModeConfirm
	ModeError
)

// BrowseModel is the Bubbletea model for browsing users and their posts.
type BrowseModel struct {
	ctx          context.Context
	db           *runtime.DB
	mode         BrowseMode
	list         list.Model
	confirmation ConfirmationDialog
	selected     UserItem
	status       string
	err          error
	width        int
	height       int
}

// NewBrowseModel creates a browser over db.
func NewBrowseModel(ctx context.Context, db *runtime.DB) BrowseModel {
	l := list.New([]list.Item{}, UserItemDelegate{}, 0, 0)
	l.Title = "Users"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	return BrowseModel{ctx: ctx, db: db, mode: ModeLoading, list: l}
}

// Init loads the users.
func (m BrowseModel) Init() tea.Cmd {
	return tea.Batch(loadUsersCmd(m.ctx, m.db), tea.EnterAltScreen)
}

// Mode returns the current mode.
func (m BrowseModel) Mode() BrowseMode { return m.mode }

// Items returns the users in the list.
func (m BrowseModel) Items() []UserItem {
	items := make([]UserItem, 0, len(m.list.Items()))
	for _, it := range m.list.Items() {
		if u, ok := it.(UserItem); ok {
			items = append(items, u)
		}
	}
	return items
}

// Messages
type usersLoadedMsg struct {
	items []UserItem
}

type userDeletedMsg struct {
	item UserItem
}

type errorMsg struct {
	err error
}

// Commands
func loadUsersCmd(ctx context.Context, db *runtime.DB) tea.Cmd {
	return func() tea.Msg {
		users, err := models.User.Query(db).
			OrderByAsc(models.User.KeyName()).
			With("posts").
			Get(ctx)
		if err != nil {
			return errorMsg{err: fmt.Errorf("failed to load users: %w", err)}
		}

		items := make([]UserItem, 0, len(users))
		for _, u := range model.Entities(users) {
			posts, err := u.Many(ctx, "posts")
			if err != nil {
				return errorMsg{err: err}
			}
			items = append(items, UserItem{User: u, Posts: posts})
		}
		return usersLoadedMsg{items: items}
	}
}

// deleteUserCmd removes the user and their posts in one transaction.
func deleteUserCmd(ctx context.Context, db *runtime.DB, item UserItem) tea.Cmd {
	return func() tea.Msg {
		err := builder.Transaction(ctx, db, func(ctx context.Context) error {
			if _, err := models.Post.Query(db).WhereEq("user_id", item.User.Key()).Delete(ctx); err != nil {
				return fmt.Errorf("failed to delete posts: %w", err)
			}
			ok, err := item.User.Delete(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("user %v no longer exists", item.User.Key())
			}
			return nil
		})
		if err != nil {
			return errorMsg{err: err}
		}
		return userDeletedMsg{item: item}
	}
}

// Update handles messages
func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case usersLoadedMsg:
		items := make([]list.Item, len(msg.items))
		for i, it := range msg.items {
			items[i] = it
		}
		m.mode = ModeList
		return m, m.list.SetItems(items)

	case userDeletedMsg:
		m.status = fmt.Sprintf("Deleted %s", msg.item.User.StringValue("name"))
		m.mode = ModeLoading
		return m, loadUsersCmd(m.ctx, m.db)

	case errorMsg:
		m.mode = ModeError
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.mode {
		case ModeList:
			if m.list.FilterState() == list.Filtering {
				break
			}
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "r":
				m.status = ""
				m.mode = ModeLoading
				return m, loadUsersCmd(m.ctx, m.db)
			case "enter":
				if item, ok := m.list.SelectedItem().(UserItem); ok {
					m.selected = item
					m.mode = ModeDetail
				}
				return m, nil
			case "d":
				if item, ok := m.list.SelectedItem().(UserItem); ok {
					return m.confirmDelete(item), nil
				}
				return m, nil
			}

		case ModeDetail:
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "esc", "backspace":
				m.mode = ModeList
			case "d":
				return m.confirmDelete(m.selected), nil
			}
			return m, nil

		case ModeConfirm:
			if msg.String() == "esc" || msg.String() == "q" {
				m.mode = ModeList
				return m, nil
			}
			if m.confirmation.Update(msg) {
				m.mode = ModeList
				if m.confirmation.YesSelected {
					m.mode = ModeLoading
					return m, deleteUserCmd(m.ctx, m.db, m.selected)
				}
			}
			return m, nil

		case ModeError:
			switch msg.String() {
			case "q", "enter":
				return m, tea.Quit
			case "r":
				m.err = nil
				m.mode = ModeLoading
				return m, loadUsersCmd(m.ctx, m.db)
			}
			return m, nil
		}
	}

	if m.mode == ModeList {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m BrowseModel) confirmDelete(item UserItem) BrowseModel {
	m.selected = item
	m.confirmation = NewConfirmationDialog(
		"Delete User",
		fmt.Sprintf("Delete %s and %s?", item.User.StringValue("name"), FormatCount(len(item.Posts), "post")),
	)
	m.mode = ModeConfirm
	return m
}

// View renders the UI
func (m BrowseModel) View() string {
	switch m.mode {
	case ModeLoading:
		return mutedStyle.Render("Loading users...")

	case ModeList:
		footer := help(
			[2]string{"↑/↓", "navigate"},
			[2]string{"enter", "posts"},
			[2]string{"d", "delete"},
			[2]string{"r", "reload"},
			[2]string{"q", "quit"},
		)
		if m.status != "" {
			footer = successStyle.Render("✓ "+m.status) + "\n" + footer
		}
		return lipgloss.JoinVertical(lipgloss.Left, m.list.View(), footer)

	case ModeDetail:
		return PostsView{Item: m.selected}.View()

	case ModeConfirm:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.confirmation.View())

	case ModeError:
		msg := titleStyle.Render("Something went wrong") + "\n" +
			errorStyle.Render(m.err.Error()) + "\n" +
			help([2]string{"r", "retry"}, [2]string{"enter/q", "exit"})
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, boxStyle.Render(msg))
	}

	return "Unknown mode"
}

// RunBrowseUI starts the interactive browser
func RunBrowseUI(ctx context.Context, db *runtime.DB) error {
	p := tea.NewProgram(NewBrowseModel(ctx, db), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
