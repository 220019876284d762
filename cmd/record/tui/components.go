package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/marshallshelly/pebble-record/pkg/model"
)

// ConfirmationDialog represents a yes/no confirmation dialog
type ConfirmationDialog struct {
	Title       string
	Message     string
	YesSelected bool
}

// NewConfirmationDialog creates a dialog with No preselected.
func NewConfirmationDialog(title, message string) ConfirmationDialog {
	return ConfirmationDialog{Title: title, Message: message}
}

// Update moves the selection. It reports whether enter was pressed.
func (d *ConfirmationDialog) Update(msg tea.Msg) (decided bool) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return false
	}
	switch key.String() {
	case "left", "h", "y":
		d.YesSelected = true
		return key.String() == "y"
	case "right", "l", "n":
		d.YesSelected = false
		return key.String() == "n"
	case "tab":
		d.YesSelected = !d.YesSelected
	case "enter":
		return true
	}
	return false
}

// View renders the confirmation dialog
func (d ConfirmationDialog) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(d.Title))
	b.WriteString("\n\n")
	b.WriteString(d.Message)
	b.WriteString("\n\n")

	yesButton := inactiveButtonStyle.Render("Yes")
	noButton := inactiveButtonStyle.Render("No")
	if d.YesSelected {
		yesButton = activeButtonStyle.Render("Yes")
	} else {
		noButton = activeButtonStyle.Render("No")
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Left, yesButton, "  ", noButton))
	b.WriteString("\n")
	b.WriteString(help([2]string{"←/→", "choose"}, [2]string{"enter", "confirm"}, [2]string{"esc", "cancel"}))

	return boxStyle.Render(b.String())
}

// UserItem is a user in the browse list together with its loaded posts.
type UserItem struct {
	User  *model.Entity
	Posts []*model.Entity
}

func (i UserItem) FilterValue() string {
	return i.User.StringValue("name") + " " + i.User.StringValue("email")
}

func (i UserItem) Title() string {
	return fmt.Sprintf("#%v %s", i.User.Key(), i.User.StringValue("name"))
}

func (i UserItem) Description() string {
	return mutedStyle.Render(i.User.StringValue("email")+" · ") + FormatCount(len(i.Posts), "post")
}

// UserItemDelegate renders UserItem entries.
type UserItemDelegate struct{}

func (d UserItemDelegate) Height() int                             { return 2 }
func (d UserItemDelegate) Spacing() int                            { return 1 }
func (d UserItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d UserItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(UserItem)
	if !ok {
		return
	}

	var s string
	if index == m.Index() {
		s = selectedItemStyle.Render("▸ " + i.Title() + "\n  " + i.Description())
	} else {
		s = unselectedItemStyle.Render("  " + i.Title() + "\n  " + i.Description())
	}

	_, _ = fmt.Fprint(w, s)
}

// PostsView lists a user's posts.
type PostsView struct {
	Item UserItem
}

// View renders the user's details followed by each post.
func (p PostsView) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(p.Item.User.StringValue("name")))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(p.Item.User.StringValue("email")))
	b.WriteString("\n")
	if joined := p.Item.User.StringValue("created_at"); joined != "" {
		b.WriteString(mutedStyle.Render("joined " + joined))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(p.Item.Posts) == 0 {
		b.WriteString(mutedStyle.Render("No posts yet"))
	}
	for i, post := range p.Item.Posts {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(infoStyle.Render(post.StringValue("title")))
		b.WriteString("\n")
		b.WriteString(post.StringValue("content"))
	}

	b.WriteString("\n")
	b.WriteString(help([2]string{"esc", "back"}, [2]string{"d", "delete user"}, [2]string{"q", "quit"}))

	return boxStyle.Render(b.String())
}
