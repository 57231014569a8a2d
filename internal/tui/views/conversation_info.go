package views

import (
	"fmt"

	"github.com/matheus3301/puthype/internal/conversation"
	"github.com/matheus3301/puthype/internal/tui/ui"
	"github.com/rivo/tview"
)

// ConversationInfo displays one contact of the conversation list.
type ConversationInfo struct {
	*tview.TextView
	theme *ui.Theme
}

// NewConversationInfo creates a new conversation info view.
func NewConversationInfo(theme *ui.Theme) *ConversationInfo {
	return &ConversationInfo{
		TextView: newTextView(theme, " Details "),
		theme:    theme,
	}
}

// Name implements Component.
func (ci *ConversationInfo) Name() string { return "Details" }

// Hints implements Component.
func (ci *ConversationInfo) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

// Update renders c as it appears under tab.
func (ci *ConversationInfo) Update(c conversation.Contact, tab conversation.Tab) {
	ci.Clear()
	fg := ui.Tag(ci.theme.FgColor)
	val := ui.Tag(ci.theme.CounterColor)

	favorite := "no"
	if c.Favorite {
		favorite = "yes"
	}
	rows := [][2]string{
		{"Name", c.FullName},
		{"Username", "@" + c.Username},
		{"Avatar", avatarLabel(c.Avatar)},
		{"List", tab.String()},
		{"Unread", fmt.Sprintf("%d", c.Unread)},
		{"Favorite", favorite},
	}
	if c.TrashedAt > 0 {
		rows = append(rows, [2]string{"Trashed", formatSchedule(c.TrashedAt)})
	}
	for _, r := range rows {
		_, _ = fmt.Fprintf(ci, " [%s::b]%-9s[-:-:-] [%s]%s[-]\n", fg, r[0]+":", val, display(r[1]))
	}
	ci.SetTitle(fmt.Sprintf(" %s ", display(c.FullName)))
}
