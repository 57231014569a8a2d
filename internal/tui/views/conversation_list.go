package views

import (
	"fmt"
	"strings"

	"github.com/matheus3301/puthype/internal/conversation"
	"github.com/matheus3301/puthype/internal/tui/model"
	"github.com/matheus3301/puthype/internal/tui/ui"
	"github.com/rivo/tview"
)

// ConversationList is the tabbed contact list.
type ConversationList struct {
	*tview.Table
	theme   *ui.Theme
	state   conversation.State
	tab     conversation.Tab
	filter  string
	visible []conversation.Contact
}

// NewConversationList creates a new conversation list table.
func NewConversationList(theme *ui.Theme) *ConversationList {
	cl := &ConversationList{
		Table: newTable(theme, " Chats "),
		theme: theme,
	}
	cl.render()
	return cl
}

// Name implements Component.
func (cl *ConversationList) Name() string { return "Chats" }

// Hints implements Component.
func (cl *ConversationList) Hints() []ui.MenuHint {
	hints := []ui.MenuHint{
		{Key: "Enter", Description: "Open"},
		{Key: "Tab", Description: "Next tab"},
		{Key: "1-4", Description: "Jump to tab", Numeric: true},
		{Key: "d", Description: "Details"},
	}
	switch cl.tab {
	case conversation.TabTrash:
		hints = append(hints,
			ui.MenuHint{Key: "r", Description: "Restore"},
			ui.MenuHint{Key: "x", Description: "Delete"})
	default:
		hints = append(hints,
			ui.MenuHint{Key: "f", Description: "Favorite"},
			ui.MenuHint{Key: "t", Description: "Trash"})
	}
	return append(hints,
		ui.MenuHint{Key: "a", Description: "Find people"},
		ui.MenuHint{Key: "e", Description: "Networking"},
		ui.MenuHint{Key: "n", Description: "Notifications"},
		ui.MenuHint{Key: "p", Description: "Profile"})
}

// Update replaces the conversation state.
func (cl *ConversationList) Update(st conversation.State) {
	cl.state = st
	cl.render()
}

// SetTab switches the visible bucket.
func (cl *ConversationList) SetTab(t conversation.Tab) {
	cl.tab = t
	cl.Select(1, 0)
	cl.render()
}

// Tab returns the visible bucket.
func (cl *ConversationList) Tab() conversation.Tab { return cl.tab }

// SetFilter narrows the rows to names containing filter.
func (cl *ConversationList) SetFilter(filter string) {
	cl.filter = filter
	cl.render()
}

// Filter returns the active filter text.
func (cl *ConversationList) Filter() string { return cl.filter }

// ClearFilter clears the active filter.
func (cl *ConversationList) ClearFilter() { cl.SetFilter("") }

func (cl *ConversationList) tabStrip() string {
	parts := make([]string, len(conversation.Tabs))
	for i, t := range conversation.Tabs {
		label := t.String()
		if n := len(cl.state.Bucket(t)); n > 0 {
			label = fmt.Sprintf("%s(%d)", label, n)
		}
		if t == cl.tab {
			label = "[" + ui.Tag(cl.theme.CrumbActiveBg) + "::b]" + label + "[-:-:-]"
		}
		parts[i] = label
	}
	return strings.Join(parts, " ")
}

func (cl *ConversationList) render() {
	cl.Clear()
	third := "FAV"
	if cl.tab == conversation.TabTrash {
		third = "TRASHED"
	}
	headerRow(cl.Table, cl.theme, "NAME", "USERNAME", "UNREAD", third)

	cl.visible = model.FilterContacts(cl.state.Bucket(cl.tab), cl.filter)
	for i, c := range cl.visible {
		row := i + 1
		name := cell(cl.theme, c.FullName).SetExpansion(1)
		unread := cell(cl.theme, "")
		if c.Unread > 0 {
			name.SetTextColor(cl.theme.UnreadColor)
			unread = cell(cl.theme, fmt.Sprintf("%d", c.Unread)).SetTextColor(cl.theme.UnreadColor)
		}
		mark := cell(cl.theme, "")
		switch {
		case cl.tab == conversation.TabTrash:
			mark = cell(cl.theme, formatTimestamp(c.TrashedAt))
		case c.Favorite:
			mark = cell(cl.theme, "★").SetTextColor(cl.theme.FavoriteColor)
		}
		cl.SetCell(row, 0, name)
		cl.SetCell(row, 1, cell(cl.theme, "@"+c.Username))
		cl.SetCell(row, 2, unread.SetAlign(tview.AlignRight))
		cl.SetCell(row, 3, mark.SetAlign(tview.AlignRight))
	}

	title := " Chats " + cl.tabStrip() + " "
	if cl.filter != "" {
		title += fmt.Sprintf("filter: %s ", tview.Escape(cl.filter))
	}
	cl.SetTitle(title)
}

// Selected returns the contact under the cursor.
func (cl *ConversationList) Selected() (conversation.Contact, bool) {
	idx, ok := selectedRow(cl.Table, len(cl.visible))
	if !ok {
		return conversation.Contact{}, false
	}
	return cl.visible[idx], true
}

// Visible returns the rows currently shown.
func (cl *ConversationList) Visible() []conversation.Contact {
	return cl.visible
}
