package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/puthype/internal/notify"
	"github.com/matheus3301/puthype/internal/tui/ui"
	"github.com/rivo/tview"
)

// NotificationView lists the signed-in user's notifications, newest first.
type NotificationView struct {
	*tview.Table
	theme *ui.Theme
	items []notify.Item
}

// NewNotificationView creates a new notification list.
func NewNotificationView(theme *ui.Theme) *NotificationView {
	nv := &NotificationView{
		Table: newTable(theme, " Notifications "),
		theme: theme,
	}
	nv.Update(nil)
	return nv
}

// Name implements Component.
func (nv *NotificationView) Name() string { return "Notifications" }

// Hints implements Component.
func (nv *NotificationView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Mark read"},
		{Key: "Esc", Description: "Back"},
	}
}

// Update replaces the list.
func (nv *NotificationView) Update(items []notify.Item) {
	row, col := nv.GetSelection()
	nv.items = items
	nv.Clear()
	headerRow(nv.Table, nv.theme, "MESSAGE", "FROM", "TIME")

	unread := 0
	for i, it := range items {
		msg := cell(nv.theme, it.Message).SetExpansion(1)
		if !it.Read {
			unread++
			msg.SetTextColor(nv.theme.UnreadColor).SetAttributes(tcell.AttrBold)
		}
		nv.SetCell(i+1, 0, msg)
		nv.SetCell(i+1, 1, cell(nv.theme, it.FromUserName))
		nv.SetCell(i+1, 2, cell(nv.theme, formatTimestamp(it.Timestamp)))
	}
	if row > 0 && row <= len(items) {
		nv.Select(row, col)
	}
	nv.SetTitle(fmt.Sprintf(" Notifications (%d unread) ", unread))
}

// Selected returns the notification under the cursor.
func (nv *NotificationView) Selected() (notify.Item, bool) {
	idx, ok := selectedRow(nv.Table, len(nv.items))
	if !ok {
		return notify.Item{}, false
	}
	return nv.items[idx], true
}
