package views

import (
	"fmt"

	"github.com/matheus3301/puthype/internal/store"
	"github.com/matheus3301/puthype/internal/tui/ui"
	"github.com/rivo/tview"
)

// EventView shows one event. A private event's owner also sees the invite
// code as text and as a QR block to share.
type EventView struct {
	*tview.TextView
	theme *ui.Theme
	event store.Event
}

// NewEventView creates a new event view.
func NewEventView(theme *ui.Theme) *EventView {
	tv := newTextView(theme, " Event ")
	tv.SetScrollable(true)
	return &EventView{TextView: tv, theme: theme}
}

// Name implements Component.
func (ev *EventView) Name() string {
	if ev.event.Title != "" {
		return ev.event.Title
	}
	return "Event"
}

// Hints implements Component.
func (ev *EventView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "j/k", Description: "Scroll"},
		{Key: "Esc", Description: "Back"},
	}
}

// Update renders e.
func (ev *EventView) Update(e store.Event) {
	ev.event = e
	ev.Clear()
	ev.SetTitle(fmt.Sprintf(" %s ", display(e.Title)))

	fg := ui.Tag(ev.theme.FgColor)
	val := ui.Tag(ev.theme.CounterColor)
	rows := [][2]string{
		{"When", formatSchedule(e.ScheduledAt)},
		{"Where", e.Location},
		{"Interest", e.Tag},
		{"Privacy", e.Privacy},
	}
	if e.VideoLink != "" {
		rows = append(rows, [2]string{"Video", e.VideoLink})
	}
	if e.InviteCode != "" {
		rows = append(rows, [2]string{"Invite", e.InviteCode})
	}
	for _, r := range rows {
		_, _ = fmt.Fprintf(ev, " [%s::b]%-9s[-:-:-] [%s]%s[-]\n", fg, r[0]+":", val, display(r[1]))
	}
	_, _ = fmt.Fprintf(ev, "\n %s\n", display(e.Description))

	if e.InviteCode == "" {
		return
	}
	qr, err := renderQR(e.InviteCode)
	if err != nil {
		_, _ = fmt.Fprintf(ev, "\n [::d](invite QR unavailable: %s)[-:-:-]\n", tview.Escape(err.Error()))
		return
	}
	_, _ = fmt.Fprintf(ev, "\n [::b]Scan to join:[-:-:-]\n%s", qr)
}
