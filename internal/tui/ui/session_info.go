package ui

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// SessionData is what the header shows about the client slot and daemon.
type SessionData struct {
	Session     string
	Email       string
	DaemonState string
	BlobBackend string
	Users       int
	Messages    int
	Unread      int
	Uptime      time.Duration
}

// SessionInfo displays session metadata in the header.
type SessionInfo struct {
	*tview.TextView
	theme *Theme
}

// NewSessionInfo creates a new session info panel.
func NewSessionInfo(theme *Theme) *SessionInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)

	return &SessionInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders the session info.
func (si *SessionInfo) Update(data SessionData) {
	si.Clear()

	email := data.Email
	if email == "" {
		email = "signed out"
	}
	state := data.DaemonState
	if state == "" {
		state = "UNREACHABLE"
	}

	rows := []struct {
		label string
		value string
	}{
		{"Session:", data.Session},
		{"User:", email},
		{"Daemon:", state},
		{"Blobs:", data.BlobBackend},
		{"Users:", fmt.Sprintf("%d", data.Users)},
		{"Msgs:", fmt.Sprintf("%d", data.Messages)},
		{"Unread:", fmt.Sprintf("%d", data.Unread)},
		{"Uptime:", formatDuration(data.Uptime)},
	}
	fg := Tag(si.theme.FgColor)
	counter := Tag(si.theme.CounterColor)
	for i, r := range rows {
		if i > 0 {
			_, _ = fmt.Fprint(si, "\n")
		}
		_, _ = fmt.Fprintf(si, "[%s::b]%-8s[-:-:-] [%s]%s[-]", fg, r.label, counter, tview.Escape(r.value))
	}
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
