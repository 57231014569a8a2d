package views

import (
	"fmt"
	"time"

	"github.com/matheus3301/puthype/internal/tui/ui"
	"github.com/rivo/tview"
)

// StatusBar is the bottom line: who is signed in, the daemon state and
// what is waiting to be read.
type StatusBar struct {
	*tview.TextView
	theme         *ui.Theme
	session       string
	user          string
	daemon        string
	unread        int
	notifications int
}

// NewStatusBar creates a new status bar.
func NewStatusBar(theme *ui.Theme, session string) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	sb := &StatusBar{TextView: tv, theme: theme, session: session}
	sb.render()
	return sb
}

// SetUser updates the signed-in user; "" means signed out.
func (sb *StatusBar) SetUser(user string) {
	sb.user = user
	sb.render()
}

// SetDaemon updates the daemon state.
func (sb *StatusBar) SetDaemon(state string) {
	sb.daemon = state
	sb.render()
}

// SetCounts updates the unread message and notification counts.
func (sb *StatusBar) SetCounts(unread, notifications int) {
	sb.unread = unread
	sb.notifications = notifications
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()
	user := sb.user
	if user == "" {
		user = "signed out"
	}
	daemon := sb.daemon
	if daemon == "" {
		daemon = "..."
	}
	counts := ""
	if sb.unread > 0 {
		counts += fmt.Sprintf(" | [%s]%d unread[-]", ui.Tag(sb.theme.UnreadColor), sb.unread)
	}
	if sb.notifications > 0 {
		counts += fmt.Sprintf(" | [%s]%d new[-]", ui.Tag(sb.theme.UnreadColor), sb.notifications)
	}
	_, _ = fmt.Fprintf(sb, " [::b]%s[-:-:-] | %s | %s%s | %s",
		tview.Escape(sb.session), tview.Escape(user), daemon, counts, time.Now().Format("15:04"))
}

// Text returns the bar without color tags.
func (sb *StatusBar) Text() string {
	return sb.GetText(true)
}
