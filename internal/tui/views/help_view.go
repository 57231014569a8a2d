package views

import (
	"fmt"
	"strings"

	"github.com/matheus3301/puthype/internal/tui/ui"
	"github.com/rivo/tview"
)

var helpSections = []struct {
	title string
	keys  [][2]string
}{
	{"Global", [][2]string{
		{":", "Command mode"},
		{"/", "Filter the list"},
		{"?", "This help"},
		{"Esc", "Back"},
		{"q", "Back, or quit from the chats"},
		{"Ctrl-C", "Quit immediately"},
	}},
	{"Chats", [][2]string{
		{"Enter", "Open conversation"},
		{"Tab / Shift-Tab", "Next / previous tab"},
		{"1-4", "Added, Favorites, Unadded, Trash"},
		{"f", "Toggle favorite"},
		{"t", "Move to trash"},
		{"r", "Restore from trash"},
		{"x", "Delete a trashed conversation"},
		{"d", "Contact details"},
		{"a / e / n / p", "People, networking, notifications, profile"},
	}},
	{"Conversation", [][2]string{
		{"i", "Focus the composer"},
		{"Enter", "Send (in the composer)"},
		{"1-3", "Quick reply on an empty thread"},
		{"c", "Clear history for you"},
	}},
	{"Networking", [][2]string{
		{"Tab", "Communities / events"},
		{"1-8", "Show one interest"},
		{"0", "Back to my interests"},
		{"c / C", "New event / new community"},
	}},
	{"Commands", [][2]string{
		{":search <prefix>", "Find people"},
		{":chat <username>", "Open a conversation"},
		{":feed [events]", "Networking feed"},
		{":notifications", "Notifications"},
		{":profile", "Your profile"},
		{":status", "Refresh daemon status"},
		{":signout", "Sign out of this session"},
		{":quit", "Quit"},
	}},
}

// HelpView displays the key binding reference.
type HelpView struct {
	*tview.TextView
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := newTextView(theme, " Help ")
	tv.SetScrollable(true)
	tv.SetWordWrap(false)

	kc := ui.Tag(theme.MenuKeyColor)
	var b strings.Builder
	for _, s := range helpSections {
		fmt.Fprintf(&b, "\n  [::b]%s[-:-:-]\n\n", s.title)
		for _, k := range s.keys {
			fmt.Fprintf(&b, "  [%s]%-18s[-] %s\n", kc, tview.Escape(k[0]), k[1])
		}
	}
	tv.SetText(b.String())
	return &HelpView{TextView: tv}
}

// Name implements Component.
func (hv *HelpView) Name() string { return "Help" }

// Hints implements Component.
func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}
