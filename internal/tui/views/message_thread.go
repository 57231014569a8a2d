package views

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/puthype/internal/tui/model"
	"github.com/matheus3301/puthype/internal/tui/ui"
	"github.com/rivo/tview"
)

// MessageThread displays messages and a composer for one contact.
type MessageThread struct {
	*tview.Flex
	theme       *ui.Theme
	messages    *tview.TextView
	composer    *tview.InputField
	thread      model.Thread
	me          string
	suggestions []string
	onSend      func(text string)
}

// NewMessageThread creates a new message thread view.
func NewMessageThread(theme *ui.Theme) *MessageThread {
	messages := newTextView(theme, " Messages ")
	messages.SetScrollable(true)

	composer := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)
	composer.SetBorder(true)
	composer.SetBorderColor(theme.BorderColor)
	composer.SetBackgroundColor(theme.BgColor)
	composer.SetFieldBackgroundColor(theme.BgColor)
	composer.SetFieldTextColor(theme.FgColor)
	composer.SetLabelColor(theme.MenuKeyColor)
	composer.SetTitle(" Compose (i to focus) ")
	composer.SetTitleColor(theme.TitleColor)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(messages, 0, 1, true).
		AddItem(composer, 3, 0, false)

	mt := &MessageThread{
		Flex:     flex,
		theme:    theme,
		messages: messages,
		composer: composer,
	}

	composer.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := strings.TrimSpace(composer.GetText())
		if text != "" && mt.onSend != nil {
			mt.onSend(text)
			composer.SetText("")
		}
	})

	return mt
}

// Name implements Component.
func (mt *MessageThread) Name() string {
	if mt.thread.Peer.FullName != "" {
		return mt.thread.Peer.FullName
	}
	return "Messages"
}

// Hints implements Component.
func (mt *MessageThread) Hints() []ui.MenuHint {
	hints := []ui.MenuHint{
		{Key: "i", Description: "Compose"},
		{Key: "Enter", Description: "Send"},
	}
	if len(mt.suggestions) > 0 {
		hints = append(hints, ui.MenuHint{Key: fmt.Sprintf("1-%d", len(mt.suggestions)), Description: "Quick reply", Numeric: true})
	}
	return append(hints,
		ui.MenuHint{Key: "c", Description: "Clear history"},
		ui.MenuHint{Key: "d", Description: "Details"},
		ui.MenuHint{Key: "Esc", Description: "Back"},
	)
}

// FocusTarget implements ui.Focusable.
func (mt *MessageThread) FocusTarget() tview.Primitive { return mt.messages }

// SetOnSend sets the callback when a message is sent.
func (mt *MessageThread) SetOnSend(fn func(text string)) {
	mt.onSend = fn
}

// Open resets the view for a new thread.
func (mt *MessageThread) Open(th model.Thread, me string) {
	mt.composer.SetText("")
	mt.Update(th, me)
}

// Update renders th from me's point of view, oldest message first. An
// empty thread lists the quick replies.
func (mt *MessageThread) Update(th model.Thread, me string) {
	mt.thread = th
	mt.me = me
	mt.messages.Clear()
	mt.messages.SetTitle(fmt.Sprintf(" %s @%s ", display(th.Peer.FullName), display(th.Peer.Username)))

	mt.suggestions = nil
	if len(th.Messages) == 0 {
		mt.suggestions = th.Suggestions
		_, _ = fmt.Fprint(mt.messages, "\n [::d]No messages yet. Say hi![-:-:-]\n\n")
		for i, s := range th.Suggestions {
			_, _ = fmt.Fprintf(mt.messages, " [%s::b]%d[-:-:-] %s\n", ui.Tag(mt.theme.NumericKeyColor), i+1, display(s))
		}
		return
	}

	for _, m := range th.Messages {
		sender := th.Peer.FullName
		color := mt.theme.FgColor
		status := ""
		if m.SenderID == me {
			sender = "You"
			color = mt.theme.MineColor
			if m.Read {
				status = " ✓✓"
			} else {
				status = " ✓"
			}
		}
		_, _ = fmt.Fprintf(mt.messages, "[%s::b]%s[-:-:-] [::d]%s%s[-:-:-]\n%s\n\n",
			ui.Tag(color), display(sender), formatTimestamp(m.Timestamp), status, display(m.Text))
	}
	mt.messages.ScrollToEnd()
}

// Suggestion returns quick reply n (1-based) while the thread is empty.
func (mt *MessageThread) Suggestion(n int) (string, bool) {
	if n < 1 || n > len(mt.suggestions) {
		return "", false
	}
	return mt.suggestions[n-1], true
}

// Messages returns the messages text view.
func (mt *MessageThread) Messages() *tview.TextView {
	return mt.messages
}

// Composer returns the composer input field.
func (mt *MessageThread) Composer() *tview.InputField {
	return mt.composer
}

// Text returns the rendered thread without color tags.
func (mt *MessageThread) Text() string {
	return mt.messages.GetText(true)
}
