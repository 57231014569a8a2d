package views

import (
	"strings"

	"github.com/matheus3301/puthype/internal/tui/ui"
	"github.com/rivo/tview"
)

// ResetView requests a password reset link and confirms it with the
// token from the mail.
type ResetView struct {
	*tview.Flex
	theme   *ui.Theme
	form    *tview.Form
	status  *tview.TextView
	email   string
	token   string
	newPass string

	onSend    func(email string)
	onConfirm func(token, password string)
}

// NewResetView creates the password reset screen.
func NewResetView(theme *ui.Theme) *ResetView {
	rv := &ResetView{theme: theme}

	rv.form = newForm(theme, " Reset password ")
	rv.form.AddInputField("E-mail", "", 40, nil, func(text string) { rv.email = text })
	rv.form.AddInputField("Reset token", "", 40, nil, func(text string) { rv.token = text })
	rv.form.AddPasswordField("New password", "", 40, '*', func(text string) { rv.newPass = text })
	rv.form.AddButton("Send link", func() {
		email := strings.TrimSpace(rv.email)
		if email == "" {
			rv.ShowError("please fill in your e-mail")
			return
		}
		if rv.onSend != nil {
			rv.onSend(email)
		}
	})
	rv.form.AddButton("Set password", func() {
		if strings.TrimSpace(rv.token) == "" || rv.newPass == "" {
			rv.ShowError("fill in the token and the new password")
			return
		}
		if rv.onConfirm != nil {
			rv.onConfirm(strings.TrimSpace(rv.token), rv.newPass)
		}
	})

	rv.status = tview.NewTextView().SetDynamicColors(true)
	rv.status.SetBackgroundColor(theme.BgColor)

	rv.Flex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(rv.form, 13, 0, true).
		AddItem(rv.status, 2, 0, false).
		AddItem(nil, 0, 1, false)
	return rv
}

// Name implements Component.
func (rv *ResetView) Name() string { return "Reset password" }

// Hints implements Component.
func (rv *ResetView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Esc", Description: "Back"},
	}
}

// FocusTarget implements ui.Focusable.
func (rv *ResetView) FocusTarget() tview.Primitive { return rv.form }

// SetOnSend sets the callback for the send-link button.
func (rv *ResetView) SetOnSend(fn func(email string)) { rv.onSend = fn }

// SetOnConfirm sets the callback for the set-password button.
func (rv *ResetView) SetOnConfirm(fn func(token, password string)) { rv.onConfirm = fn }

// Prefill sets the e-mail field.
func (rv *ResetView) Prefill(email string) {
	if f, ok := rv.form.GetFormItemByLabel("E-mail").(*tview.InputField); ok {
		f.SetText(email)
	}
	rv.status.Clear()
}

// ShowMessage displays a status line under the form.
func (rv *ResetView) ShowMessage(msg string) {
	rv.status.SetText(" " + tview.Escape(msg))
}

// ShowError displays an error line under the form.
func (rv *ResetView) ShowError(msg string) {
	rv.status.SetText(" [" + ui.Tag(rv.theme.FlashErrColor) + "]" + tview.Escape(msg) + "[-]")
}
