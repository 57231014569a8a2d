package views

import (
	"strings"

	"github.com/matheus3301/puthype/internal/tui/ui"
	"github.com/rivo/tview"
)

// AuthView is the sign-in screen.
type AuthView struct {
	*tview.Flex
	theme    *ui.Theme
	form     *tview.Form
	status   *tview.TextView
	email    string
	password string

	onSignIn   func(email, password string)
	onRegister func()
	onForgot   func(email string)
}

// NewAuthView creates the sign-in form.
func NewAuthView(theme *ui.Theme) *AuthView {
	av := &AuthView{theme: theme}

	av.form = newForm(theme, " Sign in ")
	av.form.AddInputField("E-mail", "", 40, nil, func(text string) { av.email = text })
	av.form.AddPasswordField("Password", "", 40, '*', func(text string) { av.password = text })
	av.form.AddButton("Sign in", av.submit)
	av.form.AddButton("Create account", func() {
		if av.onRegister != nil {
			av.onRegister()
		}
	})
	av.form.AddButton("Forgot password", func() {
		if av.onForgot != nil {
			av.onForgot(strings.TrimSpace(av.email))
		}
	})

	av.status = tview.NewTextView().SetDynamicColors(true)
	av.status.SetBackgroundColor(theme.BgColor)

	av.Flex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(av.form, 11, 0, true).
		AddItem(av.status, 2, 0, false).
		AddItem(nil, 0, 1, false)
	return av
}

// Name implements Component.
func (av *AuthView) Name() string { return "Sign in" }

// Hints implements Component.
func (av *AuthView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Press button"},
		{Key: "Ctrl-C", Description: "Quit"},
	}
}

// FocusTarget implements ui.Focusable.
func (av *AuthView) FocusTarget() tview.Primitive { return av.form }

// SetOnSignIn sets the callback for the sign-in button.
func (av *AuthView) SetOnSignIn(fn func(email, password string)) { av.onSignIn = fn }

// SetOnRegister sets the callback for the create-account button.
func (av *AuthView) SetOnRegister(fn func()) { av.onRegister = fn }

// SetOnForgot sets the callback for the forgot-password button.
func (av *AuthView) SetOnForgot(fn func(email string)) { av.onForgot = fn }

func (av *AuthView) submit() {
	email := strings.TrimSpace(av.email)
	if email == "" || av.password == "" {
		av.ShowError("fill in your e-mail and password")
		return
	}
	av.ShowMessage("Signing in...")
	if av.onSignIn != nil {
		av.onSignIn(email, av.password)
	}
}

// Prefill sets the e-mail field and clears the password.
func (av *AuthView) Prefill(email string) {
	if f, ok := av.form.GetFormItemByLabel("E-mail").(*tview.InputField); ok {
		f.SetText(email)
	}
	av.ClearPassword()
	av.form.SetFocus(1)
}

// ClearPassword empties the password field.
func (av *AuthView) ClearPassword() {
	if f, ok := av.form.GetFormItemByLabel("Password").(*tview.InputField); ok {
		f.SetText("")
	}
}

// ShowMessage displays a status line under the form.
func (av *AuthView) ShowMessage(msg string) {
	av.status.SetText(" " + tview.Escape(msg))
}

// ShowError displays an error line under the form.
func (av *AuthView) ShowError(msg string) {
	av.status.SetText(" [" + ui.Tag(av.theme.FlashErrColor) + "]" + tview.Escape(msg) + "[-]")
}

// Status returns the status line without color tags.
func (av *AuthView) Status() string {
	return strings.TrimSpace(av.status.GetText(true))
}
