package views

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/matheus3301/puthype/internal/registration"
	"github.com/matheus3301/puthype/internal/store"
	"github.com/matheus3301/puthype/internal/tui/ui"
	"github.com/rivo/tview"
)

var stepTitles = [...]string{
	registration.StepName:        "What is your name?",
	registration.StepPhone:       "Your phone number",
	registration.StepCredentials: "E-mail and password",
	registration.StepUsername:    "Pick a username",
	registration.StepInterests:   "What are you into?",
	registration.StepAvatar:      "Choose an avatar",
}

// RegisterView walks a registration.Wizard one step per screen.
type RegisterView struct {
	*tview.Flex
	theme  *ui.Theme
	wizard *registration.Wizard
	form   *tview.Form
	status *tview.TextView

	onSubmit func(w *registration.Wizard)
	onCancel func()
}

// NewRegisterView creates the sign-up wizard.
func NewRegisterView(theme *ui.Theme) *RegisterView {
	rv := &RegisterView{
		theme:  theme,
		wizard: registration.NewWizard(),
		form:   newForm(theme, ""),
	}
	rv.status = tview.NewTextView().SetDynamicColors(true)
	rv.status.SetBackgroundColor(theme.BgColor)

	rv.Flex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(rv.form, 0, 1, true).
		AddItem(rv.status, 2, 0, false)
	rv.render()
	return rv
}

// Name implements Component.
func (rv *RegisterView) Name() string { return "Create account" }

// Hints implements Component.
func (rv *RegisterView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Press button"},
		{Key: "Esc", Description: "Back"},
	}
}

// FocusTarget implements ui.Focusable.
func (rv *RegisterView) FocusTarget() tview.Primitive { return rv.form }

// SetOnSubmit is called on the last step once every step validates.
func (rv *RegisterView) SetOnSubmit(fn func(w *registration.Wizard)) { rv.onSubmit = fn }

// SetOnCancel is called when Back is pressed on the first step.
func (rv *RegisterView) SetOnCancel(fn func()) { rv.onCancel = fn }

// Reset starts over with an empty form.
func (rv *RegisterView) Reset() {
	rv.wizard = registration.NewWizard()
	rv.status.Clear()
	rv.render()
}

// Wizard returns the wizard being edited.
func (rv *RegisterView) Wizard() *registration.Wizard { return rv.wizard }

// Next advances one step, or submits on the last one.
func (rv *RegisterView) Next() {
	if rv.wizard.Step() == registration.LastStep {
		if err := rv.wizard.Form.ValidateAll(); err != nil {
			rv.showValidation(err)
			return
		}
		rv.ShowMessage("Creating your account...")
		if rv.onSubmit != nil {
			rv.onSubmit(rv.wizard)
		}
		return
	}
	if err := rv.wizard.Next(); err != nil {
		rv.showValidation(err)
		return
	}
	rv.status.Clear()
	rv.render()
}

// Back returns one step, or cancels from the first.
func (rv *RegisterView) Back() {
	if !rv.wizard.Back() {
		if rv.onCancel != nil {
			rv.onCancel()
		}
		return
	}
	rv.status.Clear()
	rv.render()
}

func (rv *RegisterView) showValidation(err error) {
	var ve *registration.ValidationError
	if errors.As(err, &ve) && ve.Step != rv.wizard.Step() {
		// ValidateAll found an earlier step; walk back to it.
		for rv.wizard.Step() > ve.Step && rv.wizard.Back() {
		}
		rv.render()
	}
	rv.ShowError(err.Error())
}

// ShowMessage displays a status line under the form.
func (rv *RegisterView) ShowMessage(msg string) {
	rv.status.SetText(" " + tview.Escape(msg))
}

// ShowError displays an error line under the form.
func (rv *RegisterView) ShowError(msg string) {
	rv.status.SetText(" [" + ui.Tag(rv.theme.FlashErrColor) + "]" + tview.Escape(msg) + "[-]")
}

// Status returns the status line without color tags.
func (rv *RegisterView) Status() string {
	return rv.status.GetText(true)
}

func (rv *RegisterView) render() {
	step := rv.wizard.Step()
	f := &rv.wizard.Form
	rv.form.Clear(true)
	rv.form.SetTitle(fmt.Sprintf(" Create account %d/%d: %s ", step+1, registration.LastStep+1, stepTitles[step]))

	switch step {
	case registration.StepName:
		rv.form.AddInputField("Full name", f.FullName, 40, nil, func(s string) { f.FullName = s })
	case registration.StepPhone:
		rv.form.AddInputField("Phone", f.Phone, 20, nil, func(s string) { f.Phone = s })
	case registration.StepCredentials:
		rv.form.AddInputField("E-mail", f.Email, 40, nil, func(s string) { f.Email = s })
		rv.form.AddPasswordField("Password", f.Password, 40, '*', func(s string) { f.Password = s })
	case registration.StepUsername:
		rv.form.AddInputField("Username", f.Username, 30, nil, func(s string) { f.Username = s })
	case registration.StepInterests:
		for _, tag := range store.Interests {
			rv.form.AddCheckbox(tag, hasTag(f.Interests, tag), func(bool) {
				_ = rv.wizard.ToggleInterest(tag)
			})
		}
	case registration.StepAvatar:
		options := make([]string, registration.AvatarCount)
		for i := range options {
			options[i] = "Avatar " + strconv.Itoa(i+1)
		}
		rv.form.AddDropDown("Avatar", options, max(f.Avatar-1, 0), func(_ string, idx int) {
			if idx >= 0 {
				_ = rv.wizard.SelectAvatar(idx + 1)
			}
		})
	}

	rv.form.AddButton("Back", rv.Back)
	next := "Next"
	if step == registration.LastStep {
		next = "Create account"
	}
	rv.form.AddButton(next, rv.Next)
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
