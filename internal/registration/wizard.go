// Package registration drives the six-step sign-up form and provisions the
// account together with its profile.
package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/matheus3301/puthype/internal/auth"
	"github.com/matheus3301/puthype/internal/store"
)

// Steps of the wizard.
const (
	StepName = iota
	StepPhone
	StepCredentials
	StepUsername
	StepInterests
	StepAvatar

	LastStep = StepAvatar
)

// Avatar indexes run from 1 to AvatarCount.
const AvatarCount = 11

// Form holds everything the wizard collects.
type Form struct {
	FullName  string   `json:"fullName"`
	Phone     string   `json:"phone"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	Username  string   `json:"username"`
	Interests []string `json:"gostos"`
	Avatar    int      `json:"avatar"`
}

// ValidationError blocks advancing past a step.
type ValidationError struct {
	Step    int
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validate checks the fields collected at step.
func (f *Form) Validate(step int) *ValidationError {
	blank := func(s string) bool { return strings.TrimSpace(s) == "" }
	switch step {
	case StepName:
		if blank(f.FullName) {
			return &ValidationError{step, "fullName", "please fill in your name"}
		}
	case StepPhone:
		if blank(f.Phone) {
			return &ValidationError{step, "phone", "please fill in your phone number"}
		}
	case StepCredentials:
		if blank(f.Email) {
			return &ValidationError{step, "email", "please fill in your e-mail"}
		}
		if f.Password == "" {
			return &ValidationError{step, "password", "please fill in a password"}
		}
	case StepUsername:
		if blank(f.Username) {
			return &ValidationError{step, "username", "please fill in a username"}
		}
	case StepInterests:
		if len(f.Interests) == 0 {
			return &ValidationError{step, "gostos", "please select at least one interest"}
		}
	case StepAvatar:
		if f.Avatar < 1 || f.Avatar > AvatarCount {
			return &ValidationError{step, "avatar", "please choose an avatar"}
		}
	}
	return nil
}

// ValidateAll checks every step in order and returns the first failure.
func (f *Form) ValidateAll() *ValidationError {
	for step := StepName; step <= LastStep; step++ {
		if err := f.Validate(step); err != nil {
			return err
		}
	}
	return nil
}

// Wizard walks a Form through its steps.
type Wizard struct {
	Form Form
	step int
}

// NewWizard starts at the first step with an empty form.
func NewWizard() *Wizard { return &Wizard{} }

// Step returns the current step index.
func (w *Wizard) Step() int { return w.step }

// Next validates the current step and advances. On the last step it only
// validates; Submit finishes the flow.
func (w *Wizard) Next() error {
	if err := w.Form.Validate(w.step); err != nil {
		return err
	}
	if w.step < LastStep {
		w.step++
	}
	return nil
}

// Back returns to the previous step and reports whether it moved.
func (w *Wizard) Back() bool {
	if w.step == 0 {
		return false
	}
	w.step--
	return true
}

// ToggleInterest selects tag, or deselects it if it was selected.
func (w *Wizard) ToggleInterest(tag string) error {
	if !store.IsInterest(tag) {
		return fmt.Errorf("unknown interest %q", tag)
	}
	for i, t := range w.Form.Interests {
		if t == tag {
			w.Form.Interests = append(w.Form.Interests[:i:i], w.Form.Interests[i+1:]...)
			return nil
		}
	}
	w.Form.Interests = append(w.Form.Interests, tag)
	return nil
}

// SelectAvatar picks avatar n.
func (w *Wizard) SelectAvatar(n int) error {
	if n < 1 || n > AvatarCount {
		return fmt.Errorf("avatar must be between 1 and %d", AvatarCount)
	}
	w.Form.Avatar = n
	return nil
}

// Provisioner creates an account and its profile.
type Provisioner interface {
	Provision(ctx context.Context, f Form) (auth.Identity, error)
}

// ErrNotReady is returned by Submit before the last step is reached.
var ErrNotReady = errors.New("registration is not complete")

// Outcome messages.
const (
	MsgEmailInUse   = "e-mail already in use, please sign in"
	MsgWeakPassword = "password must have at least 6 characters"
	MsgInvalidEmail = "invalid e-mail address"
	MsgGeneric      = "could not create the account, check the information provided"
)

// SubmitError is a failed submission with the message to show.
type SubmitError struct {
	Message string
	// RedirectToLogin is set when the e-mail already has an account.
	RedirectToLogin bool
	Err             error
}

func (e *SubmitError) Error() string { return e.Message }
func (e *SubmitError) Unwrap() error { return e.Err }

// Submit provisions the account once every step validates. It is only
// accepted on the last step.
func (w *Wizard) Submit(ctx context.Context, p Provisioner) (auth.Identity, error) {
	if w.step != LastStep {
		return auth.Identity{}, ErrNotReady
	}
	if err := w.Form.ValidateAll(); err != nil {
		return auth.Identity{}, err
	}
	id, err := p.Provision(ctx, w.Form)
	if err != nil {
		return auth.Identity{}, Classify(err)
	}
	return id, nil
}

// Classify maps a provisioning failure to its user-facing outcome.
func Classify(err error) *SubmitError {
	switch {
	case errors.Is(err, auth.ErrEmailInUse):
		return &SubmitError{Message: MsgEmailInUse, RedirectToLogin: true, Err: err}
	case errors.Is(err, auth.ErrWeakPassword):
		return &SubmitError{Message: MsgWeakPassword, Err: err}
	case errors.Is(err, auth.ErrInvalidEmail):
		return &SubmitError{Message: MsgInvalidEmail, Err: err}
	default:
		return &SubmitError{Message: MsgGeneric, Err: err}
	}
}
