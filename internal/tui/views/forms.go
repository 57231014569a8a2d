package views

import (
	"errors"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/matheus3301/puthype/internal/discovery"
	"github.com/matheus3301/puthype/internal/profile"
	"github.com/matheus3301/puthype/internal/registration"
	"github.com/matheus3301/puthype/internal/store"
	"github.com/matheus3301/puthype/internal/tui/ui"
	"github.com/rivo/tview"
)

// ScheduleLayout is how event dates are typed.
const ScheduleLayout = "02/01/2006 15:04"

var errBadSchedule = errors.New("date must look like 31/12/2026 19:30")

func formHints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Press button"},
		{Key: "Esc", Description: "Cancel"},
	}
}

// ProfileForm edits the signed-in user's profile.
type ProfileForm struct {
	*tview.Form
	theme    *ui.Theme
	original store.User
	draft    store.User
	picture  string

	onSave   func(e profile.Edit, picturePath string)
	onCancel func()
}

// NewProfileForm creates an empty profile form.
func NewProfileForm(theme *ui.Theme) *ProfileForm {
	return &ProfileForm{
		Form:  newForm(theme, " Edit profile "),
		theme: theme,
	}
}

// Name implements Component.
func (pf *ProfileForm) Name() string { return "Edit" }

// Hints implements Component.
func (pf *ProfileForm) Hints() []ui.MenuHint { return formHints() }

// SetOnSave sets the callback of the save button.
func (pf *ProfileForm) SetOnSave(fn func(e profile.Edit, picturePath string)) { pf.onSave = fn }

// SetOnCancel sets the callback of the cancel button.
func (pf *ProfileForm) SetOnCancel(fn func()) {
	pf.onCancel = fn
	pf.SetCancelFunc(fn)
}

// Load fills the form from u.
func (pf *ProfileForm) Load(u store.User) {
	pf.original = u
	pf.draft = u
	pf.draft.Interests = slices.Clone(u.Interests)
	pf.picture = ""
	d := &pf.draft

	pf.Clear(true)
	pf.AddInputField("Full name", d.FullName, 40, nil, func(s string) { d.FullName = s })
	pf.AddInputField("Phone", d.Phone, 20, nil, func(s string) { d.Phone = s })
	pf.AddInputField("Username", d.Username, 30, nil, func(s string) { d.Username = s })
	for _, tag := range store.Interests {
		pf.AddCheckbox(tag, hasTag(d.Interests, tag), func(on bool) {
			d.Interests = slices.DeleteFunc(d.Interests, func(t string) bool { return t == tag })
			if on {
				d.Interests = append(d.Interests, tag)
			}
		})
	}
	options := make([]string, registration.AvatarCount)
	for i := range options {
		options[i] = "Avatar " + strconv.Itoa(i+1)
	}
	pf.AddDropDown("Avatar", options, max(d.Avatar-1, 0), func(_ string, idx int) {
		if idx >= 0 {
			d.Avatar = idx + 1
		}
	})
	pf.AddInputField("Picture file", "", 40, nil, func(s string) { pf.picture = s })
	pf.AddButton("Save", func() {
		if pf.onSave != nil {
			pf.onSave(pf.Edit(), strings.TrimSpace(pf.picture))
		}
	})
	pf.AddButton("Cancel", func() {
		if pf.onCancel != nil {
			pf.onCancel()
		}
	})
}

// Edit returns only the fields that differ from the loaded profile.
func (pf *ProfileForm) Edit() profile.Edit {
	var e profile.Edit
	o, d := pf.original, pf.draft
	if d.FullName != o.FullName {
		e.FullName = &d.FullName
	}
	if d.Phone != o.Phone {
		e.Phone = &d.Phone
	}
	if d.Username != o.Username {
		e.Username = &d.Username
	}
	if !sameTags(d.Interests, o.Interests) {
		tags := slices.Clone(d.Interests)
		e.Interests = &tags
	}
	if d.Avatar != o.Avatar {
		e.Avatar = &d.Avatar
	}
	return e
}

func sameTags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for _, t := range a {
		if !hasTag(b, t) {
			return false
		}
	}
	return true
}

// EventForm creates an event.
type EventForm struct {
	*tview.Form
	theme  *ui.Theme
	in     discovery.EventInput
	when   string
	onSave   func(in discovery.EventInput)
	onErr    func(err error)
	onCancel func()
}

// NewEventForm creates an empty event form.
func NewEventForm(theme *ui.Theme) *EventForm {
	return &EventForm{
		Form:  newForm(theme, " New event "),
		theme: theme,
	}
}

// Name implements Component.
func (ef *EventForm) Name() string { return "New event" }

// Hints implements Component.
func (ef *EventForm) Hints() []ui.MenuHint { return formHints() }

// SetOnSave sets the callback run with a parsed input.
func (ef *EventForm) SetOnSave(fn func(in discovery.EventInput)) { ef.onSave = fn }

// SetOnError sets the callback run when the form cannot be parsed.
func (ef *EventForm) SetOnError(fn func(err error)) { ef.onErr = fn }

// SetOnCancel sets the callback of the cancel button.
func (ef *EventForm) SetOnCancel(fn func()) {
	ef.onCancel = fn
	ef.SetCancelFunc(fn)
}

// Reset clears the form. tag preselects an interest.
func (ef *EventForm) Reset(tag string) {
	ef.in = discovery.EventInput{Tag: tag, Privacy: store.Public, Image: discovery.EventImages[0]}
	ef.when = ""
	in := &ef.in

	ef.Clear(true)
	ef.AddInputField("Title", "", 50, nil, func(s string) { in.Title = s })
	ef.AddTextArea("Description", "", 50, 4, 0, func(s string) { in.Description = s })
	ef.AddInputField("When", "", 18, nil, func(s string) { ef.when = s })
	ef.AddInputField("Where", "", 50, nil, func(s string) { in.Location = s })
	ef.AddInputField("Video link", "", 50, nil, func(s string) { in.VideoLink = strings.TrimSpace(s) })
	ef.AddDropDown("Interest", store.Interests, max(slices.Index(store.Interests, tag), 0), func(opt string, idx int) {
		if idx >= 0 {
			in.Tag = opt
		}
	})
	ef.AddDropDown("Privacy", []string{store.Public, store.Private}, 0, func(opt string, idx int) {
		if idx >= 0 {
			in.Privacy = opt
		}
	})
	ef.AddInputField("Invite code", "", 12, nil, func(s string) { in.InviteCode = strings.TrimSpace(s) })
	ef.AddDropDown("Image", discovery.EventImages, 0, func(opt string, idx int) {
		if idx >= 0 {
			in.Image = opt
		}
	})
	ef.AddButton("Publish", ef.submit)
	ef.AddButton("Cancel", func() {
		if ef.onCancel != nil {
			ef.onCancel()
		}
	})
}

func (ef *EventForm) submit() {
	in, err := ef.Input()
	if err != nil {
		if ef.onErr != nil {
			ef.onErr(err)
		}
		return
	}
	if ef.onSave != nil {
		ef.onSave(in)
	}
}

// Input returns the typed event. An empty date means now.
func (ef *EventForm) Input() (discovery.EventInput, error) {
	in := ef.in
	if when := strings.TrimSpace(ef.when); when != "" {
		t, err := time.ParseInLocation(ScheduleLayout, when, time.Local)
		if err != nil {
			return in, errBadSchedule
		}
		in.ScheduledAt = t.UnixMilli()
	}
	return in, nil
}

// CommunityForm creates a community.
type CommunityForm struct {
	*tview.Form
	theme  *ui.Theme
	in     discovery.CommunityInput
	image  string
	onSave   func(in discovery.CommunityInput, imagePath string)
	onCancel func()
}

// NewCommunityForm creates an empty community form.
func NewCommunityForm(theme *ui.Theme) *CommunityForm {
	return &CommunityForm{
		Form:  newForm(theme, " New community "),
		theme: theme,
	}
}

// Name implements Component.
func (cf *CommunityForm) Name() string { return "New community" }

// Hints implements Component.
func (cf *CommunityForm) Hints() []ui.MenuHint { return formHints() }

// SetOnSave sets the callback of the create button.
func (cf *CommunityForm) SetOnSave(fn func(in discovery.CommunityInput, imagePath string)) {
	cf.onSave = fn
}

// SetOnCancel sets the callback of the cancel button.
func (cf *CommunityForm) SetOnCancel(fn func()) {
	cf.onCancel = fn
	cf.SetCancelFunc(fn)
}

// Reset clears the form. tag preselects an interest.
func (cf *CommunityForm) Reset(tag string) {
	cf.in = discovery.CommunityInput{Tag: tag}
	cf.image = ""
	in := &cf.in

	tags := append([]string{"(none)"}, store.Interests...)
	cf.Clear(true)
	cf.AddInputField("Name", "", 40, nil, func(s string) { in.Name = s })
	cf.AddTextArea("Description", "", 50, 4, 0, func(s string) { in.Description = s })
	cf.AddDropDown("Interest", tags, max(slices.Index(tags, tag), 0), func(opt string, idx int) {
		switch {
		case idx == 0:
			in.Tag = ""
		case idx > 0:
			in.Tag = opt
		}
	})
	cf.AddInputField("Image file", "", 40, nil, func(s string) { cf.image = s })
	cf.AddButton("Create", func() {
		if cf.onSave != nil {
			cf.onSave(cf.in, strings.TrimSpace(cf.image))
		}
	})
	cf.AddButton("Cancel", func() {
		if cf.onCancel != nil {
			cf.onCancel()
		}
	})
}
