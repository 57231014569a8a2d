package views

import (
	"fmt"
	"strings"

	"github.com/matheus3301/puthype/internal/profile"
	"github.com/matheus3301/puthype/internal/tui/ui"
	"github.com/rivo/tview"
)

var roleLabels = map[profile.Role]string{
	profile.RoleCreator:      "Creator",
	profile.RoleCollaborator: "Collaborator",
	profile.RoleUndefined:    "Member",
}

// ProfileView shows a profile.
type ProfileView struct {
	*tview.TextView
	theme *ui.Theme
	view  profile.View
	own   bool
}

// NewProfileView creates a new profile view.
func NewProfileView(theme *ui.Theme) *ProfileView {
	return &ProfileView{
		TextView: newTextView(theme, " Profile "),
		theme:    theme,
	}
}

// Name implements Component.
func (pv *ProfileView) Name() string { return "Profile" }

// Hints implements Component.
func (pv *ProfileView) Hints() []ui.MenuHint {
	if !pv.own {
		return []ui.MenuHint{{Key: "Esc", Description: "Back"}}
	}
	return []ui.MenuHint{
		{Key: "e", Description: "Edit"},
		{Key: "Esc", Description: "Back"},
	}
}

// Update renders v. own marks the signed-in user's profile.
func (pv *ProfileView) Update(v profile.View, own bool) {
	pv.view = v
	pv.own = own
	pv.Clear()
	u := v.User

	fg := ui.Tag(pv.theme.FgColor)
	val := ui.Tag(pv.theme.CounterColor)
	title := display(u.DisplayName())
	if v.PlanBadge != "" {
		title += " [" + ui.Tag(pv.theme.FavoriteColor) + "]" + tview.Escape("["+v.PlanBadge+"]") + "[-]"
	}
	pv.SetTitle(" " + title + " ")

	picture := u.ProfilePicture
	if picture == "" {
		picture = "-"
	}
	rows := [][2]string{
		{"Name", u.FullName},
		{"Username", "@" + u.Username},
		{"E-mail", u.Email},
		{"Phone", u.Phone},
		{"Role", roleLabels[v.Role]},
		{"Avatar", avatarLabel(u.Avatar)},
		{"Picture", picture},
		{"Interests", strings.Join(u.Interests, ", ")},
		{"Contacts", fmt.Sprintf("%d", len(u.AddedUsers))},
	}
	for _, r := range rows {
		_, _ = fmt.Fprintf(pv, " [%s::b]%-10s[-:-:-] [%s]%s[-]\n", fg, r[0]+":", val, display(r[1]))
	}
}

// Profile returns the profile on screen.
func (pv *ProfileView) Profile() profile.View { return pv.view }

// Own reports whether the profile on screen is the signed-in user's.
func (pv *ProfileView) Own() bool { return pv.own }
