package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/puthype/internal/directory"
	"github.com/matheus3301/puthype/internal/tui/ui"
	"github.com/rivo/tview"
)

// SearchView finds people by the start of their name.
type SearchView struct {
	*tview.Flex
	theme   *ui.Theme
	input   *tview.InputField
	results *tview.Table
	onQuery func(prefix string)
	data    []directory.Result
}

// NewSearchView creates a new directory search view.
func NewSearchView(theme *ui.Theme) *SearchView {
	input := tview.NewInputField().
		SetLabel(" Name starts with: ").
		SetFieldWidth(0)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	sv := &SearchView{
		theme:   theme,
		input:   input,
		results: newTable(theme, " People "),
	}
	sv.Flex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(input, 1, 0, true).
		AddItem(sv.results, 0, 1, false)

	input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && sv.onQuery != nil {
			sv.onQuery(sv.input.GetText())
		}
	})
	sv.Update(nil)
	return sv
}

// Name implements Component.
func (sv *SearchView) Name() string { return "Find people" }

// Hints implements Component.
func (sv *SearchView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Search / Add and open"},
		{Key: "Tab", Description: "Input / Results"},
		{Key: "Esc", Description: "Back"},
	}
}

// FocusTarget implements ui.Focusable.
func (sv *SearchView) FocusTarget() tview.Primitive { return sv.input }

// SetOnQuery sets the callback when a search is submitted.
func (sv *SearchView) SetOnQuery(fn func(prefix string)) {
	sv.onQuery = fn
}

// Update refreshes the search results.
func (sv *SearchView) Update(results []directory.Result) {
	sv.data = results
	sv.results.Clear()
	headerRow(sv.results, sv.theme, "NAME", "USERNAME", "AVATAR", "CONTACT")

	for i, r := range results {
		row := i + 1
		added := ""
		if r.Added {
			added = "added"
		}
		sv.results.SetCell(row, 0, cell(sv.theme, r.FullName).SetExpansion(1))
		sv.results.SetCell(row, 1, cell(sv.theme, "@"+r.Username))
		sv.results.SetCell(row, 2, cell(sv.theme, avatarLabel(r.Avatar)))
		sv.results.SetCell(row, 3, cell(sv.theme, added))
	}
	sv.results.SetTitle(fmt.Sprintf(" People (%d) ", len(results)))
}

// Selected returns the result under the cursor.
func (sv *SearchView) Selected() (directory.Result, bool) {
	idx, ok := selectedRow(sv.results, len(sv.data))
	if !ok {
		return directory.Result{}, false
	}
	return sv.data[idx], true
}

// MarkAdded flags the result for id as added.
func (sv *SearchView) MarkAdded(id string) {
	for i := range sv.data {
		if sv.data[i].ID == id {
			sv.data[i].Added = true
		}
	}
	row, col := sv.results.GetSelection()
	sv.Update(sv.data)
	sv.results.Select(row, col)
}

// Input returns the search input field.
func (sv *SearchView) Input() *tview.InputField {
	return sv.input
}

// Results returns the results table.
func (sv *SearchView) Results() *tview.Table {
	return sv.results
}
