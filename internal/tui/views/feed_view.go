package views

import (
	"fmt"
	"strings"

	"github.com/matheus3301/puthype/internal/discovery"
	"github.com/matheus3301/puthype/internal/rpc"
	"github.com/matheus3301/puthype/internal/store"
	"github.com/matheus3301/puthype/internal/tui/ui"
	"github.com/rivo/tview"
)

// FeedView is the networking screen: communities or events matching the
// user's interests, or one selected interest.
type FeedView struct {
	*tview.Flex
	theme    *ui.Theme
	chips    *tview.TextView
	table    *tview.Table
	resp     rpc.FeedResponse
	tab      discovery.Tab
	selected string
}

// NewFeedView creates the networking feed view.
func NewFeedView(theme *ui.Theme) *FeedView {
	chips := tview.NewTextView().SetDynamicColors(true)
	chips.SetBackgroundColor(theme.BgColor)

	fv := &FeedView{
		theme: theme,
		chips: chips,
		table: newTable(theme, " Networking "),
		tab:   discovery.TabCommunities,
	}
	fv.Flex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(chips, 2, 0, false).
		AddItem(fv.table, 0, 1, true)
	fv.render()
	return fv
}

// Name implements Component.
func (fv *FeedView) Name() string { return "Networking" }

// Hints implements Component.
func (fv *FeedView) Hints() []ui.MenuHint {
	hints := []ui.MenuHint{
		{Key: "Tab", Description: "Communities / Events"},
		{Key: fmt.Sprintf("1-%d", len(store.Interests)), Description: "Toggle interest", Numeric: true},
		{Key: "0", Description: "My interests", Numeric: true},
		{Key: "Enter", Description: "Open event"},
		{Key: "c", Description: "Create event"},
	}
	if fv.resp.CanCreateCommunity {
		hints = append(hints, ui.MenuHint{Key: "C", Description: "Create community"})
	}
	return append(hints, ui.MenuHint{Key: "Esc", Description: "Back"})
}

// FocusTarget implements ui.Focusable.
func (fv *FeedView) FocusTarget() tview.Primitive { return fv.table }

// Tab returns the visible feed tab.
func (fv *FeedView) Tab() discovery.Tab { return fv.tab }

// Selected returns the selected interest, or "".
func (fv *FeedView) Selected() string { return fv.selected }

// SetFilter records the tab and interest to request next.
func (fv *FeedView) SetFilter(tab discovery.Tab, selected string) {
	fv.tab = tab
	fv.selected = selected
	fv.render()
}

// Update renders a loaded feed page.
func (fv *FeedView) Update(resp *rpc.FeedResponse) {
	fv.resp = *resp
	fv.tab = resp.Feed.Tab
	fv.render()
}

// CanCreateCommunity reports whether the last feed unlocked creation.
func (fv *FeedView) CanCreateCommunity() bool { return fv.resp.CanCreateCommunity }

func (fv *FeedView) render() {
	fv.chips.Clear()
	active := ui.Tag(fv.theme.CrumbActiveBg)
	mine := ui.Tag(fv.theme.CounterColor)
	var b strings.Builder
	for i, tag := range store.Interests {
		label := fmt.Sprintf("%d %s", i+1, tag)
		switch {
		case tag == fv.selected:
			label = "[" + active + "::b]" + label + "[-:-:-]"
		case fv.selected == "" && hasTag(fv.resp.Interests, tag):
			label = "[" + mine + "]" + label + "[-]"
		default:
			label = "[::d]" + label + "[-:-:-]"
		}
		b.WriteString(" " + label)
	}
	_, _ = fmt.Fprint(fv.chips, b.String())

	fv.table.Clear()
	if fv.tab == discovery.TabEvents {
		headerRow(fv.table, fv.theme, "TITLE", "INTEREST", "WHEN", "WHERE", "PRIVACY")
		for i, e := range fv.resp.Feed.Events {
			row := i + 1
			fv.table.SetCell(row, 0, cell(fv.theme, e.Title).SetExpansion(1))
			fv.table.SetCell(row, 1, cell(fv.theme, e.Tag))
			fv.table.SetCell(row, 2, cell(fv.theme, formatSchedule(e.ScheduledAt)))
			fv.table.SetCell(row, 3, cell(fv.theme, oneLine(e.Location, 30)))
			fv.table.SetCell(row, 4, cell(fv.theme, e.Privacy))
		}
	} else {
		headerRow(fv.table, fv.theme, "NAME", "INTEREST", "ABOUT")
		for i, c := range fv.resp.Feed.Communities {
			row := i + 1
			fv.table.SetCell(row, 0, cell(fv.theme, c.Name).SetExpansion(1))
			fv.table.SetCell(row, 1, cell(fv.theme, c.Tag))
			fv.table.SetCell(row, 2, cell(fv.theme, oneLine(c.Description, 50)))
		}
	}

	title := " Communities "
	n := len(fv.resp.Feed.Communities)
	if fv.tab == discovery.TabEvents {
		title = " Events "
		n = len(fv.resp.Feed.Events)
	}
	fv.table.SetTitle(fmt.Sprintf("%s(%d) ", title, n))
}

// Empty reports whether the loaded page has no items.
func (fv *FeedView) Empty() bool { return fv.resp.Feed.Len() == 0 }

// SelectedEvent returns the event under the cursor on the events tab.
func (fv *FeedView) SelectedEvent() (store.Event, bool) {
	if fv.tab != discovery.TabEvents {
		return store.Event{}, false
	}
	idx, ok := selectedRow(fv.table, len(fv.resp.Feed.Events))
	if !ok {
		return store.Event{}, false
	}
	return fv.resp.Feed.Events[idx], true
}
