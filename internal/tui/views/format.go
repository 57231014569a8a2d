package views

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/puthype/internal/tui/ui"
	"github.com/rivo/tview"
)

var now = time.Now

// formatTimestamp shows today's times as hours, older ones as a date.
func formatTimestamp(ms int64) string {
	if ms == 0 {
		return ""
	}
	t := time.UnixMilli(ms)
	n := now()
	if t.Year() == n.Year() && t.YearDay() == n.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("02/01")
}

// formatSchedule is the full date and time of an event.
func formatSchedule(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).Format("02/01/2006 15:04")
}

func avatarLabel(n int) string {
	if n <= 0 {
		return "-"
	}
	return fmt.Sprintf("#%d", n)
}

// headerRow writes the bold, unselectable first row of a table.
func headerRow(t *tview.Table, theme *ui.Theme, cols ...string) {
	for col, h := range cols {
		exp := 0
		if col == 0 {
			exp = 1
		}
		t.SetCell(0, col, tview.NewTableCell(" "+h).
			SetSelectable(false).
			SetTextColor(theme.TableHeaderFg).
			SetBackgroundColor(theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(exp))
	}
}

func newTable(theme *ui.Theme, title string) *tview.Table {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitle(title)
	table.SetTitleColor(theme.TitleColor)
	return table
}

func newTextView(theme *ui.Theme, title string) *tview.TextView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(title)
	tv.SetTitleColor(theme.TitleColor)
	return tv
}

func newForm(theme *ui.Theme, title string) *tview.Form {
	f := tview.NewForm()
	f.SetBorder(true)
	f.SetBorderColor(theme.BorderColor)
	f.SetBackgroundColor(theme.BgColor)
	f.SetTitle(title)
	f.SetTitleColor(theme.TitleColor)
	f.SetLabelColor(theme.MenuKeyColor)
	f.SetFieldBackgroundColor(tcell.ColorDarkSlateBlue)
	f.SetFieldTextColor(theme.FgColor)
	f.SetButtonBackgroundColor(theme.BorderColor)
	f.SetButtonTextColor(theme.BgColor)
	return f
}

// cell is a plain data cell.
func cell(theme *ui.Theme, text string) *tview.TableCell {
	return tview.NewTableCell(" " + display(text)).SetTextColor(theme.FgColor)
}

// selectedRow maps the table cursor to a data index, skipping the header.
func selectedRow(t *tview.Table, n int) (int, bool) {
	row, _ := t.GetSelection()
	idx := row - 1
	return idx, idx >= 0 && idx < n
}
