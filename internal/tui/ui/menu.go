package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// Menu displays keyboard shortcut hints in columns of at most rows lines.
type Menu struct {
	*tview.TextView
	theme *Theme
	rows  int
}

// NewMenu creates a new menu hint panel.
func NewMenu(theme *Theme, rows int) *Menu {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 2, 0)

	return &Menu{
		TextView: tv,
		theme:    theme,
		rows:     rows,
	}
}

// Update renders the hints column by column.
func (m *Menu) Update(hints []MenuHint) {
	m.Clear()
	if len(hints) == 0 {
		return
	}
	rows := m.rows
	if rows < 1 {
		rows = len(hints)
	}

	cells := make([]string, len(hints))
	width := 0
	for i, h := range hints {
		cells[i] = fmt.Sprintf("<%s> %s", h.Key, h.Description)
		width = max(width, len(cells[i]))
	}

	for r := 0; r < rows && r < len(hints); r++ {
		for i := r; i < len(hints); i += rows {
			kc := Tag(m.theme.MenuKeyColor)
			if hints[i].Numeric {
				kc = Tag(m.theme.NumericKeyColor)
			}
			pad := width - len(cells[i]) + 2
			_, _ = fmt.Fprintf(m, "[%s::b]<%s>[-:-:-] %s%*s", kc, tview.Escape(hints[i].Key), hints[i].Description, pad, "")
		}
		_, _ = fmt.Fprint(m, "\n")
	}
}
