package ui

import "github.com/rivo/tview"

// MenuHint describes a keyboard shortcut for display in the menu.
type MenuHint struct {
	Key         string
	Description string
	Numeric     bool // number keys are drawn in a different color
}

// Component is a page of the TUI.
type Component interface {
	tview.Primitive
	// Name is the crumb title of the page.
	Name() string
	Hints() []MenuHint
}

// Focusable is implemented by pages whose initial focus is a child.
type Focusable interface {
	FocusTarget() tview.Primitive
}
