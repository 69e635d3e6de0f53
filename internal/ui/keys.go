package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/sadopc/dutree/internal/ui/components"
)

// KeyMap holds the browser key bindings.
type KeyMap struct {
	Up, Down, Left, Right key.Binding
	PageUp, PageDown      key.Binding
	Top, Bottom           key.Binding
	Enter, Back           key.Binding
	Mark, Delete          key.Binding
	Export, Rescan        key.Binding
	Quit, ForceQuit, Help key.Binding
	ViewTree, ViewTreemap key.Binding
	SortSize, SortName    key.Binding
	SortCount, SortMtime  key.Binding
	ToggleApparent        key.Binding
	ToggleHidden          key.Binding
	ConfirmYes, ConfirmNo key.Binding
}

// bind builds a binding whose help label is the first of keys unless label
// is set.
func bind(label, desc string, keys ...string) key.Binding {
	if label == "" {
		label = keys[0]
	}
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(label, desc))
}

// DefaultKeyMap mirrors the vi-style navigation of most terminal browsers.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       bind("↑/k", "up", "up", "k"),
		Down:     bind("↓/j", "down", "down", "j"),
		Left:     bind("←/h", "parent", "left", "h"),
		Right:    bind("→/l", "enter", "right", "l"),
		PageUp:   bind("pgup", "page up", "pgup", "ctrl+b"),
		PageDown: bind("pgdn", "page down", "pgdown", "ctrl+f"),
		Top:      bind("g", "first", "home", "g"),
		Bottom:   bind("G", "last", "end", "G"),
		Enter:    bind("", "enter dir", "enter"),
		Back:     bind("", "go back", "backspace"),

		Mark:   bind("space", "mark", " "),
		Delete: bind("", "delete", "d"),
		Export: bind("", "export", "E"),
		Rescan: bind("", "rescan", "r", "ctrl+r"),

		Quit:      bind("", "quit", "q"),
		ForceQuit: bind("", "force quit", "ctrl+c"),
		Help:      bind("", "help", "?"),

		ViewTree:    bind("", "tree view", "1"),
		ViewTreemap: bind("", "treemap", "2"),

		SortSize:  bind("", "sort: size", "s"),
		SortName:  bind("", "sort: name", "n"),
		SortCount: bind("", "sort: entries", "C"),
		SortMtime: bind("", "sort: mtime", "M"),

		ToggleApparent: bind("", "apparent/disk", "a"),
		ToggleHidden:   bind("", "hidden files", "."),

		ConfirmYes: bind("", "yes", "y", "Y"),
		ConfirmNo:  bind("n/esc", "no", "n", "N", "esc"),
	}
}

// HelpSections groups the bindings shown in the help overlay.
func (k KeyMap) HelpSections() []components.HelpSection {
	return []components.HelpSection{
		{Title: "Navigation", Bindings: []key.Binding{k.Up, k.Down, k.Left, k.Right, k.Top, k.Bottom, k.PageUp, k.PageDown, k.Back}},
		{Title: "Views", Bindings: []key.Binding{k.ViewTree, k.ViewTreemap}},
		{Title: "Sorting", Bindings: []key.Binding{k.SortSize, k.SortName, k.SortCount, k.SortMtime}},
		{Title: "Actions", Bindings: []key.Binding{k.Mark, k.Delete, k.Export, k.Rescan}},
		{Title: "Toggles", Bindings: []key.Binding{k.ToggleApparent, k.ToggleHidden, k.Help, k.Quit}},
	}
}
