package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/dutree/internal/model"
)

// handleKey routes a key press to the handler of the current screen. Force
// quit works everywhere.
func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, a.keys.ForceQuit) {
		a.relay.abort()
		return tea.Quit
	}

	switch a.state {
	case StateScanning:
		if key.Matches(msg, a.keys.Quit) {
			a.relay.abort()
			return tea.Quit
		}
	case StateHelp:
		if key.Matches(msg, a.keys.Help) || msg.String() == "esc" {
			a.state = StateBrowsing
			return tea.ClearScreen
		}
	case StateConfirmDelete:
		switch {
		case key.Matches(msg, a.keys.ConfirmYes):
			return a.executeDelete()
		case key.Matches(msg, a.keys.ConfirmNo):
			a.state = StateBrowsing
			a.markedItems = nil
			return tea.ClearScreen
		}
	case StateBrowsing:
		a.statusMsg = ""
		for _, b := range a.browseBindings() {
			if key.Matches(msg, b.keys...) {
				return b.run()
			}
		}
	}
	return nil
}

type browseBinding struct {
	keys []key.Binding
	run  func() tea.Cmd
}

// on wraps a command-free action.
func on(fn func()) func() tea.Cmd {
	return func() tea.Cmd {
		fn()
		return nil
	}
}

func (a *App) browseBindings() []browseBinding {
	k := a.keys
	sortBy := func(f model.SortField) func() tea.Cmd {
		return on(func() {
			a.sortConfig = a.sortConfig.Toggle(f)
			a.refreshSorted()
		})
	}
	view := func(m ViewMode) func() tea.Cmd {
		return func() tea.Cmd {
			a.viewMode = m
			return tea.ClearScreen
		}
	}

	return []browseBinding{
		{[]key.Binding{k.Quit}, func() tea.Cmd { return tea.Quit }},
		{[]key.Binding{k.Help}, func() tea.Cmd {
			a.state = StateHelp
			return tea.ClearScreen
		}},

		{[]key.Binding{k.Up}, on(func() { a.moveCursor(-1) })},
		{[]key.Binding{k.Down}, on(func() { a.moveCursor(1) })},
		{[]key.Binding{k.PageUp}, on(func() { a.moveCursor(-a.layout.ContentHeight()) })},
		{[]key.Binding{k.PageDown}, on(func() { a.moveCursor(a.layout.ContentHeight()) })},
		{[]key.Binding{k.Top}, on(func() { a.cursor = 0 })},
		{[]key.Binding{k.Bottom}, on(func() { a.moveCursor(len(a.sortedItems)) })},
		{[]key.Binding{k.Enter, k.Right}, on(a.enterDir)},
		{[]key.Binding{k.Left, k.Back}, on(a.goBack)},

		{[]key.Binding{k.ViewTree}, view(ViewTree)},
		{[]key.Binding{k.ViewTreemap}, view(ViewTreemap)},

		{[]key.Binding{k.SortSize}, sortBy(model.SortBySize)},
		{[]key.Binding{k.SortName}, sortBy(model.SortByName)},
		{[]key.Binding{k.SortCount}, sortBy(model.SortByCount)},
		{[]key.Binding{k.SortMtime}, sortBy(model.SortByMtime)},

		{[]key.Binding{k.ToggleApparent}, on(func() {
			a.useApparent = !a.useApparent
			a.refreshSorted()
		})},
		{[]key.Binding{k.ToggleHidden}, on(func() {
			a.showHidden = !a.showHidden
			a.clearMarks()
			a.refreshSorted()
		})},

		{[]key.Binding{k.Mark}, on(func() {
			if a.viewMode == ViewTree {
				a.toggleMark()
			}
		})},
		{[]key.Binding{k.Delete}, func() tea.Cmd {
			if a.viewMode != ViewTree {
				return nil
			}
			cmd := a.prepareDelete()
			if a.state == StateConfirmDelete {
				return tea.Batch(cmd, tea.ClearScreen)
			}
			return cmd
		}},
		{[]key.Binding{k.Export}, a.exportCmd},
		{[]key.Binding{k.Rescan}, a.rescan},
	}
}
