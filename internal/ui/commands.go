package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/dutree/internal/engine"
	"github.com/sadopc/dutree/internal/ops"
	"github.com/sadopc/dutree/internal/scanner"
	"github.com/sadopc/dutree/internal/ui/components"
)

const tickInterval = 60 * time.Millisecond

func (a *App) tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// scanCmd builds the whole tree in the background and returns its top
// level. Progress goes through the relay and is sampled on each tick.
func (a *App) scanCmd() tea.Cmd {
	e, path, relay := a.engine, a.ScanPath, &a.relay
	return func() tea.Msg {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		relay.start(cancel)

		progress := make(chan scanner.Progress, 10)
		drained := make(chan struct{})
		go func() {
			defer close(drained)
			for p := range progress {
				relay.publish(p)
			}
		}()
		info, err := e.BuildCacheWithDepth(ctx, path, engine.FullDepth, progress)
		close(progress)
		<-drained
		if err != nil {
			return ScanDoneMsg{Err: err}
		}

		root, err := e.GetResultWithDepth(ctx, info.Root, 1)
		return ScanDoneMsg{Root: root, Info: info, Err: err}
	}
}

func (a *App) importCmd() tea.Cmd {
	path := a.ImportPath
	return func() tea.Msg {
		root, err := ops.ImportJSON(path)
		return ScanDoneMsg{Root: root, Err: err}
	}
}

// rescan rebuilds the tree from the root, or re-reads the import.
func (a *App) rescan() tea.Cmd {
	a.cursor, a.offset = 0, 0
	a.clearMarks()
	a.state = StateScanning
	if a.imported() {
		return tea.Batch(tea.ClearScreen, a.importCmd())
	}
	if a.root != nil {
		a.ScanPath = a.root.Path
	}
	return tea.Batch(tea.ClearScreen, a.scanCmd(), a.tickCmd())
}

// prepareDelete opens the confirmation dialog for the marked entries, or
// for the entry under the cursor when nothing is marked. Entries are listed
// in display order.
func (a *App) prepareDelete() tea.Cmd {
	if a.imported() {
		a.statusMsg = "Delete is disabled in import mode"
		return nil
	}

	var items []components.ConfirmItem
	for i, n := range a.sortedItems {
		if !a.marked[n.Path] && (len(a.marked) > 0 || i != a.cursor) {
			continue
		}
		items = append(items, components.ConfirmItem{Name: n.Name, Path: n.Path, Size: a.sizeOf(n), IsDir: n.IsDirectory})
	}
	if len(items) == 0 {
		return nil
	}

	a.markedItems, a.preview = items, nil
	a.previewSeq++
	a.state = StateConfirmDelete
	return a.previewCmd(pathsOf(items))
}

func pathsOf(items []components.ConfirmItem) []string {
	paths := make([]string, len(items))
	for i, item := range items {
		paths[i] = item.Path
	}
	return paths
}

// previewCmd counts what a deletion would remove. Only local trees are
// cheap enough to walk for this.
func (a *App) previewCmd(paths []string) tea.Cmd {
	if _, local := a.engine.Source().(scanner.LocalSource); !local {
		return nil
	}
	seq := a.previewSeq
	return func() tea.Msg {
		stats, err := ops.Preview(context.Background(), paths)
		return previewMsg{seq: seq, stats: stats, err: err}
	}
}

func (a *App) executeDelete() tea.Cmd {
	if len(a.markedItems) == 0 {
		return nil
	}
	paths, e := pathsOf(a.markedItems), a.engine
	a.markedItems = nil
	return func() tea.Msg {
		return DeleteDoneMsg{Report: e.DeleteItems(context.Background(), paths)}
	}
}

// exportCmd writes the whole tree, not just the levels on screen.
func (a *App) exportCmd() tea.Cmd {
	if a.root == nil {
		return nil
	}
	path := a.opts.ExportPath
	if path == "" {
		path = DefaultExportPath
	}
	a.state = StateExporting

	tree, e, rootPath, version := a.tree, a.engine, a.root.Path, a.opts.Version
	return func() tea.Msg {
		if tree == nil {
			full, err := e.GetResultWithDepth(context.Background(), rootPath, engine.FullDepth)
			if err != nil {
				return ExportDoneMsg{Path: path, Err: err}
			}
			tree = full
		}
		return ExportDoneMsg{Path: path, Err: ops.ExportJSON(tree, path, version)}
	}
}
