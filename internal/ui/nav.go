package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/sadopc/dutree/internal/model"
)

// load fetches path with one level of children, from the imported tree or
// from the engine's cache.
func (a *App) load(path string) (*model.Node, error) {
	if !a.imported() {
		return a.engine.GetResultWithDepth(context.Background(), path, 1)
	}
	if node, _, ok := model.Find(a.tree, path); ok {
		return node, nil
	}
	return nil, fmt.Errorf("%s is not part of the imported tree", path)
}

// reload refetches the root and the current directory after the cache
// changed under them. A current directory that vanished sends the view
// back to the root.
func (a *App) reload() error {
	if a.root == nil {
		return nil
	}
	root, err := a.load(a.root.Path)
	if err != nil {
		return err
	}
	a.root, a.current = root, root
	if len(a.history) > 0 {
		if cur, err := a.load(a.history[len(a.history)-1]); err == nil {
			a.current = cur
		} else {
			a.history = nil
		}
	}
	a.refreshSorted()
	return nil
}

// resetView drops marks and scrolling and rebuilds the rows.
func (a *App) resetView() {
	a.cursor, a.offset = 0, 0
	a.clearMarks()
	a.refreshSorted()
}

func (a *App) moveCursor(delta int) {
	a.cursor = max(0, min(a.cursor+delta, len(a.sortedItems)-1))
}

func (a *App) selected() *model.Node {
	if a.cursor < 0 || a.cursor >= len(a.sortedItems) {
		return nil
	}
	return a.sortedItems[a.cursor]
}

func (a *App) enterDir() {
	item := a.selected()
	if item == nil || !item.IsDirectory {
		return
	}
	node, err := a.load(item.Path)
	if err != nil {
		a.statusMsg = fmt.Sprintf("Cannot open %s: %v", item.Name, err)
		return
	}
	a.history = append(a.history, node.Path)
	a.current = node
	a.resetView()
}

// goBack returns to the parent directory with the cursor on the entry that
// was just left.
func (a *App) goBack() {
	if len(a.history) == 0 {
		return
	}
	parentPath := a.root.Path
	if n := len(a.history); n > 1 {
		parentPath = a.history[n-2]
	}
	parent, err := a.load(parentPath)
	if err != nil {
		a.statusMsg = fmt.Sprintf("Cannot open %s: %v", parentPath, err)
		return
	}
	a.history = a.history[:len(a.history)-1]

	leaving := a.current.Path
	a.current = parent
	a.resetView()
	for i, item := range a.sortedItems {
		if item.Path == leaving {
			a.cursor = i
			break
		}
	}
}

func (a *App) toggleMark() {
	item := a.selected()
	if item == nil {
		return
	}
	if a.marked[item.Path] {
		delete(a.marked, item.Path)
	} else {
		a.marked[item.Path] = true
	}
	a.moveCursor(1)
}

func (a *App) clearMarks() {
	a.marked = map[string]bool{}
}

func (a *App) sizeOf(n *model.Node) int64 {
	switch {
	case n == nil:
		return 0
	case a.useApparent:
		return n.Size
	}
	return n.Usage
}

// markedSize totals the marked entries among items.
func (a *App) markedSize(items []*model.Node) int64 {
	var total int64
	for _, n := range items {
		if a.marked[n.Path] {
			total += a.sizeOf(n)
		}
	}
	return total
}

func (a *App) visible(n *model.Node) bool {
	if !a.showHidden && strings.HasPrefix(n.Name, ".") {
		return false
	}
	return a.sizeOf(n) >= a.opts.MinSize
}

// refreshSorted rebuilds the rows of the current directory. The node's own
// Children keep their published order.
func (a *App) refreshSorted() {
	a.sortedItems, a.filtered = nil, 0
	if a.current == nil {
		return
	}
	items := make([]*model.Node, 0, len(a.current.Children))
	for _, c := range a.current.Children {
		if a.visible(c) {
			items = append(items, c)
		} else {
			a.filtered++
		}
	}
	model.SortChildren(items, a.sortConfig, a.useApparent)
	a.sortedItems = items
	a.moveCursor(0)
}
