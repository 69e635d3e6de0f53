package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/dutree/internal/model"
	"github.com/sadopc/dutree/internal/ui/style"
	"github.com/sadopc/dutree/internal/util"
)

// TreeView renders the children of one directory as rows with a share bar.
type TreeView struct {
	Theme       style.Theme
	Layout      style.Layout
	Items       []*model.Node
	Cursor      int
	Offset      int
	Marked      map[string]bool
	UseApparent bool
	ParentSize  int64
}

// Render draws the rows between Offset and the bottom of the content area,
// padding with blank lines so the area is always filled.
func (tv *TreeView) Render() string {
	width, rows := tv.Layout.ContentWidth(), tv.Layout.ContentHeight()
	lines := make([]string, 0, rows)

	if len(tv.Items) == 0 {
		msg := lipgloss.NewStyle().Foreground(tv.Theme.TextMuted).Render("  (empty directory)")
		lines = append(lines, style.FullWidth(msg, width))
	}
	for i := tv.Offset; i < len(tv.Items) && len(lines) < rows; i++ {
		lines = append(lines, tv.row(i, width))
	}
	for len(lines) < rows {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func (tv *TreeView) size(n *model.Node) int64 {
	if tv.UseApparent {
		return n.Size
	}
	return n.Usage
}

// marker is the two-cell gutter: "*" for marked entries and ">" for the
// cursor.
func (tv *TreeView) marker(selected, marked bool) string {
	mark, cursor := " ", " "
	if marked {
		mark = tv.Theme.MarkedIndicator.Render("*")
	}
	if selected {
		cursor = tv.Theme.CursorIndicator.Render(">")
	}
	return mark + cursor
}

// nameCell fits the entry name into width cells. Directories get a trailing
// slash and, room permitting, their entry count.
func (tv *TreeView) nameCell(n *model.Node, width int) string {
	if !n.IsDirectory {
		return tv.Theme.FileName.Render(util.TruncateString(n.Name, width))
	}
	count := ""
	if n.ChildrenCount > 0 {
		count = " (" + util.FormatCount(int64(n.ChildrenCount)) + ")"
	}
	if width-len(count) < 4 {
		count = ""
	}
	name := tv.Theme.DirName.Render(util.TruncateString(n.Name+"/", width-len(count)))
	if count != "" {
		name += lipgloss.NewStyle().Foreground(tv.Theme.TextMuted).Render(count)
	}
	return name
}

func (tv *TreeView) row(i, width int) string {
	n := tv.Items[i]
	selected := i == tv.Cursor
	size := tv.size(n)
	pct := util.Percent(size, tv.ParentSize)

	row := style.FullWidth(fmt.Sprintf("%s%s [%s] %s %s",
		tv.marker(selected, tv.Marked[n.Path]),
		tv.Theme.PercentText.Render(fmt.Sprintf("%5.1f%%", pct)),
		tv.Theme.BarGradient(tv.Layout.BarWidth(), pct/100),
		tv.nameCell(n, tv.Layout.NameWidth()),
		tv.Theme.SizeText.Width(10).Render(util.FormatSize(size)),
	), width)
	if selected {
		return tv.Theme.SelectedRow.Width(width).Render(row)
	}
	return row
}

// EnsureVisible scrolls the minimum amount that brings Cursor on screen.
func (tv *TreeView) EnsureVisible() {
	rows := tv.Layout.ContentHeight()
	switch {
	case tv.Cursor < tv.Offset:
		tv.Offset = tv.Cursor
	case tv.Cursor >= tv.Offset+rows:
		tv.Offset = tv.Cursor - rows + 1
	}
	tv.Offset = max(0, tv.Offset)
}
