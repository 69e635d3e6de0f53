package style

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	// chromeRows covers the header, breadcrumb, column titles and status bar.
	chromeRows = 4
	minWidth   = 20

	// rowChrome is the fixed part of a tree row: mark, percentage, the
	// bar brackets and the size column.
	rowChrome = 23

	minBar, maxBar = 5, 40
	minName        = 8
)

// Layout splits the terminal between the header rows, the content area and
// the status bar.
type Layout struct {
	Width  int
	Height int
}

func NewLayout(width, height int) Layout {
	return Layout{Width: width, Height: height}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// ContentHeight is the number of rows left for the list or treemap. Never
// less than one.
func (l Layout) ContentHeight() int {
	return max(1, l.Height-chromeRows)
}

func (l Layout) ContentWidth() int {
	return max(minWidth, l.Width)
}

// BarWidth is the width of the share bar drawn in each tree row.
func (l Layout) BarWidth() int {
	return clamp(l.ContentWidth()-rowChrome, minBar, maxBar)
}

// NameWidth is whatever the row has left after the bar and fixed columns.
func (l Layout) NameWidth() int {
	return max(minName, l.ContentWidth()-rowChrome-l.BarWidth())
}

// FullWidth right-pads s with spaces to width visible cells. Wider strings
// are returned unchanged.
func FullWidth(s string, width int) string {
	if pad := width - lipgloss.Width(s); pad > 0 {
		return s + strings.Repeat(" ", pad)
	}
	return s
}
