package components

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/dutree/internal/model"
	"github.com/sadopc/dutree/internal/ui/style"
	"github.com/sadopc/dutree/internal/util"
)

// tile is one treemap cell. A nil node aggregates the entries that did not
// get a tile of their own.
type tile struct {
	node *model.Node
	size int64
}

func (t tile) color(theme style.Theme) lipgloss.Color {
	switch {
	case t.node == nil:
		return theme.Muted
	case t.node.IsDirectory:
		return theme.Accent
	default:
		return fileColor(t.node.Name)
	}
}

func (t tile) label() string {
	if t.node == nil {
		return fmt.Sprintf("other (%s)", util.FormatSize(t.size))
	}
	name := t.node.Name
	if t.node.IsDirectory {
		name += "/"
	}
	return name + " " + util.FormatSize(t.size)
}

// tiles keeps the entries with a positive size, largest first, folding the
// tail into one "other" tile once there are more than fit the area.
func tiles(items []*model.Node, useApparent bool, width, height int) ([]tile, int64) {
	var out []tile
	var total int64
	for _, n := range items {
		sz := n.Usage
		if useApparent {
			sz = n.Size
		}
		if sz > 0 {
			out = append(out, tile{node: n, size: sz})
			total += sz
		}
	}
	slices.SortStableFunc(out, func(a, b tile) int { return cmp.Compare(b.size, a.size) })

	if limit := max(5, width*height/8); len(out) > limit {
		var other int64
		for _, t := range out[limit-1:] {
			other += t.size
		}
		out = append(out[:limit-1], tile{size: other})
	}
	return out, total
}

// RenderTreemap draws items as a squarified treemap filling width x height
// cells.
func RenderTreemap(theme style.Theme, items []*model.Node, useApparent bool, width, height int) string {
	if height <= 0 || width <= 0 {
		return ""
	}
	muted := lipgloss.NewStyle().Foreground(theme.TextMuted)
	if len(items) == 0 {
		return muted.Render("  (empty directory)")
	}
	ts, total := tiles(items, useApparent, width, height)
	if len(ts) == 0 {
		return muted.Render("  (no items with size)")
	}

	c := newCanvas(width, height, theme.BgDark)
	rects := make([]rect, len(ts))
	partition(ts, total, rect{0, 0, width, height}, rects)
	for i, r := range rects {
		if r.w <= 0 || r.h <= 0 {
			continue
		}
		c.fill(r, ts[i].color(theme))
		c.frame(r)
		c.label(r, ts[i].label())
	}
	return c.render(lipgloss.NewStyle().Foreground(theme.TextPrimary))
}

type rect struct {
	x, y, w, h int
}

// cut splits r at frac of its longer side. Both parts keep at least one
// cell.
func (r rect) cut(frac float64) (rect, rect) {
	if r.w >= r.h {
		n := clampCells(int(frac*float64(r.w)), r.w)
		return rect{r.x, r.y, n, r.h}, rect{r.x + n, r.y, r.w - n, r.h}
	}
	n := clampCells(int(frac*float64(r.h)), r.h)
	return rect{r.x, r.y, r.w, n}, rect{r.x, r.y + n, r.w, r.h - n}
}

func clampCells(n, span int) int {
	return max(1, min(n, span-1))
}

// aspect is the worse side ratio of the strip a leading share frac of r
// would occupy.
func (r rect) aspect(frac float64) float64 {
	a, b := float64(r.w), float64(r.h)
	if r.w >= r.h {
		a *= frac
	} else {
		b *= frac
	}
	if a < b {
		a, b = b, a
	}
	return a / b
}

// partition assigns ts (largest first) to out by splitting bounds in two
// at the prefix whose strip is closest to square, then recursing on both
// halves.
func partition(ts []tile, total int64, bounds rect, out []rect) {
	if len(ts) == 0 || total <= 0 || bounds.w <= 0 || bounds.h <= 0 {
		return
	}
	if len(ts) == 1 {
		out[0] = bounds
		return
	}

	split, best := 1, math.Inf(1)
	var running, head int64
	for i := 0; i < len(ts)-1; i++ {
		running += ts[i].size
		if a := bounds.aspect(float64(running) / float64(total)); a < best {
			split, best, head = i+1, a, running
		}
	}

	first, rest := bounds.cut(float64(head) / float64(total))
	partition(ts[:split], head, first, out[:split])
	partition(ts[split:], total-head, rest, out[split:])
}

type cell struct {
	ch rune
	bg lipgloss.Color
}

// canvas is a character grid with a background color per cell.
type canvas [][]cell

func newCanvas(width, height int, bg lipgloss.Color) canvas {
	c := make(canvas, height)
	for y := range c {
		c[y] = make([]cell, width)
		for x := range c[y] {
			c[y][x] = cell{' ', bg}
		}
	}
	return c
}

func (c canvas) set(x, y int, ch rune) {
	if y >= 0 && y < len(c) && x >= 0 && x < len(c[y]) {
		c[y][x].ch = ch
	}
}

func (c canvas) fill(r rect, bg lipgloss.Color) {
	for y := r.y; y < r.y+r.h && y < len(c); y++ {
		for x := r.x; x < r.x+r.w && x < len(c[y]); x++ {
			c[y][x] = cell{' ', bg}
		}
	}
}

// frame outlines r with box-drawing characters. Rects thinner than two
// cells stay solid.
func (c canvas) frame(r rect) {
	if r.w < 2 || r.h < 2 {
		return
	}
	right, bottom := r.x+r.w-1, r.y+r.h-1
	for x := r.x + 1; x < right; x++ {
		c.set(x, r.y, '─')
		c.set(x, bottom, '─')
	}
	for y := r.y + 1; y < bottom; y++ {
		c.set(r.x, y, '│')
		c.set(right, y, '│')
	}
	c.set(r.x, r.y, '┌')
	c.set(right, r.y, '┐')
	c.set(r.x, bottom, '└')
	c.set(right, bottom, '┘')
}

// label writes text on the first inner row of r.
func (c canvas) label(r rect, text string) {
	room := r.w - 2
	if room <= 0 || r.h < 3 {
		return
	}
	for i, ch := range []rune(util.TruncateString(text, room)) {
		c.set(r.x+1+i, r.y+1, ch)
	}
}

func (c canvas) render(fg lipgloss.Style) string {
	lines := make([]string, len(c))
	for y, row := range c {
		var b strings.Builder
		for _, cl := range row {
			if cl.ch == ' ' {
				b.WriteString(lipgloss.NewStyle().Background(cl.bg).Render(" "))
			} else {
				b.WriteString(fg.Render(string(cl.ch)))
			}
		}
		lines[y] = b.String()
	}
	return strings.Join(lines, "\n")
}
