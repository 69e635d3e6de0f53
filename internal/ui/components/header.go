package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/dutree/internal/model"
	"github.com/sadopc/dutree/internal/ui/style"
	"github.com/sadopc/dutree/internal/util"
)

// RenderHeader renders the title bar with the scan root and its totals.
func RenderHeader(theme style.Theme, root *model.Node, useApparent bool, width int) string {
	if root == nil || width < 10 {
		return ""
	}
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

	size, label := root.Usage, "disk"
	if useApparent {
		size, label = root.Size, "apparent"
	}
	title := fg(theme.Primary).Bold(true).Render(" dutree")
	totals := fg(theme.TextMuted).Render(fmt.Sprintf("%s entries  %s %s ",
		util.FormatCount(int64(root.ChildrenCount)), util.FormatSize(size), label))

	var path string
	if room := width - lipgloss.Width(title) - lipgloss.Width(totals) - 3; room > 5 {
		path = util.TruncateString(root.Path, room)
	}
	left := title + fg(theme.TextPrimary).Render("  "+path)

	return theme.HeaderStyle.Width(width).Render(spread(left, totals, width))
}

// pathSegments splits the part of current below root into names. Both
// separators are accepted since remote trees always use '/'.
func pathSegments(root, current string) []string {
	if !model.Contains(root, current) {
		return nil
	}
	return strings.FieldsFunc(current[len(root):], func(r rune) bool {
		return r == '/' || r == '\\'
	})
}

// RenderBreadcrumb renders the trail from the scan root to current. When the
// trail is too wide only the last two steps are kept.
func RenderBreadcrumb(theme style.Theme, root, current *model.Node, width int) string {
	if root == nil || current == nil {
		return ""
	}
	dim := lipgloss.NewStyle().Foreground(theme.TextMuted)
	here := lipgloss.NewStyle().Foreground(theme.TextPrimary).Bold(true)
	sep := dim.Render(" > ")

	steps := append([]string{root.Name}, pathSegments(root.Path, current.Path)...)
	for i, name := range steps {
		if i == len(steps)-1 {
			steps[i] = here.Render(name)
		} else {
			steps[i] = dim.Render(name)
		}
	}

	trail := " " + strings.Join(steps, sep)
	if len(steps) > 2 && lipgloss.Width(trail) > width {
		trail = " " + dim.Render("...") + sep + strings.Join(steps[len(steps)-2:], sep)
	}
	return theme.BreadcrumbStyle.Width(width).Render(trail)
}
