package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/dutree/internal/model"
	"github.com/sadopc/dutree/internal/ui/style"
	"github.com/sadopc/dutree/internal/util"
)

// StatusInfo holds the current state for the status bar.
type StatusInfo struct {
	CurrentDir  *model.Node
	ItemCount   int
	Filtered    int
	MarkedCount int
	MarkedSize  int64
	UseApparent bool
	Errors      model.ErrorStats
	ReadOnly    bool
	Message     string
}

// spread places left and right at opposite ends of a width-wide line with
// at least one space between them.
func spread(left, right string, width int) string {
	gap := max(1, width-lipgloss.Width(left)-lipgloss.Width(right))
	return left + strings.Repeat(" ", gap) + right
}

func (info StatusInfo) summary(theme style.Theme) []string {
	var parts []string
	if dir := info.CurrentDir; dir != nil {
		items := fmt.Sprintf("%d items", info.ItemCount)
		if info.Filtered > 0 {
			items += fmt.Sprintf(" (%d hidden)", info.Filtered)
		}
		size, label := dir.Usage, "disk"
		if info.UseApparent {
			size, label = dir.Size, "apparent"
		}
		parts = append(parts, items, util.FormatSize(size)+" "+label)
	}
	if n := info.Errors.Total(); n > 0 {
		parts = append(parts, theme.ErrorText.Render(fmt.Sprintf("%d unreadable", n)))
	}
	if info.MarkedCount > 0 {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.Error).Bold(true).
			Render(fmt.Sprintf("* %d marked (%s)", info.MarkedCount, util.FormatSize(info.MarkedSize))))
	}
	return parts
}

// RenderStatusBar draws the bottom line. A pending message replaces the
// summary until the next key press.
func RenderStatusBar(theme style.Theme, info StatusInfo, width int) string {
	bar := theme.StatusBarStyle.Width(width)
	if info.Message != "" {
		return bar.Render(" " + lipgloss.NewStyle().Foreground(theme.Warning).Bold(true).Render(info.Message))
	}

	keyStyle := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(theme.TextMuted)
	var hints []string
	for _, h := range [][2]string{{"?", "help"}, {"d", "delete"}, {"q", "quit"}} {
		if info.ReadOnly && h[0] == "d" {
			continue
		}
		hints = append(hints, keyStyle.Render(h[0])+descStyle.Render(" "+h[1]))
	}

	left := " " + strings.Join(info.summary(theme), " | ")
	return bar.Render(spread(left, strings.Join(hints, "  ")+" ", width))
}

var viewNames = []string{"Tree View", "Treemap"}

// RenderTabBar draws the view tabs with the active sort on the right.
func RenderTabBar(theme style.Theme, activeView int, sort model.SortConfig, width int) string {
	tabs := make([]string, len(viewNames))
	for i, name := range viewNames {
		tab := theme.TabInactiveStyle
		if i == activeView {
			tab = theme.TabActiveStyle
		}
		tabs[i] = tab.Render(fmt.Sprintf(" %d %s ", i+1, name))
	}

	arrow := "↓"
	if sort.Order == model.SortAsc {
		arrow = "↑"
	}
	label := lipgloss.NewStyle().Foreground(theme.TextMuted).
		Render(fmt.Sprintf("Sort: %s %s ", sort.Field, arrow))

	return lipgloss.NewStyle().
		Foreground(theme.TextSecondary).
		Background(theme.BgLight).
		Width(width).
		Render(spread(" "+strings.Join(tabs, " "), label, width))
}
