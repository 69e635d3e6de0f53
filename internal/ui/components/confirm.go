package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/dutree/internal/ops"
	"github.com/sadopc/dutree/internal/ui/style"
	"github.com/sadopc/dutree/internal/util"
)

// ConfirmItem represents an item pending deletion.
type ConfirmItem struct {
	Name  string
	Path  string
	Size  int64
	IsDir bool
}

// maxListed caps how many pending items the dialog names.
const maxListed = 10

// RenderConfirmDialog asks before deleting items. preview is nil while the
// contents are still being counted or when they cannot be.
func RenderConfirmDialog(theme style.Theme, items []ConfirmItem, preview *ops.PreviewStats, width, height int) string {
	const boxWidth = 60
	muted := lipgloss.NewStyle().Foreground(theme.TextMuted)
	danger := lipgloss.NewStyle().Foreground(theme.Error)
	plain := lipgloss.NewStyle().Foreground(theme.TextPrimary)

	lines := []string{
		theme.ModalTitle.Render("  Delete Confirmation"),
		lipgloss.NewStyle().Foreground(theme.Warning).
			Render(fmt.Sprintf("  The following %d item(s) will be permanently deleted:", len(items))),
		"",
	}

	var total int64
	for i, item := range items {
		total += item.Size
		if i >= maxListed {
			continue
		}
		kind := "F"
		if item.IsDir {
			kind = "D"
		}
		name := util.TruncateString(item.Name, min(boxWidth, width-4)-20)
		lines = append(lines, danger.Render("  "+kind+" "+name)+muted.Render("  "+util.FormatSize(item.Size)))
	}
	if extra := len(items) - maxListed; extra > 0 {
		lines = append(lines, muted.Render(fmt.Sprintf("  ... and %d more", extra)))
	}

	lines = append(lines, "", plain.Bold(true).Render("  Total: "+util.FormatSize(total)))
	if preview != nil {
		lines = append(lines, muted.Render(fmt.Sprintf("  Contains %s files in %s directories",
			util.FormatCount(preview.Files), util.FormatCount(preview.Dirs))))
		if preview.Errors > 0 {
			lines = append(lines, theme.ErrorText.Render(fmt.Sprintf("  %d entries could not be read", preview.Errors)))
		}
	}

	lines = append(lines, "", strings.Join([]string{
		plain.Render("  Press "),
		lipgloss.NewStyle().Bold(true).Foreground(theme.Success).Render("y"),
		plain.Render(" to confirm, "),
		danger.Bold(true).Render("n/esc"),
		plain.Render(" to cancel"),
	}, ""))

	return modal(theme, lines, boxWidth, width, height)
}
