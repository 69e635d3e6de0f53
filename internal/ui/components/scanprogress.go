package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/dutree/internal/scanner"
	"github.com/sadopc/dutree/internal/ui/style"
	"github.com/sadopc/dutree/internal/util"
)

// RenderScanProgress shows the running counters of a scan.
func RenderScanProgress(theme style.Theme, progress scanner.Progress, width, height int) string {
	stat := lipgloss.NewStyle().Foreground(theme.TextSecondary)
	muted := lipgloss.NewStyle().Foreground(theme.TextMuted)

	lines := []string{lipgloss.NewStyle().Bold(true).Foreground(theme.Primary).Render("  Scanning..."), ""}
	for _, row := range [][2]string{
		{"Files", util.FormatCount(progress.FilesScanned)},
		{"Dirs", util.FormatCount(progress.DirsScanned)},
		{"Size", util.FormatSize(progress.BytesFound)},
		{"Speed", util.FormatCount(int64(progress.Rate())) + " items/s"},
	} {
		lines = append(lines, stat.Render(fmt.Sprintf("  %-7s %s", row[0]+":", row[1])))
	}
	if progress.Errors > 0 {
		lines = append(lines, theme.ErrorText.Render(fmt.Sprintf("  Errors: %d", progress.Errors)))
	}

	lines = append(lines, "")
	if progress.CurrentPath != "" {
		lines = append(lines, muted.Render("  "+util.TruncateString(progress.CurrentPath, min(50, width-4)-8)))
	}
	lines = append(lines, muted.Render(fmt.Sprintf("  Elapsed: %.1fs", progress.Elapsed.Seconds())))

	return modal(theme, lines, 50, width, height)
}
