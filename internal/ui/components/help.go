package components

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/dutree/internal/ui/style"
)

// HelpSection is a titled group of bindings in the help overlay.
type HelpSection struct {
	Title    string
	Bindings []key.Binding
}

// RenderHelp lists every enabled binding with the key and description it
// was declared with.
func RenderHelp(theme style.Theme, sections []HelpSection, width, height int) string {
	heading := lipgloss.NewStyle().Bold(true).Foreground(theme.Accent)
	desc := lipgloss.NewStyle().Foreground(theme.TextSecondary)
	keyCol := theme.HelpKey.Width(14)

	lines := []string{theme.ModalTitle.Render("  dutree - Keyboard Shortcuts"), ""}
	for _, sec := range sections {
		lines = append(lines, heading.Render("  "+sec.Title))
		for _, b := range sec.Bindings {
			if !b.Enabled() {
				continue
			}
			h := b.Help()
			lines = append(lines, keyCol.Render("    "+h.Key)+" "+desc.Render(h.Desc))
		}
		lines = append(lines, "")
	}
	lines = append(lines, theme.HelpDesc.Render("  Press ? or Esc to close"))

	return modal(theme, lines, 60, width, height)
}
