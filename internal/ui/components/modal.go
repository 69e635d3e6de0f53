package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/dutree/internal/ui/style"
)

// modal centres lines in a bordered box at most maxWidth cells wide.
func modal(theme style.Theme, lines []string, maxWidth, width, height int) string {
	box := theme.ModalStyle.
		Width(min(maxWidth, width-4)).
		Render(strings.Join(lines, "\n"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
