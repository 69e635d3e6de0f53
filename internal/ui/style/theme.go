package style

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// Palette is the set of base colors a Theme derives its styles from.
type Palette struct {
	Primary, Accent, Muted    lipgloss.Color
	Error, Warning, Success   lipgloss.Color
	BgDark, BgMedium, BgLight lipgloss.Color

	TextPrimary, TextSecondary, TextMuted lipgloss.Color

	// Share bars blend from GradientStart to GradientEnd.
	GradientStart, GradientEnd lipgloss.Color
}

// Nord is the default dark palette.
var Nord = Palette{
	Primary: "#5E81AC", Accent: "#88C0D0", Muted: "#4C566A",
	Error: "#BF616A", Warning: "#EBCB8B", Success: "#A3BE8C",
	BgDark: "#1E222A", BgMedium: "#2E3440", BgLight: "#3B4252",

	TextPrimary: "#ECEFF4", TextSecondary: "#D8DEE9", TextMuted: "#7B88A1",

	GradientStart: "#A3BE8C", GradientEnd: "#BF616A",
}

// Theme is a palette plus the styles every component draws with.
type Theme struct {
	Palette

	HeaderStyle, BreadcrumbStyle     lipgloss.Style
	TabActiveStyle, TabInactiveStyle lipgloss.Style
	StatusBarStyle, SelectedRow      lipgloss.Style
	MarkedIndicator, CursorIndicator lipgloss.Style
	DirName, FileName                lipgloss.Style
	SizeText, PercentText, ErrorText lipgloss.Style
	HelpKey, HelpDesc                lipgloss.Style
	ModalStyle, ModalTitle           lipgloss.Style
}

func DefaultTheme() Theme { return NewTheme(Nord) }

// NewTheme derives the component styles from p.
func NewTheme(p Palette) Theme {
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	bold := func(c lipgloss.Color) lipgloss.Style { return fg(c).Bold(true) }

	return Theme{
		Palette: p,

		HeaderStyle:      bold(p.TextPrimary).Background(p.BgMedium),
		BreadcrumbStyle:  fg(p.TextMuted),
		TabActiveStyle:   bold(p.TextPrimary).Background(p.Primary).Padding(0, 1),
		TabInactiveStyle: fg(p.TextMuted).Padding(0, 1),
		StatusBarStyle:   fg(p.TextSecondary).Background(p.BgMedium),
		SelectedRow:      bold(p.TextPrimary).Background(p.BgLight),

		MarkedIndicator: bold(p.Error),
		CursorIndicator: bold(p.Accent),
		DirName:         bold(p.Accent),
		FileName:        fg(p.TextSecondary),
		SizeText:        fg(p.TextMuted).Align(lipgloss.Right),
		PercentText:     fg(p.TextMuted).Width(6).Align(lipgloss.Right),
		ErrorText:       fg(p.Error),
		HelpKey:         bold(p.Primary),
		HelpDesc:        fg(p.TextMuted),

		ModalStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Primary).
			Background(p.BgMedium).
			Padding(1, 2),
		ModalTitle: bold(p.TextPrimary).PaddingBottom(1),
	}
}

// GradientColor blends the gradient endpoints in Lab space; ratio is clamped
// to [0, 1].
func (t Theme) GradientColor(ratio float64) lipgloss.Color {
	switch {
	case ratio <= 0:
		return t.GradientStart
	case ratio >= 1:
		return t.GradientEnd
	}
	from, err := colorful.Hex(string(t.GradientStart))
	if err != nil {
		return t.GradientStart
	}
	to, err := colorful.Hex(string(t.GradientEnd))
	if err != nil {
		return t.GradientStart
	}
	return lipgloss.Color(from.BlendLab(to, ratio).Hex())
}

// BarGradient renders a bar of width cells with the leading ratio filled.
// Each filled cell takes its color from its position along the full width,
// so a longer bar ends in a hotter color.
func (t Theme) BarGradient(width int, ratio float64) string {
	if width <= 0 {
		return ""
	}
	filled := max(0, min(width, int(ratio*float64(width))))
	span := float64(max(width-1, 1))

	var b strings.Builder
	for i := range filled {
		b.WriteString(lipgloss.NewStyle().Foreground(t.GradientColor(float64(i) / span)).Render("━"))
	}
	if rest := width - filled; rest > 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(t.TextMuted).Render(strings.Repeat("─", rest)))
	}
	return b.String()
}
