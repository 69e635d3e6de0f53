package style

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestLayoutDimensions(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		content       int
		bar           int
	}{
		{name: "standard terminal", width: 80, height: 24, content: 20, bar: 40},
		{name: "tall terminal", width: 80, height: 50, content: 46, bar: 40},
		{name: "narrow", width: 30, height: 24, content: 20, bar: 7},
		{name: "tiny", width: 10, height: 5, content: 1, bar: 5},
		{name: "no rows left", width: 10, height: 4, content: 1, bar: 5},
		{name: "zero height", width: 200, height: 0, content: 1, bar: 40},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := NewLayout(tc.width, tc.height)
			if got := l.ContentHeight(); got != tc.content {
				t.Errorf("ContentHeight() = %d, want %d", got, tc.content)
			}
			if got := l.BarWidth(); got != tc.bar {
				t.Errorf("BarWidth() = %d, want %d", got, tc.bar)
			}
			if got := l.NameWidth(); got < minName {
				t.Errorf("NameWidth() = %d, want at least %d", got, minName)
			}
		})
	}
}

func TestLayoutRowFillsWidth(t *testing.T) {
	for _, width := range []int{80, 100, 120, 200} {
		l := NewLayout(width, 24)
		if got := l.NameWidth() + l.BarWidth() + rowChrome; got != width {
			t.Errorf("width %d: row spans %d cells", width, got)
		}
	}
}

func TestFullWidth(t *testing.T) {
	for _, tc := range []struct {
		in    string
		width int
		want  string
	}{
		{"hi", 5, "hi   "},
		{"hello", 5, "hello"},
		{"overflow", 3, "overflow"},
		{"", 2, "  "},
	} {
		if got := FullWidth(tc.in, tc.width); got != tc.want {
			t.Errorf("FullWidth(%q, %d) = %q, want %q", tc.in, tc.width, got, tc.want)
		}
	}
}

func TestBarGradient_Width(t *testing.T) {
	theme := DefaultTheme()
	for _, ratio := range []float64{-1, 0, 0.5, 1, 3} {
		got := lipgloss.Width(theme.BarGradient(12, ratio))
		if got != 12 {
			t.Errorf("BarGradient(12, %v) width = %d, want 12", ratio, got)
		}
	}
	if theme.BarGradient(0, 0.5) != "" {
		t.Error("expected empty bar for zero width")
	}
}

func TestGradientColor_Endpoints(t *testing.T) {
	theme := DefaultTheme()
	if got := theme.GradientColor(-0.5); got != theme.GradientStart {
		t.Errorf("GradientColor(-0.5) = %s, want %s", got, theme.GradientStart)
	}
	if got := theme.GradientColor(2); got != theme.GradientEnd {
		t.Errorf("GradientColor(2) = %s, want %s", got, theme.GradientEnd)
	}
	mid := theme.GradientColor(0.5)
	if mid == theme.GradientStart || mid == theme.GradientEnd {
		t.Errorf("GradientColor(0.5) = %s, want a blend", mid)
	}
}
