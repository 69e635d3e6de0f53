package util

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
)

// FormatSize renders a byte count in binary units ("1.5 KiB").
// Negative values render as zero.
func FormatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}

// ParseSize accepts both SI ("10MB") and binary ("10MiB") units.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n > 1<<63-1 {
		return 0, fmt.Errorf("size %q out of range", s)
	}
	return int64(n), nil
}

var countUnits = []struct {
	limit  int64
	suffix string
}{
	{1_000_000_000, "B"},
	{1_000_000, "M"},
	{1_000, "K"},
}

// FormatCount abbreviates entry counts for narrow columns: 999, 1.2K, 3.4M.
func FormatCount(n int64) string {
	for _, u := range countUnits {
		if n >= u.limit {
			return strconv.FormatFloat(float64(n)/float64(u.limit), 'f', 1, 64) + u.suffix
		}
	}
	return strconv.FormatInt(n, 10)
}

// Percent is part as a percentage of total, or 0 for an empty total.
func Percent(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(part) / float64(total)
}

// TruncateString cuts s to maxLen terminal cells, ending in "..." when
// there is room for it.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	tail := "..."
	if maxLen <= len(tail) {
		tail = ""
	}
	return ansi.Truncate(s, maxLen, tail)
}
