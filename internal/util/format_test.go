package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSize(t *testing.T) {
	for bytes, want := range map[int64]string{
		-100:      "0 B",
		0:         "0 B",
		1023:      "1023 B",
		1536:      "1.5 KiB",
		15 << 10:  "15 KiB",
		1 << 20:   "1.0 MiB",
		1 << 30:   "1.0 GiB",
		1 << 40:   "1.0 TiB",
		3<<40 + 1: "3.0 TiB",
	} {
		assert.Equal(t, want, FormatSize(bytes), "FormatSize(%d)", bytes)
	}
}

func TestParseSize(t *testing.T) {
	for in, want := range map[string]int64{
		"":        0,
		"512":     512,
		"10MB":    10_000_000,
		"10MiB":   10 << 20,
		" 1 KiB ": 1024,
		"2g":      2_000_000_000,
	} {
		got, err := ParseSize(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"lots", "-5MB", "99999999EiB"} {
		_, err := ParseSize(in)
		assert.Error(t, err, in)
	}
}

func TestFormatCount(t *testing.T) {
	for n, want := range map[int64]string{
		0:             "0",
		999:           "999",
		1000:          "1.0K",
		1500:          "1.5K",
		999_949:       "999.9K",
		1_000_000:     "1.0M",
		2_000_000_000: "2.0B",
	} {
		assert.Equal(t, want, FormatCount(n), "FormatCount(%d)", n)
	}
}

func TestPercent(t *testing.T) {
	assert.Zero(t, Percent(10, 0))
	assert.Equal(t, 50.0, Percent(50, 100))
	assert.Equal(t, 150.0, Percent(150, 100))
	assert.InDelta(t, 33.333, Percent(1, 3), 0.001)
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 5, "he..."},
		{"abcdefgh", 6, "abc..."},
		{"hello", 3, "hel"},
		{"hello", 0, ""},
		{"日本語テキスト", 7, "日本..."},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, TruncateString(tc.in, tc.width), "TruncateString(%q, %d)", tc.in, tc.width)
	}
}
