package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	assert.Nil(t, l.Sublogger("x"))
	assert.Equal(t, LevelDisabled, l.Level())
	l.Printf("ignored %d", 1)
	l.Debugf("ignored")
	l.Tracef("ignored")
	l.Warn(errors.New("ignored"))
	l.Error(errors.New("ignored"))
}

func TestNewDisabledReturnsNil(t *testing.T) {
	assert.Nil(t, New(&bytes.Buffer{}, LevelDisabled))
}

func TestLevelFiltering(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	l := New(&buf, LevelInfo).Sublogger("engine").Sublogger("walker")
	require.NotNil(t, l)

	l.Printf("built %s", "/data")
	l.Debugf("hidden")
	l.Warn(errors.New("slow disk"))

	out := buf.String()
	assert.Contains(t, out, "[engine.walker] built /data")
	assert.Contains(t, out, "Warning: slow disk")
	assert.NotContains(t, out, "hidden")
}

func TestNameToLevel(t *testing.T) {
	for _, name := range []string{"disabled", "error", "warn", "info", "debug", "trace"} {
		level, ok := NameToLevel(name)
		require.True(t, ok, name)
		assert.Equal(t, name, level.String())
	}
	_, ok := NameToLevel("verbose")
	assert.False(t, ok)
}
