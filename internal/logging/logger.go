package logging

import (
	"fmt"
	"io"
	"log"

	"github.com/fatih/color"
)

// Logger is the main logger type. It still functions if nil, but it doesn't
// log anything. It is safe for concurrent usage.
type Logger struct {
	// prefix is any prefix specified for the logger.
	prefix string
	// level is the maximum level that will be emitted.
	level Level
	// out is the shared underlying logger.
	out *log.Logger
}

// New creates a root logger writing to w at the given level. A disabled level
// yields a nil logger.
func New(w io.Writer, level Level) *Logger {
	if level == LevelDisabled || w == nil {
		return nil
	}
	return &Logger{
		level: level,
		out:   log.New(w, "", log.LstdFlags),
	}
}

// Sublogger creates a new sublogger with the specified name.
func (l *Logger) Sublogger(name string) *Logger {
	// If the logger is nil, then the sublogger will be as well.
	if l == nil {
		return nil
	}

	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}

	return &Logger{
		prefix: prefix,
		level:  l.level,
		out:    l.out,
	}
}

// Level returns the logger's level.
func (l *Logger) Level() Level {
	if l == nil {
		return LevelDisabled
	}
	return l.level
}

// Enabled reports whether messages at level would be emitted.
func (l *Logger) Enabled(level Level) bool {
	return l != nil && level != LevelDisabled && level <= l.level
}

// output is the internal logging method.
func (l *Logger) output(line string) {
	if l.prefix != "" {
		line = fmt.Sprintf("[%s] %s", l.prefix, line)
	}
	l.out.Output(3, line)
}

// Printf logs basic execution information with semantics equivalent to
// fmt.Printf.
func (l *Logger) Printf(format string, v ...interface{}) {
	if l.Enabled(LevelInfo) {
		l.output(fmt.Sprintf(format, v...))
	}
}

// Debugf logs information with semantics equivalent to fmt.Printf, but only if
// debugging is enabled (otherwise it's a no-op).
func (l *Logger) Debugf(format string, v ...interface{}) {
	if l.Enabled(LevelDebug) {
		l.output(fmt.Sprintf(format, v...))
	}
}

// Tracef logs low-level information, only at trace level.
func (l *Logger) Tracef(format string, v ...interface{}) {
	if l.Enabled(LevelTrace) {
		l.output(fmt.Sprintf(format, v...))
	}
}

// Warn logs error information with a warning prefix and yellow color.
func (l *Logger) Warn(err error) {
	if l.Enabled(LevelWarn) {
		l.output(color.YellowString("Warning: %v", err))
	}
}

// Error logs error information with an error prefix and red color.
func (l *Logger) Error(err error) {
	if l.Enabled(LevelError) {
		l.output(color.RedString("Error: %v", err))
	}
}
