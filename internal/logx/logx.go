// Package logx implements a small leveled, colorized logger matching the
// six-level filter (off/error/warn/info/debug/trace) the rest of the proxy
// is built against.
package logx

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Level is one of the six accepted verbosity levels, ordered from least to
// most verbose.
type Level int

const (
	Off Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

// ParseLevel parses a case-insensitive level name.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "off":
		return Off, nil
	case "error":
		return LevelError, nil
	case "warn":
		return LevelWarn, nil
	case "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "trace":
		return LevelTrace, nil
	default:
		return Off, fmt.Errorf("logx: unknown level %q", s)
	}
}

// Logger is a leveled logger gated at a fixed level, satisfying
// proxy.Logger. It is safe for concurrent use; the underlying log.Logger
// owns its own mutex.
type Logger struct {
	level  Level
	out    *log.Logger
	prefix string
}

// New builds a Logger writing to w at the given level.
func New(w io.Writer, level Level) *Logger {
	return &Logger{level: level, out: log.New(w, "", 0)}
}

// NewDefault builds a Logger writing to stderr.
func NewDefault(level Level) *Logger {
	return New(os.Stderr, level)
}

// With returns a child logger that prefixes every line with prefix, standing
// in for a per-connection context (connection id, remote address).
func (l *Logger) With(prefix string) *Logger {
	combined := prefix
	if l.prefix != "" {
		combined = l.prefix + " " + prefix
	}
	return &Logger{level: l.level, out: l.out, prefix: combined}
}

func (l *Logger) logf(level Level, tag string, colorize func(format string, a ...any) string, format string, args ...any) {
	if l.level < level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.prefix != "" {
		msg = l.prefix + " " + msg
	}
	ts := time.Now().Format("15:04:05.000")
	l.out.Print(colorize("%s [%s] %s", ts, tag, msg))
}

func (l *Logger) Tracef(format string, args ...any) {
	l.logf(LevelTrace, "TRACE", color.HiBlackString, format, args...)
}

func (l *Logger) Debugf(format string, args ...any) {
	l.logf(LevelDebug, "DEBUG", color.CyanString, format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.logf(LevelInfo, "INFO", color.GreenString, format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.logf(LevelWarn, "WARN", color.YellowString, format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.logf(LevelError, "ERROR", color.RedString, format, args...)
}
