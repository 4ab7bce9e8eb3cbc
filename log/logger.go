// Package log wraps log/slog behind the teacher's Logger interface, so
// chainhead components depend on a small interface instead of the
// standard library logger directly and tests can swap in a recording
// logger.
package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// Logger writes structured log records. The method set mirrors slog's
// level methods so a *slog.Logger can be adapted with a thin wrapper.
type Logger interface {
	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)

	// With returns a new Logger that always includes the given context.
	With(ctx ...any) Logger

	// Handler returns the underlying slog.Handler.
	Handler() slog.Handler
}

// LevelTrace is one level below slog.LevelDebug, matching the teacher's
// five-level scheme (Trace, Debug, Info, Warn, Error) instead of slog's
// default four.
const LevelTrace = slog.Level(-8)

type logger struct {
	inner *slog.Logger
}

// NewLogger returns a Logger backed by h.
func NewLogger(h slog.Handler) Logger {
	return &logger{inner: slog.New(h)}
}

func (l *logger) write(level slog.Level, msg string, ctx []any) {
	l.inner.Log(context.Background(), level, msg, ctx...)
}

func (l *logger) Trace(msg string, ctx ...any) { l.write(LevelTrace, msg, ctx) }
func (l *logger) Debug(msg string, ctx ...any) { l.write(slog.LevelDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...any)  { l.write(slog.LevelInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...any)  { l.write(slog.LevelWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...any) { l.write(slog.LevelError, msg, ctx) }

func (l *logger) With(ctx ...any) Logger {
	return &logger{inner: l.inner.With(ctx...)}
}

func (l *logger) Handler() slog.Handler { return l.inner.Handler() }

// NewTerminalHandler returns a slog.Handler that writes human-readable
// text lines, suitable for a developer's terminal. When useColor is true,
// the level is wrapped in the level's ANSI color; w is not checked for
// being a terminal.
func NewTerminalHandler(w *os.File, useColor bool) slog.Handler {
	opts := &slog.HandlerOptions{Level: LevelTrace}
	if !useColor {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: LevelTrace,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				a.Value = slog.StringValue(colorizeLevel(a.Value.Any().(slog.Level)))
			}
			return a
		},
	})
}

// ANSI color codes for each level: red for errors, yellow for warnings,
// green for info, and cyan for debug/trace.
const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorYellow = "\x1b[33m"
	colorGreen  = "\x1b[32m"
	colorCyan   = "\x1b[36m"
)

func colorizeLevel(level slog.Level) string {
	var color, label string
	switch {
	case level >= slog.LevelError:
		color, label = colorRed, "ERROR"
	case level >= slog.LevelWarn:
		color, label = colorYellow, "WARN"
	case level >= slog.LevelInfo:
		color, label = colorGreen, "INFO"
	case level >= slog.LevelDebug:
		color, label = colorCyan, "DEBUG"
	default:
		color, label = colorCyan, "TRACE"
	}
	return fmt.Sprintf("%s%s%s", color, label, colorReset)
}

// JSONHandler returns a slog.Handler that writes one JSON object per
// record, used by production deployments that ship logs to a collector.
func JSONHandler(w *os.File) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: LevelTrace})
}

var root Logger = NewLogger(NewTerminalHandler(os.Stderr, false))

// Root returns the root logger, which package-level Trace/Debug/... write
// through.
func Root() Logger { return root }

// SetDefault sets the root logger used by the package-level log functions.
func SetDefault(l Logger) { root = l }

func Trace(msg string, ctx ...any) { root.Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { root.Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { root.Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { root.Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { root.Error(msg, ctx...) }
