package renderer

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// LevelTrace sits below slog.LevelDebug and carries verbose driver
// messages.
const LevelTrace = slog.Level(-8)

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger used by renderers created afterwards.
// By default nothing is logged. Pass nil to restore the silent default.
//
// Levels used:
//   - [LevelTrace]: verbose driver diagnostics
//   - [slog.LevelDebug]: per-stage setup details, informational driver messages
//   - [slog.LevelInfo]: lifecycle events (device selected, swapchain built)
//   - [slog.LevelWarn]: skipped devices, driver warnings
//   - [slog.LevelError]: driver-reported errors
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current package logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
