package rhi

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/rhi/backend/empty"
	"github.com/gogpu/rhi/backend/native"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for rhi and its backend packages.
// By default rhi produces no log output. Pass nil to restore that.
//
// Log levels used by rhi:
//   - [slog.LevelDebug]: device info, clone and release traces
//   - [slog.LevelInfo]: adapter selection, swapchain builds
//   - [slog.LevelWarn]: fallbacks such as an unsupported present mode
//
// Example:
//
//	rhi.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	empty.SetLogger(l)
	native.SetLogger(l)
}

// Logger returns the current logger. Safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
