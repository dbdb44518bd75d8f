package viewport

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards every record. Enabled reports false so callers skip
// formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger configures the logger used by the viewport engine.
// By default the package is silent. Pass nil to restore that.
//
// Levels used:
//   - [slog.LevelDebug]: gesture lifecycle, arbitration denials, skipped work
//     while the container is unmeasured
//   - [slog.LevelWarn]: non-finite values replaced by the last good transform
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the current viewport logger. Safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
