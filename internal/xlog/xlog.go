// Package xlog is the engine's own minimal diagnostic logger: a Debug-
// gated wrapper that mirrors the teacher's `if s.config.Debug { fmt.
// Fprintf(os.Stderr, "[DEBUG] ...") }` idiom (mcp/logging.go,
// mcp/async_staging.go) without hand-rolling a second print-formatting
// layer — log/slog already gives structured key=value records, so xlog
// is just the gate plus the event vocabulary internal/heap, internal/vm
// and internal/module emit through. No third-party logging library is
// pulled in: the teacher itself never imports one anywhere in the pack,
// so this package stays consistent with that rather than introducing
// one unilaterally (see DESIGN.md).
package xlog

import (
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

// Logger gates slog.Logger calls behind an atomic enabled flag, the
// same "config.Debug { ... }" check the teacher repeats at every call
// site, collapsed into one place so every engine-internal package
// shares the same on/off switch and output destination.
type Logger struct {
	enabled atomic.Bool
	sl      *slog.Logger
}

// New builds a Logger writing slog's text handler to w at Debug level,
// disabled until SetEnabled(true) turns it on (cmd/esengine does so
// when the configured log level is "debug").
func New(w io.Writer) *Logger {
	return &Logger{sl: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))}
}

// Default writes to os.Stderr, matching every teacher trace line's
// destination.
func Default() *Logger { return New(os.Stderr) }

// SetEnabled flips the gate; safe to call concurrently with logging
// calls from other goroutines (the VM's GC and a host-driven Stop can
// both want to log around the same time).
func (l *Logger) SetEnabled(v bool) { l.enabled.Store(v) }

func (l *Logger) Enabled() bool { return l.enabled.Load() }

// Debug logs a GC cycle, module state transition, or interrupt-delivery
// event (§4.1a's three named event families) when enabled; a no-op
// otherwise, so call sites never need their own Debug guard.
func (l *Logger) Debug(msg string, args ...any) {
	if l.enabled.Load() {
		l.sl.Debug(msg, args...)
	}
}

// Info logs unconditionally — reserved for events a host always wants
// visible (module graph load failures), not the gated trace chatter.
func (l *Logger) Info(msg string, args ...any) {
	l.sl.Info(msg, args...)
}

// Error logs unconditionally.
func (l *Logger) Error(msg string, args ...any) {
	l.sl.Error(msg, args...)
}
