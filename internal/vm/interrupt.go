package vm

import (
	"sync/atomic"

	"github.com/oxhq/esengine/internal/xlog"
)

// Interrupter is a host-controllable cancellation flag for a running
// Engine: Hook wires it into Engine.InterruptCheck, Set requests the
// next instruction-dispatch iteration abort the running frame with a
// RangeError (spec §4.6.7's host interrupt hook), and Clear
// rearms it for the Engine's next Run call. NewSignalInterrupter
// (interrupt_unix.go/interrupt_windows.go) builds one wired to the
// host process's own interrupt signal; embedders needing programmatic
// cancellation (a context.Context deadline, an explicit Stop button)
// can just construct an Interrupter directly and call Set themselves.
type Interrupter struct {
	flag atomic.Bool

	// Log, when non-nil, receives a Debug event each time Set actually
	// transitions the flag (§4.1a's "interrupt delivery" diagnostic).
	Log *xlog.Logger
}

// NewInterrupter returns a ready-to-use, not-yet-triggered Interrupter.
func NewInterrupter() *Interrupter { return &Interrupter{} }

// SetLogger installs the diagnostic logger Set reports delivery through.
func (in *Interrupter) SetLogger(l *xlog.Logger) { in.Log = l }

// Set requests interruption; safe to call from any goroutine, including
// a signal handler.
func (in *Interrupter) Set() {
	if !in.flag.Swap(true) && in.Log != nil {
		in.Log.Debug("interrupt delivered")
	}
}

// Clear rearms the flag after a previous interruption has been handled.
func (in *Interrupter) Clear() { in.flag.Store(false) }

// Triggered reports whether Set has been called since the last Clear.
func (in *Interrupter) Triggered() bool { return in.flag.Load() }

// Hook installs this Interrupter as eng's InterruptCheck.
func (in *Interrupter) Hook(eng *Engine) {
	eng.InterruptCheck = in.Triggered
}
