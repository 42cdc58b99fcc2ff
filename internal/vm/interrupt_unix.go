//go:build !windows

package vm

import (
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// NewSignalInterrupter builds an Interrupter that sets its flag the
// moment the host process receives SIGINT or SIGTERM, the Unix half of
// the build-tag split the teacher's own core/process_unix.go/
// process_windows.go follows for platform-specific process control.
// The returned stop func cancels the underlying signal.Notify
// subscription; callers that run an Engine for the process's whole
// lifetime can discard it.
func NewSignalInterrupter() (in *Interrupter, stop func()) {
	in = NewInterrupter()
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, unix.SIGINT, unix.SIGTERM)
	done := make(chan struct{})
	go func() {
		select {
		case <-ch:
			in.Set()
		case <-done:
		}
	}()
	return in, func() {
		signal.Stop(ch)
		close(done)
	}
}
