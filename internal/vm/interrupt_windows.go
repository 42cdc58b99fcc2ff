//go:build windows

package vm

import (
	"golang.org/x/sys/windows"
)

// NewSignalInterrupter builds an Interrupter that sets its flag when
// the host console delivers CTRL_C_EVENT or CTRL_BREAK_EVENT, the
// Windows half of the build-tag split the teacher's own
// core/process_unix.go/process_windows.go follows: os/signal's SIGINT
// doesn't reliably observe a console close on Windows, so this goes
// straight to SetConsoleCtrlHandler the way the teacher's
// process_windows.go goes straight to kernel32's OpenProcess/
// GetExitCodeProcess instead of a portable stdlib call.
func NewSignalInterrupter() (in *Interrupter, stop func()) {
	in = NewInterrupter()
	handler := func(ctrlType uint32) uintptr {
		switch ctrlType {
		case windows.CTRL_C_EVENT, windows.CTRL_BREAK_EVENT, windows.CTRL_CLOSE_EVENT:
			in.Set()
			return 1
		}
		return 0
	}
	windows.SetConsoleCtrlHandler(handler, true)
	return in, func() {
		windows.SetConsoleCtrlHandler(handler, false)
	}
}
