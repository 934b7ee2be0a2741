// Package threadid identifies the OS thread a goroutine is pinned to.
//
// The Listener Adapter (spec §4.2) routes a backend callback by comparing
// the calling thread's id against the recorded audio-thread and
// worker-thread ids. A bare goroutine id is not enough: the Go scheduler
// is free to migrate an unpinned goroutine across OS threads, so the
// audio, worker, and GUI goroutines each call Pin() once, at the top of
// their run loop, to call runtime.LockOSThread and record the resulting
// thread id for the remainder of their lifetime.
package threadid

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// ID is an OS thread id (Linux tid).
type ID int32

// Current returns the OS thread id of the calling goroutine's underlying thread.
func Current() ID {
	return ID(unix.Gettid())
}

// Pin locks the calling goroutine to its current OS thread for the rest of
// its lifetime and returns the thread's id. Call once at the top of a
// long-lived role goroutine (audio, worker, GUI); never call from a
// goroutine that returns to the scheduler's general pool afterward.
func Pin() ID {
	runtime.LockOSThread()
	return Current()
}
