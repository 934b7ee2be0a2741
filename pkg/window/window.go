// Package window models the windowing backend collaborator from spec §6:
// an out-of-scope external capability (a real deployment binds this to
// the host OS's native window system) that creates, positions, and runs
// the event loop for a plugin editor. pkg/host only ever talks to the
// Backend interface; a headless Backend (the default, see Headless) lets
// every other package's tests run without a real display.
package window

import "context"

// Window is a single plugin editor's native window handle.
type Window interface {
	// Handle returns the native parent handle a Backend.OpenEditor call
	// embeds a plugin's editor into.
	Handle() uintptr
	SetTitle(title string)
	SetGeometry(left, top, right, bottom int32)
	Show()
	Hide()
	BringToTop()
	Close()
}

// Backend creates Windows and owns the GUI-thread event loop (spec §6:
// "create(plugin) -> Window; setTitle; setGeometry; show/hide/
// bringToTop; run/quit; poll").
type Backend interface {
	// Create makes a new Window bound to parent (a native window handle,
	// 0 for a top-level window). Must be called from the GUI thread.
	Create(parent uintptr) (Window, error)
	// Run blocks, pumping the native event loop, until ctx is cancelled
	// or Quit is called. Backends without a dedicated GUI thread (per
	// spec §6, "poll (when there is no dedicated GUI thread)") may
	// instead implement Run as a no-op and rely on callers invoking Poll.
	Run(ctx context.Context)
	// Poll processes one batch of pending native events without
	// blocking; used by backends with no dedicated event-loop thread.
	Poll()
	// Quit unblocks a pending Run.
	Quit()
}
