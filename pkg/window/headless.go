package window

import (
	"context"
	"sync"
)

// Headless implements Backend without any native window system: Windows
// just track their own state in memory. Used by every test in this
// module, and by deployments that only ever drive a backend with
// withEditor=0.
type Headless struct {
	mu   sync.Mutex
	quit chan struct{}
}

// NewHeadless returns a ready-to-use Headless backend.
func NewHeadless() *Headless {
	return &Headless{quit: make(chan struct{})}
}

func (h *Headless) Create(parent uintptr) (Window, error) {
	return &headlessWindow{parent: parent}, nil
}

// Run blocks until ctx is cancelled or Quit is called, occupying the
// calling goroutine the way a real event loop occupies its thread. It
// does not lock the goroutine to an OS thread.
func (h *Headless) Run(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-h.quit:
	}
}

// Poll is a no-op; Headless has no event queue to drain.
func (h *Headless) Poll() {}

func (h *Headless) Quit() {
	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-h.quit:
	default:
		close(h.quit)
	}
}

type headlessWindow struct {
	mu       sync.Mutex
	parent   uintptr
	title    string
	l, t, r, b int32
	visible  bool
	closed   bool
}

func (w *headlessWindow) Handle() uintptr { return w.parent }

func (w *headlessWindow) SetTitle(title string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.title = title
}

func (w *headlessWindow) SetGeometry(left, top, right, bottom int32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.l, w.t, w.r, w.b = left, top, right, bottom
}

func (w *headlessWindow) Show() { w.mu.Lock(); w.visible = true; w.mu.Unlock() }
func (w *headlessWindow) Hide() { w.mu.Lock(); w.visible = false; w.mu.Unlock() }

func (w *headlessWindow) BringToTop() {}

func (w *headlessWindow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	w.visible = false
}
