package window

import (
	"context"
	"time"

	"github.com/rivermist/vsthost/pkg/threadid"
)

// GUIThread runs a dedicated goroutine pinned to one OS thread via
// pkg/threadid, driving a Backend's event loop and executing work handed
// to it from other threads in order. It is the concrete form of design
// note (a)'s "blocking-future-through-GUI-thread pattern": when
// hostconfig.Config.GUICreation is true, Open submits backend creation
// here instead of running it on the worker thread directly, because some
// backends insist their editor (and sometimes the backend itself) is
// created on the same thread that will later run their event loop.
type GUIThread struct {
	backend Backend
	work    chan func()
	started chan threadid.ID
}

// NewGUIThread returns a GUIThread that will drive backend's event loop
// once Start is called.
func NewGUIThread(backend Backend) *GUIThread {
	return &GUIThread{
		backend: backend,
		work:    make(chan func(), 16),
		started: make(chan threadid.ID, 1),
	}
}

// Start launches the GUI-thread goroutine. Returns immediately; callers
// that need the thread id (e.g. to hand to the Listener Adapter) should
// call ThreadID, which blocks until Start's goroutine has pinned itself.
func (g *GUIThread) Start(ctx context.Context) {
	go func() {
		id := threadid.Pin()
		g.started <- id
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case fn := <-g.work:
				fn()
			case <-ticker.C:
				g.backend.Poll()
			}
		}
	}()
}

// ThreadID blocks until the GUI-thread goroutine has pinned itself and
// returns its OS thread id.
func (g *GUIThread) ThreadID() threadid.ID {
	id := <-g.started
	g.started <- id
	return id
}

// Submit schedules fn to run on the GUI thread and blocks until it
// completes, implementing the "future used during Open to receive the
// created PluginHandle back from the GUI thread" (spec §5, suspension
// points). Safe to call from the worker thread; never call from the GUI
// thread itself (it would deadlock).
func (g *GUIThread) Submit(fn func()) {
	done := make(chan struct{})
	g.work <- func() {
		fn()
		close(done)
	}
	<-done
}
