package window

import (
	"context"
	"testing"
	"time"

	"github.com/rivermist/vsthost/pkg/threadid"
)

func TestHeadlessCreateAndGeometry(t *testing.T) {
	h := NewHeadless()
	w, err := h.Create(0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	w.SetTitle("test")
	w.SetGeometry(0, 0, 400, 300)
	w.Show()
	w.Hide()
	w.BringToTop()
	w.Close()
}

func TestHeadlessRunUntilQuit(t *testing.T) {
	h := NewHeadless()
	done := make(chan struct{})
	go func() {
		h.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Run returned before Quit was called")
	case <-time.After(20 * time.Millisecond):
	}

	h.Quit()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Quit")
	}
}

func TestHeadlessRunUntilContextCancel(t *testing.T) {
	h := NewHeadless()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestGUIThreadSubmitRunsOnPinnedThread(t *testing.T) {
	h := NewHeadless()
	g := NewGUIThread(h)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g.Start(ctx)

	guiID := g.ThreadID()

	var observed threadid.ID
	g.Submit(func() {
		observed = threadid.Current()
	})
	if observed != guiID {
		t.Errorf("expected Submit's fn to run on the GUI thread (%d), observed %d", guiID, observed)
	}
}
