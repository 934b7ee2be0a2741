// Package command implements the async Command Queue (spec §4.3): a
// single-producer (audio thread) / single-consumer (worker thread) path
// with paired worker-side (nrt) and audio-side (rt) stages, plus a return
// path delivering rt-stage work back to the audio thread.
//
// Go channels are natively SPSC/MPSC-safe, which is what the teacher
// reaches for whenever it needs exactly this shape — e.g.
// pkg/plugin/buffered_processor.go hands statistics between the audio
// path and consumers via atomics/channels rather than hand-rolled lock
// free rings. We follow that lead: Queue wraps two buffered channels
// (submit and return) instead of a bespoke ring buffer. The "RT
// allocator" the spec describes has no analogue in a garbage-collected
// runtime; the discipline it names — size the payload at submission time
// so the worker sees stable data — is preserved by requiring a Command's
// Payload to be fully populated before Submit is called and never mutated
// afterward.
package command

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rivermist/vsthost/pkg/hostlog"
)

// Command is a unit of work submitted from the audio thread. NRT runs on
// the worker thread; if it returns true and RT is non-nil, RT runs on the
// audio thread afterward (spec: "observed by the audio thread strictly
// after the nrt stage completes"). Release runs on the audio thread once
// both stages have completed (or NRT returned false), mirroring the
// spec's "RT deallocator... freed on the audio thread after both stages
// run."
type Command struct {
	Name string
	NRT  func() bool
	RT   func() bool
	// Release is called exactly once, on the audio thread, after NRT (and
	// RT, if it ran) complete. Optional.
	Release func()
}

// Queue is a per-instance Command Queue. One Queue belongs to exactly one
// PluginHostInstance; ordering is only guaranteed within a Queue.
type Queue struct {
	submit chan *Command
	ret    chan *completed

	group  *errgroup.Group
	cancel context.CancelFunc
}

// New creates a Queue with the given depth (spec: bounded submission,
// sized at construction — see hostconfig.Config.CommandQueueDepth) and
// starts its worker goroutine, which first runs workerPinned if non-nil.
// pkg/host passes a workerPinned that pins the goroutine via pkg/threadid
// so Listener Adapter thread comparisons are meaningful.
func New(depth int, workerPinned func()) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	q := &Queue{
		submit: make(chan *Command, depth),
		ret:    make(chan *completed, depth),
		group:  g,
		cancel: cancel,
	}
	g.Go(func() error {
		if workerPinned != nil {
			workerPinned()
		}
		q.workerLoop(ctx)
		return nil
	})
	return q
}

func (q *Queue) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-q.submit:
			if !ok {
				return
			}
			q.runOne(cmd)
		}
	}
}

func (q *Queue) runOne(cmd *Command) {
	ok := true
	if cmd.NRT != nil {
		ok = cmd.NRT()
	}
	if cmd.RT == nil && cmd.Release == nil {
		return
	}
	q.ret <- &completed{cmd: cmd, ok: ok}
}

// completed carries a Command's nrt-stage outcome across to the audio
// thread, so both the rt stage and Release are decided there rather than
// on the worker (spec §3: Commands are "freed on the audio thread after
// both stages run").
type completed struct {
	cmd *Command
	ok  bool
}

// Submit enqueues cmd for worker-side execution. Non-blocking: if the
// queue is full, the command is dropped and a warning logged, the
// audio-thread analogue of an RT-allocation failure (spec §7,
// AllocationFailure). Call only from the audio thread.
func (q *Queue) Submit(cmd *Command) bool {
	select {
	case q.submit <- cmd:
		return true
	default:
		hostlog.Warn("command queue full, dropping " + cmd.Name)
		if cmd.Release != nil {
			cmd.Release()
		}
		return false
	}
}

// DrainReplies runs the rt stage of every Command whose nrt stage has
// completed since the last call, then releases it. Call once per audio
// block, from the audio thread, before processing (spec: Commands'
// rt-stage effects must be "observed by the audio thread in submission
// order" — draining at the top of next() gives the earliest opportunity).
func (q *Queue) DrainReplies() {
	for {
		select {
		case c := <-q.ret:
			if c.ok && c.cmd.RT != nil {
				c.cmd.RT()
			}
			if c.cmd.Release != nil {
				c.cmd.Release()
			}
		default:
			return
		}
	}
}

// PostReply schedules fn to run on the audio thread at the next
// DrainReplies call, skipping the worker/nrt stage entirely. This is the
// "one-shot reply command" the Listener Adapter uses (spec §4.2) when a
// backend calls back from the worker thread and the resulting reply must
// still only ever be delivered from the audio thread. Safe to call from
// the worker thread (the one exception to Submit's audio-thread-only
// rule, since it bypasses the submit side entirely).
func (q *Queue) PostReply(fn func()) {
	q.ret <- &completed{cmd: &Command{Name: "post-reply", RT: fn}, ok: true}
}

// Close stops the worker goroutine and waits for it to exit. Pending
// Commands already enqueued are drained (their nrt stage still runs) per
// spec §4.3 ("pending Commands are drained at engine teardown; there is
// no cancellation").
func (q *Queue) Close() {
	close(q.submit)
	_ = q.group.Wait()
	q.cancel()
}
