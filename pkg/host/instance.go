// Package host implements the PluginHostInstance (spec §4.1): the state
// machine, command dispatch, and next() audio algorithm that drive one
// loaded plugin backend.
//
// Grounded on the teacher's pkg/plugin.Wrapper for the overall shape of
// "one object per loaded plugin, holding a state enum plus the
// machinery needed to drive it safely from multiple threads" — but the
// teacher's Wrapper is itself the plugin side of the VST3 ABI (called BY
// a DAW); this package is the host side (calling INTO a plugin backend),
// so the direction of every call is reversed even where the surrounding
// shape (state enum, mutex discipline, reply emission) is carried over.
package host

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rivermist/vsthost/pkg/backend"
	"github.com/rivermist/vsthost/pkg/command"
	"github.com/rivermist/vsthost/pkg/hostconfig"
	"github.com/rivermist/vsthost/pkg/hostlog"
	"github.com/rivermist/vsthost/pkg/hostmidi"
	"github.com/rivermist/vsthost/pkg/listener"
	"github.com/rivermist/vsthost/pkg/paramstore"
	"github.com/rivermist/vsthost/pkg/threadid"
	"github.com/rivermist/vsthost/pkg/window"
)

// State is one of the PluginHostInstance's five states (spec §3).
type State int32

const (
	StateEmpty State = iota
	StateLoading
	StateReady
	StateBypassed
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateBypassed:
		return "bypassed"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Reply is one outgoing message from the instance to the embedding
// engine (spec §6 reply surface). Modeled the same way
// pkg/listener.Entry models an inbound event: one tagged struct with the
// union of fields any reply shape needs, rather than one Go type per tag.
type Reply struct {
	Tag string

	Ok        bool
	HasEditor bool

	Index   int32
	Value   float64
	Display string

	Count  int32
	Values []float64

	Name string

	Total int32
	Onset int32
	Size  int32
	Bytes []byte

	Status, Data1, Data2 byte

	Pos float64

	IntResult int32
	Int64Result int64
}

// Instance is one Plugin Host Instance. Name identifies it in logs and
// metrics; it need not be globally unique but should be stable for the
// lifetime of the process.
type Instance struct {
	Name string

	cfg     hostconfig.Config
	factory backend.Factory

	state atomic.Int32

	mu      sync.Mutex // guards the fields below; Next locks it each block to read be, info and params
	be      backend.Backend
	info    backend.PluginInfo
	params  *paramstore.Store
	path    string
	upload  uploadState
	bankUp  uploadState

	canDoCache map[string]int32

	cmdQueue *command.Queue
	inbox    *listener.Inbox
	adapter  *listener.Adapter

	windowBackend window.Backend
	guiThread     *window.GUIThread
	editor        window.Window

	replies chan Reply

	audioThreadID  threadid.ID
	workerThreadID threadid.ID
}

type uploadState struct {
	total int32
	buf   []byte
}

// New constructs an Instance. workerPinned, if non-nil, is run at the top
// of the Command Queue's worker goroutine (typically threadid.Pin,
// possibly preceded by priority/affinity setup the embedding engine
// wants); audioThreadID is the id of the thread that will call next(),
// captured by the caller via threadid.Pin before construction.
func New(name string, cfg hostconfig.Config, factory backend.Factory, audioThreadID threadid.ID, workerPinned func() threadid.ID) *Instance {
	inst := &Instance{
		Name:     name,
		cfg:      cfg,
		factory:  factory,
		inbox:    listener.NewInbox(),
		replies:  make(chan Reply, 256),
		audioThreadID: audioThreadID,
	}
	inst.state.Store(int32(StateEmpty))

	workerIDCh := make(chan threadid.ID, 1)
	inst.cmdQueue = command.New(cfg.CommandQueueDepth, func() {
		var id threadid.ID
		if workerPinned != nil {
			id = workerPinned()
		} else {
			id = threadid.Pin()
		}
		workerIDCh <- id
	})
	inst.workerThreadID = <-workerIDCh

	inst.adapter = &listener.Adapter{
		AudioThread:  audioThreadID,
		WorkerThread: inst.workerThreadID,
		Inbox:        inst.inbox,
		Replier:      inst,
		DisplayFunc:  inst.displayFor,
		PostToAudio:  inst.cmdQueue.PostReply,
	}
	return inst
}

// State returns the instance's current state. Safe from any thread.
func (in *Instance) State() State { return State(in.state.Load()) }

func (in *Instance) setState(s State) { in.state.Store(int32(s)) }

// Replies returns the channel the embedding engine drains for outgoing
// messages (spec §6 reply surface).
func (in *Instance) Replies() <-chan Reply { return in.replies }

func (in *Instance) emit(r Reply) {
	select {
	case in.replies <- r:
	default:
		hostlog.Warn("host: reply channel full, dropping " + r.Tag)
	}
}

// SetWindowBackend installs the windowing backend used for editor
// creation (spec §6 windowing backend). Call before the first Open.
func (in *Instance) SetWindowBackend(wb window.Backend) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.windowBackend = wb
	if in.cfg.GUICreation {
		in.guiThread = window.NewGUIThread(wb)
		in.guiThread.Start(context.Background())
	}
}

func (in *Instance) displayFor(index int32) string {
	in.mu.Lock()
	be := in.be
	in.mu.Unlock()
	if be == nil {
		return ""
	}
	return be.GetParameterDisplay(index)
}

// DeliverParam implements listener.Replier: emits /param then /auto (spec
// §4.1 step 4d, §6 reply surface).
func (in *Instance) DeliverParam(index int32, value float64, display string) {
	in.emit(Reply{Tag: "/param", Index: index, Value: value, Display: display})
	in.emit(Reply{Tag: "/auto", Index: index, Value: value})
}

// DeliverMidi implements listener.Replier.
func (in *Instance) DeliverMidi(status, data1, data2 byte) {
	hostlog.Debug("host: midi out " + hostmidi.Describe(status, data1, data2))
	in.emit(Reply{Tag: "/midi", Status: status, Data1: data1, Data2: data2})
}

// DeliverSysex implements listener.Replier.
func (in *Instance) DeliverSysex(data []byte) {
	in.emit(Reply{Tag: "/sysex", Bytes: append([]byte(nil), data...)})
}

// Close tears down the Command Queue's worker goroutine. Call once, after
// the instance has reached Empty via a prior close() control call; this
// is process/object teardown, not the control-surface close operation.
func (in *Instance) Close() {
	in.cmdQueue.Close()
}

var _ listener.Replier = (*Instance)(nil)
