package listener

import (
	"github.com/rivermist/vsthost/pkg/backend"
	"github.com/rivermist/vsthost/pkg/threadid"
)

// Replier is the subset of outgoing-reply behavior the Listener Adapter
// needs; a PluginHostInstance implements it. Kept as an interface (rather
// than importing pkg/host directly) to avoid a package cycle, the same
// role the teacher's midi.EventProcessor interface plays for its queue.
type Replier interface {
	DeliverParam(index int32, value float64, display string)
	DeliverMidi(status, data1, data2 byte)
	DeliverSysex(data []byte)
}

// Adapter is the object a Backend calls back on (spec §4.2). It routes
// each callback to the correct thread by comparing the calling thread's
// id, captured via pkg/threadid, against the audio- and worker-thread ids
// recorded at construction/handshake — not a polymorphic method override,
// per the design notes ("Listener callback is not a subclassed object but
// a function-like handle bound to the instance id").
type Adapter struct {
	AudioThread  threadid.ID
	WorkerThread threadid.ID

	Inbox   *Inbox
	Replier Replier

	// DisplayFunc fetches a parameter's display string. Only ever called
	// from the audio thread (directly, or while draining the Inbox), so
	// it may safely read the backend.
	DisplayFunc func(index int32) string

	// PostToAudio schedules fn to run on the audio thread at the next
	// reply-stage opportunity — the "one-shot reply command" described in
	// spec §4.2 for the worker-thread case. A PluginHostInstance wires
	// this to its command queue's rt-stage posting.
	PostToAudio func(fn func())
}

// ParameterAutomated implements backend.Listener.
func (a *Adapter) ParameterAutomated(index int32, value float64) {
	switch threadid.Current() {
	case a.AudioThread:
		a.deliverParam(index, value)
	case a.WorkerThread:
		if a.PostToAudio != nil {
			a.PostToAudio(func() { a.deliverParam(index, value) })
		}
	default: // GUI thread
		if a.Inbox != nil {
			a.Inbox.Push(Entry{Kind: KindParamAutomated, ParamIndex: index, ParamValue: value})
		}
	}
}

// MidiEvent implements backend.Listener. Worker-thread MIDI/sysex is
// ignored per spec §4.2 ("backends that emit MIDI from the worker thread
// are out of spec").
func (a *Adapter) MidiEvent(status, data1, data2 byte, deltaFrames int32) {
	switch threadid.Current() {
	case a.AudioThread:
		if a.Replier != nil {
			a.Replier.DeliverMidi(status, data1, data2)
		}
	case a.WorkerThread:
		// out of spec; dropped.
	default: // GUI thread
		if a.Inbox != nil {
			a.Inbox.Push(Entry{Kind: KindMidi, Status: status, Data1: data1, Data2: data2, DeltaFrames: deltaFrames})
		}
	}
}

// SysexEvent implements backend.Listener.
func (a *Adapter) SysexEvent(data []byte, deltaFrames int32) {
	switch threadid.Current() {
	case a.AudioThread:
		if a.Replier != nil {
			a.Replier.DeliverSysex(data)
		}
	case a.WorkerThread:
		// out of spec; dropped.
	default: // GUI thread
		cp := append([]byte(nil), data...)
		if a.Inbox != nil {
			a.Inbox.Push(Entry{Kind: KindSysex, Sysex: cp, DeltaFrames: deltaFrames})
		}
	}
}

func (a *Adapter) deliverParam(index int32, value float64) {
	if a.Replier == nil {
		return
	}
	display := ""
	if a.DisplayFunc != nil {
		display = a.DisplayFunc(index)
	}
	a.Replier.DeliverParam(index, value, display)
}

// DrainInbox drains any queued GUI-thread entries and turns them into
// replies. Must be called from the audio thread only (spec §4.1 step 4d).
// Returns false if the Inbox's lock could not be acquired this tick;
// entries remain for a future tick.
func (a *Adapter) DrainInbox() bool {
	if a.Inbox == nil {
		return true
	}
	entries, ok := a.Inbox.TryDrain()
	if !ok {
		return false
	}
	for _, e := range entries {
		switch e.Kind {
		case KindParamAutomated:
			a.deliverParam(e.ParamIndex, e.ParamValue)
		case KindMidi:
			if a.Replier != nil {
				a.Replier.DeliverMidi(e.Status, e.Data1, e.Data2)
			}
		case KindSysex:
			if a.Replier != nil {
				a.Replier.DeliverSysex(e.Sysex)
			}
		}
	}
	return true
}

var _ backend.Listener = (*Adapter)(nil)
