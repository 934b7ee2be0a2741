// Package listener implements the Event Inbox (spec §4.4) and the Listener
// Adapter (spec §4.2) that feeds it.
//
// The Inbox's drain-by-swap discipline is adapted from the teacher's
// pkg/midi.EventQueue, which holds a single mutex-guarded slice and
// favors minimizing lock hold time; the teacher always takes a write
// lock because its queue is only ever touched off the audio thread
// (parameter automation and MIDI scheduling inside a plugin's own
// process() call happen synchronously with the host). Our Inbox instead
// has two asymmetric callers — a GUI-thread producer that blocks, and an
// audio-thread consumer that must never block — so draining swaps in a
// fresh empty slice under the lock and returns the old one for the caller
// to range over without holding the lock a moment longer than necessary.
package listener

import "sync"

// EntryKind tags an Inbox entry's payload (spec §3, EventInbox entry).
type EntryKind int

const (
	KindParamAutomated EntryKind = iota
	KindMidi
	KindSysex
)

// Entry is one captured plugin-originated event.
type Entry struct {
	Kind EntryKind

	// KindParamAutomated
	ParamIndex int32
	ParamValue float64

	// KindMidi
	Status, Data1, Data2 byte
	DeltaFrames          int32

	// KindSysex
	Sysex []byte
}

// Inbox is the bounded-in-spirit (spec says "no bounded capacity", since
// producers are infrequent — one editor per instance), mutex-protected
// queue between the GUI thread and the audio thread.
type Inbox struct {
	mu      sync.Mutex
	entries []Entry
}

// NewInbox returns an empty Inbox.
func NewInbox() *Inbox {
	return &Inbox{entries: make([]Entry, 0, 16)}
}

// Push appends an entry. Called from the GUI thread, which may block to
// acquire the lock (spec §4.4: "Producers (GUI thread) use a blocking lock").
func (ib *Inbox) Push(e Entry) {
	ib.mu.Lock()
	ib.entries = append(ib.entries, e)
	ib.mu.Unlock()
}

// TryDrain attempts to acquire the lock without blocking and, on success,
// returns all queued entries and empties the Inbox by swapping in a fresh
// slice. Called from the audio thread; ok is false if the lock could not
// be acquired (the GUI thread is mid-Push), in which case entries remain
// queued for a future tick (spec §4.4/§4.1 step 4d).
func (ib *Inbox) TryDrain() (entries []Entry, ok bool) {
	if !ib.mu.TryLock() {
		return nil, false
	}
	defer ib.mu.Unlock()
	if len(ib.entries) == 0 {
		return nil, true
	}
	drained := ib.entries
	ib.entries = make([]Entry, 0, cap(drained))
	return drained, true
}
