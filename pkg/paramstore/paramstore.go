// Package paramstore implements the fixed-size per-parameter table from
// spec §3/§4.1: {last-sent value, optional bound control-bus index},
// touched from the audio thread only.
//
// This is the host-side analogue of the teacher's
// pkg/framework/param.Parameter — the teacher's Parameter uses an atomic
// float64 because a VST3 plugin's own parameter value is read from both
// the controller (GUI-adjacent) and processor (audio) sides. Here the
// table belongs exclusively to the audio thread (invariant (b)/(c) in
// spec §3), so no atomics are needed; the single-owner discipline is the
// whole point, and is asserted in the package doc rather than enforced by
// synchronization primitives the audio thread can't be asked to pay for.
package paramstore

import "math"

// NoBus marks a ParameterSlot as not bound to any control bus.
const NoBus = -1

// Slot is one parameter's last-sent value and optional control-bus binding.
type Slot struct {
	// LastValue is the value the backend last received for this
	// parameter, or NaN if it has never been set.
	LastValue float64
	// BusIndex is the bound control bus, or NoBus.
	BusIndex int
}

// Store is a fixed-size table of Slots, one per plugin parameter.
type Store struct {
	slots []Slot
}

// New allocates a Store sized for numParameters. Allocation happens once,
// in the Open command's rt stage, just before the instance reaches Ready;
// the audio thread never grows or shrinks it.
func New(numParameters int) *Store {
	s := &Store{slots: make([]Slot, numParameters)}
	for i := range s.slots {
		s.slots[i] = Slot{LastValue: math.NaN(), BusIndex: NoBus}
	}
	return s
}

// Len returns the number of parameter slots.
func (s *Store) Len() int { return len(s.slots) }

// Get returns the slot at i and true, or a zero Slot and false if i is out
// of range.
func (s *Store) Get(i int) (Slot, bool) {
	if i < 0 || i >= len(s.slots) {
		return Slot{}, false
	}
	return s.slots[i], true
}

// RecordSent updates LastValue after the backend has accepted a new value
// for parameter i, and invalidates any control-bus binding (invariant (c)
// in spec §3: "explicit set invalidates busIndex to NONE").
func (s *Store) RecordSent(i int, value float64) {
	if i < 0 || i >= len(s.slots) {
		return
	}
	s.slots[i].LastValue = value
	s.slots[i].BusIndex = NoBus
}

// RecordSentKeepBus updates LastValue without touching BusIndex; used by
// the per-block bus-mapped read path (spec §4.1 step 4a), which is itself
// responsible for the binding and must not clear it on every tick.
func (s *Store) RecordSentKeepBus(i int, value float64) {
	if i < 0 || i >= len(s.slots) {
		return
	}
	s.slots[i].LastValue = value
}

// MapToBus binds parameter i to a control bus (spec §4.1 mapParam). Pure
// audio-thread operation; no worker interaction.
func (s *Store) MapToBus(i, bus int) bool {
	if i < 0 || i >= len(s.slots) {
		return false
	}
	s.slots[i].BusIndex = bus
	return true
}

// Unmap clears parameter i's control-bus binding (spec §4.1 unmapParam).
func (s *Store) Unmap(i int) bool {
	if i < 0 || i >= len(s.slots) {
		return false
	}
	s.slots[i].BusIndex = NoBus
	return true
}

// Changed reports whether value differs from the slot's LastValue,
// treating an unset (NaN) slot as always changed.
func (s *Store) Changed(i int, value float64) bool {
	slot, ok := s.Get(i)
	if !ok {
		return false
	}
	if math.IsNaN(slot.LastValue) {
		return true
	}
	return slot.LastValue != value
}
