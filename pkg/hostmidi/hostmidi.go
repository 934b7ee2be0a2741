// Package hostmidi turns the raw MIDI byte triples that cross the backend
// boundary (spec §6 sendMidi/SendSysex, §4.2 midiEvent callback) into
// gitlab.com/gomidi/midi/v2 messages, purely for classification and
// human-readable logging — the wire bytes sent to/from the backend are
// still the plain {status, data1, data2} triple the spec defines; this
// package never changes what crosses the boundary, only what the host
// logs about it.
//
// The teacher's own pkg/midi models a sample-accurate Event variant meant
// to live inside a plugin's process() call; a host never needs
// sample-accurate event scheduling of its own (that's the backend's job),
// so this package only covers encode/describe, not a scheduling queue —
// see pkg/listener for the Event Inbox that actually queues
// plugin-originated events between threads.
package hostmidi

import "gitlab.com/gomidi/midi/v2"

// FromTriple builds a gomidi Message from a raw {status, data1, data2}
// triple, dispatching to the typed constructor for the status nibble when
// recognized and falling back to the raw bytes otherwise (e.g. system
// common/realtime messages, which carry no channel).
func FromTriple(status, data1, data2 byte) midi.Message {
	channel := status & 0x0F
	switch status & 0xF0 {
	case 0x80:
		return midi.NoteOffVelocity(channel, data1, data2)
	case 0x90:
		return midi.NoteOn(channel, data1, data2)
	case 0xA0:
		return midi.PolyAfterTouch(channel, data1, data2)
	case 0xB0:
		return midi.ControlChange(channel, data1, data2)
	case 0xC0:
		return midi.ProgramChange(channel, data1)
	case 0xD0:
		return midi.AfterTouch(channel, data1)
	case 0xE0:
		return midi.Pitchbend(channel, int16(int32(data2)<<7|int32(data1))-8192)
	default:
		return midi.Message([]byte{status, data1, data2})
	}
}

// Describe renders a human-readable description of a raw MIDI triple,
// suitable for debug-level logging around the /midi reply path.
func Describe(status, data1, data2 byte) string {
	return FromTriple(status, data1, data2).String()
}

// Triple extracts the raw {status, data1, data2} bytes back out of a
// gomidi Message, padding with zero for messages shorter than 3 bytes
// (e.g. program change, aftertouch).
func Triple(msg midi.Message) (status, data1, data2 byte) {
	b := []byte(msg)
	if len(b) > 0 {
		status = b[0]
	}
	if len(b) > 1 {
		data1 = b[1]
	}
	if len(b) > 2 {
		data2 = b[2]
	}
	return
}
