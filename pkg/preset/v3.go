package preset

import (
	"encoding/binary"
	"fmt"
)

const (
	v3Magic       = "VST3"
	v3ListTag     = "List"
	v3CompTag     = "Comp"
	v3ContTag     = "Cont"
	v3ClassIDSize = 32
	v3Version     = 1
)

// V3State is the decoded form of a V3 chunk-list preset (spec §4.6): the
// component-state and controller-state blobs, keyed by their chunk id so
// callers that only care about one stream don't need to know the other
// exists.
type V3State struct {
	ClassID   [v3ClassIDSize]byte
	Component []byte
	Controller []byte
}

type chunkEntry struct {
	id     string
	offset int64
	size   int64
}

// DecodeV3 parses a V3 preset's bytes and returns its component/controller
// blobs. expectClassID, if non-zero, is compared against the embedded
// class id and an error is returned on mismatch (spec: "verifies the class
// id equals the plugin's unique id").
func DecodeV3(data []byte, expectClassID [v3ClassIDSize]byte) (*V3State, error) {
	r := newReader(data)

	magic, err := r.tag()
	if err != nil || magic != v3Magic {
		return nil, fmt.Errorf("preset: bad v3 magic %q", magic)
	}
	if _, err := r.int32(); err != nil { // version
		return nil, err
	}
	classIDBytes, err := r.bytes(v3ClassIDSize)
	if err != nil {
		return nil, err
	}
	var classID [v3ClassIDSize]byte
	copy(classID[:], classIDBytes)

	var zero [v3ClassIDSize]byte
	if expectClassID != zero && classID != expectClassID {
		return nil, fmt.Errorf("preset: v3 class id mismatch")
	}

	listOffset, err := r.int64()
	if err != nil {
		return nil, err
	}
	if listOffset < 0 || int(listOffset) >= len(data) {
		return nil, fmt.Errorf("preset: v3 list-offset %d out of range", listOffset)
	}

	entries, err := readV3List(data, int(listOffset))
	if err != nil {
		return nil, err
	}

	state := &V3State{ClassID: classID}
	for _, e := range entries {
		if e.offset < 0 || e.size < 0 || int(e.offset+e.size) > len(data) {
			return nil, fmt.Errorf("preset: v3 chunk %q out of bounds", e.id)
		}
		blob := append([]byte(nil), data[e.offset:e.offset+e.size]...)
		switch e.id {
		case v3CompTag:
			state.Component = blob
		case v3ContTag:
			state.Controller = blob
		}
	}
	return state, nil
}

func readV3List(data []byte, offset int) ([]chunkEntry, error) {
	r := newReader(data[offset:])
	tag, err := r.tag()
	if err != nil || tag != v3ListTag {
		return nil, fmt.Errorf("preset: expected v3 %q chunk at list-offset, got %q", v3ListTag, tag)
	}
	count, err := r.int32()
	if err != nil {
		return nil, err
	}
	entries := make([]chunkEntry, 0, count)
	for i := int32(0); i < count; i++ {
		id, err := r.tag()
		if err != nil {
			return nil, err
		}
		off, err := r.int64()
		if err != nil {
			return nil, err
		}
		size, err := r.int64()
		if err != nil {
			return nil, err
		}
		entries = append(entries, chunkEntry{id: id, offset: off, size: size})
	}
	return entries, nil
}

// EncodeV3 serializes state as V3 preset bytes (spec §4.6 write): captures
// both stream blobs first, records their offsets, then writes the
// trailing chunk list and patches the list-offset field, in that order.
func EncodeV3(state V3State) []byte {
	w := newWriter()
	w.tag(v3Magic)
	w.int32(v3Version)
	w.bytes(state.ClassID[:])
	listOffsetField := w.reserveInt64()

	var entries []chunkEntry
	if state.Component != nil {
		entries = append(entries, chunkEntry{id: v3CompTag, offset: int64(w.len()), size: int64(len(state.Component))})
		w.bytes(state.Component)
	}
	if state.Controller != nil {
		entries = append(entries, chunkEntry{id: v3ContTag, offset: int64(w.len()), size: int64(len(state.Controller))})
		w.bytes(state.Controller)
	}

	listOffset := int64(w.len())
	w.tag(v3ListTag)
	w.int32(int32(len(entries)))
	for _, e := range entries {
		w.tag(e.id)
		w.int64(e.offset)
		w.int64(e.size)
	}

	w.patchInt64(listOffsetField, listOffset)
	return w.bytes_
}

func (r *reader) int64() (int64, error) {
	b, err := r.bytes(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

func (w *writer) int64(v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	w.bytes_ = append(w.bytes_, b[:]...)
}

func (w *writer) reserveInt64() int {
	off := len(w.bytes_)
	w.int64(0)
	return off
}

func (w *writer) patchInt64(offset int, v int64) {
	binary.BigEndian.PutUint64(w.bytes_[offset:offset+8], uint64(v))
}
