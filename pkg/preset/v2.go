// Package preset implements the binary preset codecs named in spec §4.5
// (V2 FXP/FXB) and §4.6 (V3 chunk-list). Both are pure encode/decode
// functions over byte slices and plain data structs — no backend
// dependency — the same separation the teacher draws between its
// pkg/framework/state.Manager (pure byte layout) and the plugin code that
// decides what to do with the decoded values. pkg/host calls into this
// package from its program_read/_write and bank_read/_write command
// handlers and applies the decoded result to a backend.Backend.
package preset

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

const (
	magicCcnK = "CcnK"

	subMagicFxCk = "FxCk" // program, parameter form
	subMagicFPCh = "FPCh" // program, chunk form
	subMagicFxBk = "FxBk" // bank, parameter form
	subMagicFBCh = "FBCh" // bank, chunk form

	fxVersion = 1

	programHeaderSize = 56
	bankHeaderSize    = 156
	programNameSize   = 28
	bankReservedSize  = 124
)

// Program is the decoded form of one FXP program, or one slot within a
// parameter-form FXB bank.
type Program struct {
	PluginID      uint32
	PluginVersion uint32
	Name          string
	// Params holds the parameter vector for parameter-form programs.
	// Chunk holds the opaque blob for chunk-form programs. Exactly one is
	// populated; IsChunk says which.
	IsChunk bool
	Params  []float32
	Chunk   []byte
}

// Bank is the decoded form of one FXB file.
type Bank struct {
	PluginID      uint32
	PluginVersion uint32
	CurrentProgram int32
	// Programs holds one entry per program for parameter-form banks.
	// Chunk holds the opaque blob for chunk-form banks. Exactly one is
	// populated; IsChunk says which.
	IsChunk  bool
	Programs []Program
	Chunk    []byte
}

// DecodeProgram parses an FXP file's bytes (spec §4.5 read invariants).
func DecodeProgram(data []byte) (*Program, error) {
	if len(data) < programHeaderSize {
		return nil, fmt.Errorf("preset: program data too small: %d bytes", len(data))
	}
	r := newReader(data)

	magic, err := r.tag()
	if err != nil || magic != magicCcnK {
		return nil, fmt.Errorf("preset: bad program magic %q", magic)
	}
	byteSize, err := r.int32()
	if err != nil {
		return nil, err
	}
	if int(byteSize)+8 > len(data) {
		return nil, fmt.Errorf("preset: declared byte-size %d exceeds supplied %d bytes", byteSize, len(data))
	}

	subMagic, err := r.tag()
	if err != nil {
		return nil, err
	}
	isChunk := subMagic == subMagicFPCh
	if !isChunk && subMagic != subMagicFxCk {
		return nil, fmt.Errorf("preset: unrecognized program sub-magic %q", subMagic)
	}

	version, err := r.int32()
	if err != nil {
		return nil, err
	}
	_ = version

	pluginID, err := r.uint32()
	if err != nil {
		return nil, err
	}
	pluginVersion, err := r.uint32()
	if err != nil {
		return nil, err
	}
	numParams, err := r.int32()
	if err != nil {
		return nil, err
	}
	name, err := r.fixedString(programNameSize)
	if err != nil {
		return nil, err
	}

	p := &Program{PluginID: pluginID, PluginVersion: pluginVersion, Name: name, IsChunk: isChunk}

	if isChunk {
		chunkSize, err := r.int32()
		if err != nil {
			return nil, err
		}
		chunk, err := r.bytes(int(chunkSize))
		if err != nil {
			return nil, fmt.Errorf("preset: chunk body shorter than declared size %d: %w", chunkSize, err)
		}
		p.Chunk = chunk
		return p, nil
	}

	remaining := r.remaining()
	if int(numParams)*4 != remaining {
		return nil, fmt.Errorf("preset: parameter count %d*4 != remaining body %d", numParams, remaining)
	}
	params := make([]float32, numParams)
	for i := range params {
		v, err := r.float32()
		if err != nil {
			return nil, err
		}
		params[i] = v
	}
	p.Params = params
	return p, nil
}

// EncodeProgram serializes p as FXP bytes (spec §4.5 write invariants).
func EncodeProgram(p Program) ([]byte, error) {
	w := newWriter()
	subMagic := subMagicFxCk
	if p.IsChunk {
		subMagic = subMagicFPCh
	}

	// byteSize excludes the first 8 bytes (magic + itself); write the
	// header/body first, then patch byteSize once the total is known.
	w.tag(magicCcnK)
	sizeField := w.reserveInt32()
	w.tag(subMagic)
	w.int32(fxVersion)
	w.uint32(p.PluginID)
	w.uint32(p.PluginVersion)
	if p.IsChunk {
		w.int32(0)
	} else {
		w.int32(int32(len(p.Params)))
	}
	w.fixedString(p.Name, programNameSize)

	if p.IsChunk {
		w.int32(int32(len(p.Chunk)))
		w.bytes(p.Chunk)
	} else {
		for _, v := range p.Params {
			w.float32(v)
		}
	}

	w.patchInt32(sizeField, int32(w.len()-8))
	return w.bytes_, nil
}

// DecodeBank parses an FXB file's bytes (spec §4.5 read invariants).
func DecodeBank(data []byte) (*Bank, error) {
	if len(data) < bankHeaderSize {
		return nil, fmt.Errorf("preset: bank data too small: %d bytes", len(data))
	}
	r := newReader(data)

	magic, err := r.tag()
	if err != nil || magic != magicCcnK {
		return nil, fmt.Errorf("preset: bad bank magic %q", magic)
	}
	byteSize, err := r.int32()
	if err != nil {
		return nil, err
	}
	if int(byteSize)+8 > len(data) {
		return nil, fmt.Errorf("preset: declared byte-size %d exceeds supplied %d bytes", byteSize, len(data))
	}

	subMagic, err := r.tag()
	if err != nil {
		return nil, err
	}
	isChunk := subMagic == subMagicFBCh
	if !isChunk && subMagic != subMagicFxBk {
		return nil, fmt.Errorf("preset: unrecognized bank sub-magic %q", subMagic)
	}

	if _, err := r.int32(); err != nil { // format version
		return nil, err
	}
	pluginID, err := r.uint32()
	if err != nil {
		return nil, err
	}
	pluginVersion, err := r.uint32()
	if err != nil {
		return nil, err
	}
	numPrograms, err := r.int32()
	if err != nil {
		return nil, err
	}
	currentProgram, err := r.int32()
	if err != nil {
		return nil, err
	}
	if _, err := r.bytes(bankReservedSize); err != nil {
		return nil, err
	}

	b := &Bank{PluginID: pluginID, PluginVersion: pluginVersion, CurrentProgram: currentProgram, IsChunk: isChunk}

	if isChunk {
		chunkSize, err := r.int32()
		if err != nil {
			return nil, err
		}
		chunk, err := r.bytes(int(chunkSize))
		if err != nil {
			return nil, fmt.Errorf("preset: bank chunk body shorter than declared size %d: %w", chunkSize, err)
		}
		b.Chunk = chunk
		return b, nil
	}

	progs := make([]Program, 0, numPrograms)
	for i := int32(0); i < numPrograms; i++ {
		remaining := data[len(data)-r.remaining():]
		prog, n, err := decodeProgramPrefix(remaining)
		if err != nil {
			return nil, fmt.Errorf("preset: bank program %d: %w", i, err)
		}
		progs = append(progs, *prog)
		if err := r.skip(n); err != nil {
			return nil, err
		}
	}
	b.Programs = progs
	return b, nil
}

// decodeProgramPrefix decodes one program blob from the front of data
// without requiring data's length to equal the blob's length exactly (a
// bank's program blobs sit back-to-back; only the last one's end is the
// slice's end). Returns the program and the number of bytes it occupied.
func decodeProgramPrefix(data []byte) (*Program, int, error) {
	if len(data) < programHeaderSize {
		return nil, 0, fmt.Errorf("remaining bank data too small for a program header")
	}
	r := newReader(data)
	magic, _ := r.tag()
	if magic != magicCcnK {
		return nil, 0, fmt.Errorf("bad program magic %q", magic)
	}
	byteSize, err := r.int32()
	if err != nil {
		return nil, 0, err
	}
	total := int(byteSize) + 8
	if total > len(data) {
		return nil, 0, fmt.Errorf("program byte-size %d exceeds remaining bank data %d", byteSize, len(data))
	}
	prog, err := DecodeProgram(data[:total])
	if err != nil {
		return nil, 0, err
	}
	return prog, total, nil
}

// EncodeBank serializes b as FXB bytes (spec §4.5 write invariants). For
// parameter-form banks, Programs must already hold one snapshot per
// program; the bank header's CurrentProgram field is written verbatim, it
// is the caller's responsibility (pkg/host) to have restored the
// originally active program on the backend before returning.
func EncodeBank(b Bank) ([]byte, error) {
	w := newWriter()
	subMagic := subMagicFxBk
	if b.IsChunk {
		subMagic = subMagicFBCh
	}

	w.tag(magicCcnK)
	sizeField := w.reserveInt32()
	w.tag(subMagic)
	w.int32(fxVersion)
	w.uint32(b.PluginID)
	w.uint32(b.PluginVersion)
	if b.IsChunk {
		w.int32(0)
	} else {
		w.int32(int32(len(b.Programs)))
	}
	w.int32(b.CurrentProgram)
	w.bytes(make([]byte, bankReservedSize))

	if b.IsChunk {
		w.int32(int32(len(b.Chunk)))
		w.bytes(b.Chunk)
	} else {
		for _, p := range b.Programs {
			progBytes, err := EncodeProgram(p)
			if err != nil {
				return nil, err
			}
			w.bytes(progBytes)
		}
	}

	w.patchInt32(sizeField, int32(w.len()-8))
	return w.bytes_, nil
}

// --- byte-level reader/writer helpers ---

type reader struct {
	data []byte
	pos  int
}

func newReader(data []byte) *reader { return &reader{data: data} }

func (r *reader) remaining() int { return len(r.data) - r.pos }

func (r *reader) tag() (string, error) {
	b, err := r.bytes(4)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) int32() (int32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

func (r *reader) uint32() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *reader) float32() (float32, error) {
	v, err := r.uint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, io.ErrUnexpectedEOF
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) skip(n int) error {
	if r.pos+n > len(r.data) {
		return io.ErrUnexpectedEOF
	}
	r.pos += n
	return nil
}

func (r *reader) fixedString(n int) (string, error) {
	b, err := r.bytes(n)
	if err != nil {
		return "", err
	}
	end := n
	for i, c := range b {
		if c == 0 {
			end = i
			break
		}
	}
	return string(b[:end]), nil
}

type writer struct {
	bytes_ []byte
}

func newWriter() *writer { return &writer{bytes_: make([]byte, 0, 256)} }

func (w *writer) len() int { return len(w.bytes_) }

func (w *writer) tag(s string) { w.bytes_ = append(w.bytes_, []byte(s)...) }

func (w *writer) int32(v int32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	w.bytes_ = append(w.bytes_, b[:]...)
}

func (w *writer) uint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.bytes_ = append(w.bytes_, b[:]...)
}

func (w *writer) float32(v float32) {
	w.uint32(math.Float32bits(v))
}

func (w *writer) bytes(b []byte) { w.bytes_ = append(w.bytes_, b...) }

func (w *writer) fixedString(s string, n int) {
	b := make([]byte, n)
	copy(b, s)
	w.bytes_ = append(w.bytes_, b...)
}

// reserveInt32 appends 4 placeholder bytes and returns their offset, for
// patching once a length is known.
func (w *writer) reserveInt32() int {
	off := len(w.bytes_)
	w.int32(0)
	return off
}

func (w *writer) patchInt32(offset int, v int32) {
	binary.BigEndian.PutUint32(w.bytes_[offset:offset+4], uint32(v))
}
