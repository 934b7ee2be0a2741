// Package backend defines the capability set the host drives a loaded
// plugin through (spec §6). The two plugin ABIs themselves — V2's
// dispatcher/process function pointers and V3's component/controller/
// processor COM interfaces — are out of scope (spec §1): this package
// models them as a single polymorphic capability set, the way the
// teacher repo models "VST3 component" behind a Go interface rather than
// a heap-allocated vtable hierarchy (design note, "virtual dispatch over
// plugin backends").
//
// A concrete V2 or V3 adapter sits behind this interface in a real
// deployment, bridging to the native ABI via cgo; pkg/backendtest
// provides an in-memory fake used by every test in this module.
package backend

import "context"

// Kind distinguishes the two plugin ABIs a PluginInfo/Backend can speak.
type Kind int

const (
	KindV2 Kind = iota
	KindV3
)

func (k Kind) String() string {
	if k == KindV2 {
		return "v2"
	}
	return "v3"
}

// Capability flags, spec §3.
type Capability uint32

const (
	HasEditor Capability = 1 << iota
	IsSynth
	SinglePrecision
	DoublePrecision
	MidiInput
	MidiOutput
	SysexInput
	SysexOutput
	HasChunkData
)

func (c Capability) Has(flag Capability) bool { return c&flag != 0 }

// ParameterDescriptor is one entry in a PluginInfo's ordered parameter list.
type ParameterDescriptor struct {
	ID    int32
	Name  string
	Label string
}

// UniqueID is a plugin's identity: 32 bits for V2, 128 bits for V3. Only
// the low bytes used by the Kind are meaningful.
type UniqueID [16]byte

// Uint32 returns the V2 32-bit id (low 4 bytes).
func (u UniqueID) Uint32() uint32 {
	return uint32(u[0]) | uint32(u[1])<<8 | uint32(u[2])<<16 | uint32(u[3])<<24
}

// PluginInfo is immutable after probe (spec §3) and consumed read-only by the host.
type PluginInfo struct {
	Path            string
	Name            string
	Vendor          string
	Category        string
	Version         string
	Kind            Kind
	UniqueID        UniqueID
	NumInputs       int
	NumOutputs      int
	NumParameters   int
	NumPrograms     int
	Capabilities    Capability
	Parameters      []ParameterDescriptor
	InitialPrograms []string
}

// TransportState is the minimal transport information a backend can read
// or set (spec §6 transport setters).
type TransportState struct {
	Playing  bool
	PosBeats float64
	TempoBPM float64
	TimeSigN int32
	TimeSigD int32
}

// Listener is the callback interface a Backend invokes on; see pkg/listener
// for the thread-routing adapter that implements this on behalf of a
// PluginHostInstance.
type Listener interface {
	ParameterAutomated(index int32, value float64)
	MidiEvent(status, data1, data2 byte, deltaFrames int32)
	SysexEvent(data []byte, deltaFrames int32)
}

// Backend is the capability set a loaded plugin instance exposes (spec §6).
// Every method may block except Process/ProcessDouble/SetParameter/
// GetParameter/SendMidi/SendSysex/transport accessors, which the spec
// documents as RT-safe and which the audio thread therefore calls directly.
type Backend interface {
	Info() PluginInfo

	SetListener(l Listener)
	SetSampleRate(sr float64)
	SetBlockSize(n int)
	SetPrecision(double bool) bool
	HasPrecision(double bool) bool

	Suspend()
	Resume()

	// Process runs single-precision audio. RT-safe.
	Process(in, out [][]float32, numFrames int)
	// ProcessDouble runs double-precision audio. RT-safe.
	ProcessDouble(in, out [][]float64, numFrames int)

	// SetParameter/GetParameter are RT-safe.
	SetParameter(index int32, value float64)
	SetParameterString(index int32, text string) bool
	GetParameter(index int32) float64
	GetParameterName(index int32) string
	GetParameterLabel(index int32) string
	GetParameterDisplay(index int32) string

	SetProgram(index int32) bool
	GetProgram() int32
	GetProgramName() string
	GetProgramNameIndexed(index int32) string
	SetProgramName(name string)

	GetChunk(isBank bool) ([]byte, error)
	SetChunk(data []byte, isBank bool) error
	ReadProgramFile(path string) error
	WriteProgramFile(path string) error
	ReadBankFile(path string) error
	WriteBankFile(path string) error

	// GetComponentState/SetComponentState and GetControllerState/
	// SetControllerState expose a V3 backend's two independent state
	// streams (spec §4.6: "'Comp' chunks to the backend component,
	// 'Cont' chunks to the backend controller"), distinct from the
	// opaque single-blob GetChunk/SetChunk pair a V2 backend uses. A V2
	// adapter may implement these as no-ops returning an error; pkg/host
	// only calls them when PluginInfo.Kind is KindV3.
	GetComponentState() ([]byte, error)
	SetComponentState(data []byte) error
	GetControllerState() ([]byte, error)
	SetControllerState(data []byte) error

	// SendMidi/SendSysex are RT-safe.
	SendMidi(status, data1, data2 byte)
	SendSysex(data []byte)

	// Transport accessors are RT-safe.
	SetTempoBPM(bpm float64)
	SetTimeSignature(numerator, denominator int32)
	SetTransportPlaying(playing bool)
	SetTransportPosition(beats float64)
	GetTransportPosition() float64

	CanDo(key string) int32
	VendorSpecific(index int32, value int64, ptr uintptr, opt float64) int64

	HasEditor() bool
	OpenEditor(ctx context.Context, parent uintptr) error
	CloseEditor()
	EditorRect() (left, top, right, bottom int32)

	Close()
}

// Factory creates a Backend from a probed PluginInfo. A real deployment's
// V2/V3 adapters each implement Factory; pkg/backendtest.Factory is the
// in-memory stand-in used throughout this module's tests.
type Factory interface {
	Create(info PluginInfo) (Backend, error)
}
