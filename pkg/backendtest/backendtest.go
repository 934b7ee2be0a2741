// Package backendtest provides an in-memory fake implementing
// backend.Backend, the role pkg/devices/stub.go plays for shaban-rackless
// and testdata/fake_llama_server.go plays for modeld-go-1: something a
// host-level test can load without a real native plugin binary.
//
// The fake behaves like a minimal gain-and-sine-oscillator effect so that
// Process produces audibly distinct, testable output instead of silence:
// parameter 0 is a 0..1 normalized gain, parameter 1 is a 0..1 normalized
// test-tone mix. It supports chunk save/load, program switching, and
// programmatic injection of listener callbacks (ParameterAutomated/Midi/
// Sysex) from any simulated thread, which is what the host-level tests in
// pkg/host exercise for the GUI-thread-automation scenario (spec §8,
// scenario 6).
package backendtest

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/rivermist/vsthost/pkg/backend"
)

const (
	ParamGain = 0
	ParamTone = 1
	numParams = 2
)

// Fake is the in-memory plugin backend.
type Fake struct {
	mu sync.Mutex

	info backend.PluginInfo

	params      [numParams]float64
	programs    []string
	curProgram  int32
	sampleRate  float64
	blockSize   int
	phase       float64
	listener    backend.Listener
	suspended   bool
	editorOpen  bool
	doublePrec  bool
	singlePrec  bool
	vendorCalls map[string]int32

	// controllerState is an opaque blob with no effect on Process,
	// standing in for the edit-controller-only state (UI zoom, MRU
	// lists, …) a real V3 controller persists independently of the
	// component's audio-affecting parameters.
	controllerState []byte
}

// New builds a Fake advertising the given Kind and unique id, with
// numPrograms initial programs named "Init N".
func New(kind backend.Kind, uid backend.UniqueID, numPrograms int) *Fake {
	programs := make([]string, numPrograms)
	for i := range programs {
		programs[i] = fmt.Sprintf("Init %d", i)
	}
	f := &Fake{
		programs:    programs,
		sampleRate:  44100,
		blockSize:   512,
		singlePrec:  true,
		vendorCalls: make(map[string]int32),
	}
	f.info = backend.PluginInfo{
		Name:          "Fake Gain/Tone",
		Vendor:        "backendtest",
		Category:      "Fx",
		Version:       "1.0.0",
		Kind:          kind,
		UniqueID:      uid,
		NumInputs:     2,
		NumOutputs:    2,
		NumParameters: numParams,
		NumPrograms:   numPrograms,
		Capabilities:  backend.SinglePrecision | backend.HasEditor | backend.MidiInput | backend.MidiOutput,
		Parameters: []backend.ParameterDescriptor{
			{ID: ParamGain, Name: "Gain", Label: ""},
			{ID: ParamTone, Name: "Tone", Label: ""},
		},
		InitialPrograms: append([]string(nil), programs...),
	}
	f.params[ParamGain] = 1.0
	f.params[ParamTone] = 0.0
	return f
}

// Factory adapts New into backend.Factory for components that look plugins
// up by PluginInfo rather than constructing a Fake directly.
type Factory struct{}

func (Factory) Create(info backend.PluginInfo) (backend.Backend, error) {
	return New(info.Kind, info.UniqueID, info.NumPrograms), nil
}

func (f *Fake) Info() backend.PluginInfo { return f.info }

func (f *Fake) SetListener(l backend.Listener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listener = l
}

func (f *Fake) SetSampleRate(sr float64) { f.mu.Lock(); f.sampleRate = sr; f.mu.Unlock() }
func (f *Fake) SetBlockSize(n int)       { f.mu.Lock(); f.blockSize = n; f.mu.Unlock() }

func (f *Fake) SetPrecision(double bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if double {
		f.doublePrec = true
		return true
	}
	f.singlePrec = true
	return true
}

func (f *Fake) HasPrecision(double bool) bool {
	if double {
		return false
	}
	return true
}

func (f *Fake) Suspend() { f.mu.Lock(); f.suspended = true; f.mu.Unlock() }
func (f *Fake) Resume()  { f.mu.Lock(); f.suspended = false; f.mu.Unlock() }

// Process implements the gain+tone effect in single precision.
func (f *Fake) Process(in, out [][]float32, numFrames int) {
	f.mu.Lock()
	gain := f.params[ParamGain]
	tone := f.params[ParamTone]
	sr := f.sampleRate
	phase := f.phase
	f.mu.Unlock()

	const toneFreq = 440.0
	for ch := range out {
		var inCh []float32
		if ch < len(in) {
			inCh = in[ch]
		}
		p := phase
		for i := 0; i < numFrames && i < len(out[ch]); i++ {
			var s float32
			if i < len(inCh) {
				s = inCh[i]
			}
			toneSample := float32(math.Sin(2 * math.Pi * p))
			out[ch][i] = float32(gain)*s + float32(tone)*toneSample
			p += toneFreq / sr
			if p >= 1 {
				p -= 1
			}
		}
		phase = p
	}
	f.mu.Lock()
	f.phase = phase
	f.mu.Unlock()
}

func (f *Fake) ProcessDouble(in, out [][]float64, numFrames int) {
	for ch := range out {
		var inCh []float64
		if ch < len(in) {
			inCh = in[ch]
		}
		for i := 0; i < numFrames && i < len(out[ch]); i++ {
			var s float64
			if i < len(inCh) {
				s = inCh[i]
			}
			out[ch][i] = f.params[ParamGain] * s
		}
	}
}

func (f *Fake) SetParameter(index int32, value float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if index < 0 || int(index) >= numParams {
		return
	}
	f.params[index] = value
}

func (f *Fake) SetParameterString(index int32, text string) bool {
	var v float64
	if _, err := fmt.Sscanf(text, "%g", &v); err != nil {
		return false
	}
	f.SetParameter(index, v)
	return true
}

func (f *Fake) GetParameter(index int32) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if index < 0 || int(index) >= numParams {
		return 0
	}
	return f.params[index]
}

func (f *Fake) GetParameterName(index int32) string {
	if index < 0 || int(index) >= len(f.info.Parameters) {
		return ""
	}
	return f.info.Parameters[index].Name
}

func (f *Fake) GetParameterLabel(index int32) string { return "" }

func (f *Fake) GetParameterDisplay(index int32) string {
	return fmt.Sprintf("%.3f", f.GetParameter(index))
}

func (f *Fake) SetProgram(index int32) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if index < 0 || int(index) >= len(f.programs) {
		return false
	}
	f.curProgram = index
	return true
}

func (f *Fake) GetProgram() int32 { f.mu.Lock(); defer f.mu.Unlock(); return f.curProgram }

func (f *Fake) GetProgramName() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if int(f.curProgram) >= len(f.programs) {
		return ""
	}
	return f.programs[f.curProgram]
}

func (f *Fake) GetProgramNameIndexed(index int32) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if index < 0 || int(index) >= len(f.programs) {
		return ""
	}
	return f.programs[index]
}

func (f *Fake) SetProgramName(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if int(f.curProgram) < len(f.programs) {
		f.programs[f.curProgram] = name
	}
}

// GetChunk round-trips the parameter vector (isBank=false) or the whole
// program bank (isBank=true) as an opaque blob; this backend advertises
// HasChunkData is unset, so the host's preset codec uses the parameter-list
// form by default, but GetChunk/SetChunk are still exercised directly by
// codec tests that want chunk-form round-tripping.
func (f *Fake) GetChunk(isBank bool) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !isBank {
		buf := make([]byte, numParams*4)
		for i := 0; i < numParams; i++ {
			binary.BigEndian.PutUint32(buf[i*4:], math.Float32bits(float32(f.params[i])))
		}
		return buf, nil
	}
	buf := make([]byte, 0, len(f.programs)*numParams*4)
	saved := f.curProgram
	for p := range f.programs {
		f.curProgram = int32(p)
		for i := 0; i < numParams; i++ {
			var b [4]byte
			binary.BigEndian.PutUint32(b[:], math.Float32bits(float32(f.params[i])))
			buf = append(buf, b[:]...)
		}
	}
	f.curProgram = saved
	return buf, nil
}

func (f *Fake) SetChunk(data []byte, isBank bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !isBank {
		if len(data) != numParams*4 {
			return fmt.Errorf("backendtest: expected %d bytes, got %d", numParams*4, len(data))
		}
		for i := 0; i < numParams; i++ {
			f.params[i] = float64(math.Float32frombits(binary.BigEndian.Uint32(data[i*4:])))
		}
		return nil
	}
	stride := numParams * 4
	if len(data)%stride != 0 {
		return fmt.Errorf("backendtest: bank chunk size %d not a multiple of %d", len(data), stride)
	}
	n := len(data) / stride
	if n > len(f.programs) {
		n = len(f.programs)
	}
	for p := 0; p < n; p++ {
		for i := 0; i < numParams; i++ {
			off := p*stride + i*4
			f.params[i] = float64(math.Float32frombits(binary.BigEndian.Uint32(data[off:])))
		}
	}
	return nil
}

// GetComponentState/SetComponentState stand in for a V3 component's
// processor state; this fake has only the parameter vector to persist, so
// they reuse the same encoding GetChunk/SetChunk use for isBank=false.
func (f *Fake) GetComponentState() ([]byte, error) { return f.GetChunk(false) }

func (f *Fake) SetComponentState(data []byte) error { return f.SetChunk(data, false) }

// GetControllerState/SetControllerState round-trip an opaque blob with no
// effect on audio processing, the fake's stand-in for edit-controller-only
// state a real V3 backend keeps separate from its component.
func (f *Fake) GetControllerState() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.controllerState...), nil
}

func (f *Fake) SetControllerState(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.controllerState = append([]byte(nil), data...)
	return nil
}

func (f *Fake) ReadProgramFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return f.SetChunk(b, false)
}

func (f *Fake) WriteProgramFile(path string) error {
	b, err := f.GetChunk(false)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func (f *Fake) ReadBankFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return f.SetChunk(b, true)
}

func (f *Fake) WriteBankFile(path string) error {
	b, err := f.GetChunk(true)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func (f *Fake) SendMidi(status, data1, data2 byte) {}
func (f *Fake) SendSysex(data []byte)              {}

func (f *Fake) SetTempoBPM(bpm float64)                      {}
func (f *Fake) SetTimeSignature(numerator, denominator int32) {}
func (f *Fake) SetTransportPlaying(playing bool)             {}
func (f *Fake) SetTransportPosition(beats float64)           {}
func (f *Fake) GetTransportPosition() float64                { return 0 }

func (f *Fake) CanDo(key string) int32 {
	switch key {
	case "sendVstEvents", "receiveVstEvents", "bypass":
		return 1
	default:
		return 0
	}
}

func (f *Fake) VendorSpecific(index int32, value int64, ptr uintptr, opt float64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vendorCalls[fmt.Sprintf("%d", index)]++
	return 0
}

func (f *Fake) HasEditor() bool { return true }

func (f *Fake) OpenEditor(ctx context.Context, parent uintptr) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.editorOpen = true
	return nil
}

func (f *Fake) CloseEditor() { f.mu.Lock(); f.editorOpen = false; f.mu.Unlock() }

func (f *Fake) EditorRect() (int32, int32, int32, int32) { return 0, 0, 400, 300 }

func (f *Fake) Close() {}

// SimulateAutomation lets a test drive the fake's listener callback as if
// the real plugin's editor reported a parameter change, from whatever
// goroutine the test calls this on — used to exercise the GUI-thread
// automation scenario (spec §8, scenario 6).
func (f *Fake) SimulateAutomation(index int32, value float64) {
	f.mu.Lock()
	l := f.listener
	f.mu.Unlock()
	if l != nil {
		l.ParameterAutomated(index, value)
	}
}

// SimulateMidiOut lets a test drive the fake's listener Midi callback.
func (f *Fake) SimulateMidiOut(status, d1, d2 byte, delta int32) {
	f.mu.Lock()
	l := f.listener
	f.mu.Unlock()
	if l != nil {
		l.MidiEvent(status, d1, d2, delta)
	}
}
