package host

import (
	"context"
	"encoding/hex"
	"os"

	"github.com/rivermist/vsthost/pkg/backend"
	"github.com/rivermist/vsthost/pkg/command"
	"github.com/rivermist/vsthost/pkg/hosterr"
	"github.com/rivermist/vsthost/pkg/hostlog"
	"github.com/rivermist/vsthost/pkg/hostmetrics"
	"github.com/rivermist/vsthost/pkg/hostmidi"
	"github.com/rivermist/vsthost/pkg/paramstore"
	"github.com/rivermist/vsthost/pkg/preset"
	"github.com/rivermist/vsthost/pkg/window"
)

// Probe resolves a plugin path to its PluginInfo. Real plugin probing is
// out of scope (spec §1); the embedding engine supplies this hook, e.g.
// backed by pkg/registry's cache.
type Probe func(path string) (backend.PluginInfo, error)

// logDropped records a refused operation: an operation-dropped metric plus
// a warning log, classified by hosterr.Kind (spec §7 error kinds).
func (in *Instance) logDropped(kind hosterr.Kind, msg string) {
	hostmetrics.OperationDropped(in.Name, kind.String())
	hostlog.Warn("host: " + msg)
}

// logFailure records a failed operation whose cause is a captured Go error,
// same metric as logDropped but logged at error level with the detail.
func (in *Instance) logFailure(kind hosterr.Kind, msg string, err error) {
	hostmetrics.OperationDropped(in.Name, kind.String())
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	hostlog.Error("host: "+msg, hosterr.New(kind, detail))
}

// v3ClassID derives a V3 preset's 32-byte ASCII class id from a plugin's
// 128-bit UniqueID (spec §4.6: "32-byte ASCII class id"); hex-encoding 16
// bytes produces exactly 32 characters.
func v3ClassID(info backend.PluginInfo) [32]byte {
	var id [32]byte
	hex.Encode(id[:], info.UniqueID[:])
	return id
}

// readV3State captures the backend's component and controller state into a
// preset.V3State (spec §4.6 write: "captures both stream states first").
func readV3State(be backend.Backend, info backend.PluginInfo) (preset.V3State, error) {
	comp, err := be.GetComponentState()
	if err != nil {
		return preset.V3State{}, err
	}
	cont, err := be.GetControllerState()
	if err != nil {
		return preset.V3State{}, err
	}
	return preset.V3State{ClassID: v3ClassID(info), Component: comp, Controller: cont}, nil
}

// applyV3State dispatches a decoded V3State's component/controller blobs to
// the backend (spec §4.6: "'Comp' chunks to the backend component, 'Cont'
// chunks to the backend controller").
func applyV3State(be backend.Backend, state *preset.V3State) error {
	if state.Component != nil {
		if err := be.SetComponentState(state.Component); err != nil {
			return err
		}
	}
	if state.Controller != nil {
		if err := be.SetControllerState(state.Controller); err != nil {
			return err
		}
	}
	return nil
}

// Open enqueues a worker-side Open command (spec §4.1 open). If the
// instance is already loaded, first tears it down; a second Open issued
// while still Loading is dropped with a warning.
func (in *Instance) Open(probe Probe, path string, withEditor bool) {
	switch in.State() {
	case StateLoading:
		in.logDropped(hosterr.PreconditionViolation, "open while loading, dropped: "+path)
		return
	case StateReady, StateBypassed:
		in.Close()
	}
	in.setState(StateLoading)

	cmd := &command.Command{Name: "open"}
	var (
		info      backend.PluginInfo
		be        backend.Backend
		hasEditor bool
		openErr   error
	)
	cmd.NRT = func() bool {
		i, err := probe(path)
		if err != nil {
			openErr = err
			return false
		}
		info = i
		create := func() { be, openErr = in.factory.Create(info) }
		if in.guiThread != nil {
			in.guiThread.Submit(create)
		} else {
			create()
		}
		if openErr != nil {
			return false
		}
		be.SetSampleRate(in.cfg.DefaultSampleRate)
		be.SetBlockSize(in.cfg.DefaultBlockSize)
		be.SetListener(in.adapter)
		if withEditor && be.HasEditor() {
			hasEditor = in.openEditor(be)
		}
		return true
	}
	cmd.RT = func() bool {
		in.mu.Lock()
		in.be = be
		in.info = info
		in.params = paramstore.New(info.NumParameters)
		in.path = path
		in.mu.Unlock()
		in.setState(StateReady)
		in.emit(Reply{Tag: "/open", Ok: true, HasEditor: hasEditor})
		return true
	}
	cmd.Release = func() {
		if in.State() == StateLoading {
			in.setState(StateEmpty)
			in.emit(Reply{Tag: "/open", Ok: false})
			in.logFailure(hosterr.BackendLoadFailure, "open failed for "+path, openErr)
		}
	}
	in.submit(cmd)
}

func (in *Instance) openEditor(be backend.Backend) bool {
	if in.windowBackend == nil {
		return false
	}
	var (
		win window.Window
		err error
	)
	doCreate := func() {
		win, err = in.windowBackend.Create(0)
		if err != nil {
			return
		}
		win.SetTitle(in.Name)
		if oerr := be.OpenEditor(context.Background(), win.Handle()); oerr != nil {
			err = oerr
			return
		}
		win.Show()
	}
	if in.guiThread != nil {
		in.guiThread.Submit(doCreate)
	} else {
		doCreate()
	}
	if err != nil || win == nil {
		return false
	}
	in.mu.Lock()
	in.editor = win
	in.mu.Unlock()
	return true
}

// Close enqueues a worker-side Close (spec §4.1 close). The current
// backend and editor move into the Command's closure; the GUI thread, if
// any, stays with the instance and keeps running. The caller's view of the instance reflects StateClosing
// immediately so a subsequent Open is accepted once this completes.
func (in *Instance) Close() {
	if in.State() != StateReady && in.State() != StateBypassed {
		in.logDropped(hosterr.PreconditionViolation, "close while not ready, dropped")
		return
	}
	in.mu.Lock()
	be := in.be
	editor := in.editor
	in.be = nil
	in.editor = nil
	in.mu.Unlock()

	in.setState(StateClosing)
	cmd := &command.Command{
		Name: "close",
		NRT: func() bool {
			if editor != nil {
				be.CloseEditor()
				editor.Close()
			}
			if be != nil {
				be.Close()
			}
			return true
		},
		RT: func() bool {
			in.setState(StateEmpty)
			return true
		},
	}
	in.submit(cmd)
}

// Reset implements spec §4.1 reset. async=false runs suspend+resume
// inline on the calling (audio) thread; async=true defers to the worker.
func (in *Instance) Reset(async bool) {
	be := in.backend()
	if be == nil {
		in.logDropped(hosterr.NotLoaded, "reset with no plugin loaded")
		return
	}
	if !async {
		be.Suspend()
		be.Resume()
		return
	}
	in.submit(&command.Command{
		Name: "reset",
		NRT: func() bool {
			be.Suspend()
			be.Resume()
			return true
		},
	})
}

// ShowEditor toggles the editor window's top-level visibility on the GUI
// thread (spec §4.1 showEditor).
func (in *Instance) ShowEditor(show bool) {
	in.mu.Lock()
	editor := in.editor
	in.mu.Unlock()
	if editor == nil {
		in.logDropped(hosterr.PreconditionViolation, "showEditor with no editor window")
		return
	}
	in.submit(&command.Command{
		Name: "vis",
		NRT: func() bool {
			do := func() {
				if show {
					editor.Show()
					editor.BringToTop()
				} else {
					editor.Hide()
				}
			}
			if in.guiThread != nil {
				in.guiThread.Submit(do)
			} else {
				do()
			}
			return true
		},
	})
}

// SetParam implements spec §4.1 setParam(i, float). Out-of-range indices
// are dropped with a warning and never reach the Command Queue.
func (in *Instance) SetParam(index int32, value float64) {
	in.setParam(index, func(be backend.Backend) { be.SetParameter(index, value) })
}

// SetParamString implements spec §4.1 setParam(i, string).
func (in *Instance) SetParamString(index int32, text string) {
	in.setParam(index, func(be backend.Backend) { be.SetParameterString(index, text) })
}

func (in *Instance) setParam(index int32, apply func(backend.Backend)) {
	be := in.backend()
	params := in.paramStore()
	if be == nil || params == nil {
		in.logDropped(hosterr.NotLoaded, "setParam with no plugin loaded")
		return
	}
	if _, ok := params.Get(int(index)); !ok {
		in.logDropped(hosterr.IndexOutOfRange, "setParam index out of range")
		return
	}
	in.submit(&command.Command{
		Name: "set",
		NRT: func() bool {
			apply(be)
			return true
		},
		RT: func() bool {
			value := be.GetParameter(index)
			params.RecordSent(int(index), value)
			in.emit(Reply{Tag: "/param", Index: index, Value: value, Display: be.GetParameterDisplay(index)})
			return true
		},
	})
}

// MapParam binds parameter index to a control bus; pure audio-thread
// operation (spec §4.1 mapParam).
func (in *Instance) MapParam(index int32, bus int) bool {
	params := in.paramStore()
	if params == nil {
		return false
	}
	return params.MapToBus(int(index), bus)
}

// UnmapParam clears parameter index's control-bus binding (spec §4.1 unmapParam).
func (in *Instance) UnmapParam(index int32) bool {
	params := in.paramStore()
	if params == nil {
		return false
	}
	return params.Unmap(int(index))
}

// ParamQuery emits /param for count parameters starting at onset (spec §6
// param_query).
func (in *Instance) ParamQuery(onset, count int32) {
	be := in.backend()
	if be == nil {
		return
	}
	for i := onset; i < onset+count; i++ {
		in.emit(Reply{Tag: "/param", Index: i, Value: be.GetParameter(i), Display: be.GetParameterDisplay(i)})
	}
}

// Get emits a /set reply with one parameter's value (spec §6 get).
func (in *Instance) Get(index int32) {
	be := in.backend()
	if be == nil {
		return
	}
	in.emit(Reply{Tag: "/set", Index: index, Value: be.GetParameter(index)})
}

// GetN emits a /setn reply with count consecutive parameter values (spec §6 getn).
func (in *Instance) GetN(index, count int32) {
	be := in.backend()
	if be == nil {
		return
	}
	values := make([]float64, count)
	for i := int32(0); i < count; i++ {
		values[i] = be.GetParameter(index + i)
	}
	in.emit(Reply{Tag: "/setn", Index: index, Count: count, Values: values})
}

// SetProgram enqueues a worker-side program change (spec §4.1 setProgram).
func (in *Instance) SetProgram(index int32) {
	be := in.backend()
	if be == nil {
		return
	}
	in.submit(&command.Command{
		Name: "program_set",
		NRT:  func() bool { return be.SetProgram(index) },
		RT: func() bool {
			in.emit(Reply{Tag: "/program_index", Index: be.GetProgram()})
			in.emit(Reply{Tag: "/program_name", Index: be.GetProgram(), Name: be.GetProgramName()})
			return true
		},
	})
}

// QueryPrograms emits /program_name for count programs starting at onset
// (spec §6 program_query).
func (in *Instance) QueryPrograms(onset, count int32) {
	be := in.backend()
	if be == nil {
		return
	}
	for i := onset; i < onset+count; i++ {
		in.emit(Reply{Tag: "/program_name", Index: i, Name: be.GetProgramNameIndexed(i)})
	}
}

// SetProgramName sets the current program's name (spec §6 program_name).
func (in *Instance) SetProgramName(name string) {
	be := in.backend()
	if be == nil {
		return
	}
	in.submit(&command.Command{
		Name: "program_name",
		NRT:  func() bool { be.SetProgramName(name); return true },
	})
}

// ReadProgram decodes an FXP file at path and applies it (spec §4.1
// readProgram). Chunk-form data is applied via SetChunk; parameter-form
// data is applied parameter-by-parameter.
func (in *Instance) ReadProgram(path string) {
	be := in.backend()
	info := in.pluginInfo()
	if be == nil {
		in.logDropped(hosterr.NotLoaded, "readProgram with no plugin loaded")
		return
	}
	var loaded bool
	var failErr error
	cmd := &command.Command{
		Name: "program_read",
		NRT: func() bool {
			data, err := os.ReadFile(path)
			if err != nil {
				failErr = err
				return false
			}
			if info.Kind == backend.KindV3 {
				state, err := preset.DecodeV3(data, v3ClassID(info))
				if err != nil {
					failErr = err
					return false
				}
				if err := applyV3State(be, state); err != nil {
					failErr = err
					return false
				}
				return true
			}
			prog, err := preset.DecodeProgram(data)
			if err != nil {
				failErr = err
				return false
			}
			if prog.IsChunk {
				if err := be.SetChunk(prog.Chunk, false); err != nil {
					failErr = err
					return false
				}
			} else {
				for i, v := range prog.Params {
					be.SetParameter(int32(i), float64(v))
				}
			}
			be.SetProgramName(prog.Name)
			return true
		},
		RT: func() bool {
			loaded = true
			in.emit(Reply{Tag: "/program_read", Ok: true})
			in.emit(Reply{Tag: "/program_name", Index: be.GetProgram(), Name: be.GetProgramName()})
			return true
		},
		Release: func() {
			if !loaded {
				in.emit(Reply{Tag: "/program_read", Ok: false})
				in.logFailure(hosterr.CodecFailure, "program_read failed for "+path, failErr)
			}
		},
	}
	in.submit(cmd)
}

// WriteProgram captures the current parameter vector (or chunk) and
// writes it as an FXP file (spec §4.1 writeProgram).
func (in *Instance) WriteProgram(path string) {
	be := in.backend()
	info := in.pluginInfo()
	if be == nil {
		in.logDropped(hosterr.NotLoaded, "writeProgram with no plugin loaded")
		return
	}
	var wrote bool
	var failErr error
	in.submit(&command.Command{
		Name: "program_write",
		NRT: func() bool {
			var data []byte
			if info.Kind == backend.KindV3 {
				state, err := readV3State(be, info)
				if err != nil {
					failErr = err
					return false
				}
				data = preset.EncodeV3(state)
			} else {
				prog := programSnapshot(be, info)
				d, err := preset.EncodeProgram(prog)
				if err != nil {
					failErr = err
					return false
				}
				data = d
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				failErr = err
				return false
			}
			return true
		},
		RT: func() bool {
			wrote = true
			in.emit(Reply{Tag: "/program_write", Ok: true})
			return true
		},
		Release: func() {
			if !wrote {
				in.emit(Reply{Tag: "/program_write", Ok: false})
				in.logFailure(hosterr.BackendIOFailure, "program_write failed for "+path, failErr)
			}
		},
	})
}

func programSnapshot(be backend.Backend, info backend.PluginInfo) preset.Program {
	p := preset.Program{
		PluginID: info.UniqueID.Uint32(),
		Name:     be.GetProgramName(),
	}
	if info.Capabilities.Has(backend.HasChunkData) {
		chunk, err := be.GetChunk(false)
		if err == nil {
			p.IsChunk = true
			p.Chunk = chunk
			return p
		}
	}
	params := make([]float32, info.NumParameters)
	for i := range params {
		params[i] = float32(be.GetParameter(int32(i)))
	}
	p.Params = params
	return p
}

// ReadBank decodes an FXB file and applies it, restoring the bank's
// CurrentProgram after loading every program slot (spec §4.1 readBank,
// §4.5 write invariants note about restoring the active program).
func (in *Instance) ReadBank(path string) {
	be := in.backend()
	info := in.pluginInfo()
	if be == nil {
		in.logDropped(hosterr.NotLoaded, "readBank with no plugin loaded")
		return
	}
	var loaded bool
	var failErr error
	in.submit(&command.Command{
		Name: "bank_read",
		NRT: func() bool {
			data, err := os.ReadFile(path)
			if err != nil {
				failErr = err
				return false
			}
			if info.Kind == backend.KindV3 {
				// VST3 has no distinct bank container (spec §4.6): the
				// component+controller blob already represents whatever
				// state is active, so bank_read reuses the same codec as
				// program_read.
				state, err := preset.DecodeV3(data, v3ClassID(info))
				if err != nil {
					failErr = err
					return false
				}
				if err := applyV3State(be, state); err != nil {
					failErr = err
					return false
				}
				return true
			}
			bank, err := preset.DecodeBank(data)
			if err != nil {
				failErr = err
				return false
			}
			if bank.IsChunk {
				if err := be.SetChunk(bank.Chunk, true); err != nil {
					failErr = err
					return false
				}
			} else {
				for i, p := range bank.Programs {
					if !be.SetProgram(int32(i)) {
						continue
					}
					for pi, v := range p.Params {
						be.SetParameter(int32(pi), float64(v))
					}
					be.SetProgramName(p.Name)
				}
			}
			be.SetProgram(bank.CurrentProgram)
			return true
		},
		RT: func() bool {
			loaded = true
			in.emit(Reply{Tag: "/bank_read", Ok: true})
			in.emit(Reply{Tag: "/program_index", Index: be.GetProgram()})
			// Supplemented feature: the original host re-enumerates every
			// program name after a bank load, since bank_read can rename
			// every slot at once (distilled spec left this implicit).
			in.QueryPrograms(0, int32(info.NumPrograms))
			return true
		},
		Release: func() {
			if !loaded {
				in.emit(Reply{Tag: "/bank_read", Ok: false})
				in.logFailure(hosterr.CodecFailure, "bank_read failed for "+path, failErr)
			}
		},
	})
}

// WriteBank captures every program's parameter snapshot, then restores
// the originally active program, then writes the FXB file (spec §4.5
// write invariants).
func (in *Instance) WriteBank(path string) {
	be := in.backend()
	info := in.pluginInfo()
	if be == nil {
		in.logDropped(hosterr.NotLoaded, "writeBank with no plugin loaded")
		return
	}
	var wrote bool
	var failErr error
	in.submit(&command.Command{
		Name: "bank_write",
		NRT: func() bool {
			if info.Kind == backend.KindV3 {
				state, err := readV3State(be, info)
				if err != nil {
					failErr = err
					return false
				}
				data := preset.EncodeV3(state)
				if err := os.WriteFile(path, data, 0o644); err != nil {
					failErr = err
					return false
				}
				return true
			}
			if info.Capabilities.Has(backend.HasChunkData) {
				chunk, err := be.GetChunk(true)
				if err != nil {
					failErr = err
					return false
				}
				data, err := preset.EncodeBank(preset.Bank{PluginID: info.UniqueID.Uint32(), IsChunk: true, Chunk: chunk, CurrentProgram: be.GetProgram()})
				if err != nil {
					failErr = err
					return false
				}
				if err := os.WriteFile(path, data, 0o644); err != nil {
					failErr = err
					return false
				}
				return true
			}
			original := be.GetProgram()
			programs := make([]preset.Program, info.NumPrograms)
			for i := 0; i < info.NumPrograms; i++ {
				be.SetProgram(int32(i))
				programs[i] = programSnapshot(be, info)
			}
			be.SetProgram(original)
			bank := preset.Bank{PluginID: info.UniqueID.Uint32(), CurrentProgram: original, Programs: programs}
			data, err := preset.EncodeBank(bank)
			if err != nil {
				failErr = err
				return false
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				failErr = err
				return false
			}
			return true
		},
		RT: func() bool {
			wrote = true
			in.emit(Reply{Tag: "/bank_write", Ok: true})
			return true
		},
		Release: func() {
			if !wrote {
				in.emit(Reply{Tag: "/bank_write", Ok: false})
				in.logFailure(hosterr.BackendIOFailure, "bank_write failed for "+path, failErr)
			}
		},
	})
}

// SendProgramData accumulates one packet of a streamed program (or bank,
// when isBank is true) upload into the instance's upload buffer (spec
// §4.1 sendProgramData). onset=0 resets the buffer and records
// totalSize; once the buffer reaches totalSize the accumulated bytes are
// applied on the worker thread: for V2 they go to SetChunk as a raw chunk,
// without FXP/FXB decoding; for V3 they are decoded with preset.DecodeV3.
func (in *Instance) SendProgramData(totalSize, onset int32, chunk []byte, isBank bool) {
	be := in.backend()
	info := in.pluginInfo()
	if be == nil {
		in.logDropped(hosterr.NotLoaded, "sendProgramData with no plugin loaded")
		return
	}
	in.mu.Lock()
	state := &in.upload
	if isBank {
		state = &in.bankUp
	}
	if onset == 0 {
		state.total = totalSize
		state.buf = make([]byte, 0, totalSize)
	}
	state.buf = append(state.buf, chunk...)
	complete := int32(len(state.buf)) >= state.total
	var payload []byte
	if complete {
		payload = state.buf
		state.buf = nil
		state.total = 0
	}
	in.mu.Unlock()

	if !complete {
		return
	}
	tag := "/program_data"
	if isBank {
		tag = "/bank_data"
	}
	var failErr error
	in.submit(&command.Command{
		Name: "data_set",
		NRT: func() bool {
			if info.Kind == backend.KindV3 {
				v3state, err := preset.DecodeV3(payload, v3ClassID(info))
				if err != nil {
					failErr = err
					return false
				}
				if err := applyV3State(be, v3state); err != nil {
					failErr = err
					return false
				}
				return true
			}
			if err := be.SetChunk(payload, isBank); err != nil {
				failErr = err
				return false
			}
			return true
		},
		RT: func() bool {
			in.emit(Reply{Tag: tag, Ok: true})
			return true
		},
		Release: func() {
			if failErr != nil {
				in.emit(Reply{Tag: tag, Ok: false})
				in.logFailure(hosterr.CodecFailure, "data_set failed", failErr)
			}
		},
	})
}

// ReceiveProgramData enqueues worker-side serialization of the current
// program (or bank, when isBank is true) and streams the result back as
// packets of at most packetBudget bytes, each tagged {total, onset, size}
// (spec §4.1 receiveProgramData).
func (in *Instance) ReceiveProgramData(packetBudget int32, isBank bool) {
	be := in.backend()
	info := in.pluginInfo()
	if be == nil {
		in.logDropped(hosterr.NotLoaded, "receiveProgramData with no plugin loaded")
		return
	}
	tag := "/program_data"
	if isBank {
		tag = "/bank_data"
	}
	var data []byte
	var failErr error
	in.submit(&command.Command{
		Name: "data_get",
		NRT: func() bool {
			if info.Kind == backend.KindV3 {
				// Both program and bank requests return the same full
				// component+controller blob for V3 (spec §4.6): there is
				// no separate per-program-slot container at this level.
				state, err := readV3State(be, info)
				if err != nil {
					failErr = err
					return false
				}
				data = preset.EncodeV3(state)
				return true
			}
			var err error
			if isBank {
				original := be.GetProgram()
				bank := preset.Bank{PluginID: info.UniqueID.Uint32(), CurrentProgram: original}
				if info.Capabilities.Has(backend.HasChunkData) {
					bank.IsChunk = true
					bank.Chunk, err = be.GetChunk(true)
				} else {
					programs := make([]preset.Program, info.NumPrograms)
					for i := 0; i < info.NumPrograms; i++ {
						be.SetProgram(int32(i))
						programs[i] = programSnapshot(be, info)
					}
					be.SetProgram(original)
					bank.Programs = programs
				}
				if err != nil {
					failErr = err
					return false
				}
				data, err = preset.EncodeBank(bank)
			} else {
				data, err = preset.EncodeProgram(programSnapshot(be, info))
			}
			if err != nil {
				failErr = err
				return false
			}
			return true
		},
		RT: func() bool {
			total := int32(len(data))
			for onset := int32(0); onset < total || onset == 0; onset += packetBudget {
				end := onset + packetBudget
				if end > total {
					end = total
				}
				in.emit(Reply{Tag: tag, Total: total, Onset: onset, Size: end - onset, Bytes: data[onset:end]})
				if end >= total {
					break
				}
			}
			return true
		},
		Release: func() {
			if failErr != nil {
				in.emit(Reply{Tag: tag, Ok: false})
				in.logFailure(hosterr.CodecFailure, "data_get failed", failErr)
			}
		},
	})
}

// SendMidi passes a MIDI event straight through to the backend (spec
// §4.1 sendMidi; RT-safe, no Command Queue involved).
func (in *Instance) SendMidi(status, data1, data2 byte) {
	if be := in.backend(); be != nil {
		hostlog.Debug("host: midi in " + hostmidi.Describe(status, data1, data2))
		be.SendMidi(status, data1, data2)
	}
}

// SendSysex passes a sysex message straight through to the backend (spec
// §4.1 sendSysex).
func (in *Instance) SendSysex(data []byte) {
	if be := in.backend(); be != nil {
		be.SendSysex(data)
	}
}

// SetTempo passes the transport tempo straight through (spec §4.1 setTempo).
func (in *Instance) SetTempo(bpm float64) {
	if be := in.backend(); be != nil {
		be.SetTempoBPM(bpm)
	}
}

// SetTimeSig passes the transport time signature straight through (spec
// §4.1 setTimeSig).
func (in *Instance) SetTimeSig(numerator, denominator int32) {
	if be := in.backend(); be != nil {
		be.SetTimeSignature(numerator, denominator)
	}
}

// SetTransportPlaying passes transport play state straight through (spec
// §4.1 setTransportPlaying).
func (in *Instance) SetTransportPlaying(playing bool) {
	if be := in.backend(); be != nil {
		be.SetTransportPlaying(playing)
	}
}

// SetTransportPos passes the transport position straight through (spec
// §4.1 setTransportPos).
func (in *Instance) SetTransportPos(beats float64) {
	if be := in.backend(); be != nil {
		be.SetTransportPosition(beats)
	}
}

// GetTransportPos reads the transport position straight from the backend
// and emits a /transport reply (spec §4.1 getTransportPos).
func (in *Instance) GetTransportPos() {
	be := in.backend()
	if be == nil {
		return
	}
	in.emit(Reply{Tag: "/transport", Pos: be.GetTransportPosition()})
}

// CanDo forwards a capability query to the backend and emits a
// /can_do reply, memoizing the result per key (supplemented feature: the
// original host's canDo cache, distilled spec left implicit).
func (in *Instance) CanDo(key string) {
	be := in.backend()
	if be == nil {
		return
	}
	in.mu.Lock()
	if in.canDoCache == nil {
		in.canDoCache = make(map[string]int32)
	}
	result, cached := in.canDoCache[key]
	in.mu.Unlock()
	if !cached {
		result = be.CanDo(key)
		in.mu.Lock()
		in.canDoCache[key] = result
		in.mu.Unlock()
	}
	in.emit(Reply{Tag: "/can_do", IntResult: result})
}

// VendorSpecific forwards a vendor-specific dispatch call to the backend
// and emits a /vendor_method reply carrying the integer result (spec
// §4.1 vendorSpecific).
func (in *Instance) VendorSpecific(index int32, value int64, ptr uintptr, opt float64) {
	be := in.backend()
	if be == nil {
		return
	}
	result := be.VendorSpecific(index, value, ptr, opt)
	in.emit(Reply{Tag: "/vendor_method", Int64Result: result})
}

// submit wraps command.Queue.Submit, recording dropped-command metrics.
func (in *Instance) submit(cmd *command.Command) {
	if !in.cmdQueue.Submit(cmd) {
		hostmetrics.CommandDropped(in.Name, cmd.Name)
		return
	}
	hostmetrics.CommandProcessed(in.Name, cmd.Name)
}

func (in *Instance) backend() backend.Backend {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.be
}

func (in *Instance) paramStore() *paramstore.Store {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.params
}

func (in *Instance) pluginInfo() backend.PluginInfo {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.info
}
