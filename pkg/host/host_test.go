package host

import (
	"testing"
	"time"

	"github.com/rivermist/vsthost/pkg/backend"
	"github.com/rivermist/vsthost/pkg/backendtest"
	"github.com/rivermist/vsthost/pkg/hostconfig"
	"github.com/rivermist/vsthost/pkg/threadid"
	"github.com/rivermist/vsthost/pkg/window"
)

func testInfo() backend.PluginInfo {
	return backendtest.New(backend.KindV2, backend.UniqueID{'t', 'e', 's', 't'}, 4).Info()
}

func fakeProbe(path string) (backend.PluginInfo, error) {
	return testInfo(), nil
}

func testInfoV3() backend.PluginInfo {
	return backendtest.New(backend.KindV3, backend.UniqueID{'t', 'e', 's', 't', '3'}, 4).Info()
}

func fakeProbeV3(path string) (backend.PluginInfo, error) {
	return testInfoV3(), nil
}

// newTestInstance builds an Instance and starts a background goroutine
// that calls DrainReplies the way next() would every tick, so tests can
// wait on Replies() without hand-driving the audio block loop themselves.
func newTestInstance(t *testing.T) *Instance {
	t.Helper()
	cfg := hostconfig.Default()
	cfg.CommandQueueDepth = 16
	inst := New("test", cfg, backendtest.Factory{}, threadid.Current(), nil)

	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				inst.cmdQueue.DrainReplies()
			}
		}
	}()
	t.Cleanup(func() {
		close(stop)
		inst.Close()
	})
	return inst
}

func waitReply(t *testing.T, inst *Instance, tag string) Reply {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case r := <-inst.Replies():
			if r.Tag == tag {
				return r
			}
		case <-deadline:
			t.Fatalf("timed out waiting for reply tag %q", tag)
		}
	}
}

// drainUntilReady polls DrainReplies (as next() would) until the instance
// reaches Ready, or fails the test after a deadline.
func drainUntilReady(t *testing.T, inst *Instance) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		inst.cmdQueue.DrainReplies()
		if inst.State() == StateReady {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("instance never reached Ready, state=%s", inst.State())
}

func TestOpenSetClose(t *testing.T) {
	inst := newTestInstance(t)
	inst.Open(fakeProbe, "/fake/plugin.vst", false)
	drainUntilReady(t, inst)

	r := waitReply(t, inst, "/open")
	if !r.Ok {
		t.Fatal("expected /open Ok=true")
	}

	inst.SetParam(backendtest.ParamGain, 0.5)
	pr := waitReply(t, inst, "/param")
	if pr.Index != backendtest.ParamGain || pr.Value != 0.5 {
		t.Errorf("expected gain 0.5 at index %d, got %v at index %d", backendtest.ParamGain, pr.Value, pr.Index)
	}

	inst.Close()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && inst.State() != StateEmpty {
		inst.cmdQueue.DrainReplies()
		time.Sleep(time.Millisecond)
	}
	if inst.State() != StateEmpty {
		t.Fatalf("expected Empty after close, got %s", inst.State())
	}
}

func TestBusMapping(t *testing.T) {
	inst := newTestInstance(t)
	inst.Open(fakeProbe, "/fake/plugin.vst", false)
	drainUntilReady(t, inst)
	waitReply(t, inst, "/open")

	if !inst.MapParam(backendtest.ParamGain, 3) {
		t.Fatal("MapParam failed")
	}

	busValue := 0.25
	buses := func(bus int) float64 {
		if bus == 3 {
			return busValue
		}
		return 0
	}

	numFrames := 16
	in := [][]float32{make([]float32, numFrames), make([]float32, numFrames)}
	out := [][]float32{make([]float32, numFrames), make([]float32, numFrames)}
	for i := range in[0] {
		in[0][i] = 1
		in[1][i] = 1
	}

	inst.Next(numFrames, in, out, nil, buses, nil)

	be := inst.backend()
	if be.GetParameter(backendtest.ParamGain) != busValue {
		t.Errorf("expected bus-mapped gain %v, got %v", busValue, be.GetParameter(backendtest.ParamGain))
	}

	if !inst.UnmapParam(backendtest.ParamGain) {
		t.Fatal("UnmapParam failed")
	}
}

func TestBypassTransition(t *testing.T) {
	inst := newTestInstance(t)
	inst.Open(fakeProbe, "/fake/plugin.vst", false)
	drainUntilReady(t, inst)
	waitReply(t, inst, "/open")

	numFrames := 4
	in := [][]float32{{1, 2, 3, 4}}
	out := [][]float32{make([]float32, numFrames)}

	bypass := true
	inst.Next(numFrames, in, out, func() bool { return bypass }, nil, nil)
	if inst.State() != StateBypassed {
		t.Fatalf("expected Bypassed, got %s", inst.State())
	}
	for i, v := range in[0] {
		if out[0][i] != v {
			t.Errorf("bypass pass-through mismatch at %d: got %v want %v", i, out[0][i], v)
		}
	}

	bypass = false
	inst.Next(numFrames, in, out, func() bool { return bypass }, nil, nil)
	if inst.State() != StateReady {
		t.Fatalf("expected Ready after bypass off, got %s", inst.State())
	}
}

func TestV2ProgramRoundTrip(t *testing.T) {
	inst := newTestInstance(t)
	inst.Open(fakeProbe, "/fake/plugin.vst", false)
	drainUntilReady(t, inst)
	waitReply(t, inst, "/open")

	inst.SetParam(backendtest.ParamGain, 0.75)
	waitReply(t, inst, "/param")

	path := t.TempDir() + "/test.fxp"
	inst.WriteProgram(path)
	waitReply(t, inst, "/program_write")

	inst.SetParam(backendtest.ParamGain, 0.1)
	waitReply(t, inst, "/param")

	inst.ReadProgram(path)
	waitReply(t, inst, "/program_read")

	be := inst.backend()
	if got := be.GetParameter(backendtest.ParamGain); got != 0.75 {
		t.Errorf("expected restored gain 0.75, got %v", got)
	}
}

func TestV3ProgramRoundTrip(t *testing.T) {
	inst := newTestInstance(t)
	inst.Open(fakeProbeV3, "/fake/plugin.vst3", false)
	drainUntilReady(t, inst)
	waitReply(t, inst, "/open")

	inst.SetParam(backendtest.ParamGain, 0.6)
	waitReply(t, inst, "/param")

	path := t.TempDir() + "/test.vstpreset"
	inst.WriteProgram(path)
	waitReply(t, inst, "/program_write")

	inst.SetParam(backendtest.ParamGain, 0.2)
	waitReply(t, inst, "/param")

	inst.ReadProgram(path)
	waitReply(t, inst, "/program_read")

	be := inst.backend()
	if got := be.GetParameter(backendtest.ParamGain); got != 0.6 {
		t.Errorf("expected restored gain 0.6, got %v", got)
	}
}

func TestV3BankRoundTrip(t *testing.T) {
	inst := newTestInstance(t)
	inst.Open(fakeProbeV3, "/fake/plugin.vst3", false)
	drainUntilReady(t, inst)
	waitReply(t, inst, "/open")

	inst.SetParam(backendtest.ParamTone, 0.4)
	waitReply(t, inst, "/param")

	path := t.TempDir() + "/test.bank.vstpreset"
	inst.WriteBank(path)
	waitReply(t, inst, "/bank_write")

	inst.SetParam(backendtest.ParamTone, 0.9)
	waitReply(t, inst, "/param")

	inst.ReadBank(path)
	waitReply(t, inst, "/bank_read")

	be := inst.backend()
	if got := be.GetParameter(backendtest.ParamTone); got != 0.4 {
		t.Errorf("expected restored tone 0.4, got %v", got)
	}
}

func TestStreamedBankUpload(t *testing.T) {
	inst := newTestInstance(t)
	inst.Open(fakeProbe, "/fake/plugin.vst", false)
	drainUntilReady(t, inst)
	waitReply(t, inst, "/open")

	be := inst.backend()
	chunk, err := be.GetChunk(true)
	if err != nil {
		t.Fatalf("GetChunk: %v", err)
	}

	const packet = 3
	for onset := 0; onset < len(chunk); onset += packet {
		end := onset + packet
		if end > len(chunk) {
			end = len(chunk)
		}
		inst.SendProgramData(int32(len(chunk)), int32(onset), chunk[onset:end], true)
	}

	waitReply(t, inst, "/bank_data")
}

func TestGUIThreadAutomation(t *testing.T) {
	inst := newTestInstance(t)
	inst.SetWindowBackend(window.NewHeadless())
	inst.Open(fakeProbe, "/fake/plugin.vst", true)
	drainUntilReady(t, inst)
	waitReply(t, inst, "/open")

	be := inst.backend().(*backendtest.Fake)

	// A goroutine with no pkg/threadid.Pin call is, from the Listener
	// Adapter's point of view, neither the audio nor the worker thread,
	// so ParameterAutomated routes it through the Event Inbox exactly as
	// a real plugin editor's GUI thread would (spec §4.2).
	go be.SimulateAutomation(backendtest.ParamTone, 0.9)

	numFrames := 4
	buf := [][]float32{make([]float32, numFrames), make([]float32, numFrames)}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		inst.Next(numFrames, buf, buf, nil, nil, nil)
		select {
		case r := <-inst.Replies():
			if r.Tag == "/auto" && r.Index == backendtest.ParamTone {
				if r.Value != 0.9 {
					t.Errorf("expected automated value 0.9, got %v", r.Value)
				}
				return
			}
		default:
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for /auto reply from GUI-thread automation")
}
