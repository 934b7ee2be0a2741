package host

import (
	"time"

	"github.com/rivermist/vsthost/pkg/backend"
	"github.com/rivermist/vsthost/pkg/hostmetrics"
	"github.com/rivermist/vsthost/pkg/paramstore"
)

// ControlValue is one UGen-style two-slot parameter control read per
// block (spec §4.1 step 4b): a parameter index paired with its current
// value, distinct from the control-bus-mapped slots driven by MapParam.
type ControlValue struct {
	Index int32
	Value float64
}

// Next runs one audio block (spec §4.1 "Audio-thread next(numFrames)
// algorithm"). Call only from the audio thread. bypassIn reads this
// block's bypass control; a transition never triggers a reset, since
// reset is explicit (RT-safety). buses supplies the current sample for
// every control-bus-mapped parameter slot by bus index; controls carries
// this block's UGen-style parameter writes.
func (in *Instance) Next(numFrames int, input, output [][]float32, bypassIn func() bool, buses func(bus int) float64, controls []ControlValue) {
	start := time.Now()
	defer func() { hostmetrics.ObserveNextDuration(in.Name, time.Since(start).Seconds()) }()

	in.cmdQueue.DrainReplies()

	be := in.backend()
	if be == nil {
		silence(output)
		return
	}

	in.applyBypassTransition(bypassIn)

	info := in.pluginInfo()
	plugIn := fitChannels(input, info.NumInputs)
	plugOut := fitChannels(output, info.NumOutputs)

	switch {
	case in.State() == StateReady && be.HasPrecision(false):
		params := in.paramStore()
		if params != nil {
			applyBusMappedParams(be, params, buses)
			applyControlValues(be, params, controls)
		}
		be.Process(plugIn, plugOut, numFrames)
		in.drainInboxToReplies()
	default:
		copyThrough(input, output, numFrames)
		plugOut = output[:min(len(input), len(output))]
	}

	zeroUnproduced(output, plugOut, numFrames)
}

// applyBypassTransition implements step 2: moves between Ready and
// Bypassed as the bypass control changes, without ever resetting the
// backend.
func (in *Instance) applyBypassTransition(bypassIn func() bool) {
	if bypassIn == nil {
		return
	}
	bypass := bypassIn()
	switch in.State() {
	case StateReady:
		if bypass {
			in.setState(StateBypassed)
		}
	case StateBypassed:
		if !bypass {
			in.setState(StateReady)
		}
	}
}

// applyBusMappedParams implements step 4a: for each parameter slot bound
// to a control bus, read the bus and forward a changed value to the
// backend.
func applyBusMappedParams(be backend.Backend, params *paramstore.Store, buses func(bus int) float64) {
	if buses == nil {
		return
	}
	for i := 0; i < params.Len(); i++ {
		slot, ok := params.Get(i)
		if !ok || slot.BusIndex == paramstore.NoBus {
			continue
		}
		v := buses(slot.BusIndex)
		if params.Changed(i, v) {
			be.SetParameter(int32(i), v)
			params.RecordSentKeepBus(i, v)
		}
	}
}

// applyControlValues implements step 4b: UGen-style {index, value}
// writes that bypass the bus-mapping path entirely, skipped for slots
// that are bus-mapped (busIndex wins over an explicit per-block write).
func applyControlValues(be backend.Backend, params *paramstore.Store, controls []ControlValue) {
	for _, c := range controls {
		i := int(c.Index)
		if i < 0 || i >= params.Len() {
			continue
		}
		slot, ok := params.Get(i)
		if !ok || slot.BusIndex != paramstore.NoBus {
			continue
		}
		if params.Changed(i, c.Value) {
			be.SetParameter(c.Index, c.Value)
			params.RecordSent(i, c.Value)
		}
	}
}

func (in *Instance) drainInboxToReplies() {
	if in.adapter.DrainInbox() {
		hostmetrics.InboxDrained(in.Name)
	} else {
		hostmetrics.InboxContended(in.Name)
	}
}

// fitChannels returns a view of bufs sized to want channels (spec §4.1
// step 3): trimmed if the engine has more channels than the plugin,
// padded with freshly-allocated scratch buffers if the engine has fewer.
// The scratch allocation only happens on a channel-count mismatch, never
// on the steady-state path where engine and plugin channel counts agree.
func fitChannels(bufs [][]float32, want int) [][]float32 {
	if want <= 0 || len(bufs) == want {
		return bufs
	}
	if len(bufs) > want {
		return bufs[:want]
	}
	out := make([][]float32, want)
	copy(out, bufs)
	for i := len(bufs); i < want; i++ {
		if len(bufs) > 0 {
			out[i] = make([]float32, len(bufs[0]))
		}
	}
	return out
}

// copyThrough implements step 5 (bypass): pass min(nIn, nOut) channels
// straight from input to output, unmodified; the remaining output
// channels are left for zeroUnproduced to clear. Bypass never resets the
// backend (spec: "do not auto-reset").
func copyThrough(in, out [][]float32, numFrames int) {
	n := len(in)
	if len(out) < n {
		n = len(out)
	}
	for ch := 0; ch < n; ch++ {
		m := numFrames
		if len(in[ch]) < m {
			m = len(in[ch])
		}
		if len(out[ch]) < m {
			m = len(out[ch])
		}
		copy(out[ch][:m], in[ch][:m])
	}
}

// zeroUnproduced implements step 6: any engine output channel the plugin
// did not write into directly (a channel-count-mismatch scratch buffer,
// or an engine outlet beyond the plugin's own output count) is cleared
// rather than left with stale samples.
func zeroUnproduced(engineOut, plugOut [][]float32, numFrames int) {
	for ch := range engineOut {
		if ch < len(plugOut) && samePlane(engineOut[ch], plugOut[ch]) {
			continue
		}
		buf := engineOut[ch]
		m := numFrames
		if len(buf) < m {
			m = len(buf)
		}
		for i := 0; i < m; i++ {
			buf[i] = 0
		}
	}
}

func samePlane(a, b []float32) bool {
	return len(a) > 0 && len(b) > 0 && &a[0] == &b[0]
}

func silence(out [][]float32) {
	for _, ch := range out {
		for i := range ch {
			ch[i] = 0
		}
	}
}
