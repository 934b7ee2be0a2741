// Command hostdemo drives a Plugin Host Instance against the in-process
// fake backend and plays its output through the system's audio device,
// demonstrating the three-thread wiring (audio/worker/GUI) end to end
// without a real VST2/VST3 plugin on hand.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"
	"unsafe"

	"github.com/ebitengine/oto/v3"

	"github.com/rivermist/vsthost/pkg/backend"
	"github.com/rivermist/vsthost/pkg/backendtest"
	"github.com/rivermist/vsthost/pkg/host"
	"github.com/rivermist/vsthost/pkg/hostconfig"
	"github.com/rivermist/vsthost/pkg/hostlog"
	"github.com/rivermist/vsthost/pkg/registry"
	"github.com/rivermist/vsthost/pkg/threadid"
)

func main() {
	var (
		gain     = flag.Float64("gain", 0.8, "initial gain parameter [0,1]")
		duration = flag.Duration("duration", 4*time.Second, "how long to play")
		blockLen = flag.Int("block", 512, "frames per audio block")
	)
	flag.Parse()

	if err := run(*gain, *duration, *blockLen); err != nil {
		fmt.Fprintln(os.Stderr, "hostdemo:", err)
		os.Exit(1)
	}
}

func run(gain float64, duration time.Duration, blockLen int) error {
	cfg := hostconfig.Default()
	cfg.DefaultBlockSize = blockLen

	audioThreadID := threadid.Pin()
	inst := host.New("hostdemo", cfg, backendtest.Factory{}, audioThreadID, nil)
	defer inst.Close()

	// reg stands in for the process-wide probe cache a real embedding
	// engine keeps (spec §9): probe once per path, serve repeat Opens of
	// the same path from the cache instead of re-probing.
	reg := registry.New()
	probe := func(path string) (backend.PluginInfo, error) {
		if info, ok := reg.Info(path); ok {
			return info, nil
		}
		info := backendtest.New(backend.KindV2, backend.UniqueID{'d', 'e', 'm', 'o'}, 2).Info()
		info.Path = path
		reg.StoreInfo(info)
		return info, nil
	}
	inst.Open(probe, "demo://sine", false)

	deadline := time.Now().Add(2 * time.Second)
	for inst.State() != host.StateReady && time.Now().Before(deadline) {
		// Next drains the command queue, which runs Open's rt stage.
		inst.Next(blockLen, nil, nil, nil, nil, nil)
		drainOneReply(inst)
		time.Sleep(time.Millisecond)
	}
	if inst.State() != host.StateReady {
		return fmt.Errorf("instance never reached Ready, state=%s", inst.State())
	}
	inst.SetParam(backendtest.ParamGain, gain)

	player, err := newBlockPlayer(inst, int(cfg.DefaultSampleRate), blockLen)
	if err != nil {
		return err
	}
	defer player.Close()

	player.Start()
	hostlog.Debug(fmt.Sprintf("hostdemo: playing for %s", duration))
	time.Sleep(duration)
	return nil
}

func drainOneReply(inst *host.Instance) {
	select {
	case <-inst.Replies():
	default:
	}
}

// blockPlayer pulls fixed-size stereo blocks from a Plugin Host Instance's
// next() and exposes them to oto as an io.Reader, the same source-adapter
// shape as IntuitionEngine's OtoPlayer.Read over a ring-buffered sound chip,
// only here the producer is next() rather than a hardware-register chip
// emulation.
type blockPlayer struct {
	inst      *host.Instance
	ctx       *oto.Context
	player    *oto.Player
	blockLen  int
	in, out   [][]float32
	scratch   []byte
	remaining []byte
}

func newBlockPlayer(inst *host.Instance, sampleRate, blockLen int) (*blockPlayer, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(blockLen) * time.Second / time.Duration(sampleRate),
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("oto: %w", err)
	}
	<-ready

	bp := &blockPlayer{
		inst:     inst,
		ctx:      ctx,
		blockLen: blockLen,
		in:       [][]float32{make([]float32, blockLen), make([]float32, blockLen)},
		out:      [][]float32{make([]float32, blockLen), make([]float32, blockLen)},
	}
	bp.player = ctx.NewPlayer(bp)
	return bp, nil
}

func (bp *blockPlayer) Start() { bp.player.Play() }

func (bp *blockPlayer) Close() {
	if bp.player != nil {
		bp.player.Close()
	}
}

// Read implements io.Reader for oto.Player: produces one next() block at a
// time, interleaved as stereo float32 frames, buffering any tail that
// doesn't evenly divide into p.
func (bp *blockPlayer) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(bp.remaining) == 0 {
			bp.inst.Next(bp.blockLen, bp.in, bp.out, nil, nil, nil)
			bp.remaining = interleave(bp.out, bp.blockLen)
		}
		copied := copy(p[n:], bp.remaining)
		bp.remaining = bp.remaining[copied:]
		n += copied
	}
	return n, nil
}

func interleave(chans [][]float32, numFrames int) []byte {
	frame := make([]float32, numFrames*len(chans))
	for i := 0; i < numFrames; i++ {
		for ch := range chans {
			frame[i*len(chans)+ch] = chans[ch][i]
		}
	}
	return (*[1 << 30]byte)(unsafe.Pointer(&frame[0]))[: len(frame)*4 : len(frame)*4]
}
