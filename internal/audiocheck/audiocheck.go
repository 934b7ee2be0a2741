// Package audiocheck provides test-only audio-buffer assertions used to
// verify the RT-safety invariants in spec §8: no NaNs escape a next()
// call, bypassed blocks pass audio through unchanged, and so on.
//
// Trimmed down from the teacher's pkg/framework/debug.AudioAnalyzer,
// which is built for interactive plugin-development debugging (it also
// prints waveforms); tests here only need the numeric detections, not
// the visualization.
package audiocheck

import "math"

// Result holds one buffer's analysis.
type Result struct {
	Peak     float32
	RMS      float32
	HasNaN   bool
	NaNCount int
	Silent   bool
}

const silenceThreshold = 0.0001

// Analyze scans buffer for NaNs, peak amplitude, RMS level, and silence.
func Analyze(buffer []float32) Result {
	var r Result
	if len(buffer) == 0 {
		return r
	}
	var sumSquares float64
	for _, s := range buffer {
		if math.IsNaN(float64(s)) {
			r.HasNaN = true
			r.NaNCount++
			continue
		}
		abs := s
		if abs < 0 {
			abs = -abs
		}
		if abs > r.Peak {
			r.Peak = abs
		}
		sumSquares += float64(s) * float64(s)
	}
	r.RMS = float32(math.Sqrt(sumSquares / float64(len(buffer))))
	r.Silent = r.RMS < silenceThreshold
	return r
}

// Equal reports whether two buffers are sample-for-sample identical, e.g.
// to assert a bypassed block passed audio through unchanged (spec §8,
// scenario 3).
func Equal(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
