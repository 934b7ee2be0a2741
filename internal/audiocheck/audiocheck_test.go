package audiocheck

import (
	"math"
	"testing"
)

func TestAnalyzeDetectsNaN(t *testing.T) {
	r := Analyze([]float32{0.1, float32(math.NaN()), 0.2})
	if !r.HasNaN || r.NaNCount != 1 {
		t.Errorf("expected 1 NaN detected, got HasNaN=%v count=%d", r.HasNaN, r.NaNCount)
	}
}

func TestAnalyzeSilence(t *testing.T) {
	r := Analyze(make([]float32, 64))
	if !r.Silent {
		t.Error("expected all-zero buffer to be silent")
	}
}

func TestAnalyzePeak(t *testing.T) {
	r := Analyze([]float32{0.1, -0.9, 0.3})
	if r.Peak != 0.9 {
		t.Errorf("peak: got %v want 0.9", r.Peak)
	}
}

func TestEqual(t *testing.T) {
	a := []float32{1, 2, 3, 4}
	b := []float32{1, 2, 3, 4}
	if !Equal(a, b) {
		t.Error("expected equal buffers to compare equal")
	}
	b[2] = 99
	if Equal(a, b) {
		t.Error("expected modified buffer to compare unequal")
	}
	if Equal(a, []float32{1, 2}) {
		t.Error("expected different-length buffers to compare unequal")
	}
}
