package speakerid

import (
	"math"
	"math/rand"
	"testing"
)

func randomPrint(r *rand.Rand, dim int) VoicePrint {
	vp := make(VoicePrint, dim)
	for i := range vp {
		vp[i] = float32(r.NormFloat64())
	}
	return vp
}

func TestScore_SelfSimilarityIsOne(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		vp := randomPrint(r, 192)
		if got := Score(vp, vp); math.Abs(got-1.0) > 1e-6 {
			t.Fatalf("Score(e,e)=%v, want 1.0±1e-6", got)
		}
	}
}

func TestScore_Symmetric(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewSource(2))
	for i := 0; i < 20; i++ {
		a := randomPrint(r, 192)
		b := randomPrint(r, 192)
		if Score(a, b) != Score(b, a) {
			t.Fatalf("Score not symmetric: %v vs %v", Score(a, b), Score(b, a))
		}
	}
}

func TestScore_Bounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b VoicePrint
		want float64
	}{
		{"opposite", VoicePrint{1, 0}, VoicePrint{-1, 0}, -1},
		{"orthogonal", VoicePrint{1, 0}, VoicePrint{0, 1}, 0},
		{"zero norm", VoicePrint{0, 0}, VoicePrint{1, 0}, 0},
		{"length mismatch", VoicePrint{1, 0}, VoicePrint{1, 0, 0}, 0},
		{"empty", VoicePrint{}, VoicePrint{}, 0},
	}
	for _, tt := range tests {
		if got := Score(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: Score=%v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIsMatch_ThresholdMonotonicity(t *testing.T) {
	t.Parallel()

	a := VoicePrint{1, 0.2, 0.1}
	b := VoicePrint{0.9, 0.3, 0.05}

	thresholds := []float64{0.9, 0.8, 0.7, 0.6, 0.5, 0.3, 0.1}
	matchedAbove := false
	for _, th := range thresholds { // descending
		m := IsMatch(a, b, th)
		if matchedAbove && !m {
			t.Fatalf("IsMatch true at a higher threshold but false at %v", th)
		}
		if m {
			matchedAbove = true
		}
	}
	if !matchedAbove {
		t.Fatal("expected a match at some threshold for near-parallel vectors")
	}
}
