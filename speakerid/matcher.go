package speakerid

import "math"

// Score is the cosine similarity of two voice-prints in [-1, 1].
// Mismatched lengths and zero-norm vectors score 0. The function is
// symmetric and Score(v, v) is 1 within floating-point tolerance.
//
// Same-domain speaker embeddings land mostly in [0, 1]; the useful
// threshold band in practice is 0.6-0.7.
func Score(a, b VoicePrint) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		ai, bi := float64(a[i]), float64(b[i])
		dot += ai * bi
		normA += ai * ai
		normB += bi * bi
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	s := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if s > 1 {
		s = 1
	}
	if s < -1 {
		s = -1
	}
	return s
}

// IsMatch reports whether a and b score strictly above threshold.
func IsMatch(a, b VoicePrint, threshold float64) bool {
	return Score(a, b) > threshold
}
