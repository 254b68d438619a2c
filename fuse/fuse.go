// Package fuse merges a flat transcript with resolved speaker turns into
// attributed transcript segments.
package fuse

import (
	"strings"

	"github.com/boardstream/minuted/speakerid"
	"github.com/boardstream/minuted/transcribe"
)

// Segment is one speaker-attributed span of the final transcript.
type Segment struct {
	Speaker    speakerid.Identity
	Start      float64
	End        float64
	Text       string
	Confidence float64

	IsDecision   bool
	IsActionItem bool
}

// Sentence terminators across the languages the pipeline handles. The
// Arabic question mark and the urdu full stop both end sentences in
// mixed-script minutes.
var terminators = map[rune]bool{
	'.': true,
	'!': true,
	'?': true,
	'؟': true,
	'۔': true,
}

// SplitSentences splits text at sentence terminators, keeping the
// terminator with its sentence. Whitespace-only fragments are dropped, so
// the concatenation of the result carries every word of the input.
func SplitSentences(text string) []string {
	var out []string
	var b strings.Builder
	for _, r := range text {
		b.WriteRune(r)
		if terminators[r] {
			if s := strings.TrimSpace(b.String()); s != "" {
				out = append(out, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		out = append(out, s)
	}
	return out
}

// Fuse distributes the transcript's sentences across the resolved turns
// proportionally: each turn receives floor(N/M) sentences (at least one),
// and the remainder lands on the last turn. Turns left with no sentences
// are dropped. Every sentence of text appears in exactly one segment.
//
// This is the coarse path, used when the transcription backend returns no
// per-segment timings.
func Fuse(turns []speakerid.ResolvedTurn, text string) []Segment {
	sentences := SplitSentences(text)
	if len(sentences) == 0 || len(turns) == 0 {
		return nil
	}

	per := len(sentences) / len(turns)
	if per < 1 {
		per = 1
	}

	var out []Segment
	for i, turn := range turns {
		lo := i * per
		if lo >= len(sentences) {
			break
		}
		hi := lo + per
		if i == len(turns)-1 || hi > len(sentences) {
			hi = len(sentences)
		}
		out = append(out, Segment{
			Speaker:    turn.Identity,
			Start:      turn.Turn.Start,
			End:        turn.Turn.End,
			Text:       strings.Join(sentences[lo:hi], " "),
			Confidence: turn.Confidence,
		})
	}
	return out
}

// FuseTimed assigns each timed transcript segment to the turn containing
// its midpoint, then merges consecutive segments of the same turn. Falls
// back to the proportional path when no timed segments are available.
func FuseTimed(turns []speakerid.ResolvedTurn, segments []transcribe.TimedSegment, fullText string) []Segment {
	if len(segments) == 0 {
		return Fuse(turns, fullText)
	}
	if len(turns) == 0 {
		return nil
	}

	texts := make([][]string, len(turns))
	for _, seg := range segments {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		i := turnIndexForTime(turns, (seg.Start+seg.End)/2)
		texts[i] = append(texts[i], strings.TrimSpace(seg.Text))
	}

	var out []Segment
	for i, turn := range turns {
		if len(texts[i]) == 0 {
			continue
		}
		out = append(out, Segment{
			Speaker:    turn.Identity,
			Start:      turn.Turn.Start,
			End:        turn.Turn.End,
			Text:       strings.Join(texts[i], " "),
			Confidence: turn.Confidence,
		})
	}
	return out
}

// turnIndexForTime picks the turn whose span contains t. Times falling in
// gaps between turns bind to the latest turn already started, and times
// before the first turn bind to the first.
func turnIndexForTime(turns []speakerid.ResolvedTurn, t float64) int {
	best := 0
	for i, turn := range turns {
		if turn.Turn.Start <= t {
			best = i
			if t < turn.Turn.End {
				return i
			}
		}
	}
	return best
}
