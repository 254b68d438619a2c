// Package diarize partitions a recording into anonymously-labeled speaker
// turns. Engines are wrappers around external models; the Fallback wrapper
// guarantees downstream stages always receive at least one turn.
package diarize

import (
	"context"
	"fmt"
	"sort"
)

// Turn is one diarized span. Labels are anonymous ("SPEAKER_00", ...) but
// stable within a single recording: the same label always means the same
// physical speaker.
type Turn struct {
	Label string  `json:"label"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (t Turn) Duration() float64 { return t.End - t.Start }

// Engine produces turns ordered by start time. expectedSpeakers <= 0 lets
// the model pick.
type Engine interface {
	Diarize(ctx context.Context, audioPath string, expectedSpeakers int) ([]Turn, error)
}

// Error wraps any engine failure so callers can tell diarization trouble
// apart from other pipeline stages.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("diarize %s: %v", e.Path, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

func sortTurns(turns []Turn) {
	sort.SliceStable(turns, func(i, j int) bool { return turns[i].Start < turns[j].Start })
}
