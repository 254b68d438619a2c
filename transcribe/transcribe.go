// Package transcribe turns a meeting recording into text. Backends wrap
// external speech-to-text services; the pipeline treats them as
// interchangeable. Flat text is always present; timed segments are an
// optional enhancement some backends provide.
package transcribe

import (
	"context"
	"fmt"
)

// TimedSegment is an independently-timed slice of the transcript. Segment
// boundaries come from the transcription model and are unrelated to
// diarized turn boundaries.
type TimedSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Result is a finished transcription.
type Result struct {
	Text     string         `json:"text"`
	Segments []TimedSegment `json:"segments,omitempty"`
	Language string         `json:"language,omitempty"`
}

// Backend is a pluggable speech-to-text service.
type Backend interface {
	Transcribe(ctx context.Context, audioPath, language string) (Result, error)
}

// Error means speech-to-text failed for the whole file. There is no local
// recovery: without text there is nothing to fuse, so the meeting run
// surfaces this to the caller.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("transcribe %s: %v", e.Path, e.Err) }
func (e *Error) Unwrap() error { return e.Err }
