package diarize

import (
	"context"

	"github.com/boardstream/minuted/logger"
)

// FallbackLabel marks the synthesized turn emitted when the wrapped engine
// fails. Downstream, it resolves to a placeholder identity like any other
// unmatched label.
const FallbackLabel = "unknown"

// DefaultFallbackSeconds is the span of the synthesized turn when the
// recording's duration is not known.
const DefaultFallbackSeconds = 300

// Fallback wraps an Engine so that diarization failure degrades to a single
// anonymous turn instead of aborting the meeting. Losing speaker attribution
// is recoverable; losing the whole meeting is not.
type Fallback struct {
	Engine  Engine
	Seconds float64
	Log     *logger.Logger
}

func (f Fallback) Diarize(ctx context.Context, audioPath string, expectedSpeakers int) ([]Turn, error) {
	turns, err := f.Engine.Diarize(ctx, audioPath, expectedSpeakers)
	if err == nil && len(turns) > 0 {
		return turns, nil
	}
	seconds := f.Seconds
	if seconds <= 0 {
		seconds = DefaultFallbackSeconds
	}
	if f.Log != nil {
		f.Log.Warn("diarization degraded to single fallback turn",
			"path", audioPath, "err", err, "seconds", seconds)
	}
	return []Turn{{Label: FallbackLabel, Start: 0, End: seconds}}, nil
}
