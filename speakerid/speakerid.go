// Package speakerid binds anonymous diarized turns to known speaker
// identities. A voice-print is a fixed-length embedding of a speaker's
// vocal characteristics; prints are only comparable when produced by the
// same embedding model version.
package speakerid

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/boardstream/minuted/diarize"
)

// VoicePrint is an embedding vector. It is opaque apart from its length.
type VoicePrint []float32

// Identity is a known or provisionally-known speaker. Placeholder
// identities are minted during resolution when no stored print matches.
type Identity struct {
	ID       uuid.UUID
	Name     string
	Position string
}

// ResolvedTurn is a diarized turn bound to an identity. Confidence is the
// similarity score of the winning match, or 0 when the identity is a minted
// placeholder or a carry-forward fallback.
type ResolvedTurn struct {
	Turn       diarize.Turn
	Identity   Identity
	Confidence float64
}

// ExtractionError means embedding extraction failed for one clip: missing
// or unreadable audio, a degenerate region, or the model being unavailable.
// The resolver recovers from it locally; it never aborts a meeting.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string { return fmt.Sprintf("extract %s: %v", e.Path, e.Err) }
func (e *ExtractionError) Unwrap() error { return e.Err }
