package speakerid

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/boardstream/minuted/diarize"
)

type memStore struct {
	prints map[uuid.UUID]VoicePrint
}

func (s *memStore) Get(ctx context.Context, id uuid.UUID) (VoicePrint, error) {
	vp, ok := s.prints[id]
	if !ok {
		return nil, ErrNotFound
	}
	return vp, nil
}

func (s *memStore) Put(ctx context.Context, id uuid.UUID, vp VoicePrint) error {
	s.prints[id] = vp
	return nil
}

func (s *memStore) All(ctx context.Context) (map[uuid.UUID]VoicePrint, error) {
	return s.prints, nil
}

func (s *memStore) Close() error { return nil }

// queueExtractor returns queued prints in order and counts calls. A nil
// entry produces an extraction failure.
type queueExtractor struct {
	queue []VoicePrint
	calls int
}

func (x *queueExtractor) ExtractRegion(ctx context.Context, audioPath string, start, end float64) (VoicePrint, error) {
	x.calls++
	if len(x.queue) == 0 {
		return nil, &ExtractionError{Path: audioPath, Err: errors.New("queue exhausted")}
	}
	vp := x.queue[0]
	x.queue = x.queue[1:]
	if vp == nil {
		return nil, &ExtractionError{Path: audioPath, Err: errors.New("forced failure")}
	}
	return vp, nil
}

type memDirectory struct {
	known  map[uuid.UUID]Identity
	minted []Identity
}

func newMemDirectory(known ...Identity) *memDirectory {
	d := &memDirectory{known: make(map[uuid.UUID]Identity)}
	for _, id := range known {
		d.known[id.ID] = id
	}
	return d
}

func (d *memDirectory) GetIdentity(ctx context.Context, id uuid.UUID) (Identity, error) {
	identity, ok := d.known[id]
	if !ok {
		return Identity{}, fmt.Errorf("identity %s not found", id)
	}
	return identity, nil
}

func (d *memDirectory) MintIdentity(ctx context.Context, name, position string) (Identity, error) {
	identity := Identity{ID: uuid.New(), Name: name, Position: position}
	d.known[identity.ID] = identity
	d.minted = append(d.minted, identity)
	return identity, nil
}

// Vectors with known cosine similarity against the {1, 0} reference.
func vectorWithScore(score float64) VoicePrint {
	other := 1 - score*score
	if other < 0 {
		other = 0
	}
	return VoicePrint{float32(score), float32(math.Sqrt(other))}
}

func TestResolver_MatchAndLabelCache(t *testing.T) {
	t.Parallel()

	ahmed := Identity{ID: uuid.New(), Name: "Ahmed", Position: "chair"}
	store := &memStore{prints: map[uuid.UUID]VoicePrint{ahmed.ID: {1, 0}}}
	dir := newMemDirectory(ahmed)
	// Two unique labels across three turns: two extractions expected.
	ext := &queueExtractor{queue: []VoicePrint{
		vectorWithScore(0.85), // SPEAKER_00, matches Ahmed
		vectorWithScore(0.30), // SPEAKER_01, below threshold
	}}
	r := NewResolver(store, ext, dir, ResolverOptions{Threshold: 0.6})

	turns := []diarize.Turn{
		{Label: "SPEAKER_00", Start: 0, End: 10},
		{Label: "SPEAKER_01", Start: 10, End: 20},
		{Label: "SPEAKER_00", Start: 20, End: 30},
	}
	resolved, err := r.Resolve(context.Background(), "meeting.wav", turns)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(resolved) != 3 {
		t.Fatalf("resolved %d turns, want 3", len(resolved))
	}
	if ext.calls != 2 {
		t.Fatalf("extractor called %d times, want 2 (one per unique label)", ext.calls)
	}

	if resolved[0].Identity.ID != ahmed.ID {
		t.Errorf("turn 0: got %q, want Ahmed", resolved[0].Identity.Name)
	}
	if resolved[0].Confidence < 0.84 || resolved[0].Confidence > 0.86 {
		t.Errorf("turn 0 confidence %v, want ~0.85", resolved[0].Confidence)
	}
	if resolved[2].Identity.ID != ahmed.ID {
		t.Errorf("turn 2: got %q, want Ahmed via cached label", resolved[2].Identity.Name)
	}
	if resolved[2].Confidence != resolved[0].Confidence {
		t.Errorf("cached binding changed confidence: %v vs %v", resolved[2].Confidence, resolved[0].Confidence)
	}

	if resolved[1].Identity.ID == ahmed.ID {
		t.Error("turn 1 bound to Ahmed despite sub-threshold score")
	}
	if resolved[1].Identity.Name != "Speaker SPEAKER_01" {
		t.Errorf("turn 1 placeholder name %q", resolved[1].Identity.Name)
	}
	if resolved[1].Confidence != 0 {
		t.Errorf("placeholder confidence %v, want 0", resolved[1].Confidence)
	}
	if len(dir.minted) != 1 {
		t.Fatalf("minted %d identities, want 1", len(dir.minted))
	}
}

func TestResolver_CarryForwardOnExtractionFailure(t *testing.T) {
	t.Parallel()

	ahmed := Identity{ID: uuid.New(), Name: "Ahmed", Position: "chair"}
	store := &memStore{prints: map[uuid.UUID]VoicePrint{ahmed.ID: {1, 0}}}
	dir := newMemDirectory(ahmed)
	ext := &queueExtractor{queue: []VoicePrint{
		vectorWithScore(0.9), // SPEAKER_00 resolves
		nil,                  // SPEAKER_01 extraction fails
	}}
	r := NewResolver(store, ext, dir, ResolverOptions{Threshold: 0.6})

	turns := []diarize.Turn{
		{Label: "SPEAKER_00", Start: 0, End: 10},
		{Label: "SPEAKER_01", Start: 10, End: 20},
	}
	resolved, err := r.Resolve(context.Background(), "meeting.wav", turns)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved[1].Identity.ID != ahmed.ID {
		t.Errorf("failed turn carried %q, want previous speaker Ahmed", resolved[1].Identity.Name)
	}
	if resolved[1].Confidence != 0 {
		t.Errorf("carried turn confidence %v, want 0", resolved[1].Confidence)
	}
	if len(dir.minted) != 0 {
		t.Errorf("minted %d identities, want none when carrying forward", len(dir.minted))
	}
}

func TestResolver_FailedLabelStaysUnbound(t *testing.T) {
	t.Parallel()

	ahmed := Identity{ID: uuid.New(), Name: "Ahmed", Position: "chair"}
	store := &memStore{prints: map[uuid.UUID]VoicePrint{ahmed.ID: {1, 0}}}
	dir := newMemDirectory(ahmed)
	ext := &queueExtractor{queue: []VoicePrint{
		vectorWithScore(0.9), // SPEAKER_00
		nil,                  // SPEAKER_01 first attempt fails
		vectorWithScore(0.9), // SPEAKER_01 retried on its next turn
	}}
	r := NewResolver(store, ext, dir, ResolverOptions{Threshold: 0.6})

	turns := []diarize.Turn{
		{Label: "SPEAKER_00", Start: 0, End: 10},
		{Label: "SPEAKER_01", Start: 10, End: 20},
		{Label: "SPEAKER_01", Start: 20, End: 30},
	}
	resolved, err := r.Resolve(context.Background(), "meeting.wav", turns)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ext.calls != 3 {
		t.Fatalf("extractor called %d times, want 3 (failed label retried)", ext.calls)
	}
	if resolved[2].Identity.ID != ahmed.ID {
		t.Errorf("retried turn got %q, want Ahmed", resolved[2].Identity.Name)
	}
	if resolved[2].Confidence < 0.89 {
		t.Errorf("retried turn confidence %v, want ~0.9", resolved[2].Confidence)
	}
}

func TestResolver_FirstTurnFailureMintsUnidentified(t *testing.T) {
	t.Parallel()

	store := &memStore{prints: map[uuid.UUID]VoicePrint{}}
	dir := newMemDirectory()
	ext := &queueExtractor{queue: []VoicePrint{nil}}
	r := NewResolver(store, ext, dir, ResolverOptions{Threshold: 0.6})

	turns := []diarize.Turn{{Label: "SPEAKER_00", Start: 0, End: 10}}
	resolved, err := r.Resolve(context.Background(), "meeting.wav", turns)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved[0].Identity.Name != "Unidentified speaker" {
		t.Errorf("got %q, want generic placeholder when no prior speaker", resolved[0].Identity.Name)
	}
	if resolved[0].Identity.Position != PlaceholderPosition {
		t.Errorf("placeholder position %q, want %q", resolved[0].Identity.Position, PlaceholderPosition)
	}
}
