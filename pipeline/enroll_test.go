package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/boardstream/minuted/speakerid"
	"github.com/boardstream/minuted/store"
)

type fixedVoiceExtractor struct {
	byPath map[string]speakerid.VoicePrint
}

func (f fixedVoiceExtractor) Extract(ctx context.Context, audioPath string) (speakerid.VoicePrint, error) {
	vp, ok := f.byPath[audioPath]
	if !ok {
		return nil, &speakerid.ExtractionError{Path: audioPath, Err: errors.New("no sample")}
	}
	return vp, nil
}

func TestEnroll(t *testing.T) {
	t.Parallel()

	db := newPipelineDB(t)
	ctx := context.Background()
	prints := &memPrints{prints: map[uuid.UUID]speakerid.VoicePrint{}}
	ext := fixedVoiceExtractor{byPath: map[string]speakerid.VoicePrint{
		"/audio/ahmed.wav": {1, 0},
	}}
	e := NewEnroller(db, prints, ext, 0.7, nil)

	identity, err := e.Enroll(ctx, "Ahmed", "chair", "/audio/ahmed.wav")
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if identity.Name != "Ahmed" || identity.Position != "chair" {
		t.Errorf("enrolled identity %+v", identity)
	}

	vp, err := prints.Get(ctx, identity.ID)
	if err != nil {
		t.Fatalf("print not stored: %v", err)
	}
	if vp[0] != 1 {
		t.Errorf("stored print %v", vp)
	}

	rows, err := db.ListIdentities(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || !rows[0].HasVoicePrint || rows[0].ReferenceAudio != "/audio/ahmed.wav" {
		t.Errorf("identity row %+v", rows)
	}
}

func TestEnroll_RejectsDuplicateVoice(t *testing.T) {
	t.Parallel()

	db := newPipelineDB(t)
	ctx := context.Background()
	prints := &memPrints{prints: map[uuid.UUID]speakerid.VoicePrint{}}
	ext := fixedVoiceExtractor{byPath: map[string]speakerid.VoicePrint{
		"/audio/ahmed.wav":  {1, 0},
		"/audio/ahmed2.wav": {0.99, 0.14}, // same voice, new sample
		"/audio/sara.wav":   {0, 1},
	}}
	e := NewEnroller(db, prints, ext, 0.7, nil)

	if _, err := e.Enroll(ctx, "Ahmed", "chair", "/audio/ahmed.wav"); err != nil {
		t.Fatal(err)
	}

	_, err := e.Enroll(ctx, "Ahmed Again", "member", "/audio/ahmed2.wav")
	if !errors.Is(err, ErrDuplicateVoice) {
		t.Fatalf("duplicate enrollment: %v, want ErrDuplicateVoice", err)
	}

	// A genuinely different voice still enrolls.
	if _, err := e.Enroll(ctx, "Sara", "secretary", "/audio/sara.wav"); err != nil {
		t.Fatalf("Enroll distinct voice: %v", err)
	}

	rows, err := db.ListIdentities(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("identity rows %d, want 2 (rejection left no row)", len(rows))
	}
}

func TestEnroll_ExtractionFailureCreatesNothing(t *testing.T) {
	t.Parallel()

	db := newPipelineDB(t)
	ctx := context.Background()
	prints := &memPrints{prints: map[uuid.UUID]speakerid.VoicePrint{}}
	e := NewEnroller(db, prints, fixedVoiceExtractor{}, 0.7, nil)

	_, err := e.Enroll(ctx, "Ghost", "member", "/audio/missing.wav")
	var xerr *speakerid.ExtractionError
	if !errors.As(err, &xerr) {
		t.Fatalf("Enroll: %v, want extraction error", err)
	}
	rows, err := db.ListIdentities(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("identity rows %+v after failed enrollment", rows)
	}
}

func TestBackfill(t *testing.T) {
	t.Parallel()

	db := newPipelineDB(t)
	ctx := context.Background()
	prints := &memPrints{prints: map[uuid.UUID]speakerid.VoicePrint{}}

	withAudio := uuid.New()
	if err := db.CreateIdentity(ctx, store.Identity{ID: withAudio, Name: "Ahmed", ReferenceAudio: "/audio/ahmed.wav"}); err != nil {
		t.Fatal(err)
	}
	broken := uuid.New()
	if err := db.CreateIdentity(ctx, store.Identity{ID: broken, Name: "Sara", ReferenceAudio: "/audio/corrupt.wav"}); err != nil {
		t.Fatal(err)
	}
	if err := db.CreateIdentity(ctx, store.Identity{ID: uuid.New(), Name: "NoAudio"}); err != nil {
		t.Fatal(err)
	}

	ext := fixedVoiceExtractor{byPath: map[string]speakerid.VoicePrint{
		"/audio/ahmed.wav": {1, 0},
	}}
	n, err := Backfill(ctx, db, prints, ext, nil)
	if err != nil {
		t.Fatalf("Backfill: %v", err)
	}
	if n != 1 {
		t.Fatalf("backfilled %d, want 1 (corrupt sample skipped)", n)
	}
	if _, err := prints.Get(ctx, withAudio); err != nil {
		t.Errorf("print missing after backfill: %v", err)
	}

	remaining, err := db.ListIdentitiesNeedingBackfill(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 1 || remaining[0].ID != broken {
		t.Errorf("remaining backfill rows %+v, want only the corrupt one", remaining)
	}
}
