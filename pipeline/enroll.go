package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/boardstream/minuted/logger"
	"github.com/boardstream/minuted/speakerid"
	"github.com/boardstream/minuted/store"
)

// ErrDuplicateVoice is returned when a new participant's reference audio
// matches an already-enrolled voice above the registration threshold.
var ErrDuplicateVoice = errors.New("pipeline: voice already enrolled")

// VoiceExtractor is the whole-file slice of speakerid.Extractor used by
// enrollment and backfill.
type VoiceExtractor interface {
	Extract(ctx context.Context, audioPath string) (speakerid.VoicePrint, error)
}

// Enroller registers participants with reference audio. The registration
// threshold is stricter than the resolution threshold: enrolling the
// same voice twice corrupts matching for every later meeting, so near
// matches are rejected up front.
type Enroller struct {
	db        *store.DB
	prints    speakerid.Store
	extractor VoiceExtractor
	threshold float64
	log       *logger.Logger
}

func NewEnroller(db *store.DB, prints speakerid.Store, extractor VoiceExtractor, threshold float64, log *logger.Logger) *Enroller {
	if log == nil {
		log = logger.Nop()
	}
	return &Enroller{db: db, prints: prints, extractor: extractor, threshold: threshold, log: log}
}

// Enroll extracts a voice-print from audioPath and registers the
// participant. The identity row and its print are written together: if
// the print cannot be extracted or stored, no identity is created.
func (e *Enroller) Enroll(ctx context.Context, name, position, audioPath string) (speakerid.Identity, error) {
	vp, err := e.extractor.Extract(ctx, audioPath)
	if err != nil {
		return speakerid.Identity{}, fmt.Errorf("Enroll %q: %w", name, err)
	}

	existing, err := e.prints.All(ctx)
	if err != nil {
		return speakerid.Identity{}, fmt.Errorf("Enroll %q: %w", name, err)
	}
	for id, ref := range existing {
		if !speakerid.IsMatch(vp, ref, e.threshold) {
			continue
		}
		matched, err := e.db.GetIdentity(ctx, id)
		if err != nil {
			return speakerid.Identity{}, fmt.Errorf("Enroll %q: %w", name, err)
		}
		return speakerid.Identity{}, fmt.Errorf("Enroll %q: matches %q (score > %.2f): %w",
			name, matched.Name, e.threshold, ErrDuplicateVoice)
	}

	identityID := uuid.New()
	row := store.Identity{
		ID:             identityID,
		Name:           name,
		Position:       position,
		ReferenceAudio: audioPath,
		CreatedAt:      time.Now(),
	}
	if err := e.db.CreateIdentity(ctx, row); err != nil {
		return speakerid.Identity{}, fmt.Errorf("Enroll %q: %w", name, err)
	}
	if err := e.prints.Put(ctx, identityID, vp); err != nil {
		return speakerid.Identity{}, fmt.Errorf("Enroll %q: %w", name, err)
	}
	if err := e.db.SetHasVoicePrint(ctx, identityID, true); err != nil {
		return speakerid.Identity{}, fmt.Errorf("Enroll %q: %w", name, err)
	}

	e.log.Info("participant enrolled", "identity", identityID, "name", name)
	return speakerid.Identity{ID: identityID, Name: name, Position: position}, nil
}
