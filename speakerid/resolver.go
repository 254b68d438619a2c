package speakerid

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/boardstream/minuted/diarize"
	"github.com/boardstream/minuted/logger"
)

// DefaultSampleSeconds is the width of the centered sample embedded per
// turn. Sampling the middle of a turn avoids the cross-talk that tends to
// contaminate turn boundaries.
const DefaultSampleSeconds = 4.0

// PlaceholderPosition is the position recorded on minted identities.
const PlaceholderPosition = "unknown"

// RegionExtractor is the slice of Extractor the resolver needs.
type RegionExtractor interface {
	ExtractRegion(ctx context.Context, audioPath string, start, end float64) (VoicePrint, error)
}

// IdentityDirectory creates and looks up identities. Backed by the
// relational store in production.
type IdentityDirectory interface {
	GetIdentity(ctx context.Context, id uuid.UUID) (Identity, error)
	MintIdentity(ctx context.Context, name, position string) (Identity, error)
}

// Resolver binds anonymous diarized turns to identities. Within one
// recording the diarization engine reuses a label for the same physical
// speaker, so the resolver caches label bindings and embeds each unique
// label exactly once.
type Resolver struct {
	store      Store
	extractor  RegionExtractor
	identities IdentityDirectory
	threshold  float64
	sample     float64
	log        *logger.Logger
}

type ResolverOptions struct {
	// Threshold is the minimum similarity for binding a turn to a stored
	// print. Looser than the enrollment threshold; 0.6 is the working
	// default.
	Threshold float64
	// SampleSeconds overrides DefaultSampleSeconds.
	SampleSeconds float64
	Log           *logger.Logger
}

func NewResolver(store Store, extractor RegionExtractor, identities IdentityDirectory, opts ResolverOptions) *Resolver {
	sample := opts.SampleSeconds
	if sample <= 0 {
		sample = DefaultSampleSeconds
	}
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{
		store:      store,
		extractor:  extractor,
		identities: identities,
		threshold:  opts.Threshold,
		sample:     sample,
		log:        log,
	}
}

// Resolve binds every turn, in time order, to an identity. Turns are never
// dropped: an unmatched label mints a placeholder identity, and a failed
// extraction falls back to the previous turn's identity for continuity (or
// a generic placeholder when nothing has resolved yet).
func (r *Resolver) Resolve(ctx context.Context, audioPath string, turns []diarize.Turn) ([]ResolvedTurn, error) {
	refs, err := r.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("speakerid: load reference prints: %w", err)
	}

	type binding struct {
		identity   Identity
		confidence float64
	}
	bindings := make(map[string]binding)
	resolved := make([]ResolvedTurn, 0, len(turns))
	var last *Identity

	for _, turn := range turns {
		if b, ok := bindings[turn.Label]; ok {
			resolved = append(resolved, ResolvedTurn{Turn: turn, Identity: b.identity, Confidence: b.confidence})
			last = &b.identity
			continue
		}

		start, end := r.sampleRegion(turn)
		vp, err := r.extractor.ExtractRegion(ctx, audioPath, start, end)
		if err != nil {
			// Local recovery: keep the turn, reuse the previous speaker.
			// The label stays unbound so a later, healthier turn can
			// still resolve it properly.
			fallbackID, ferr := r.fallbackIdentity(ctx, last)
			if ferr != nil {
				return nil, ferr
			}
			r.log.Warn("embedding extraction failed, carrying forward",
				"label", turn.Label, "start", turn.Start, "err", err, "fallback", fallbackID.Name)
			resolved = append(resolved, ResolvedTurn{Turn: turn, Identity: fallbackID, Confidence: 0})
			last = &fallbackID
			continue
		}

		identity, confidence, err := r.bestMatch(ctx, turn.Label, vp, refs)
		if err != nil {
			return nil, err
		}
		bindings[turn.Label] = binding{identity: identity, confidence: confidence}
		resolved = append(resolved, ResolvedTurn{Turn: turn, Identity: identity, Confidence: confidence})
		last = &identity
	}
	return resolved, nil
}

func (r *Resolver) sampleRegion(turn diarize.Turn) (float64, float64) {
	mid := (turn.Start + turn.End) / 2
	half := r.sample / 2
	start := mid - half
	if start < turn.Start {
		start = turn.Start
	}
	end := mid + half
	if end > turn.End {
		end = turn.End
	}
	return start, end
}

func (r *Resolver) bestMatch(ctx context.Context, label string, vp VoicePrint, refs map[uuid.UUID]VoicePrint) (Identity, float64, error) {
	var (
		bestID    uuid.UUID
		bestScore float64 = -2
	)
	for id, ref := range refs {
		if s := Score(vp, ref); s > bestScore {
			bestScore = s
			bestID = id
		}
	}

	if bestScore > r.threshold {
		identity, err := r.identities.GetIdentity(ctx, bestID)
		if err != nil {
			return Identity{}, 0, fmt.Errorf("speakerid: lookup matched identity %s: %w", bestID, err)
		}
		r.log.Info("label matched stored voice-print",
			"label", label, "identity", identity.Name, "score", bestScore)
		return identity, bestScore, nil
	}

	// No print scored above threshold. Not an error: mint a placeholder
	// so the turn stays attributed.
	name := fmt.Sprintf("Speaker %s", label)
	identity, err := r.identities.MintIdentity(ctx, name, PlaceholderPosition)
	if err != nil {
		return Identity{}, 0, fmt.Errorf("speakerid: mint placeholder for %q: %w", label, err)
	}
	r.log.Info("no voice-print matched, minted placeholder",
		"label", label, "identity", identity.Name, "best_score", bestScore)
	return identity, 0, nil
}

func (r *Resolver) fallbackIdentity(ctx context.Context, last *Identity) (Identity, error) {
	if last != nil {
		return *last, nil
	}
	identity, err := r.identities.MintIdentity(ctx, "Unidentified speaker", PlaceholderPosition)
	if err != nil {
		return Identity{}, fmt.Errorf("speakerid: mint fallback identity: %w", err)
	}
	return identity, nil
}
