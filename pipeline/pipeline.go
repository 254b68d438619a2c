// Package pipeline orchestrates meeting processing: transcription,
// diarization, speaker attribution, fusion, classification, and report
// persistence.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/boardstream/minuted/classify"
	"github.com/boardstream/minuted/diarize"
	"github.com/boardstream/minuted/fuse"
	"github.com/boardstream/minuted/logger"
	"github.com/boardstream/minuted/pipeline/provider"
	"github.com/boardstream/minuted/speakerid"
	"github.com/boardstream/minuted/store"
	"github.com/boardstream/minuted/transcribe"
)

// Diarizer yields speaker turns for a recording. In the processor it is
// always the diarize.Fallback wrapper, so calls never fail.
type Diarizer interface {
	Diarize(ctx context.Context, audioPath string, expectedSpeakers int) ([]diarize.Turn, error)
}

// SpeakerResolver binds diarized turns to identities. Nil in the plain
// variant, where no embedding capability is available.
type SpeakerResolver interface {
	Resolve(ctx context.Context, audioPath string, turns []diarize.Turn) ([]speakerid.ResolvedTurn, error)
}

// LanguageAssist is the optional model-backed text layer.
type LanguageAssist interface {
	CorrectTranscript(ctx context.Context, text, language string) (string, error)
	ExtractOutcomes(ctx context.Context, transcript string) (provider.Outcomes, error)
}

// Options tunes a Processor.
type Options struct {
	Language string
	Keywords classify.Keywords
	// CorrectTranscript runs the model cleanup pass before fusion when an
	// assist client is present.
	CorrectTranscript bool
	Log               *logger.Logger
}

// Processor runs the full pipeline for one meeting at a time. Which
// capabilities it carries is decided once, at build time; processing
// never probes for missing services.
type Processor struct {
	db          *store.DB
	transcriber transcribe.Backend
	diarizer    Diarizer
	resolver    SpeakerResolver
	assist      LanguageAssist

	language    string
	keywords    classify.Keywords
	correctText bool
	log         *logger.Logger
}

func NewProcessor(db *store.DB, transcriber transcribe.Backend, diarizer Diarizer, resolver SpeakerResolver, assist LanguageAssist, opts Options) *Processor {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	keywords := opts.Keywords
	if len(keywords.Decision) == 0 && len(keywords.Action) == 0 {
		keywords = classify.DefaultKeywords()
	}
	language := opts.Language
	if language == "" {
		language = "ar"
	}
	return &Processor{
		db:          db,
		transcriber: transcriber,
		diarizer:    diarizer,
		resolver:    resolver,
		assist:      assist,
		language:    language,
		keywords:    keywords,
		correctText: opts.CorrectTranscript && assist != nil,
		log:         log,
	}
}

// ProcessMeeting runs the pipeline end to end for the meeting. A failed
// transcription or persistence write marks the meeting failed and
// returns the error; diarization and attribution problems degrade the
// output instead of failing the run. Reprocessing a meeting replaces its
// segments and report wholesale.
func (p *Processor) ProcessMeeting(ctx context.Context, meetingID uuid.UUID) error {
	meeting, err := p.db.GetMeeting(ctx, meetingID)
	if err != nil {
		return fmt.Errorf("ProcessMeeting: %w", err)
	}
	if err := p.db.MarkProcessing(ctx, meetingID); err != nil {
		return fmt.Errorf("ProcessMeeting: %w", err)
	}

	result, err := p.transcriber.Transcribe(ctx, meeting.AudioPath, p.language)
	if err != nil {
		return p.fail(ctx, meetingID, fmt.Errorf("ProcessMeeting: transcribe: %w", err))
	}
	p.log.Info("transcribed meeting",
		"meeting", meetingID, "chars", len(result.Text), "timed_segments", len(result.Segments))

	// The fallback wrapper guarantees at least one turn and no error.
	turns, _ := p.diarizer.Diarize(ctx, meeting.AudioPath, 0)

	resolved, err := p.attributeTurns(ctx, meeting.AudioPath, turns)
	if err != nil {
		return p.fail(ctx, meetingID, fmt.Errorf("ProcessMeeting: attribute: %w", err))
	}

	text := result.Text
	if p.correctText {
		corrected, err := p.assist.CorrectTranscript(ctx, text, p.language)
		if err != nil {
			p.log.Warn("transcript correction failed, using raw text", "meeting", meetingID, "err", err)
		} else {
			text = corrected
		}
	}

	segments := fuse.FuseTimed(resolved, result.Segments, text)
	p.keywords.Tag(segments)

	if err := p.db.ReplaceSegments(ctx, meetingID, segments); err != nil {
		return p.fail(ctx, meetingID, fmt.Errorf("ProcessMeeting: %w", err))
	}

	report := classify.BuildReport(segments)
	if p.assist != nil {
		report.Summary = p.appendHighlights(ctx, meetingID, report.Summary, text)
	}
	if err := p.db.ReplaceReport(ctx, meetingID, report); err != nil {
		return p.fail(ctx, meetingID, fmt.Errorf("ProcessMeeting: %w", err))
	}

	if err := p.db.MarkProcessed(ctx, meetingID); err != nil {
		return fmt.Errorf("ProcessMeeting: %w", err)
	}
	p.log.Info("meeting processed", "meeting", meetingID, "segments", len(segments))
	return nil
}

// attributeTurns maps turns to identities. Without a resolver each
// anonymous label still gets its own minted identity, so the plain
// variant produces the same shape of output as the voice variant.
func (p *Processor) attributeTurns(ctx context.Context, audioPath string, turns []diarize.Turn) ([]speakerid.ResolvedTurn, error) {
	if p.resolver != nil {
		return p.resolver.Resolve(ctx, audioPath, turns)
	}

	byLabel := make(map[string]speakerid.Identity)
	resolved := make([]speakerid.ResolvedTurn, 0, len(turns))
	for _, turn := range turns {
		identity, ok := byLabel[turn.Label]
		if !ok {
			var err error
			identity, err = p.db.MintIdentity(ctx, fmt.Sprintf("Speaker %s", turn.Label), speakerid.PlaceholderPosition)
			if err != nil {
				return nil, err
			}
			byLabel[turn.Label] = identity
		}
		resolved = append(resolved, speakerid.ResolvedTurn{Turn: turn, Identity: identity, Confidence: 0})
	}
	return resolved, nil
}

// appendHighlights adds the model's outcome reading to the summary. The
// keyword-tagged sections stay authoritative; a model failure only costs
// the extra paragraph.
func (p *Processor) appendHighlights(ctx context.Context, meetingID uuid.UUID, summary, transcript string) string {
	outcomes, err := p.assist.ExtractOutcomes(ctx, transcript)
	if err != nil {
		p.log.Warn("outcome extraction failed", "meeting", meetingID, "err", err)
		return summary
	}
	if len(outcomes.Decisions) == 0 && len(outcomes.ActionItems) == 0 {
		return summary
	}
	s := summary + "\n\nModel highlights:"
	for _, d := range outcomes.Decisions {
		s += "\n- decision: " + d
	}
	for _, a := range outcomes.ActionItems {
		s += "\n- action: " + a
	}
	return s
}

func (p *Processor) fail(ctx context.Context, meetingID uuid.UUID, cause error) error {
	if err := p.db.MarkFailed(ctx, meetingID, cause); err != nil {
		p.log.Error("recording failure state", "meeting", meetingID, "err", err)
	}
	p.log.Error("meeting processing failed", "meeting", meetingID, "err", cause)
	return cause
}
