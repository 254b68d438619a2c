package pipeline

import (
	"errors"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/boardstream/minuted/config"
	"github.com/boardstream/minuted/diarize"
	"github.com/boardstream/minuted/logger"
	"github.com/boardstream/minuted/pipeline/provider"
	"github.com/boardstream/minuted/speakerid"
	"github.com/boardstream/minuted/store"
	"github.com/boardstream/minuted/transcribe"
)

// Runtime is the fully wired pipeline and its shared resources.
type Runtime struct {
	DB         *store.DB
	Processor  *Processor
	Queue      *Queue
	VoicePrint speakerid.Store // nil in the plain variant
	Extractor  *speakerid.Extractor
	Thresholds config.Thresholds
	Log        *logger.Logger

	closers []func() error
}

// Close releases the runtime's stores.
func (r *Runtime) Close() error {
	var firstErr error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Build wires the pipeline from configuration. Capability selection
// happens here, once: a missing embedding service produces the plain
// variant (anonymous speakers), a missing diarization service selects
// the local silence-gap engine, and a missing transcription service
// selects the OpenAI backend. Processing later never probes for services
// it was built without.
func Build(cfg config.Root) (*Runtime, error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("Build: %w", err)
	}

	rt := &Runtime{Thresholds: cfg.Thresholds, Log: log}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("Build: %w", err)
	}
	rt.DB = db
	rt.closers = append(rt.closers, db.Close)

	transcriber, err := buildTranscriber(cfg)
	if err != nil {
		rt.Close()
		return nil, err
	}

	var engine diarize.Engine
	if cfg.Services.Diarization != "" {
		engine = diarize.NewHTTPEngine(cfg.Services.Diarization)
		log.Info("diarization: model service", "url", cfg.Services.Diarization)
	} else {
		engine = &diarize.SilenceEngine{}
		log.Info("diarization: local silence-gap engine")
	}
	fallback := &diarize.Fallback{Engine: engine, Seconds: cfg.FallbackTurnSeconds, Log: log}

	var resolver SpeakerResolver
	if cfg.Services.Embedding != "" {
		if err := os.MkdirAll(cfg.VoicePrintDir, 0o755); err != nil {
			rt.Close()
			return nil, fmt.Errorf("Build: voiceprint dir: %w", err)
		}
		vpStore, err := speakerid.NewBadgerStore(speakerid.BadgerStoreOptions{
			Dir:     cfg.VoicePrintDir,
			Checker: db,
		})
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("Build: %w", err)
		}
		rt.VoicePrint = vpStore
		rt.closers = append(rt.closers, vpStore.Close)

		handle := speakerid.NewHandle(func() (speakerid.Embedder, error) {
			return speakerid.NewHTTPEmbedder(cfg.Services.Embedding), nil
		})
		rt.Extractor = speakerid.NewExtractor(handle, os.TempDir())
		resolver = speakerid.NewResolver(vpStore, rt.Extractor, db, speakerid.ResolverOptions{
			Threshold: cfg.Thresholds.Resolution,
			Log:       log,
		})
		log.Info("speaker attribution: voice variant", "resolution_threshold", cfg.Thresholds.Resolution)
	} else {
		log.Info("speaker attribution: plain variant (no embedding service configured)")
	}

	var assist LanguageAssist
	if cfg.OpenAI.APIKey != "" && cfg.OpenAI.CompletionModel != "" {
		client, err := provider.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.CompletionModel)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("Build: %w", err)
		}
		assist = client
	}

	rt.Processor = NewProcessor(db, transcriber, fallback, resolver, assist, Options{
		Language:          cfg.Language,
		CorrectTranscript: cfg.OpenAI.CorrectTranscript,
		Log:               log,
	})
	rt.Queue = NewQueue(rt.Processor, cfg.Concurrency, cfg.MeetingTimeout.Std(), log)
	return rt, nil
}

func buildTranscriber(cfg config.Root) (transcribe.Backend, error) {
	if cfg.Services.Transcription != "" {
		return transcribe.NewHTTPBackend(cfg.Services.Transcription), nil
	}
	if cfg.OpenAI.APIKey == "" {
		return nil, errors.New("Build: no transcription capability (set services.transcription or openai.api_key)")
	}
	client := openai.NewClient(option.WithAPIKey(cfg.OpenAI.APIKey))
	return transcribe.NewOpenAIBackend(&client, cfg.OpenAI.TranscriptionModel), nil
}
