// Package config loads the pipeline configuration from a YAML file with
// environment-variable overrides for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML scalars like
// "30m" or "2h".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: bad duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type Thresholds struct {
	// Registration is the similarity floor for enrolling a new identity
	// whose reference audio resembles an existing one.
	Registration float64 `yaml:"registration"`
	// Resolution is the looser floor used when binding diarized turns to
	// known identities during meeting processing.
	Resolution float64 `yaml:"resolution"`
}

type Services struct {
	// Diarization is the base URL of the diarization model service.
	// Empty selects the local silence-gap engine.
	Diarization string `yaml:"diarization"`
	// Embedding is the base URL of the voice-embedding model service.
	// Empty disables voice comparison entirely.
	Embedding string `yaml:"embedding"`
	// Transcription is the base URL of a whisper-compatible transcription
	// service returning timed segments. Empty selects the OpenAI backend.
	Transcription string `yaml:"transcription"`
}

type OpenAI struct {
	APIKey             string `yaml:"api_key"`
	TranscriptionModel string `yaml:"transcription_model"`
	CompletionModel    string `yaml:"completion_model"`
	// CorrectTranscript enables the completion-assisted transcript cleanup
	// pass. The pipeline runs fine without it.
	CorrectTranscript bool `yaml:"correct_transcript"`
}

type Root struct {
	LogMode        string     `yaml:"log_mode"`
	DBPath         string     `yaml:"db_path"`
	VoicePrintDir  string     `yaml:"voiceprint_dir"`
	Language       string     `yaml:"language"`
	Thresholds     Thresholds `yaml:"thresholds"`
	Services       Services   `yaml:"services"`
	OpenAI         OpenAI     `yaml:"openai"`
	Concurrency    int        `yaml:"concurrency"`
	MeetingTimeout Duration   `yaml:"meeting_timeout"`
	// FallbackTurnSeconds is the span of the single turn synthesized when
	// diarization fails outright.
	FallbackTurnSeconds float64 `yaml:"fallback_turn_seconds"`
}

func Default() Root {
	return Root{
		LogMode:             "dev",
		DBPath:              "minuted.db",
		VoicePrintDir:       "voiceprints",
		Language:            "ar",
		Thresholds:          Thresholds{Registration: 0.7, Resolution: 0.6},
		OpenAI:              OpenAI{TranscriptionModel: "whisper-1", CompletionModel: "gpt-4o"},
		Concurrency:         2,
		MeetingTimeout:      Duration(2 * time.Hour),
		FallbackTurnSeconds: 300,
	}
}

// Load reads path (when non-empty) over the defaults, then applies
// environment overrides. A missing file with an empty path is not an error.
func Load(path string) (Root, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Root{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Root{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Root{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Root) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("MINUTED_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("MINUTED_VOICEPRINT_DIR"); v != "" {
		cfg.VoicePrintDir = v
	}
	if v := os.Getenv("MINUTED_DIARIZATION_URL"); v != "" {
		cfg.Services.Diarization = v
	}
	if v := os.Getenv("MINUTED_EMBEDDING_URL"); v != "" {
		cfg.Services.Embedding = v
	}
	if v := os.Getenv("MINUTED_TRANSCRIPTION_URL"); v != "" {
		cfg.Services.Transcription = v
	}
}

func (c Root) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("config: db_path is required")
	}
	if c.Thresholds.Registration <= 0 || c.Thresholds.Registration > 1 {
		return fmt.Errorf("config: thresholds.registration must be in (0,1]")
	}
	if c.Thresholds.Resolution <= 0 || c.Thresholds.Resolution > 1 {
		return fmt.Errorf("config: thresholds.resolution must be in (0,1]")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("config: concurrency must be > 0")
	}
	if c.FallbackTurnSeconds <= 0 {
		return fmt.Errorf("config: fallback_turn_seconds must be > 0")
	}
	return nil
}
