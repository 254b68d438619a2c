package transcribe

import (
	"context"
	"os"

	"github.com/openai/openai-go"
)

// OpenAIBackend transcribes through the OpenAI audio API. It returns flat
// text only; use the HTTP backend against a whisper service when timed
// segments are needed.
type OpenAIBackend struct {
	client *openai.Client
	model  string
}

func NewOpenAIBackend(client *openai.Client, model string) *OpenAIBackend {
	if model == "" {
		model = string(openai.AudioModelWhisper1)
	}
	return &OpenAIBackend{client: client, model: model}
}

func (b *OpenAIBackend) Transcribe(ctx context.Context, audioPath, language string) (Result, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return Result{}, &Error{Path: audioPath, Err: err}
	}
	defer f.Close()

	params := openai.AudioTranscriptionNewParams{
		File:  f,
		Model: openai.AudioModel(b.model),
	}
	if language != "" {
		params.Language = openai.String(language)
	}

	resp, err := b.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return Result{}, &Error{Path: audioPath, Err: err}
	}
	return Result{Text: resp.Text, Language: language}, nil
}
