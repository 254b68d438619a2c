package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// HTTPBackend calls a whisper-compatible transcription service at
// baseURL/transcribe. Unlike the OpenAI backend it returns the model's
// timed segments, which the fuser can use for midpoint alignment.
type HTTPBackend struct {
	baseURL string
	client  *http.Client
}

func NewHTTPBackend(baseURL string) *HTTPBackend {
	return &HTTPBackend{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Minute},
	}
}

func (b *HTTPBackend) Transcribe(ctx context.Context, audioPath, language string) (Result, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	fw, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return Result{}, &Error{Path: audioPath, Err: err}
	}
	fd, err := os.Open(audioPath)
	if err != nil {
		return Result{}, &Error{Path: audioPath, Err: err}
	}
	defer fd.Close()
	if _, err := io.Copy(fw, fd); err != nil {
		return Result{}, &Error{Path: audioPath, Err: err}
	}
	if language != "" {
		if err := w.WriteField("language", language); err != nil {
			return Result{}, &Error{Path: audioPath, Err: err}
		}
	}
	if err := w.Close(); err != nil {
		return Result{}, &Error{Path: audioPath, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/transcribe", &body)
	if err != nil {
		return Result{}, &Error{Path: audioPath, Err: err}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := b.client.Do(req)
	if err != nil {
		return Result{}, &Error{Path: audioPath, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return Result{}, &Error{Path: audioPath, Err: fmt.Errorf("service %s: %s", resp.Status, string(msg))}
	}

	var out Result
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, &Error{Path: audioPath, Err: fmt.Errorf("decode: %w", err)}
	}
	if out.Text == "" {
		// Some services only fill segments; flatten them.
		for _, s := range out.Segments {
			if out.Text != "" {
				out.Text += " "
			}
			out.Text += s.Text
		}
	}
	return out, nil
}
