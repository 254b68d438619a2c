package diarize

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
	"strconv"
	"time"
)

// HTTPEngine calls a diarization model service (pyannote behind a thin HTTP
// shim) at baseURL/diarize with the audio file as a multipart upload.
type HTTPEngine struct {
	baseURL string
	client  *http.Client
}

func NewHTTPEngine(baseURL string) *HTTPEngine {
	return &HTTPEngine{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Minute},
	}
}

type httpResponse struct {
	Turns []Turn `json:"turns"`
}

func (e *HTTPEngine) Diarize(ctx context.Context, audioPath string, expectedSpeakers int) ([]Turn, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	fw, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, &Error{Path: audioPath, Err: err}
	}
	fd, err := os.Open(audioPath)
	if err != nil {
		return nil, &Error{Path: audioPath, Err: err}
	}
	defer fd.Close()
	if _, err := io.Copy(fw, fd); err != nil {
		return nil, &Error{Path: audioPath, Err: err}
	}
	if expectedSpeakers > 0 {
		if err := w.WriteField("num_speakers", strconv.Itoa(expectedSpeakers)); err != nil {
			return nil, &Error{Path: audioPath, Err: err}
		}
	}
	if err := w.Close(); err != nil {
		return nil, &Error{Path: audioPath, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/diarize", &body)
	if err != nil {
		return nil, &Error{Path: audioPath, Err: err}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &Error{Path: audioPath, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, &Error{Path: audioPath, Err: fmt.Errorf("service %s: %s", resp.Status, string(b))}
	}

	var out httpResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &Error{Path: audioPath, Err: fmt.Errorf("decode: %w", err)}
	}
	sortTurns(out.Turns)
	return out.Turns, nil
}
