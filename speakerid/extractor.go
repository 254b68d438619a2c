package speakerid

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
	"sync"
	"time"

	"github.com/boardstream/minuted/audio"
)

// MinRegionSeconds is the shortest clip worth embedding. Anything shorter
// carries too little voice to produce a stable print.
const MinRegionSeconds = 1.0

// Embedder is the external voice-embedding model: a prepared 16 kHz mono
// WAV clip in, a fixed-length vector out.
type Embedder interface {
	Embed(ctx context.Context, wavPath string) (VoicePrint, error)
}

// Handle is a lazily-initialized, process-wide embedding model handle.
// Model runtimes are expensive to start, so the first caller pays the
// initialization cost and every later caller shares the result. Init runs
// at most once even under concurrent first use.
type Handle struct {
	once sync.Once
	init func() (Embedder, error)

	embedder Embedder
	err      error
}

func NewHandle(init func() (Embedder, error)) *Handle {
	return &Handle{init: init}
}

func (h *Handle) Get() (Embedder, error) {
	h.once.Do(func() {
		h.embedder, h.err = h.init()
	})
	return h.embedder, h.err
}

// HTTPEmbedder calls an embedding model service at baseURL/embed.
type HTTPEmbedder struct {
	baseURL string
	client  *http.Client
}

func NewHTTPEmbedder(baseURL string) *HTTPEmbedder {
	return &HTTPEmbedder{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Minute},
	}
}

func (e *HTTPEmbedder) Embed(ctx context.Context, wavPath string) (VoicePrint, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	fw, err := w.CreateFormFile("file", filepath.Base(wavPath))
	if err != nil {
		return nil, err
	}
	fd, err := os.Open(wavPath)
	if err != nil {
		return nil, err
	}
	defer fd.Close()
	if _, err := io.Copy(fw, fd); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embed", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("service %s: %s", resp.Status, string(msg))
	}

	var out struct {
		Vector VoicePrint `json:"vector"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(out.Vector) == 0 {
		return nil, fmt.Errorf("empty vector")
	}
	return out.Vector, nil
}

// Extractor produces voice-prints from recordings. It owns audio
// preparation: the model never sees anything but mono 16 kHz clips.
type Extractor struct {
	handle *Handle
	tmpDir string
}

func NewExtractor(handle *Handle, tmpDir string) *Extractor {
	return &Extractor{handle: handle, tmpDir: tmpDir}
}

// Extract embeds the whole recording at audioPath.
func (x *Extractor) Extract(ctx context.Context, audioPath string) (VoicePrint, error) {
	return x.extractClip(ctx, audioPath, 0, -1)
}

// ExtractRegion embeds the [start,end) region of audioPath. Degenerate
// regions (end <= start, or shorter than MinRegionSeconds) fail without
// touching the model.
func (x *Extractor) ExtractRegion(ctx context.Context, audioPath string, start, end float64) (VoicePrint, error) {
	if end <= start || end-start < MinRegionSeconds {
		return nil, &ExtractionError{
			Path: audioPath,
			Err:  fmt.Errorf("degenerate region [%.2f, %.2f)", start, end),
		}
	}
	return x.extractClip(ctx, audioPath, start, end)
}

func (x *Extractor) extractClip(ctx context.Context, audioPath string, start, end float64) (VoicePrint, error) {
	embedder, err := x.handle.Get()
	if err != nil {
		return nil, &ExtractionError{Path: audioPath, Err: fmt.Errorf("model unavailable: %w", err)}
	}

	clip, err := audio.Clip(ctx, audioPath, start, end, x.tmpDir)
	if err != nil {
		return nil, &ExtractionError{Path: audioPath, Err: err}
	}
	defer os.Remove(clip)

	vp, err := embedder.Embed(ctx, clip)
	if err != nil {
		return nil, &ExtractionError{Path: audioPath, Err: err}
	}
	return vp, nil
}
