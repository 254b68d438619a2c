package speakerid

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, wavPath string) (VoicePrint, error) {
	return VoicePrint{1}, nil
}

func TestHandle_InitRunsOnce(t *testing.T) {
	t.Parallel()

	var inits int
	h := NewHandle(func() (Embedder, error) {
		inits++
		return stubEmbedder{}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.Get(); err != nil {
				t.Errorf("Get: %v", err)
			}
		}()
	}
	wg.Wait()

	if inits != 1 {
		t.Fatalf("init ran %d times, want 1", inits)
	}
}

func TestHandle_InitFailureIsSticky(t *testing.T) {
	t.Parallel()

	var inits int
	h := NewHandle(func() (Embedder, error) {
		inits++
		return nil, errors.New("model load failed")
	})

	for i := 0; i < 3; i++ {
		if _, err := h.Get(); err == nil {
			t.Fatal("Get: want error from failed init")
		}
	}
	if inits != 1 {
		t.Fatalf("init ran %d times, want 1 even after failure", inits)
	}
}

func TestExtractRegion_DegenerateRegions(t *testing.T) {
	t.Parallel()

	h := NewHandle(func() (Embedder, error) {
		t.Error("model initialized for a degenerate region")
		return stubEmbedder{}, nil
	})
	x := NewExtractor(h, t.TempDir())

	regions := []struct{ start, end float64 }{
		{10, 10},
		{10, 5},
		{10, 10.4}, // shorter than MinRegionSeconds
	}
	for _, reg := range regions {
		_, err := x.ExtractRegion(context.Background(), "meeting.wav", reg.start, reg.end)
		var xerr *ExtractionError
		if !errors.As(err, &xerr) {
			t.Errorf("region [%v, %v): got %v, want ExtractionError", reg.start, reg.end, err)
		}
	}
}
