package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

func TestParseProbe(t *testing.T) {
	t.Parallel()

	info, err := parseProbe("sample_rate=44100\nduration=123.456\n")
	if err != nil {
		t.Fatalf("parseProbe: %v", err)
	}
	if info.SampleRate != 44100 {
		t.Fatalf("SampleRate=%d, want 44100", info.SampleRate)
	}
	if info.Duration != 123.456 {
		t.Fatalf("Duration=%f, want 123.456", info.Duration)
	}
}

func TestParseProbe_NoAudioStream(t *testing.T) {
	t.Parallel()

	if _, err := parseProbe("duration=12.0\n"); err == nil {
		t.Fatal("expected error for missing sample_rate")
	}
}

func TestWriteWAV_Header(t *testing.T) {
	t.Parallel()

	pcm := make([]byte, 320) // 10ms at 16kHz mono s16le
	var buf bytes.Buffer
	if err := WriteWAV(&buf, pcm, 16000); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}

	b := buf.Bytes()
	if len(b) != 44+len(pcm) {
		t.Fatalf("len=%d, want %d", len(b), 44+len(pcm))
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		t.Fatalf("bad magic: %q %q", b[0:4], b[8:12])
	}
	if got := binary.LittleEndian.Uint32(b[24:28]); got != 16000 {
		t.Fatalf("sample rate=%d, want 16000", got)
	}
	if got := binary.LittleEndian.Uint32(b[40:44]); got != uint32(len(pcm)) {
		t.Fatalf("data size=%d, want %d", got, len(pcm))
	}
}

func TestResample_SameRatePassthrough(t *testing.T) {
	t.Parallel()

	pcm := []byte{1, 2, 3, 4}
	out, err := Resample(pcm, 16000, 16000)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	if !bytes.Equal(out, pcm) {
		t.Fatal("same-rate resample must be a passthrough")
	}
}

func TestResample_HalvesSampleCount(t *testing.T) {
	t.Parallel()

	// One second of a 440Hz tone at 32kHz.
	const srcRate = 32000
	pcm := make([]byte, srcRate*2)
	for i := 0; i < srcRate; i++ {
		s := int16(10000 * math.Sin(2*math.Pi*440*float64(i)/srcRate))
		pcm[i*2] = byte(s)
		pcm[i*2+1] = byte(s >> 8)
	}

	out, err := Resample(pcm, srcRate, 16000)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}

	want := len(pcm) / 2
	got := len(out)
	// The converter may trim a little at the tail; allow 5% slack.
	if got < want*95/100 || got > want*105/100 {
		t.Fatalf("resampled size=%d, want ~%d", got, want)
	}
}

func TestResample_RejectsBadRates(t *testing.T) {
	t.Parallel()

	if _, err := Resample(nil, 0, 16000); err == nil {
		t.Fatal("expected error for zero source rate")
	}
	if _, err := Resample(nil, 16000, -1); err == nil {
		t.Fatal("expected error for negative target rate")
	}
}
