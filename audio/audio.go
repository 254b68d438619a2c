// Package audio prepares meeting recordings for the embedding and
// transcription models: decoding arbitrary inputs to mono 16-bit PCM with
// ffmpeg, converting the sample rate to the 16 kHz the models expect, and
// writing WAV clips of turn regions.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ModelSampleRate is the rate expected by the embedding and diarization
// models. All clips handed to them are converted to mono at this rate.
const ModelSampleRate = 16000

// Info is the subset of stream metadata the pipeline needs.
type Info struct {
	SampleRate int
	Duration   float64
}

// Probe reads sample rate and duration of the first audio stream via ffprobe.
func Probe(ctx context.Context, path string) (Info, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=sample_rate",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1",
		path,
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return Info{}, fmt.Errorf("audio: ffprobe %s: %w", path, err)
	}
	return parseProbe(out.String())
}

func parseProbe(s string) (Info, error) {
	var info Info
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch k {
		case "sample_rate":
			n, err := strconv.Atoi(v)
			if err == nil {
				info.SampleRate = n
			}
		case "duration":
			d, err := strconv.ParseFloat(v, 64)
			if err == nil {
				info.Duration = d
			}
		}
	}
	if info.SampleRate == 0 {
		return Info{}, fmt.Errorf("audio: no audio stream metadata")
	}
	return info, nil
}

// DecodePCM decodes [start,end) of path to mono s16le PCM at the source
// sample rate. A negative end decodes to the end of the file. Returns the
// PCM bytes and the source sample rate.
func DecodePCM(ctx context.Context, path string, start, end float64) ([]byte, int, error) {
	info, err := Probe(ctx, path)
	if err != nil {
		return nil, 0, err
	}

	args := []string{"-v", "error"}
	if start > 0 {
		args = append(args, "-ss", formatSeconds(start))
	}
	// With -ss before -i, durations are relative to the seek point.
	if end >= 0 {
		if end <= start {
			return nil, 0, fmt.Errorf("audio: decode %s: empty region [%.3f, %.3f)", path, start, end)
		}
		args = append(args, "-t", formatSeconds(end-start))
	}
	args = append(args,
		"-i", path,
		"-ac", "1",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"pipe:1",
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, 0, fmt.Errorf("audio: ffmpeg decode %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}
	return out.Bytes(), info.SampleRate, nil
}

// ExtractWAV converts a whole recording to a mono 16 kHz WAV next to tmpDir.
// Used once per meeting before the long-running model calls.
func ExtractWAV(ctx context.Context, path, tmpDir string) (string, error) {
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	out := filepath.Join(tmpDir, base+"_16k.wav")

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y", "-v", "error",
		"-i", path,
		"-ac", "1",
		"-ar", strconv.Itoa(ModelSampleRate),
		"-f", "wav",
		out,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("audio: ffmpeg extract %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// Clip decodes [start,end) of path, resamples to the model rate, and writes
// a WAV file into dir. The resampling happens here, in-process; the model
// services receive ready-to-use clips.
func Clip(ctx context.Context, path string, start, end float64, dir string) (string, error) {
	pcm, rate, err := DecodePCM(ctx, path, start, end)
	if err != nil {
		return "", err
	}
	pcm, err = Resample(pcm, rate, ModelSampleRate)
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp(dir, "clip_*.wav")
	if err != nil {
		return "", fmt.Errorf("audio: create clip: %w", err)
	}
	name := f.Name()
	if err := WriteWAV(f, pcm, ModelSampleRate); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("audio: close clip: %w", err)
	}
	return name, nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
