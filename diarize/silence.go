package diarize

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// SilenceEngine is a no-model diarizer: it splits the recording at silence
// gaps found by ffmpeg's silencedetect filter and alternates between two
// anonymous labels on each gap. Attribution quality is far below a real
// diarization model; it exists so the pipeline is usable with no model
// service configured at all.
type SilenceEngine struct {
	// MinSilence is the minimum gap, in seconds, treated as a turn
	// boundary. Zero means 0.5s.
	MinSilence float64
	// NoiseDB is the silencedetect threshold. Zero means -40dB.
	NoiseDB float64
}

type silenceSpan struct {
	start, end float64
}

func (e SilenceEngine) Diarize(ctx context.Context, audioPath string, expectedSpeakers int) ([]Turn, error) {
	minSilence := e.MinSilence
	if minSilence <= 0 {
		minSilence = 0.5
	}
	noise := e.NoiseDB
	if noise >= 0 {
		noise = -40
	}

	filter := fmt.Sprintf("silencedetect=noise=%.0fdB:d=%s", noise, strconv.FormatFloat(minSilence, 'f', 2, 64))
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-v", "info",
		"-i", audioPath,
		"-af", filter,
		"-f", "null", "-",
	)
	// silencedetect reports on stderr.
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &Error{Path: audioPath, Err: fmt.Errorf("silencedetect: %w", err)}
	}

	silences, total, err := parseSilences(&stderr)
	if err != nil {
		return nil, &Error{Path: audioPath, Err: err}
	}
	turns := turnsFromSilences(silences, total)
	if len(turns) == 0 {
		return nil, &Error{Path: audioPath, Err: fmt.Errorf("no speech found")}
	}
	return turns, nil
}

// parseSilences extracts silence spans and the stream duration from ffmpeg
// stderr output. Lines look like:
//
//	[silencedetect @ 0x...] silence_start: 12.34
//	[silencedetect @ 0x...] silence_end: 14.56 | silence_duration: 2.22
//	  Duration: 00:01:23.45, start: ...
func parseSilences(r io.Reader) ([]silenceSpan, float64, error) {
	var (
		spans   []silenceSpan
		current *silenceSpan
		total   float64
	)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if idx := strings.Index(line, "silence_start:"); idx >= 0 {
			v := strings.TrimSpace(line[idx+len("silence_start:"):])
			start, err := strconv.ParseFloat(v, 64)
			if err != nil {
				continue
			}
			current = &silenceSpan{start: start}
			continue
		}
		if idx := strings.Index(line, "silence_end:"); idx >= 0 && current != nil {
			v := strings.TrimSpace(line[idx+len("silence_end:"):])
			if cut := strings.IndexByte(v, '|'); cut >= 0 {
				v = strings.TrimSpace(v[:cut])
			}
			end, err := strconv.ParseFloat(v, 64)
			if err != nil {
				continue
			}
			current.end = end
			spans = append(spans, *current)
			current = nil
			continue
		}
		if idx := strings.Index(line, "Duration:"); idx >= 0 {
			v := strings.TrimSpace(line[idx+len("Duration:"):])
			if cut := strings.IndexByte(v, ','); cut >= 0 {
				v = v[:cut]
			}
			if d, err := parseClock(v); err == nil {
				total = d
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, 0, err
	}
	// A silence still open at EOF runs to the end of the stream.
	if current != nil && total > current.start {
		current.end = total
		spans = append(spans, *current)
	}
	return spans, total, nil
}

// turnsFromSilences builds speech turns from the gaps between silences,
// alternating two labels on each boundary.
func turnsFromSilences(silences []silenceSpan, total float64) []Turn {
	labels := [2]string{"SPEAKER_A", "SPEAKER_B"}
	var turns []Turn
	cursor := 0.0
	li := 0
	for _, s := range silences {
		if s.start > cursor {
			turns = append(turns, Turn{Label: labels[li%2], Start: cursor, End: s.start})
			li++
		}
		if s.end > cursor {
			cursor = s.end
		}
	}
	if total > cursor {
		turns = append(turns, Turn{Label: labels[li%2], Start: cursor, End: total})
	}
	return turns
}

// parseClock parses ffmpeg's HH:MM:SS.ss timestamps.
func parseClock(s string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("bad clock %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	sec, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, err
	}
	return float64(h*3600+m*60) + sec, nil
}
