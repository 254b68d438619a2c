package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/boardstream/minuted/store"
)

// ExportReportMarkdown writes the meeting's report as a markdown file
// under dir and returns its path. The write is atomic so a crash never
// leaves a half-written report next to the archive's good ones.
func ExportReportMarkdown(ctx context.Context, db *store.DB, meetingID uuid.UUID, dir string) (string, error) {
	meeting, err := db.GetMeeting(ctx, meetingID)
	if err != nil {
		return "", fmt.Errorf("ExportReportMarkdown: %w", err)
	}
	report, err := db.GetReport(ctx, meetingID)
	if err != nil {
		return "", fmt.Errorf("ExportReportMarkdown: %w", err)
	}
	segments, err := db.ListSegments(ctx, meetingID)
	if err != nil {
		return "", fmt.Errorf("ExportReportMarkdown: %w", err)
	}

	var b strings.Builder
	title := meeting.Title
	if title == "" {
		title = meetingID.String()
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "Generated: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "## Summary\n\n%s\n\n", report.Summary)
	fmt.Fprintf(&b, "## Decisions\n\n%s\n\n", report.Decisions)
	fmt.Fprintf(&b, "## Action items\n\n%s\n\n", report.ActionItems)

	b.WriteString("## Transcript\n\n")
	for _, seg := range segments {
		fmt.Fprintf(&b, "- [%s] **%s**: %s\n", formatClock(seg.Start), seg.SpeakerName, seg.Text)
	}

	outPath := filepath.Join(dir, meetingID.String()+".md")
	if err := writeFileAtomicSameDir(outPath, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("ExportReportMarkdown: %w", err)
	}
	return outPath, nil
}

func formatClock(seconds float64) string {
	s := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}

func writeFileAtomicSameDir(path string, data []byte, mode fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp_report_*.md")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
