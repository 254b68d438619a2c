package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/boardstream/minuted/classify"
	"github.com/boardstream/minuted/fuse"
)

// ErrMeetingNotFound is returned by meeting lookups for unknown IDs.
var ErrMeetingNotFound = errors.New("store: meeting not found")

// CreateMeeting registers a recording for processing.
func (d *DB) CreateMeeting(ctx context.Context, title, audioPath string) (Meeting, error) {
	m := Meeting{
		ID:        uuid.New(),
		Title:     title,
		AudioPath: audioPath,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
	if err := d.db.WithContext(ctx).Create(&m).Error; err != nil {
		return Meeting{}, &PersistenceError{Op: "create meeting", Err: err}
	}
	return m, nil
}

// GetMeeting returns the meeting row for id.
func (d *DB) GetMeeting(ctx context.Context, id uuid.UUID) (Meeting, error) {
	var m Meeting
	err := d.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Meeting{}, fmt.Errorf("GetMeeting %s: %w", id, ErrMeetingNotFound)
	}
	if err != nil {
		return Meeting{}, &PersistenceError{Op: "get meeting", Err: err}
	}
	return m, nil
}

// ListMeetingsByStatus returns meetings in the given state, oldest first.
func (d *DB) ListMeetingsByStatus(ctx context.Context, status string) ([]Meeting, error) {
	var rows []Meeting
	err := d.db.WithContext(ctx).Where("status = ?", status).Order("created_at").Find(&rows).Error
	if err != nil {
		return nil, &PersistenceError{Op: "list meetings", Err: err}
	}
	return rows, nil
}

// MarkProcessing moves the meeting into the processing state and clears
// any error left by an earlier failed run.
func (d *DB) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	return d.setStatus(ctx, id, map[string]any{
		"status":        StatusProcessing,
		"process_error": "",
	})
}

// MarkProcessed records a successful run.
func (d *DB) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	return d.setStatus(ctx, id, map[string]any{
		"status":        StatusProcessed,
		"process_error": "",
		"processed_at":  &now,
	})
}

// MarkFailed records a failed run with its cause. The meeting stays
// unprocessed so a later run can retry it.
func (d *DB) MarkFailed(ctx context.Context, id uuid.UUID, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return d.setStatus(ctx, id, map[string]any{
		"status":        StatusFailed,
		"process_error": msg,
		"processed_at":  nil,
	})
}

func (d *DB) setStatus(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	res := d.db.WithContext(ctx).Model(&Meeting{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return &PersistenceError{Op: "update meeting status", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("setStatus %s: %w", id, ErrMeetingNotFound)
	}
	return nil
}

// ReplaceSegments swaps the meeting's transcript rows for the given fused
// segments in one transaction. Running it twice with the same input
// leaves exactly one copy.
func (d *DB) ReplaceSegments(ctx context.Context, meetingID uuid.UUID, segments []fuse.Segment) error {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meeting_id = ?", meetingID).Delete(&TranscriptSegment{}).Error; err != nil {
			return err
		}
		for _, seg := range segments {
			row := TranscriptSegment{
				MeetingID:    meetingID,
				SpeakerID:    seg.Speaker.ID,
				SpeakerName:  seg.Speaker.Name,
				Start:        seg.Start,
				End:          seg.End,
				Text:         seg.Text,
				Confidence:   seg.Confidence,
				IsDecision:   seg.IsDecision,
				IsActionItem: seg.IsActionItem,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &PersistenceError{Op: "replace segments", Err: err}
	}
	return nil
}

// ListSegments returns the meeting's transcript segments in time order.
func (d *DB) ListSegments(ctx context.Context, meetingID uuid.UUID) ([]TranscriptSegment, error) {
	var rows []TranscriptSegment
	err := d.db.WithContext(ctx).Where("meeting_id = ?", meetingID).Order("start").Find(&rows).Error
	if err != nil {
		return nil, &PersistenceError{Op: "list segments", Err: err}
	}
	return rows, nil
}

// ReplaceReport swaps the meeting's report row for the given one in one
// transaction.
func (d *DB) ReplaceReport(ctx context.Context, meetingID uuid.UUID, report classify.Report) error {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meeting_id = ?", meetingID).Delete(&MeetingReport{}).Error; err != nil {
			return err
		}
		row := MeetingReport{
			MeetingID:   meetingID,
			Summary:     report.Summary,
			Decisions:   report.Decisions,
			ActionItems: report.ActionItems,
			GeneratedAt: time.Now(),
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return &PersistenceError{Op: "replace report", Err: err}
	}
	return nil
}

// GetReport returns the meeting's report, or ErrMeetingNotFound if none
// has been generated.
func (d *DB) GetReport(ctx context.Context, meetingID uuid.UUID) (MeetingReport, error) {
	var row MeetingReport
	err := d.db.WithContext(ctx).First(&row, "meeting_id = ?", meetingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return MeetingReport{}, fmt.Errorf("GetReport %s: %w", meetingID, ErrMeetingNotFound)
	}
	if err != nil {
		return MeetingReport{}, &PersistenceError{Op: "get report", Err: err}
	}
	return row, nil
}
