// Package store persists identities, meetings, transcript segments, and
// reports in a relational database.
package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Meeting lifecycle states. A meeting re-enters "pending" territory only
// by an operator re-running it; the pipeline itself moves pending →
// processing → processed | failed.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusProcessed  = "processed"
	StatusFailed     = "failed"
)

// Identity is a known (or placeholder) meeting participant. The voice
// vector itself lives in the voice-print store; HasVoicePrint mirrors
// whether one has been written.
type Identity struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name           string    `gorm:"not null"`
	Position       string
	ReferenceAudio string
	HasVoicePrint  bool
	CreatedAt      time.Time
}

// Meeting is one recorded session and its processing state.
type Meeting struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title        string
	AudioPath    string `gorm:"not null"`
	Status       string `gorm:"not null;default:pending;index"`
	ProcessError string
	CreatedAt    time.Time
	ProcessedAt  *time.Time
}

// TranscriptSegment is one fused, attributed span of a meeting's
// transcript. Rows for a meeting are replaced wholesale on reprocessing.
type TranscriptSegment struct {
	ID           uint      `gorm:"primaryKey"`
	MeetingID    uuid.UUID `gorm:"type:uuid;not null;index"`
	SpeakerID    uuid.UUID `gorm:"type:uuid;not null"`
	SpeakerName  string
	Start        float64
	End          float64
	Text         string
	Confidence   float64
	IsDecision   bool
	IsActionItem bool
}

// MeetingReport is the aggregated outcome of one meeting, at most one row
// per meeting.
type MeetingReport struct {
	ID          uint      `gorm:"primaryKey"`
	MeetingID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Summary     string
	Decisions   string
	ActionItems string
	GeneratedAt time.Time
}

// PersistenceError marks a database failure as fatal to the operation
// that hit it. A later retry of the same operation supersedes the
// failed write.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// DB wraps the gorm handle with the pipeline's persistence operations.
type DB struct {
	db *gorm.DB
}

// Open opens (creating if needed) the sqlite database at path and
// migrates the schema.
func Open(path string) (*DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("Open: %w", err)
	}
	if err := db.AutoMigrate(&Identity{}, &Meeting{}, &TranscriptSegment{}, &MeetingReport{}); err != nil {
		return nil, fmt.Errorf("Open: migrate: %w", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
