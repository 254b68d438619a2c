package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/boardstream/minuted/speakerid"
)

// ErrIdentityNotFound is returned by identity lookups for unknown IDs.
var ErrIdentityNotFound = errors.New("store: identity not found")

// CreateIdentity inserts a new identity row. The caller supplies the ID.
func (d *DB) CreateIdentity(ctx context.Context, identity Identity) error {
	if identity.ID == uuid.Nil {
		return fmt.Errorf("CreateIdentity: ID is required")
	}
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = time.Now()
	}
	if err := d.db.WithContext(ctx).Create(&identity).Error; err != nil {
		return &PersistenceError{Op: "create identity", Err: err}
	}
	return nil
}

// GetIdentity returns the participant behind id.
func (d *DB) GetIdentity(ctx context.Context, id uuid.UUID) (speakerid.Identity, error) {
	var row Identity
	err := d.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return speakerid.Identity{}, fmt.Errorf("GetIdentity %s: %w", id, ErrIdentityNotFound)
	}
	if err != nil {
		return speakerid.Identity{}, &PersistenceError{Op: "get identity", Err: err}
	}
	return speakerid.Identity{ID: row.ID, Name: row.Name, Position: row.Position}, nil
}

// MintIdentity creates a fresh identity with a generated ID. Used by the
// resolver for placeholder speakers.
func (d *DB) MintIdentity(ctx context.Context, name, position string) (speakerid.Identity, error) {
	row := Identity{ID: uuid.New(), Name: name, Position: position, CreatedAt: time.Now()}
	if err := d.db.WithContext(ctx).Create(&row).Error; err != nil {
		return speakerid.Identity{}, &PersistenceError{Op: "mint identity", Err: err}
	}
	return speakerid.Identity{ID: row.ID, Name: row.Name, Position: row.Position}, nil
}

// IdentityExists reports whether id names a stored identity.
func (d *DB) IdentityExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&Identity{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, &PersistenceError{Op: "check identity", Err: err}
	}
	return count > 0, nil
}

// ListIdentities returns all identity rows.
func (d *DB) ListIdentities(ctx context.Context) ([]Identity, error) {
	var rows []Identity
	if err := d.db.WithContext(ctx).Order("created_at").Find(&rows).Error; err != nil {
		return nil, &PersistenceError{Op: "list identities", Err: err}
	}
	return rows, nil
}

// ListIdentitiesNeedingBackfill returns identities that have reference
// audio on file but no stored voice-print yet.
func (d *DB) ListIdentitiesNeedingBackfill(ctx context.Context) ([]Identity, error) {
	var rows []Identity
	err := d.db.WithContext(ctx).
		Where("reference_audio <> '' AND has_voice_print = ?", false).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, &PersistenceError{Op: "list backfill identities", Err: err}
	}
	return rows, nil
}

// SetHasVoicePrint flips the voice-print marker after a vector has been
// written (or removed) for the identity.
func (d *DB) SetHasVoicePrint(ctx context.Context, id uuid.UUID, has bool) error {
	res := d.db.WithContext(ctx).Model(&Identity{}).Where("id = ?", id).Update("has_voice_print", has)
	if res.Error != nil {
		return &PersistenceError{Op: "set voice-print marker", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("SetHasVoicePrint %s: %w", id, ErrIdentityNotFound)
	}
	return nil
}
