package pipeline

import (
	"context"
	"fmt"

	"github.com/boardstream/minuted/logger"
	"github.com/boardstream/minuted/speakerid"
	"github.com/boardstream/minuted/store"
)

// Backfill extracts voice-prints for identities that have reference
// audio on file but no stored vector, typically after the print store
// was rebuilt or identities were imported. Per-identity extraction
// failures are logged and skipped; the count of successful backfills is
// returned.
func Backfill(ctx context.Context, db *store.DB, prints speakerid.Store, extractor VoiceExtractor, log *logger.Logger) (int, error) {
	if log == nil {
		log = logger.Nop()
	}
	rows, err := db.ListIdentitiesNeedingBackfill(ctx)
	if err != nil {
		return 0, fmt.Errorf("Backfill: %w", err)
	}

	var done int
	for _, row := range rows {
		vp, err := extractor.Extract(ctx, row.ReferenceAudio)
		if err != nil {
			log.Warn("backfill extraction failed", "identity", row.ID, "name", row.Name, "err", err)
			continue
		}
		if err := prints.Put(ctx, row.ID, vp); err != nil {
			return done, fmt.Errorf("Backfill %s: %w", row.ID, err)
		}
		if err := db.SetHasVoicePrint(ctx, row.ID, true); err != nil {
			return done, fmt.Errorf("Backfill %s: %w", row.ID, err)
		}
		log.Info("voice-print backfilled", "identity", row.ID, "name", row.Name)
		done++
	}
	return done, nil
}
