// Package store archives current-tier snapshots between runs and writes
// the per-run output bundle.
package store

import (
	"context"
	"fmt"

	"github.com/user/hecvat-adk/pkg/config"
	"github.com/user/hecvat-adk/pkg/engine"
)

// keyLayout sorts lexicographically in time order.
const keyLayout = "20060102T150405.000000000Z"

// Archive is a SnapshotStore that holds resources.
type Archive interface {
	engine.SnapshotStore
	Close() error
}

// Open returns the archive selected by cfg.
func Open(cfg config.ArchiveConfig) (Archive, error) {
	switch cfg.Backend {
	case "", "file":
		return NewFileStore(cfg.Path, cfg.Compress)
	case "sqlite":
		return NewSQLiteStore(cfg.Path, cfg.Compress)
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Backend)
	}
}

// snapshotKey names an archived snapshot by assessment time and id.
func snapshotKey(s *engine.Snapshot) string {
	return s.AssessmentDate.UTC().Format(keyLayout) + "-" + s.ID
}

func checkSave(ctx context.Context, s *engine.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.Tier != engine.TierCurrent {
		return fmt.Errorf("archive %s snapshot: %w", s.Tier, engine.ErrWrongTier)
	}
	if s.ID == "" || s.AssessmentDate.IsZero() {
		return fmt.Errorf("archive snapshot: id and assessment date are required")
	}
	return nil
}
