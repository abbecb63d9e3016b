package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/user/hecvat-adk/pkg/engine"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// SQLiteStore archives snapshots in a single SQLite database file.
type SQLiteStore struct {
	db       *sql.DB
	compress bool
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string, compress bool) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite archive: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("sqlite archive: create data dir: %w", err)
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite archive: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite archive: pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{db: db, compress: compress}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite archive: migration: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS snapshots (
			key             TEXT PRIMARY KEY,
			id              TEXT NOT NULL,
			tier            TEXT NOT NULL,
			assessment_date TEXT NOT NULL,
			repository      TEXT,
			commit_hash     TEXT,
			compressed      INTEGER NOT NULL DEFAULT 0,
			data            BLOB NOT NULL,
			created_at      TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_snapshots_date ON snapshots(tier, assessment_date);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save inserts s under a fresh key. An existing key is left untouched and
// reported as ErrSnapshotExists.
func (s *SQLiteStore) Save(ctx context.Context, snap *engine.Snapshot) error {
	if err := checkSave(ctx, snap); err != nil {
		return err
	}
	data, err := encodeSnapshot(snap, s.compress)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (key, id, tier, assessment_date, repository, commit_hash, compressed, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO NOTHING`,
		snapshotKey(snap), snap.ID, string(snap.Tier), snap.AssessmentDate.UTC().Format(keyLayout),
		snap.Repository, snap.Commit, s.compress, data)
	if err != nil {
		return fmt.Errorf("sqlite archive: insert snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite archive: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", snapshotKey(snap), engine.ErrSnapshotExists)
	}
	return nil
}

// Latest returns the newest current-tier snapshot.
func (s *SQLiteStore) Latest(ctx context.Context) (*engine.Snapshot, error) {
	var (
		data       []byte
		compressed bool
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT data, compressed FROM snapshots
		 WHERE tier = ?
		 ORDER BY assessment_date DESC, key DESC
		 LIMIT 1`, string(engine.TierCurrent)).Scan(&data, &compressed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, engine.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite archive: query latest: %w", err)
	}
	return decodeSnapshot(data, compressed)
}

// Count returns the number of archived snapshots.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&n)
	return n, err
}
