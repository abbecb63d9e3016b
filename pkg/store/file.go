package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/user/hecvat-adk/pkg/engine"
)

const (
	snapshotFile           = "current.json"
	compressedSnapshotFile = "current.json.zst"
)

// FileStore keeps one directory per archived run under Root.
//
//	<root>/<timestamp>-<id>/current.json[.zst]
type FileStore struct {
	Root     string
	Compress bool
}

// NewFileStore creates the root directory if needed.
func NewFileStore(root string, compress bool) (*FileStore, error) {
	if root == "" {
		return nil, errors.New("file archive: path is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("file archive: create %s: %w", root, err)
	}
	return &FileStore{Root: root, Compress: compress}, nil
}

// Save writes s under a fresh key. The key directory is created
// exclusively, so an existing run is never overwritten.
func (fs *FileStore) Save(ctx context.Context, s *engine.Snapshot) error {
	if err := checkSave(ctx, s); err != nil {
		return err
	}
	data, err := encodeSnapshot(s, fs.Compress)
	if err != nil {
		return err
	}

	dir := filepath.Join(fs.Root, snapshotKey(s))
	if err := os.Mkdir(dir, 0o755); err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%s: %w", filepath.Base(dir), engine.ErrSnapshotExists)
		}
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	name := snapshotFile
	if fs.Compress {
		name = compressedSnapshotFile
	}
	if err := writeFileAtomic(filepath.Join(dir, name), data); err != nil {
		_ = os.RemoveAll(dir)
		return err
	}
	return nil
}

// Latest returns the newest archived snapshot. Directories left without a
// snapshot file by an interrupted Save are skipped.
func (fs *FileStore) Latest(ctx context.Context) (*engine.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(fs.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, engine.ErrNoSnapshot
		}
		return nil, fmt.Errorf("reading archive: %w", err)
	}

	var keys []string
	for _, e := range entries {
		if e.IsDir() && e.Name()[0] != '.' {
			keys = append(keys, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	for _, key := range keys {
		s, err := fs.load(key)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, engine.ErrNoSnapshot
}

func (fs *FileStore) load(key string) (*engine.Snapshot, error) {
	for _, f := range []struct {
		name       string
		compressed bool
	}{{compressedSnapshotFile, true}, {snapshotFile, false}} {
		data, err := os.ReadFile(filepath.Join(fs.Root, key, f.name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading snapshot %s: %w", key, err)
		}
		s, err := decodeSnapshot(data, f.compressed)
		if err != nil {
			return nil, fmt.Errorf("parsing snapshot %s: %w", key, err)
		}
		return s, nil
	}
	return nil, os.ErrNotExist
}

func (fs *FileStore) Close() error { return nil }

// writeFileAtomic writes through a temporary file in the same directory.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
