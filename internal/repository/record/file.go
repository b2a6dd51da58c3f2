package record

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Snapshot is the on-disk layout of a YAML record file.
type Snapshot struct {
	// Users maps user id to its record.
	Users map[string]Document `yaml:"users"`
}

// FileStore serves records from a YAML snapshot. The file is read lazily
// on first access and re-read when its modification time changes.
type FileStore struct {
	// path is the filesystem location of the snapshot.
	path string
	// mu protects the cached snapshot.
	mu sync.Mutex
	// cached holds the last parsed snapshot.
	cached *Snapshot
	// modTime is the modification time of the cached snapshot.
	modTime int64
}

// NewFileStore creates a store reading the snapshot at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: filepath.Clean(path),
	}
}

// ReadSnapshot parses a YAML snapshot file.
func ReadSnapshot(path string) (*Snapshot, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read records file: %w", err)
	}

	var snapshot Snapshot
	if err = yaml.Unmarshal(contents, &snapshot); err != nil {
		return nil, fmt.Errorf("decode records file: %w", err)
	}

	if snapshot.Users == nil {
		snapshot.Users = map[string]Document{}
	}

	return &snapshot, nil
}

// Get returns a copy of the record.
func (s *FileStore) Get(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snapshot, err := s.load()
	if err != nil {
		return nil, err
	}

	doc, ok := snapshot.Users[id]
	if !ok || doc == nil {
		return nil, ErrNotFound
	}

	return doc.Clone(), nil
}

// load returns the cached snapshot, refreshing it when the file changed.
func (s *FileStore) load() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("records file %s: %w", s.path, err)
		}

		return nil, fmt.Errorf("stat records file: %w", err)
	}

	if s.cached != nil && info.ModTime().UnixNano() == s.modTime {
		return s.cached, nil
	}

	snapshot, err := ReadSnapshot(s.path)
	if err != nil {
		return nil, err
	}

	s.cached = snapshot
	s.modTime = info.ModTime().UnixNano()

	return snapshot, nil
}
