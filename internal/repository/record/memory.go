package record

import (
	"context"
	"sync"
)

// MemoryStore keeps records in memory. It backs tests and dry runs.
type MemoryStore struct {
	// mu protects records.
	mu sync.RWMutex
	// records maps user id to document.
	records map[string]Document
}

// NewMemoryStore creates a store pre-populated with the given records.
func NewMemoryStore(records map[string]Document) *MemoryStore {
	s := &MemoryStore{
		records: make(map[string]Document, len(records)),
	}

	for id, doc := range records {
		s.records[id] = doc.Clone()
	}

	return s
}

// Get returns a copy of the record.
func (s *MemoryStore) Get(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}

	return doc.Clone(), nil
}

// Put inserts or replaces a record.
func (s *MemoryStore) Put(_ context.Context, id string, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[id] = doc.Clone()

	return nil
}
