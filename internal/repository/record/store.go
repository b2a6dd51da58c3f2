package record

import (
	"context"
	"errors"
	"maps"
)

// Document is a raw user record.
type Document map[string]any

// Clone returns a shallow copy of the document.
func (d Document) Clone() Document {
	return maps.Clone(d)
}

// Store looks up user records by identifier.
type Store interface {
	Get(ctx context.Context, id string) (Document, error)
}

// ErrNotFound is returned when no record exists for the identifier.
var ErrNotFound = errors.New("record not found")
