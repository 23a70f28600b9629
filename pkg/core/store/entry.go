package store

import (
	"context"
	"strings"
	"time"

	"finmodeling/pkg/core/calc"

	"github.com/oklog/ulid/v2"
)

// Cache is the contract every classification backend satisfies.
type Cache interface {
	Load(ctx context.Context, key string) ([]calc.RowType, bool, error)
	Save(ctx context.Context, key string, categories []calc.RowType) error
}

// Entry is a stored classification. Entries are never edited; a save writes
// a new entry that supersedes the old one, and IDs sort by write time.
type Entry struct {
	ID          string         `json:"id"`
	Key         string         `json:"key"`
	Kind        string         `json:"kind"`
	Fingerprint string         `json:"fingerprint"`
	Categories  []calc.RowType `json:"categories"`
	SavedAt     time.Time      `json:"saved_at"`
}

// NewEntry stamps a fresh entry for key. Keys have the form
// "<kind>:<fingerprint>".
func NewEntry(key string, categories []calc.RowType) Entry {
	kind, fp, ok := strings.Cut(key, ":")
	if !ok {
		kind, fp = "", key
	}
	return Entry{
		ID:          ulid.Make().String(),
		Key:         key,
		Kind:        kind,
		Fingerprint: fp,
		Categories:  append([]calc.RowType(nil), categories...),
		SavedAt:     time.Now().UTC(),
	}
}
