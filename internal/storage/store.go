// Package storage defines the persistence contract shared by every backing
// that can hold recorded request/response pairs, and the concrete
// file-journal and embedded-relational implementations of it.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/egehanasal/apidouble/pkg/recordmodel"
)

// Sentinel errors shared by every backing.
var (
	ErrNotFound = errors.New("storage: entry not found")
	ErrClosed   = errors.New("storage: operation attempted after close")
)

// Store is the contract both replay lookup and record-on-forward consume.
// Every method is safe for concurrent callers and is its own transaction.
// Two concrete types satisfy it, *FileJournalStore and *SQLiteStore. The
// dispatcher and matcher only ever depend on this interface, never on a
// backing-specific type.
type Store interface {
	// Init prepares the backing: creates directories, the journal file, or
	// the relational schema and its indices. Safe to call once at startup.
	Init(ctx context.Context) error

	// Save assigns a fresh id and created_at to (req, resp) and persists
	// them atomically, returning the resulting entry.
	Save(ctx context.Context, req recordmodel.RequestRecord, resp recordmodel.ResponseRecord) (*recordmodel.RecordedEntry, error)

	// Find returns the most recently created entry with identical method
	// and path. This is the fast-path point lookup used by replay mode
	// ahead of approximate matching.
	Find(ctx context.Context, method, path string) (*recordmodel.RecordedEntry, error)

	// FindByID returns a single entry by its storage-assigned id.
	FindByID(ctx context.Context, id string) (*recordmodel.RecordedEntry, error)

	// List returns every entry, most-recently-created first.
	List(ctx context.Context) ([]*recordmodel.RecordedEntry, error)

	// Delete removes one entry by id, reporting whether it existed.
	Delete(ctx context.Context, id string) (bool, error)

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Search returns entries matching an optional method and an optional
	// '*'-wildcard path glob. Either filter may be left empty to mean "no
	// constraint on that dimension".
	Search(ctx context.Context, method, pathGlob string) ([]*recordmodel.RecordedEntry, error)

	// Range returns entries whose CreatedAt falls within [start, end].
	Range(ctx context.Context, start, end time.Time) ([]*recordmodel.RecordedEntry, error)

	// Close releases the backing's underlying handle. Operations issued
	// after Close must fail with ErrClosed rather than silently reopening.
	Close() error
}
