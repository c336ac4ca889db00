package storage

import (
	"context"
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/egehanasal/apidouble/internal/id"
	"github.com/egehanasal/apidouble/pkg/recordmodel"
)

// FileJournalStore is a single-JSON-document backing: the whole entry set
// is read into memory on Init and flushed atomically (write-temp-then-
// rename) on every mutation. Suitable for development-sized corpora.
type FileJournalStore struct {
	mu      sync.RWMutex
	path    string
	entries map[string]*recordmodel.RecordedEntry
	loaded  bool
	closed  bool
}

type journalDocument struct {
	Entries []*recordmodel.RecordedEntry `json:"entries"`
}

// NewFileJournalStore creates a file-journal backing rooted at path. The
// parent directory is created on Init if it doesn't already exist.
func NewFileJournalStore(path string) *FileJournalStore {
	return &FileJournalStore{
		path:    path,
		entries: make(map[string]*recordmodel.RecordedEntry),
	}
}

// Init loads the journal document into memory, creating an empty one if it
// doesn't exist yet.
func (s *FileJournalStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.entries = make(map[string]*recordmodel.RecordedEntry)
			s.loaded = true
			return s.flushLocked()
		}
		return err
	}

	var doc journalDocument
	if len(data) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
	}

	s.entries = make(map[string]*recordmodel.RecordedEntry, len(doc.Entries))
	for _, e := range doc.Entries {
		s.entries[e.ID] = e
	}
	s.loaded = true
	return nil
}

// Save assigns a fresh id and created_at, persists the new entry, and
// returns it.
func (s *FileJournalStore) Save(ctx context.Context, req recordmodel.RequestRecord, resp recordmodel.ResponseRecord) (*recordmodel.RecordedEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	entry := &recordmodel.RecordedEntry{
		ID:        id.New(),
		Request:   req,
		Response:  resp,
		CreatedAt: time.Now().UnixMilli(),
	}

	s.entries[entry.ID] = entry
	if err := s.flushLocked(); err != nil {
		// Flushing failed: roll back the in-memory mutation so the view
		// doesn't diverge from what's actually on disk.
		delete(s.entries, entry.ID)
		return nil, err
	}
	return entry, nil
}

// Find returns the most recently created entry with identical method and
// path.
func (s *FileJournalStore) Find(ctx context.Context, method, reqPath string) (*recordmodel.RecordedEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	var best *recordmodel.RecordedEntry
	for _, e := range s.entries {
		if !strings.EqualFold(e.Request.Method, method) || e.Request.Path != reqPath {
			continue
		}
		if best == nil || e.CreatedAt > best.CreatedAt {
			best = e
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	return best, nil
}

// FindByID returns a single entry by id.
func (s *FileJournalStore) FindByID(ctx context.Context, entryID string) (*recordmodel.RecordedEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	e, ok := s.entries[entryID]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// List returns every entry, most-recently-created first.
func (s *FileJournalStore) List(ctx context.Context) ([]*recordmodel.RecordedEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	out := make([]*recordmodel.RecordedEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	return recordmodel.SortedByCreatedAtDesc(out), nil
}

// Delete removes one entry by id.
func (s *FileJournalStore) Delete(ctx context.Context, entryID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrClosed
	}

	removed, ok := s.entries[entryID]
	if !ok {
		return false, nil
	}
	delete(s.entries, entryID)
	if err := s.flushLocked(); err != nil {
		s.entries[entryID] = removed
		return false, err
	}
	return true, nil
}

// Clear removes every entry.
func (s *FileJournalStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	previous := s.entries
	s.entries = make(map[string]*recordmodel.RecordedEntry)
	if err := s.flushLocked(); err != nil {
		s.entries = previous
		return err
	}
	return nil
}

// Count returns the number of stored entries.
func (s *FileJournalStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrClosed
	}
	return len(s.entries), nil
}

// Search returns entries matching an optional method and an optional
// '*'-wildcard path glob.
func (s *FileJournalStore) Search(ctx context.Context, method, pathGlob string) ([]*recordmodel.RecordedEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	out := make([]*recordmodel.RecordedEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if method != "" && !strings.EqualFold(e.Request.Method, method) {
			continue
		}
		if pathGlob != "" {
			matched, err := path.Match(pathGlob, e.Request.Path)
			if err != nil || !matched {
				continue
			}
		}
		out = append(out, e)
	}
	return recordmodel.SortedByCreatedAtDesc(out), nil
}

// Range returns entries created within [start, end].
func (s *FileJournalStore) Range(ctx context.Context, start, end time.Time) ([]*recordmodel.RecordedEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	startMs, endMs := start.UnixMilli(), end.UnixMilli()
	out := make([]*recordmodel.RecordedEntry, 0)
	for _, e := range s.entries {
		if e.CreatedAt >= startMs && e.CreatedAt <= endMs {
			out = append(out, e)
		}
	}
	return recordmodel.SortedByCreatedAtDesc(out), nil
}

// Close marks the store closed; subsequent operations fail with ErrClosed.
func (s *FileJournalStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// flushLocked serializes the in-memory entry set to disk using a
// write-temp-then-rename so a crash mid-write never leaves a half-written
// journal behind. Must be called with s.mu held for writing.
func (s *FileJournalStore) flushLocked() error {
	doc := journalDocument{Entries: make([]*recordmodel.RecordedEntry, 0, len(s.entries))}
	for _, e := range s.entries {
		doc.Entries = append(doc.Entries, e)
	}
	doc.Entries = recordmodel.SortedByCreatedAtDesc(doc.Entries)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

var _ Store = (*FileJournalStore)(nil)
