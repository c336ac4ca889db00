package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/egehanasal/apidouble/internal/id"
	"github.com/egehanasal/apidouble/pkg/recordmodel"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLiteStore is the embedded relational backing: one table holding
// primitive columns plus JSON-encoded query/headers/body strings, with
// indices on (method, path) and created_at. Schema is create-if-absent;
// there is no migration system to run.
type SQLiteStore struct {
	dsn string

	mu     sync.Mutex // serializes writers; modernc.org/sqlite allows one writer at a time even in WAL mode
	db     *sql.DB
	closed bool
}

// NewSQLiteStore creates a relational backing at the given file path. WAL
// journaling is enabled on Init so concurrent readers never block behind a
// writer.
func NewSQLiteStore(dbPath string) *SQLiteStore {
	return &SQLiteStore{dsn: dbPath}
}

// Init opens the database, enables WAL mode, and creates the schema if it's
// absent.
func (s *SQLiteStore) Init(ctx context.Context) error {
	if dir := filepath.Dir(s.dsn); dir != "" && dir != "." {
		// SQLite itself doesn't create parent directories.
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	db, err := sql.Open("sqlite", s.dsn)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		_ = db.Close()
		return err
	}

	const schema = `
CREATE TABLE IF NOT EXISTS entries (
	id TEXT PRIMARY KEY,
	method TEXT NOT NULL,
	path TEXT NOT NULL,
	url TEXT NOT NULL,
	request_id TEXT,
	query_json TEXT,
	req_headers_json TEXT,
	req_body_json TEXT,
	req_captured_at INTEGER,
	status INTEGER NOT NULL,
	resp_headers_json TEXT,
	resp_body_json TEXT,
	resp_captured_at INTEGER,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_method_path ON entries(method, path);
CREATE INDEX IF NOT EXISTS idx_entries_created_at ON entries(created_at);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// Save assigns a fresh id and created_at and inserts the row in a single
// transaction.
func (s *SQLiteStore) Save(ctx context.Context, req recordmodel.RequestRecord, resp recordmodel.ResponseRecord) (*recordmodel.RecordedEntry, error) {
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

	queryJSON, err := json.Marshal(req.Query)
	if err != nil {
		return nil, err
	}
	reqHeadersJSON, err := json.Marshal(req.Headers)
	if err != nil {
		return nil, err
	}
	reqBodyJSON, err := json.Marshal(req.Body)
	if err != nil {
		return nil, err
	}
	respHeadersJSON, err := json.Marshal(resp.Headers)
	if err != nil {
		return nil, err
	}
	respBodyJSON, err := json.Marshal(resp.Body)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO entries (
	id, method, path, url, request_id, query_json, req_headers_json, req_body_json, req_captured_at,
	status, resp_headers_json, resp_body_json, resp_captured_at, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, req.Method, req.Path, req.URL, req.ID, string(queryJSON), string(reqHeadersJSON), string(reqBodyJSON), req.CapturedAtMs,
		resp.Status, string(respHeadersJSON), string(respBodyJSON), resp.CapturedAtMs, entry.CreatedAt,
	)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return entry, nil
}

// Find returns the most recently created entry with identical method and
// path.
func (s *SQLiteStore) Find(ctx context.Context, method, reqPath string) (*recordmodel.RecordedEntry, error) {
	if s.closed {
		return nil, ErrClosed
	}
	row := s.db.QueryRowContext(ctx, `
SELECT `+selectColumns+` FROM entries
WHERE method = ? AND path = ?
ORDER BY created_at DESC
LIMIT 1`, method, reqPath)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return entry, err
}

// FindByID returns a single entry by id.
func (s *SQLiteStore) FindByID(ctx context.Context, entryID string) (*recordmodel.RecordedEntry, error) {
	if s.closed {
		return nil, ErrClosed
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM entries WHERE id = ?`, entryID)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return entry, err
}

// List returns every entry, most-recently-created first.
func (s *SQLiteStore) List(ctx context.Context) ([]*recordmodel.RecordedEntry, error) {
	if s.closed {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM entries ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

// Delete removes one entry by id.
func (s *SQLiteStore) Delete(ctx context.Context, entryID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrClosed
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, entryID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Clear removes every entry.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM entries`)
	return err
}

// Count returns the number of stored entries.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Search returns entries matching an optional method and an optional
// '*'-wildcard path glob. The glob is translated to a SQL LIKE pattern
// (the only wildcard is '*', mapped to '%').
func (s *SQLiteStore) Search(ctx context.Context, method, pathGlob string) ([]*recordmodel.RecordedEntry, error) {
	if s.closed {
		return nil, ErrClosed
	}

	query := `SELECT ` + selectColumns + ` FROM entries WHERE 1=1`
	var args []interface{}
	if method != "" {
		query += ` AND method = ?`
		args = append(args, method)
	}
	if pathGlob != "" {
		if strings.Contains(pathGlob, "*") {
			query += ` AND path LIKE ?`
			args = append(args, strings.ReplaceAll(pathGlob, "*", "%"))
		} else {
			query += ` AND path = ?`
			args = append(args, pathGlob)
		}
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}

	// LIKE's '%'/'_' aren't quite path.Match semantics; re-filter with the
	// real glob matcher to stay faithful to '*' as the only wildcard.
	if pathGlob != "" && strings.Contains(pathGlob, "*") {
		filtered := entries[:0]
		for _, e := range entries {
			if matched, _ := path.Match(pathGlob, e.Request.Path); matched {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	return entries, nil
}

// Range returns entries created within [start, end].
func (s *SQLiteStore) Range(ctx context.Context, start, end time.Time) ([]*recordmodel.RecordedEntry, error) {
	if s.closed {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT `+selectColumns+` FROM entries
WHERE created_at BETWEEN ? AND ?
ORDER BY created_at DESC`, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

const selectColumns = `id, method, path, url, request_id, query_json, req_headers_json, req_body_json, req_captured_at,
	status, resp_headers_json, resp_body_json, resp_captured_at, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*recordmodel.RecordedEntry, error) {
	var (
		entry                                  recordmodel.RecordedEntry
		queryJSON, reqHeadersJSON, reqBodyJSON sql.NullString
		respHeadersJSON, respBodyJSON          sql.NullString
		reqID                                   sql.NullString
	)
	err := row.Scan(
		&entry.ID, &entry.Request.Method, &entry.Request.Path, &entry.Request.URL, &reqID,
		&queryJSON, &reqHeadersJSON, &reqBodyJSON, &entry.Request.CapturedAtMs,
		&entry.Response.Status, &respHeadersJSON, &respBodyJSON, &entry.Response.CapturedAtMs,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Request.ID = reqID.String
	if queryJSON.Valid {
		_ = json.Unmarshal([]byte(queryJSON.String), &entry.Request.Query)
	}
	if reqHeadersJSON.Valid {
		_ = json.Unmarshal([]byte(reqHeadersJSON.String), &entry.Request.Headers)
	}
	if reqBodyJSON.Valid && reqBodyJSON.String != "null" && reqBodyJSON.String != "" {
		_ = json.Unmarshal([]byte(reqBodyJSON.String), &entry.Request.Body)
	}
	if respHeadersJSON.Valid {
		_ = json.Unmarshal([]byte(respHeadersJSON.String), &entry.Response.Headers)
	}
	if respBodyJSON.Valid && respBodyJSON.String != "null" && respBodyJSON.String != "" {
		_ = json.Unmarshal([]byte(respBodyJSON.String), &entry.Response.Body)
	}

	return &entry, nil
}

func scanEntries(rows *sql.Rows) ([]*recordmodel.RecordedEntry, error) {
	defer rows.Close()
	var out []*recordmodel.RecordedEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

var _ Store = (*SQLiteStore)(nil)
