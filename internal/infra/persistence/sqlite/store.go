// Package sqlite provides a durable case-record repository that snapshots the
// in-memory state to a single SQLite table as JSON after every mutation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"anakcore/internal/blob"
	"anakcore/internal/infra/persistence/memory"
	"anakcore/pkg/domain"
)

var _ domain.Repository = (*Store)(nil)

const recordsBucket = "records"

// Store wraps the in-memory repository and persists its snapshot to SQLite.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (or creates) the database at path and hydrates the in-memory
// state from any existing snapshot. An empty path defaults to anakcore.db.
func NewStore(path string, blobs blob.Store) (*Store, error) {
	if path == "" {
		path = "anakcore.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(blobs), db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM state WHERE bucket = ?`, recordsBucket).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	var snapshot memory.Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	s.ImportState(snapshot)
	return nil
}

func (s *Store) persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(s.ExportState())
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if _, err := s.db.Exec(
		`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`,
		recordsBucket, data,
	); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

// Create stores the record in memory then snapshots to SQLite.
func (s *Store) Create(ctx context.Context, payload domain.Payload) (domain.CaseRecord, error) {
	record, err := s.Store.Create(ctx, payload)
	if err != nil {
		return record, err
	}
	return record, s.persist()
}

// Update applies the payload in memory then snapshots to SQLite.
func (s *Store) Update(ctx context.Context, id string, payload domain.Payload) (domain.CaseRecord, error) {
	record, err := s.Store.Update(ctx, id, payload)
	if err != nil {
		return record, err
	}
	return record, s.persist()
}

// UploadAttachment stores the file then snapshots the updated record state.
func (s *Store) UploadAttachment(ctx context.Context, id, field, filename string, r io.Reader) (domain.StoredAttachment, error) {
	stored, err := s.Store.UploadAttachment(ctx, id, field, filename, r)
	if err != nil {
		return stored, err
	}
	return stored, s.persist()
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
