package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is a synchronous key-value blob store backed by a single SQLite
// table. Values are JSON-serialized; writes are last-write-wins with no
// transactions or migrations. Logical keys used by the application:
//
//	users            global user list
//	userSession      current session pointer
//	userData_<id>    per-user discussion/group bundle
//	drafts           global drafts map
type Store struct {
	db *sql.DB

	mu        sync.Mutex
	flushes   map[int]func()
	nextFlush int
	done      chan struct{}
	once      sync.Once
}

const schema = `
CREATE TABLE IF NOT EXISTS blobs (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Open opens (creating if necessary) the blob database at dir/palabre.db.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dir, "palabre.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db, flushes: make(map[int]func()), done: make(chan struct{})}, nil
}

// Save serializes v and upserts it under key. Storage failures are logged
// and reported but callers are expected to swallow them: the design favors
// a usable UI over guaranteed durability.
func (s *Store) Save(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal blob", "key", key, "err", err)
		return fmt.Errorf("failed to marshal %q: %w", key, err)
	}

	_, err = s.db.Exec(
		`INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(data), time.Now(),
	)
	if err != nil {
		slog.Error("failed to save blob", "key", key, "err", err)
		return fmt.Errorf("failed to save %q: %w", key, err)
	}
	return nil
}

// Load deserializes the blob under key into dest. It returns false with a
// nil error when the key is absent, so callers can fall back to an empty
// default.
func (s *Store) Load(key string, dest any) (bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM blobs WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load %q: %w", key, err)
	}

	if err := json.Unmarshal([]byte(value), dest); err != nil {
		return false, fmt.Errorf("failed to parse %q: %w", key, err)
	}
	return true, nil
}

// Delete removes the blob under key, if present.
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM blobs WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

// RegisterFlush adds fn to the set of flush functions run by the periodic
// flusher and by Close, and returns a cancel func that removes it again.
// Owners of a bounded lifetime (a per-user conversation store) must call
// the cancel on teardown or their stale fn keeps re-saving forever. Flush
// functions re-save whole blobs as a net against missed explicit saves;
// they are not a delta retry.
func (s *Store) RegisterFlush(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextFlush
	s.nextFlush++
	s.flushes[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.flushes, id)
	}
}

// StartAutoFlush runs every registered flush function on the given interval
// until Close is called.
func (s *Store) StartAutoFlush(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Flush()
			case <-s.done:
				return
			}
		}
	}()
}

// Flush runs every registered flush function once.
func (s *Store) Flush() {
	s.mu.Lock()
	flushes := make([]func(), 0, len(s.flushes))
	for _, fn := range s.flushes {
		flushes = append(flushes, fn)
	}
	s.mu.Unlock()

	for _, fn := range flushes {
		fn()
	}
}

// Close flushes once more and closes the database.
func (s *Store) Close() error {
	s.once.Do(func() { close(s.done) })
	s.Flush()
	return s.db.Close()
}
