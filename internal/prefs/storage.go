// Package prefs holds the two pieces of cross-cutting UI state, the active
// locale and the active theme, and persists explicit user choices.
//
// Both stores start from a deterministic state, resolve once against
// persisted storage and then change only through their setters. Subscribers
// receive change events on buffered channels; a slow subscriber misses
// events rather than blocking a setter.
package prefs

import (
	"context"
	"database/sql"
	"encoding/json"
	goerrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/conneroisu/folio/internal/errors"
	"github.com/conneroisu/folio/internal/logging"

	_ "modernc.org/sqlite"
)

// Storage is a string key/value store for persisted preferences.
// Reads never fail: an unreadable store behaves as an empty one.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// MemoryStorage keeps preferences for the lifetime of the process.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStorage) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// FileStorage persists preferences as a flat JSON object. Every Get re-reads
// the file so that edits made by another process are observed.
type FileStorage struct {
	path   string
	mu     sync.Mutex
	logger logging.Logger
}

// NewFileStorage returns a FileStorage backed by path. The file and its
// directory are created on the first Set.
func NewFileStorage(path string, logger logging.Logger) *FileStorage {
	if logger == nil {
		logger = logging.Nop()
	}
	return &FileStorage{path: path, logger: logger.WithComponent("prefs")}
}

// Path returns the backing file.
func (f *FileStorage) Path() string { return f.path }

func (f *FileStorage) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		f.logger.Warn(context.Background(), err, "ignoring unreadable preferences file", "path", f.path)
		return "", false
	}
	v, ok := values[key]
	return v, ok
}

func (f *FileStorage) Set(key, value string) error {
	return f.update(func(values map[string]string) { values[key] = value })
}

func (f *FileStorage) Delete(key string) error {
	return f.update(func(values map[string]string) { delete(values, key) })
}

func (f *FileStorage) update(mutate func(map[string]string)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		// A corrupt file is replaced rather than blocking every write.
		f.logger.Warn(context.Background(), err, "overwriting unreadable preferences file", "path", f.path)
		values = make(map[string]string)
	}
	mutate(values)

	if err := writeJSONFile(f.path, values, 0600); err != nil {
		return errors.NewIOError(errors.ErrCodeStorage, "failed to write preferences", err).
			WithLocation(f.path, 0)
	}
	return nil
}

func (f *FileStorage) load() (map[string]string, error) {
	values := make(map[string]string)

	data, err := os.ReadFile(f.path)
	if err != nil {
		if goerrors.Is(err, fs.ErrNotExist) {
			return values, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.path, err)
	}
	return values, nil
}

// writeJSONFile replaces path atomically with the indented JSON encoding of
// data.
func writeJSONFile(path string, data interface{}, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, jsonData, perm); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace file: %w", err)
	}
	return nil
}

// SQLiteStorage persists preferences in a single-table SQLite database.
type SQLiteStorage struct {
	db     *sql.DB
	path   string
	logger logging.Logger
}

const preferencesSchema = `CREATE TABLE IF NOT EXISTS preferences (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);`

// OpenSQLite opens (creating when needed) the database at path.
func OpenSQLite(path string, logger logging.Logger) (*SQLiteStorage, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeStorage, "failed to create preferences directory", err).
			WithLocation(path, 0)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeStorage, "failed to open preferences database", err).
			WithLocation(path, 0)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, errors.NewIOError(errors.ErrCodeStorage, "failed to enable WAL mode", err).
			WithLocation(path, 0)
	}
	if _, err := db.Exec(preferencesSchema); err != nil {
		_ = db.Close()
		return nil, errors.NewIOError(errors.ErrCodeStorage, "failed to create preferences table", err).
			WithLocation(path, 0)
	}

	return &SQLiteStorage{db: db, path: path, logger: logger.WithComponent("prefs")}, nil
}

// Path returns the database file.
func (s *SQLiteStorage) Path() string { return s.path }

func (s *SQLiteStorage) Get(key string) (string, bool) {
	var value string
	err := s.db.QueryRow("SELECT value FROM preferences WHERE key = ?", key).Scan(&value)
	switch {
	case err == nil:
		return value, true
	case goerrors.Is(err, sql.ErrNoRows):
		return "", false
	default:
		s.logger.Warn(context.Background(), err, "failed to read preference", "key", key)
		return "", false
	}
}

func (s *SQLiteStorage) Set(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix())
	if err != nil {
		return errors.NewIOError(errors.ErrCodeStorage, "failed to write preference", err).
			WithContext("key", key)
	}
	return nil
}

func (s *SQLiteStorage) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM preferences WHERE key = ?", key); err != nil {
		return errors.NewIOError(errors.ErrCodeStorage, "failed to delete preference", err).
			WithContext("key", key)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
