package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// SQL drivers accepted by NewSQL.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

const kvSchemaSQL = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// SQL implements Provider on a single kv table.
type SQL struct {
	db     *sqlx.DB
	driver string

	mu sync.Mutex
}

// NewSQL opens the database and ensures the kv table exists.
func NewSQL(driver, dsn string) (*SQL, error) {
	switch driver {
	case DriverSQLite:
		dsn = withParams(dsn, sqliteParams)
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("storage: unsupported sql driver %q", driver)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// One writer at a time; the provider lock already serializes us.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(kvSchemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: apply schema: %w", err)
	}
	return &SQL{db: db, driver: driver}, nil
}

// sqliteParams make every transaction take the write lock up front, so
// read-modify-writes from other processes queue on busy_timeout instead of
// interleaving.
const sqliteParams = "_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate"

// withParams appends query parameters to a DSN that may already carry some.
func withParams(dsn, params string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + params
	}
	return dsn + "?" + params
}

// lockKeys serializes transactions touching keys across connections and
// processes. SQLite already does this through _txlock=immediate.
func (s *SQL) lockKeys(tx *sqlx.Tx, keys ...string) error {
	if s.driver != DriverPostgres {
		return nil
	}
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	for _, k := range sorted {
		if _, err := tx.Exec(`SELECT pg_advisory_xact_lock(hashtext($1))`, k); err != nil {
			return fmt.Errorf("storage: lock %s: %w", k, err)
		}
	}
	return nil
}

// Get returns the value stored under key.
func (s *SQL) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return get(s.db, key)
}

// Set upserts the value for key.
func (s *SQL) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return set(s.db, key, value)
}

// Delete removes keys.
func (s *SQL) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		if _, err := s.db.Exec(s.db.Rebind(`DELETE FROM kv WHERE key = ?`), k); err != nil {
			return fmt.Errorf("storage: delete %s: %w", k, err)
		}
	}
	return nil
}

// Update performs a read-modify-write inside one transaction.
func (s *SQL) Update(key string, fn UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("storage: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := s.lockKeys(tx, key); err != nil {
		return err
	}
	current, _, err := get(tx, key)
	if err != nil {
		return err
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	if err := set(tx, key, next); err != nil {
		return err
	}
	return tx.Commit()
}

// Take selects and deletes keys inside one transaction.
func (s *SQL) Take(keys ...string) (map[string][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("storage: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := s.lockKeys(tx, keys...); err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		v, ok, err := get(tx, k)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out[k] = v
		if _, err := tx.Exec(tx.Rebind(`DELETE FROM kv WHERE key = ?`), k); err != nil {
			return nil, fmt.Errorf("storage: take %s: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("storage: commit take: %w", err)
	}
	return out, nil
}

// Close closes the database.
func (s *SQL) Close() error {
	return s.db.Close()
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	Get(dest any, query string, args ...any) error
	Exec(query string, args ...any) (sql.Result, error)
	Rebind(query string) string
}

func get(q queryer, key string) ([]byte, bool, error) {
	var value string
	err := q.Get(&value, q.Rebind(`SELECT value FROM kv WHERE key = ?`), key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage: read %s: %w", key, err)
	}
	return []byte(value), true, nil
}

func set(q queryer, key string, value []byte) error {
	_, err := q.Exec(q.Rebind(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			updated_at = excluded.updated_at
	`), key, string(value))
	if err != nil {
		return fmt.Errorf("storage: write %s: %w", key, err)
	}
	return nil
}
