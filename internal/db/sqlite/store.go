// Package sqlite implements db.Store on a single SQLite file via modernc.org/sqlite.
//
// Hashes are stored as one row per (key, field); HSET is a per-field UPSERT so
// writing one field never touches the others. KV entries live in their own table
// with an optional expiry timestamp.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kailas-cloud/feedrank/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS fields (
	key   TEXT NOT NULL,
	field TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (key, field)
);

CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER
);
`

// Store implements db.Store over database/sql.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens or creates the database at path and applies the schema.
// Parent directories are created if they do not exist.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if path != MemoryPath {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	dsn := path
	if path != MemoryPath {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	}
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; an in-memory database also needs a single shared connection.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: conn, now: time.Now}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() {
	_ = s.db.Close()
}

// WaitForReady polls Ping until the database responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	return db.WaitForReady(ctx, s, timeout)
}

// HSet upserts the given fields of key in one transaction.
func (s *Store) HSet(ctx context.Context, key string, fields map[string]string) error {
	return s.HSetMulti(ctx, []db.HashSetItem{{Key: key, Fields: fields}})
}

// HSetExisting upserts fields only while key has at least one row. Each
// statement checks existence itself, inside one transaction.
func (s *Store) HSetExisting(ctx context.Context, key string, fields map[string]string) (bool, error) {
	if len(fields) == 0 {
		return s.Exists(ctx, key)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, &db.Error{Op: db.OpHSet, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO fields (key, field, value)
		 SELECT ?, ?, ? WHERE EXISTS (SELECT 1 FROM fields WHERE key = ?)
		 ON CONFLICT (key, field) DO UPDATE SET value = excluded.value`)
	if err != nil {
		return false, &db.Error{Op: db.OpHSet, Err: err}
	}
	defer func() { _ = stmt.Close() }()

	for f, v := range fields {
		res, err := stmt.ExecContext(ctx, key, f, v, key)
		if err != nil {
			return false, &db.Error{Op: db.OpHSet, Err: fmt.Errorf("key %s: %w", key, err)}
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return false, nil
		}
	}
	if err := tx.Commit(); err != nil {
		return false, &db.Error{Op: db.OpHSet, Err: err}
	}
	return true, nil
}

// HSetMulti upserts several hashes in one transaction.
func (s *Store) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	n := 0
	for _, it := range items {
		n += len(it.Fields)
	}
	if n == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &db.Error{Op: db.OpHSet, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO fields (key, field, value) VALUES (?, ?, ?)
		 ON CONFLICT (key, field) DO UPDATE SET value = excluded.value`)
	if err != nil {
		return &db.Error{Op: db.OpHSet, Err: err}
	}
	defer func() { _ = stmt.Close() }()

	for _, it := range items {
		for f, v := range it.Fields {
			if _, err := stmt.ExecContext(ctx, it.Key, f, v); err != nil {
				return &db.Error{Op: db.OpHSet, Err: fmt.Errorf("key %s: %w", it.Key, err)}
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return &db.Error{Op: db.OpHSet, Err: err}
	}
	return nil
}

// HGetAll returns all fields of key, empty when the key does not exist.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT field, value FROM fields WHERE key = ?`, key)
	if err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	defer func() { _ = rows.Close() }()

	m := make(map[string]string)
	for rows.Next() {
		var f, v string
		if err := rows.Scan(&f, &v); err != nil {
			return nil, &db.Error{Op: db.OpHGetAll, Err: err}
		}
		m[f] = v
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	return m, nil
}

// Del removes a hash or KV entry.
func (s *Store) Del(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM fields WHERE key = ?`, key); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// Exists reports whether key holds a hash or a live KV entry.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM fields WHERE key = ?)
		      + (SELECT COUNT(*) FROM kv WHERE key = ? AND (expires_at IS NULL OR expires_at > ?))`,
		key, key, s.now().UnixMilli(),
	).Scan(&n)
	if err != nil {
		return false, &db.Error{Op: db.OpExists, Err: err}
	}
	return n > 0, nil
}

// Scan lists hash keys matching a glob pattern ("*" and "?"), ordered by key.
func (s *Store) Scan(ctx context.Context, pattern string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT key FROM fields WHERE key GLOB ? ORDER BY key`, pattern)
	if err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: err}
	}
	return keys, nil
}

// Get returns a live KV value or db.ErrKeyNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		value   []byte
		expires sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `SELECT value, expires_at FROM kv WHERE key = ?`, key).
		Scan(&value, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	if expires.Valid && expires.Int64 <= s.now().UnixMilli() {
		return nil, db.ErrKeyNotFound
	}
	return value, nil
}

// Set stores a KV value without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.set(ctx, key, value, sql.NullInt64{})
}

// SetWithTTL stores a KV value that expires after ttl. A non-positive ttl never expires.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return s.Set(ctx, key, value)
	}
	return s.set(ctx, key, value, sql.NullInt64{Int64: s.now().Add(ttl).UnixMilli(), Valid: true})
}

func (s *Store) set(ctx context.Context, key string, value []byte, expires sql.NullInt64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expires)
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}
