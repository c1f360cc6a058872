package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

const cacheSchema = `CREATE TABLE IF NOT EXISTS cache_kv (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at INTEGER NOT NULL DEFAULT 0
)`

// CreateInMemoryDB opens a private SQLite database closed with the test.
// The pool is pinned to one connection since each :memory: connection is
// its own database.
func CreateInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// CreateCacheDB returns an in-memory database whose cache_kv table already
// holds entries.
func CreateCacheDB(t *testing.T, entries map[string]string) *sql.DB {
	t.Helper()
	db := CreateInMemoryDB(t)
	if _, err := db.Exec(cacheSchema); err != nil {
		t.Fatalf("create cache_kv: %v", err)
	}

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	for k, v := range entries {
		if _, err := tx.Exec(`INSERT INTO cache_kv (key, value) VALUES (?, ?)`, k, v); err != nil {
			_ = tx.Rollback()
			t.Fatalf("seed %s: %v", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return db
}
