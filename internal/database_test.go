package internal

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/jmsie/aeo/testutil"
)

func TestOpenDatabase(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr bool
	}{
		{
			name: "new file in missing directory",
			path: func(t *testing.T) string {
				return filepath.Join(testutil.CreateTempDir(t), "nested", "cache.db")
			},
		},
		{
			name: "in memory",
			path: func(t *testing.T) string { return ":memory:" },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := OpenDatabase(tt.path(t))
			if (err != nil) != tt.wantErr {
				t.Fatalf("OpenDatabase() error = %v, wantErr %v", err, tt.wantErr)
			}
			if db != nil {
				db.Close()
			}
		})
	}
}

func TestSQLiteStore_CRUD(t *testing.T) {
	store, err := NewSQLiteStoreWithDB(testutil.CreateInMemoryDB(t))
	if err != nil {
		t.Fatalf("NewSQLiteStoreWithDB() error = %v", err)
	}

	if _, ok, err := store.Get("missing"); ok || err != nil {
		t.Errorf("Get(missing) = ok %v, err %v", ok, err)
	}
	if err := store.Set("k", "v1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Set("k", "v2"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	if v, ok, _ := store.Get("k"); !ok || v != "v2" {
		t.Errorf("Get(k) = %q, %v; want v2", v, ok)
	}
	_ = store.Set("a", "1")
	keys, err := store.Keys()
	if err != nil || len(keys) != 2 || keys[0] != "a" || keys[1] != "k" {
		t.Errorf("Keys() = %v, %v", keys, err)
	}
	if err := store.Delete("k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete("k"); err != nil {
		t.Fatalf("Delete() of missing key error = %v", err)
	}
	if _, ok, _ := store.Get("k"); ok {
		t.Error("Get(k) after Delete() should miss")
	}
}

func TestSQLiteStore_ExistingTable(t *testing.T) {
	db := testutil.CreateCacheDB(t, map[string]string{textKey: "from before"})
	store, err := NewSQLiteStoreWithDB(db)
	if err != nil {
		t.Fatalf("NewSQLiteStoreWithDB() error = %v", err)
	}
	text, err := NewLocalCache(store).Text()
	if err != nil || text != "from before" {
		t.Errorf("Text() = %q, %v", text, err)
	}
}

func TestSQLiteStore_ClosedDatabase(t *testing.T) {
	db := testutil.CreateInMemoryDB(t)
	store, err := NewSQLiteStoreWithDB(db)
	if err != nil {
		t.Fatalf("NewSQLiteStoreWithDB() error = %v", err)
	}
	store.Close()

	err = store.Set("k", "v")
	var se *StorageError
	if !errors.As(err, &se) || se.Op != "set" || se.Key != "k" {
		t.Errorf("Set() on closed db error = %v, want *StorageError", err)
	}
}
