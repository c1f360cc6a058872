package internal

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmsie/aeo/testutil"
)

func TestFileStore(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	path := filepath.Join(dir, "sub", "cache.yaml")
	store := NewFileStore(path)

	if _, ok, err := store.Get("k"); ok || err != nil {
		t.Fatalf("Get() before any write = ok %v, err %v", ok, err)
	}
	if err := store.Set("k", "multi\nline: value"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should be renamed away")
	}

	reopened := NewFileStore(path)
	if v, ok, err := reopened.Get("k"); !ok || err != nil || v != "multi\nline: value" {
		t.Errorf("Get() after reopen = %q, %v, %v", v, ok, err)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "entries:") {
		t.Errorf("cache file layout unexpected: %s", data)
	}

	if err := reopened.Delete("k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	keys, _ := store.Keys()
	if len(keys) != 0 {
		t.Errorf("Keys() after delete = %v", keys)
	}
}

func TestFileStore_Corrupt(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	path := testutil.WriteFile(t, dir, "cache.yaml", "entries: [unclosed")

	_, _, err := NewFileStore(path).Get("k")
	var se *StorageError
	if !errors.As(err, &se) || se.Op != "get" {
		t.Errorf("Get() on corrupt file error = %v, want *StorageError", err)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	_ = store.Set("k", "v")
	if v, ok, _ := store.Get("k"); !ok || v != "v" {
		t.Errorf("Get() = %q, %v", v, ok)
	}
	_ = store.Delete("k")
	if _, ok, _ := store.Get("k"); ok {
		t.Error("Get() after Delete() should miss")
	}
}
