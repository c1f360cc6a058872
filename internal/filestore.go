package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// KVStore is the durable key-value storage under the local cache
type KVStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}

// fileDocument is the on-disk layout of a FileStore
type fileDocument struct {
	Version   string            `yaml:"version"`
	UpdatedAt time.Time         `yaml:"updated_at"`
	Entries   map[string]string `yaml:"entries"`
}

// FileStore is a KVStore persisted as one YAML document
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store at path; the file is created on first write
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path
func (fs *FileStore) Path() string {
	return fs.path
}

func (fs *FileStore) load() (*fileDocument, error) {
	data, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return &fileDocument{Version: "1.0", Entries: map[string]string{}}, nil
	}
	if err != nil {
		return nil, err
	}
	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache file: %w", err)
	}
	if doc.Entries == nil {
		doc.Entries = map[string]string{}
	}
	return &doc, nil
}

func (fs *FileStore) save(doc *fileDocument) error {
	if err := os.MkdirAll(filepath.Dir(fs.path), 0755); err != nil {
		return err
	}
	doc.UpdatedAt = time.Now()
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal cache file: %w", err)
	}

	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, fs.path)
}

// Get returns the value stored under key
func (fs *FileStore) Get(key string) (string, bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	doc, err := fs.load()
	if err != nil {
		return "", false, &StorageError{Op: "get", Key: key, Err: err}
	}
	v, ok := doc.Entries[key]
	return v, ok, nil
}

// Set stores value under key
func (fs *FileStore) Set(key, value string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	doc, err := fs.load()
	if err != nil {
		return &StorageError{Op: "set", Key: key, Err: err}
	}
	doc.Entries[key] = value
	if err := fs.save(doc); err != nil {
		return &StorageError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// Delete removes key; a missing key is not an error
func (fs *FileStore) Delete(key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	doc, err := fs.load()
	if err != nil {
		return &StorageError{Op: "delete", Key: key, Err: err}
	}
	if _, ok := doc.Entries[key]; !ok {
		return nil
	}
	delete(doc.Entries, key)
	if err := fs.save(doc); err != nil {
		return &StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// Keys lists every stored key in order
func (fs *FileStore) Keys() ([]string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	doc, err := fs.load()
	if err != nil {
		return nil, &StorageError{Op: "get", Key: "*", Err: err}
	}
	keys := make([]string, 0, len(doc.Entries))
	for k := range doc.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op; every write is already on disk
func (fs *FileStore) Close() error {
	return nil
}

// MemoryStore is a process-local KVStore
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
