// Package server implements the remote session service: opaque session
// blobs keyed by id, plus forwarding of scoring calls to an upstream
// scorer.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned by RecordStore.Load for unknown ids
var ErrNotFound = errors.New("session not found")

// Record is a stored session blob
type Record struct {
	SessionID string          `json:"session_id"`
	Data      json.RawMessage `json:"data"`
	Summary   string          `json:"summary"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TextPair is one scored (query, text) pair
type TextPair struct {
	SessionID string    `json:"session_id"`
	Text1     string    `json:"text1"`
	Text2     string    `json:"text2"`
	CreatedAt time.Time `json:"created_at"`
}

// RecordStore persists session blobs and scored pairs
type RecordStore interface {
	Save(ctx context.Context, id string, data json.RawMessage, summary string) error
	Load(ctx context.Context, id string) (*Record, error)
	AddPair(ctx context.Context, pair TextPair) error
	Pairs(ctx context.Context, id string) ([]TextPair, error)
	Ping(ctx context.Context) error
	Close() error
}

// MemoryRecordStore keeps everything in process memory
type MemoryRecordStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	pairs   map[string][]TextPair
	now     func() time.Time
}

// NewMemoryRecordStore creates an empty store
func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{
		records: make(map[string]*Record),
		pairs:   make(map[string][]TextPair),
		now:     time.Now,
	}
}

func (m *MemoryRecordStore) Save(ctx context.Context, id string, data json.RawMessage, summary string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	rec, ok := m.records[id]
	if !ok {
		rec = &Record{SessionID: id, CreatedAt: now}
		m.records[id] = rec
	}
	rec.Data = append(json.RawMessage(nil), data...)
	rec.Summary = summary
	rec.UpdatedAt = now
	return nil
}

func (m *MemoryRecordStore) Load(ctx context.Context, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *rec
	return &out, nil
}

func (m *MemoryRecordStore) AddPair(ctx context.Context, pair TextPair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pair.CreatedAt.IsZero() {
		pair.CreatedAt = m.now()
	}
	m.pairs[pair.SessionID] = append(m.pairs[pair.SessionID], pair)
	return nil
}

func (m *MemoryRecordStore) Pairs(ctx context.Context, id string) ([]TextPair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]TextPair(nil), m.pairs[id]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryRecordStore) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryRecordStore) Close() error {
	return nil
}
