package internal

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

const (
	// MaxCachedSessions bounds the recent-sessions list
	MaxCachedSessions = 20

	textKey     = "aeo_mainText"
	sessionsKey = "aeo_sessions"
	locationKey = "aeo_location"
)

// LocalCache is the durable local copy of the edited text and of the
// recent-sessions list. Every mutation of the list re-sorts it by last
// access and truncates it to MaxCachedSessions.
type LocalCache struct {
	mu    sync.Mutex
	store KVStore
	now   func() time.Time
}

// NewLocalCache wraps store
func NewLocalCache(store KVStore) *LocalCache {
	return &LocalCache{store: store, now: time.Now}
}

// SetClock replaces the time source used for CreatedAt/LastAccessed
func (c *LocalCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Store returns the backing KVStore
func (c *LocalCache) Store() KVStore {
	return c.store
}

// Text returns the last synchronized plain-text snapshot ("" if none)
func (c *LocalCache) Text() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, _, err := c.store.Get(textKey)
	return v, err
}

// SetText replaces the snapshot
func (c *LocalCache) SetText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Set(textKey, text)
}

// ClearText drops the snapshot; used when a brand-new session starts
func (c *LocalCache) ClearText() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Delete(textKey)
}

// Sessions returns the recent sessions, most recently accessed first
func (c *LocalCache) Sessions() ([]SessionSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadSessions()
}

// UpsertSession records summary for id, updating LastAccessed in place when
// id is already known.
func (c *LocalCache) UpsertSession(id, summary string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sessions, err := c.loadSessions()
	if err != nil {
		return err
	}

	now := c.now()
	found := false
	for i := range sessions {
		if sessions[i].SessionID == id {
			sessions[i].Summary = summary
			sessions[i].LastAccessed = now
			found = true
			break
		}
	}
	if !found {
		sessions = append(sessions, SessionSummary{
			SessionID:    id,
			Summary:      summary,
			CreatedAt:    now,
			LastAccessed: now,
		})
	}
	return c.saveSessions(sessions)
}

// RemoveSession drops id from the list; unknown ids are ignored
func (c *LocalCache) RemoveSession(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sessions, err := c.loadSessions()
	if err != nil {
		return err
	}
	kept := sessions[:0]
	for _, s := range sessions {
		if s.SessionID != id {
			kept = append(kept, s)
		}
	}
	if len(kept) == len(sessions) {
		return nil
	}
	return c.saveSessions(kept)
}

// Location returns the persisted location URL ("" if none)
func (c *LocalCache) Location() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, _, err := c.store.Get(locationKey)
	return v, err
}

// SetLocation persists the location URL
func (c *LocalCache) SetLocation(raw string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Set(locationKey, raw)
}

func (c *LocalCache) loadSessions() ([]SessionSummary, error) {
	raw, ok, err := c.store.Get(sessionsKey)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return []SessionSummary{}, nil
	}
	var sessions []SessionSummary
	if err := json.Unmarshal([]byte(raw), &sessions); err != nil {
		// A corrupt list is dropped rather than blocking every session operation.
		LogWarn("Discarding unreadable session list: %v", err)
		return []SessionSummary{}, nil
	}
	return sessions, nil
}

func (c *LocalCache) saveSessions(sessions []SessionSummary) error {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].LastAccessed.After(sessions[j].LastAccessed)
	})
	if len(sessions) > MaxCachedSessions {
		sessions = sessions[:MaxCachedSessions]
	}
	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}
	return c.store.Set(sessionsKey, string(data))
}
