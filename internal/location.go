package internal

import (
	"fmt"
	"net/url"
	"sync"
)

const sessionParam = "session_id"

// Location carries the active session identifier the way a page URL does:
// as a session_id query parameter. Replace rewrites it in place; there is
// no history to go back to.
type Location struct {
	mu    sync.Mutex
	url   *url.URL
	cache *LocalCache
}

// NewLocation parses raw; an empty raw starts from "aeo:/"
func NewLocation(raw string) (*Location, error) {
	if raw == "" {
		raw = "aeo:/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid location %q: %w", raw, err)
	}
	return &Location{url: u}, nil
}

// LoadLocation restores the location persisted in cache
func LoadLocation(cache *LocalCache) (*Location, error) {
	raw, err := cache.Location()
	if err != nil {
		return nil, err
	}
	loc, err := NewLocation(raw)
	if err != nil {
		LogWarn("Ignoring stored location: %v", err)
		loc, _ = NewLocation("")
	}
	loc.cache = cache
	return loc, nil
}

// SessionID returns the session identifier, "" if none
func (l *Location) SessionID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.url.Query().Get(sessionParam)
}

// Replace sets the session identifier and returns the new location string
func (l *Location) Replace(id string) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	q := l.url.Query()
	if id == "" {
		q.Del(sessionParam)
	} else {
		q.Set(sessionParam, id)
	}
	l.url.RawQuery = q.Encode()
	raw := l.url.String()
	if l.cache != nil {
		if err := l.cache.SetLocation(raw); err != nil {
			LogWarn("Failed to persist location: %v", err)
		}
	}
	return raw
}

// String returns the location as a URL string
func (l *Location) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.url.String()
}
