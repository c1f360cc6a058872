package internal

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmsie/aeo/testutil"
)

// stepClock returns a clock advancing one minute per call
func stepClock(start time.Time) func() time.Time {
	n := 0
	return func() time.Time {
		n++
		return start.Add(time.Duration(n) * time.Minute)
	}
}

func newTestCache(t *testing.T) *LocalCache {
	t.Helper()
	c := NewLocalCache(NewMemoryStore())
	c.SetClock(stepClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	return c
}

func TestLocalCache_Text(t *testing.T) {
	c := newTestCache(t)

	text, err := c.Text()
	if err != nil || text != "" {
		t.Fatalf("Text() on empty cache = %q, %v", text, err)
	}
	if err := c.SetText("snapshot"); err != nil {
		t.Fatalf("SetText() error = %v", err)
	}
	if text, _ := c.Text(); text != "snapshot" {
		t.Errorf("Text() = %q, want %q", text, "snapshot")
	}
	if err := c.ClearText(); err != nil {
		t.Fatalf("ClearText() error = %v", err)
	}
	if text, _ := c.Text(); text != "" {
		t.Errorf("Text() after ClearText() = %q", text)
	}
}

func TestLocalCache_UpsertKeepsMostRecent(t *testing.T) {
	c := newTestCache(t)

	for i := 1; i <= 25; i++ {
		if err := c.UpsertSession(fmt.Sprintf("s%d", i), fmt.Sprintf("summary %d", i)); err != nil {
			t.Fatalf("UpsertSession() error = %v", err)
		}
	}

	sessions, err := c.Sessions()
	if err != nil {
		t.Fatalf("Sessions() error = %v", err)
	}
	if len(sessions) != MaxCachedSessions {
		t.Fatalf("Sessions() len = %d, want %d", len(sessions), MaxCachedSessions)
	}
	for i, s := range sessions {
		want := fmt.Sprintf("s%d", 25-i)
		if s.SessionID != want {
			t.Errorf("sessions[%d] = %s, want %s", i, s.SessionID, want)
		}
	}
}

func TestLocalCache_UpsertIsIdempotentPerID(t *testing.T) {
	c := newTestCache(t)

	_ = c.UpsertSession("a", "first")
	_ = c.UpsertSession("b", "second")
	before, _ := c.Sessions()
	createdA := before[1].CreatedAt

	if err := c.UpsertSession("a", "first, edited"); err != nil {
		t.Fatalf("UpsertSession() error = %v", err)
	}
	sessions, _ := c.Sessions()
	if len(sessions) != 2 {
		t.Fatalf("Sessions() len = %d, want 2", len(sessions))
	}
	if sessions[0].SessionID != "a" || sessions[0].Summary != "first, edited" {
		t.Errorf("sessions[0] = %+v, want updated a first", sessions[0])
	}
	if !sessions[0].CreatedAt.Equal(createdA) {
		t.Errorf("CreatedAt changed from %v to %v", createdA, sessions[0].CreatedAt)
	}
	if !sessions[0].LastAccessed.After(sessions[1].LastAccessed) {
		t.Error("sessions should be ordered by LastAccessed descending")
	}
}

func TestLocalCache_RemoveSession(t *testing.T) {
	c := newTestCache(t)
	_ = c.UpsertSession("a", "A")
	_ = c.UpsertSession("b", "B")

	if err := c.RemoveSession("a"); err != nil {
		t.Fatalf("RemoveSession() error = %v", err)
	}
	if err := c.RemoveSession("a"); err != nil {
		t.Fatalf("second RemoveSession() error = %v", err)
	}
	if err := c.RemoveSession("unknown"); err != nil {
		t.Fatalf("RemoveSession(unknown) error = %v", err)
	}
	sessions, _ := c.Sessions()
	if len(sessions) != 1 || sessions[0].SessionID != "b" {
		t.Errorf("Sessions() = %+v, want only b", sessions)
	}
}

func TestLocalCache_CorruptSessionList(t *testing.T) {
	store := NewMemoryStore()
	_ = store.Set(sessionsKey, "{not json")
	c := NewLocalCache(store)

	sessions, err := c.Sessions()
	if err != nil || len(sessions) != 0 {
		t.Fatalf("Sessions() = %v, %v; want empty list", sessions, err)
	}
	if err := c.UpsertSession("a", "A"); err != nil {
		t.Fatalf("UpsertSession() over corrupt list error = %v", err)
	}
	if sessions, _ := c.Sessions(); len(sessions) != 1 {
		t.Errorf("Sessions() len = %d, want 1", len(sessions))
	}
}

func TestLocalCache_Backends(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	sqlite, err := NewSQLiteStore(filepath.Join(dir, "cache.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer sqlite.Close()

	backends := map[string]KVStore{
		"memory": NewMemoryStore(),
		"file":   NewFileStore(filepath.Join(dir, "cache.yaml")),
		"sqlite": sqlite,
	}
	for name, store := range backends {
		t.Run(name, func(t *testing.T) {
			c := NewLocalCache(store)
			c.SetClock(stepClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))

			if err := c.SetText("héllo\nworld"); err != nil {
				t.Fatalf("SetText() error = %v", err)
			}
			_ = c.UpsertSession("x", "X")
			_ = c.UpsertSession("y", "Y")

			// A second cache over the same store sees the same state.
			c2 := NewLocalCache(store)
			if text, _ := c2.Text(); text != "héllo\nworld" {
				t.Errorf("Text() = %q", text)
			}
			sessions, err := c2.Sessions()
			if err != nil || len(sessions) != 2 || sessions[0].SessionID != "y" {
				t.Errorf("Sessions() = %+v, %v", sessions, err)
			}
		})
	}
}
