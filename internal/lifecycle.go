package internal

import (
	"context"
	"fmt"
	"sync"
)

// SessionState is the lifecycle position of the active session
type SessionState int

const (
	StateUninitialized SessionState = iota
	StateCreating
	StateResuming
	StateReady
)

func (s SessionState) String() string {
	switch s {
	case StateCreating:
		return "creating"
	case StateResuming:
		return "resuming"
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// Lifecycle decides which copy of a session is authoritative when a
// session is created, resumed, switched or deleted. The remote blob wins
// over the local cache whenever it can be fetched.
type Lifecycle struct {
	opMu sync.Mutex // serialises Initialize/Switch/Delete

	mu      sync.Mutex
	state   SessionState
	deleted map[string]bool

	remote   *RemoteService
	cache    *LocalCache
	editor   *Editor
	location *Location
	observer Observer
}

// NewLifecycle wires the lifecycle to its collaborators; a nil observer
// discards notifications.
func NewLifecycle(remote *RemoteService, cache *LocalCache, editor *Editor, location *Location, observer Observer) *Lifecycle {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Lifecycle{
		deleted:  make(map[string]bool),
		remote:   remote,
		cache:    cache,
		editor:   editor,
		location: location,
		observer: observer,
	}
}

// State returns the current lifecycle state
func (l *Lifecycle) State() SessionState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// SessionID returns the active session identifier
func (l *Lifecycle) SessionID() string {
	return l.location.SessionID()
}

// IsDeleted reports whether id was deleted in this process
func (l *Lifecycle) IsDeleted(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.deleted[id]
}

func (l *Lifecycle) setState(s SessionState) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
	LogDebug("Session state: %s", s)
}

// Initialize creates a session when the location carries none and resumes
// the carried one otherwise.
func (l *Lifecycle) Initialize(ctx context.Context) error {
	l.opMu.Lock()
	defer l.opMu.Unlock()

	id := l.location.SessionID()
	if id != "" && l.IsDeleted(id) {
		LogDebug("Location carries deleted session %s, starting over", id)
		l.location.Replace("")
		id = ""
	}
	if id != "" {
		return l.resume(ctx, id)
	}
	return l.create(ctx)
}

// Switch makes id the active session. The editor is cleared before the
// fetch; edits not yet persisted are lost.
func (l *Lifecycle) Switch(ctx context.Context, id string) error {
	if id == "" {
		return &ValidationError{Field: "session_id", Message: "session id is required"}
	}
	if l.IsDeleted(id) {
		return fmt.Errorf("cannot open %s: %w", id, ErrSessionDeleted)
	}

	l.opMu.Lock()
	defer l.opMu.Unlock()

	l.editor.Reset()
	l.location.Replace(id)
	return l.resume(ctx, id)
}

// Delete forgets id locally. Deleting the active session mints a
// replacement so the surface never points at a dead id.
func (l *Lifecycle) Delete(ctx context.Context, id string) error {
	l.opMu.Lock()
	defer l.opMu.Unlock()

	if err := l.cache.RemoveSession(id); err != nil {
		return fmt.Errorf("failed to remove session %s: %w", id, err)
	}
	l.mu.Lock()
	l.deleted[id] = true
	l.mu.Unlock()
	l.notifySessions()

	if id != l.location.SessionID() {
		return nil
	}
	LogInfo("Active session %s deleted, creating a new one", id)
	l.location.Replace("")
	l.startEmpty()
	l.setState(StateUninitialized)
	return l.create(ctx)
}

// MirrorSummary records a summary returned by the service in the local
// session list. Deleted ids are ignored so a late save cannot bring an
// entry back.
func (l *Lifecycle) MirrorSummary(id, summary string) {
	if id == "" || summary == "" || l.IsDeleted(id) {
		return
	}
	if err := l.cache.UpsertSession(id, summary); err != nil {
		LogWarn("Failed to record session summary: %v", err)
		return
	}
	l.notifySessions()
}

func (l *Lifecycle) create(ctx context.Context) error {
	l.setState(StateCreating)

	id, err := l.remote.NewSession(ctx)
	if err != nil {
		l.setState(StateUninitialized)
		l.observer.Advise(Advisory{
			Level:   AdvisoryWarning,
			Message: fmt.Sprintf("Could not create a session: %v", err),
			Err:     err,
		})
		return fmt.Errorf("failed to create session: %w", err)
	}

	l.location.Replace(id)
	l.startEmpty()
	l.setState(StateReady)
	LogInfo("Created session %s", id)
	return nil
}

func (l *Lifecycle) resume(ctx context.Context, id string) error {
	l.setState(StateResuming)

	payload, err := l.remote.SessionData(ctx, id)
	if err != nil {
		l.observer.Advise(Advisory{
			Level:   AdvisoryWarning,
			Message: fmt.Sprintf("Could not load session %s, using local copy: %v", id, err),
			Err:     err,
		})
		if l.editor.IsEmpty() {
			text, cerr := l.cache.Text()
			if cerr != nil {
				LogWarn("Failed to read cached text: %v", cerr)
			}
			l.editor.SetText(text)
		}
		l.setState(StateReady)
		l.observer.DocumentChanged(l.editor.Document(), l.editor.Markup())
		return nil
	}

	if payload.Data.IsEmpty() {
		l.startEmpty()
	} else {
		l.editor.Load(*payload.Data)
		if err := l.cache.SetText(l.editor.PlainText()); err != nil {
			LogWarn("Failed to cache session text: %v", err)
		}
		l.observer.DocumentChanged(l.editor.Document(), l.editor.Markup())
	}
	l.setState(StateReady)
	LogDebug("Resumed session %s", id)

	l.MirrorSummary(id, payload.Summary)
	return nil
}

// startEmpty resets the editor and the cached snapshot for a fresh document
func (l *Lifecycle) startEmpty() {
	l.editor.Reset()
	if err := l.cache.ClearText(); err != nil {
		LogWarn("Failed to clear cached text: %v", err)
	}
	l.observer.DocumentChanged(l.editor.Document(), l.editor.Markup())
}

func (l *Lifecycle) notifySessions() {
	sessions, err := l.cache.Sessions()
	if err != nil {
		LogWarn("Failed to read session list: %v", err)
		return
	}
	l.observer.SessionsChanged(sessions)
}
