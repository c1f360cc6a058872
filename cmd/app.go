package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmsie/aeo/internal"
)

// app is the client-side object graph every session command works on
type app struct {
	store        internal.KVStore
	cache        *internal.LocalCache
	remote       *internal.RemoteService
	editor       *internal.Editor
	location     *internal.Location
	lifecycle    *internal.Lifecycle
	orchestrator *internal.Orchestrator
}

// openApp builds the graph from c. observer may be nil.
func openApp(c internal.Config, observer internal.Observer) (*app, error) {
	store, err := c.OpenCache()
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	if observer == nil {
		observer = internal.LogObserver{}
	}

	cache := internal.NewLocalCache(store)
	location, err := internal.LoadLocation(cache)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to load location: %w", err)
	}

	remote := internal.NewRemoteService(internal.NewClient(c.ServerURL, internal.WithMaxAttempts(c.MaxAttempts)))
	editor := internal.NewEditor()
	lifecycle := internal.NewLifecycle(remote, cache, editor, location, observer)
	orchestrator := internal.NewOrchestrator(c.Orchestrator(), remote, cache, editor, lifecycle, observer)

	return &app{
		store:        store,
		cache:        cache,
		remote:       remote,
		editor:       editor,
		location:     location,
		lifecycle:    lifecycle,
		orchestrator: orchestrator,
	}, nil
}

// initialize resumes or creates the active session behind a spinner
func (a *app) initialize(ctx context.Context) error {
	return internal.ShowProgress(ctx, "Connecting to session service", func() error {
		return a.lifecycle.Initialize(ctx)
	})
}

// Close drains background saves, then closes the cache
func (a *app) Close() {
	a.orchestrator.Close()
	if err := a.store.Close(); err != nil {
		internal.LogWarn("Failed to close cache: %v", err)
	}
}

// loadFile replaces the editor text with the contents of path. HTML files
// are sanitized down to diff markers and loaded as markup.
func loadFile(editor *internal.Editor, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		editor.SetMarkup(internal.SanitizeMarkup(string(data)))
	default:
		editor.SetText(string(data))
	}
	return nil
}
