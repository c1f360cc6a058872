package internal

import (
	"strings"
	"sync"
	"testing"
)

// recordingObserver keeps every notification for assertions
type recordingObserver struct {
	mu         sync.Mutex
	advisories []Advisory
	scores     [][]SlotResult
	documents  []Document
	sessions   [][]SessionSummary
}

func (r *recordingObserver) DocumentChanged(doc Document, markup string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents = append(r.documents, doc)
}

func (r *recordingObserver) ScoresUpdated(results []SlotResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scores = append(r.scores, results)
}

func (r *recordingObserver) SessionsChanged(sessions []SessionSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, sessions)
}

func (r *recordingObserver) Advise(a Advisory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advisories = append(r.advisories, a)
}

func (r *recordingObserver) advised(level AdvisoryLevel, substr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.advisories {
		if a.Level == level && strings.Contains(strings.ToLower(a.Message), strings.ToLower(substr)) {
			return true
		}
	}
	return false
}

func TestAdvisoryLevel_String(t *testing.T) {
	tests := map[AdvisoryLevel]string{
		AdvisoryInfo:    "info",
		AdvisoryWarning: "warning",
		AdvisoryDanger:  "danger",
	}
	for level, want := range tests {
		if got := level.String(); got != want {
			t.Errorf("AdvisoryLevel(%d).String() = %q, want %q", level, got, want)
		}
	}
}
