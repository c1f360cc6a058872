package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// FakeRemote is an httptest server speaking the session service contract.
// Statuses scripted per endpoint are answered, in order, before the
// endpoint falls back to its normal behaviour.
type FakeRemote struct {
	*httptest.Server

	mu       sync.Mutex
	nextID   int
	sessions map[string]json.RawMessage
	scripts  map[string][]int
	calls    map[string]int
	forms    []map[string]string

	Score      *float64
	Intents    []string
	SummaryFor func(id string, data json.RawMessage) string
}

// NewFakeRemote starts a fake service closed when the test ends
func NewFakeRemote(t *testing.T) *FakeRemote {
	t.Helper()
	f := &FakeRemote{
		sessions: make(map[string]json.RawMessage),
		scripts:  make(map[string][]int),
		calls:    make(map[string]int),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

// Script queues statuses to answer on endpoint before normal handling
func (f *FakeRemote) Script(endpoint string, statuses ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts[endpoint] = append(f.scripts[endpoint], statuses...)
}

// SetScore sets the similarity score answered; nil answers an error payload
func (f *FakeRemote) SetScore(score *float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Score = score
}

// PutSession stores a blob as if it had been saved
func (f *FakeRemote) PutSession(id, data string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[id] = json.RawMessage(data)
}

// Session returns the stored blob for id
func (f *FakeRemote) Session(id string) (json.RawMessage, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.sessions[id]
	return data, ok
}

// Calls returns how many requests reached endpoint
func (f *FakeRemote) Calls(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[endpoint]
}

// TotalCalls returns how many requests reached the server
func (f *FakeRemote) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// Forms returns the similarity form bodies received
func (f *FakeRemote) Forms() []map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]string(nil), f.forms...)
}

func (f *FakeRemote) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls[r.URL.Path]++
	if queue := f.scripts[r.URL.Path]; len(queue) > 0 {
		status := queue[0]
		f.scripts[r.URL.Path] = queue[1:]
		f.mu.Unlock()
		w.WriteHeader(status)
		return
	}
	f.mu.Unlock()

	switch r.URL.Path {
	case "/session/new":
		f.mu.Lock()
		f.nextID++
		id := fmt.Sprintf("session-%d", f.nextID)
		f.mu.Unlock()
		writeJSON(w, map[string]string{"session_id": id})

	case "/session/data":
		data, ok := f.Session(r.URL.Query().Get("session_id"))
		if !ok {
			writeJSON(w, map[string]interface{}{"data": nil})
			return
		}
		writeJSON(w, map[string]interface{}{"data": data, "summary": f.summary(r.URL.Query().Get("session_id"), data)})

	case "/session/save":
		var body struct {
			SessionID string          `json:"session_id"`
			Data      json.RawMessage `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.SessionID == "" || len(body.Data) == 0 || string(body.Data) == "null" {
			http.Error(w, "session_id and data are required", http.StatusBadRequest)
			return
		}
		f.PutSession(body.SessionID, string(body.Data))
		writeJSON(w, map[string]string{"summary": f.summary(body.SessionID, body.Data)})

	case "/similarity":
		_ = r.ParseForm()
		f.mu.Lock()
		f.forms = append(f.forms, map[string]string{
			"session_id": r.URL.Query().Get("session_id"),
			"text1":      r.PostForm.Get("text1"),
			"text2":      r.PostForm.Get("text2"),
		})
		score := f.Score
		f.mu.Unlock()
		if score == nil {
			writeJSON(w, map[string]string{"error": "scoring failed"})
			return
		}
		writeJSON(w, map[string]float64{"similarity_score": *score})

	case "/generate_queries":
		f.mu.Lock()
		intents := append([]string{}, f.Intents...)
		f.mu.Unlock()
		writeJSON(w, map[string][]string{"intents": intents})

	default:
		http.NotFound(w, r)
	}
}

func (f *FakeRemote) summary(id string, data json.RawMessage) string {
	if f.SummaryFor != nil {
		return f.SummaryFor(id, data)
	}
	var blob struct {
		Queries []string `json:"queries"`
	}
	_ = json.Unmarshal(data, &blob)
	for _, q := range blob.Queries {
		if strings.TrimSpace(q) != "" {
			return q
		}
	}
	return id
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
