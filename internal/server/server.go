package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jmsie/aeo/internal"
)

const summaryRunes = 30

// Scorer computes similarity scores and query suggestions
type Scorer interface {
	Similarity(ctx context.Context, sessionID, query, text string) (float64, bool, error)
	GenerateQueries(ctx context.Context, text string) ([]string, error)
}

// NewUpstreamScorer forwards scoring to a service speaking the same
// /similarity and /generate_queries contract. One attempt per call: the
// caller's client does the retrying.
func NewUpstreamScorer(baseURL string) Scorer {
	return internal.NewRemoteService(internal.NewClient(baseURL, internal.WithMaxAttempts(1)))
}

// HTTPServer serves the session service contract
type HTTPServer struct {
	store  RecordStore
	scorer Scorer
	newID  func() string
}

// NewHTTPServer creates a server over store; a nil scorer answers every
// scoring call with 502.
func NewHTTPServer(store RecordStore, scorer Scorer) *HTTPServer {
	return &HTTPServer{store: store, scorer: scorer, newID: uuid.NewString}
}

// Handler returns the routed handler
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/session/new", s.handleNewSession)
	mux.HandleFunc("/session/data", s.handleSessionData)
	mux.HandleFunc("/session/save", s.handleSaveSession)
	mux.HandleFunc("/similarity", s.handleSimilarity)
	mux.HandleFunc("/generate_queries", s.handleGenerateQueries)
	mux.HandleFunc("/healthz", s.handleHealth)
	return withLogging(mux)
}

func (s *HTTPServer) handleNewSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"session_id": s.newID()})
}

func (s *HTTPServer) handleSessionData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := r.URL.Query().Get("session_id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing session_id")
		return
	}

	rec, err := s.store.Load(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusOK, map[string]any{"data": nil})
		return
	}
	if err != nil {
		internal.LogError("Loading session %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": rec.Data, "summary": rec.Summary})
}

func (s *HTTPServer) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body struct {
		SessionID string          `json:"session_id"`
		Data      json.RawMessage `json:"data"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.SessionID == "" || isEmptyJSON(body.Data) {
		writeError(w, http.StatusBadRequest, "missing session_id or data")
		return
	}

	summary := Summarize(body.Data)
	if err := s.store.Save(r.Context(), body.SessionID, body.Data, summary); err != nil {
		internal.LogError("Saving session %s: %v", body.SessionID, err)
		writeError(w, http.StatusInternalServerError, "failed to save session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "summary": summary})
}

func (s *HTTPServer) handleSimilarity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	id := r.URL.Query().Get("session_id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing session_id")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	text1, text2 := r.PostForm.Get("text1"), r.PostForm.Get("text2")

	if s.scorer == nil {
		writeError(w, http.StatusBadGateway, "no scorer configured")
		return
	}
	score, ok, err := s.scorer.Similarity(r.Context(), id, strings.TrimSpace(text1), strings.TrimSpace(text2))
	if err != nil || !ok {
		internal.LogWarn("Upstream similarity failed: ok=%v err=%v", ok, err)
		writeError(w, http.StatusBadGateway, "scorer unavailable")
		return
	}

	if err := s.store.AddPair(r.Context(), TextPair{SessionID: id, Text1: text1, Text2: text2}); err != nil {
		internal.LogWarn("Recording text pair for %s: %v", id, err)
	}
	writeJSON(w, http.StatusOK, map[string]any{"similarity_score": score, "session_id": id})
}

func (s *HTTPServer) handleGenerateQueries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body struct {
		Text string `json:"text"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		writeError(w, http.StatusBadRequest, "missing text")
		return
	}
	if s.scorer == nil {
		writeError(w, http.StatusBadGateway, "no scorer configured")
		return
	}
	intents, err := s.scorer.GenerateQueries(r.Context(), body.Text)
	if err != nil {
		internal.LogWarn("Upstream query generation failed: %v", err)
		writeError(w, http.StatusBadGateway, "scorer unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"intents": intents})
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Summarize derives the list label for a stored blob: the first non-empty
// query, else the start of the text.
func Summarize(raw json.RawMessage) string {
	var data internal.SessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return ""
	}
	for _, q := range data.Queries {
		if q = strings.TrimSpace(q); q != "" {
			return q
		}
	}
	text := strings.TrimSpace(data.MainText)
	if utf8.RuneCountInString(text) > summaryRunes {
		text = string([]rune(text)[:summaryRunes])
	}
	return text
}

func isEmptyJSON(raw json.RawMessage) bool {
	switch strings.TrimSpace(string(raw)) {
	case "", "null", "{}", "[]", `""`:
		return true
	}
	return false
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		internal.LogDebug("%s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return fmt.Errorf("empty body")
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// OpenStore opens the record store named by cfg.Store
func OpenStore(ctx context.Context, cfg internal.Config) (RecordStore, error) {
	switch cfg.Store {
	case internal.StoreMemory, "":
		return NewMemoryRecordStore(), nil
	case internal.StoreRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("store %q needs REDIS_URL", cfg.Store)
		}
		return NewRedisRecordStore(cfg.RedisURL)
	case internal.StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("store %q needs DATABASE_URL", cfg.Store)
		}
		return NewPostgresRecordStore(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown store %q (want %s, %s or %s)", cfg.Store, internal.StoreMemory, internal.StoreRedis, internal.StorePostgres)
	}
}
