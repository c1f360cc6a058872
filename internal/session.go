package internal

import (
	"encoding/json"
	"time"
)

// MaxQueries is the number of query slots a document carries
const MaxQueries = 5

// SessionSummary is one entry of the recent-sessions list kept in the local cache
type SessionSummary struct {
	SessionID    string    `json:"sessionId" yaml:"session_id"`
	Summary      string    `json:"summary" yaml:"summary"`
	CreatedAt    time.Time `json:"createdAt" yaml:"created_at"`
	LastAccessed time.Time `json:"lastAccessed" yaml:"last_accessed"`
}

// SessionData is the opaque blob stored by the remote session service
type SessionData struct {
	MainText string     `json:"main_text" yaml:"main_text"`
	Queries  []string   `json:"queries" yaml:"queries"`
	Scores   []*float64 `json:"scores" yaml:"scores"`
}

// UnmarshalJSON accepts both the multi-query layout and the legacy
// single-query {query, score} layout, folding the latter into slot 0.
func (d *SessionData) UnmarshalJSON(b []byte) error {
	var raw struct {
		MainText string     `json:"main_text"`
		Queries  []string   `json:"queries"`
		Scores   []*float64 `json:"scores"`
		Query    *string    `json:"query"`
		Score    *float64   `json:"score"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	d.MainText = raw.MainText
	d.Queries = raw.Queries
	d.Scores = raw.Scores
	if len(d.Queries) == 0 && raw.Query != nil {
		d.Queries = []string{*raw.Query}
	}
	if len(d.Scores) == 0 && raw.Score != nil {
		d.Scores = []*float64{raw.Score}
	}
	return nil
}

// IsEmpty reports whether the blob carries nothing worth restoring
func (d *SessionData) IsEmpty() bool {
	if d == nil {
		return true
	}
	if d.MainText != "" {
		return false
	}
	for _, q := range d.Queries {
		if q != "" {
			return false
		}
	}
	return true
}

// Document is the editable state of one session
type Document struct {
	MainText string     `json:"main_text" yaml:"main_text"`
	Queries  []string   `json:"queries" yaml:"queries"`
	Scores   []*float64 `json:"scores" yaml:"scores"`
}

// NewDocument returns an empty document with every slot present
func NewDocument() Document {
	return Document{
		Queries: make([]string, MaxQueries),
		Scores:  make([]*float64, MaxQueries),
	}
}

// Clone returns a deep copy of the document
func (d Document) Clone() Document {
	out := Document{
		MainText: d.MainText,
		Queries:  append([]string(nil), d.Queries...),
		Scores:   make([]*float64, len(d.Scores)),
	}
	for i, s := range d.Scores {
		if s != nil {
			v := *s
			out.Scores[i] = &v
		}
	}
	return out
}

// SessionRecord is a session document as exported by the CLI
type SessionRecord struct {
	SessionID  string      `json:"session_id" yaml:"session_id"`
	Summary    string      `json:"summary,omitempty" yaml:"summary,omitempty"`
	Data       SessionData `json:"data" yaml:"data"`
	ExportedAt time.Time   `json:"exported_at" yaml:"exported_at"`
}

func float64Ptr(v float64) *float64 {
	return &v
}
