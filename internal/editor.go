package internal

import "sync"

// Editor is the live edit surface: the visible markup (which may carry a
// diff overlay) plus the query slots and their scores.
type Editor struct {
	mu     sync.Mutex
	markup string
	doc    Document
}

// NewEditor returns an empty editor with every slot present
func NewEditor() *Editor {
	return &Editor{doc: NewDocument()}
}

// Markup returns the visible markup
func (e *Editor) Markup() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.markup
}

// SetMarkup replaces the visible markup
func (e *Editor) SetMarkup(markup string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.markup = markup
}

// SetText replaces the visible markup with escaped plain text
func (e *Editor) SetText(plain string) {
	e.SetMarkup(EscapeText(normalizeNewlines(plain)))
}

// PlainText returns the visible text with deletion overlays removed
func (e *Editor) PlainText() string {
	return ExtractPlainText(e.Markup())
}

// Query returns the query in slot i, "" when out of range
func (e *Editor) Query(i int) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i < 0 || i >= len(e.doc.Queries) {
		return ""
	}
	return e.doc.Queries[i]
}

// SetQuery replaces the query in slot i. The slot's score is left alone and
// stays stale until the next compute.
func (e *Editor) SetQuery(i int, q string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i < 0 || i >= MaxQueries {
		return
	}
	e.doc.Queries[i] = q
}

// SetScore records the score for slot i; nil marks it absent
func (e *Editor) SetScore(i int, score *float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i < 0 || i >= MaxQueries {
		return
	}
	e.doc.Scores[i] = score
}

// Document returns a snapshot of the editor contents. MainText is the
// visible plain text.
func (e *Editor) Document() Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	doc := e.doc.Clone()
	doc.MainText = ExtractPlainText(e.markup)
	return doc
}

// Load fills the editor from a stored blob. Missing slots stay empty.
func (e *Editor) Load(data SessionData) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.markup = EscapeText(normalizeNewlines(data.MainText))
	e.doc = NewDocument()
	for i := 0; i < MaxQueries && i < len(data.Queries); i++ {
		e.doc.Queries[i] = data.Queries[i]
	}
	for i := 0; i < MaxQueries && i < len(data.Scores); i++ {
		if s := data.Scores[i]; s != nil {
			e.doc.Scores[i] = float64Ptr(*s)
		}
	}
}

// Reset clears text, queries and scores
func (e *Editor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.markup = ""
	e.doc = NewDocument()
}

// IsEmpty reports whether the visible text is empty
func (e *Editor) IsEmpty() bool {
	return e.PlainText() == ""
}
