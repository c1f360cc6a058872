package internal

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultDebounce      = 500 * time.Millisecond
	DefaultLowScore      = 60.0
	DefaultMaxTextLength = 3000

	maxSuggestedGaps = 8
)

var errOrchestratorClosed = errors.New("orchestrator is closed")

// OrchestratorConfig tunes the compute pipeline
type OrchestratorConfig struct {
	Debounce      time.Duration
	LowScore      float64
	MaxTextLength int
}

// DefaultOrchestratorConfig returns the stock settings
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		Debounce:      DefaultDebounce,
		LowScore:      DefaultLowScore,
		MaxTextLength: DefaultMaxTextLength,
	}
}

// ComputeResult is what one compute produced
type ComputeResult struct {
	SessionID string
	Markup    string
	Text      string
	Slots     []SlotResult
	LowScore  bool
}

// Orchestrator runs the compute pipeline for the active document:
// reconcile the visible text against the last snapshot, score every query,
// then persist locally and remotely. At most one compute runs at a time.
type Orchestrator struct {
	cfg       OrchestratorConfig
	remote    *RemoteService
	cache     *LocalCache
	editor    *Editor
	lifecycle *Lifecycle
	observer  Observer

	mu     sync.Mutex
	busy   bool
	rerun  bool
	closed bool
	gen    uint64
	timer  *time.Timer

	ctx     context.Context
	cancel  context.CancelFunc
	running sync.WaitGroup // debounced computes
	saves   sync.WaitGroup // background remote saves
}

// NewOrchestrator wires the pipeline; zero config fields take defaults
func NewOrchestrator(cfg OrchestratorConfig, remote *RemoteService, cache *LocalCache, editor *Editor, lifecycle *Lifecycle, observer Observer) *Orchestrator {
	def := DefaultOrchestratorConfig()
	if cfg.Debounce <= 0 {
		cfg.Debounce = def.Debounce
	}
	if cfg.LowScore <= 0 {
		cfg.LowScore = def.LowScore
	}
	if cfg.MaxTextLength <= 0 {
		cfg.MaxTextLength = def.MaxTextLength
	}
	if observer == nil {
		observer = NopObserver{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		cfg:       cfg,
		remote:    remote,
		cache:     cache,
		editor:    editor,
		lifecycle: lifecycle,
		observer:  observer,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// RequestCompute schedules a compute after the quiet period. Requests
// arriving within the period replace the pending one.
func (o *Orchestrator) RequestCompute() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.armLocked()
}

func (o *Orchestrator) armLocked() {
	if o.closed {
		return
	}
	o.gen++
	gen := o.gen
	if o.timer != nil {
		o.timer.Stop()
	}
	o.timer = time.AfterFunc(o.cfg.Debounce, func() { o.fire(gen) })
}

func (o *Orchestrator) fire(gen uint64) {
	o.mu.Lock()
	if gen != o.gen || o.closed {
		o.mu.Unlock()
		return
	}
	o.timer = nil
	if o.busy {
		o.rerun = true
		o.mu.Unlock()
		return
	}
	o.running.Add(1)
	o.mu.Unlock()
	defer o.running.Done()

	if _, err := o.Compute(o.ctx); err != nil {
		if errors.Is(err, ErrComputeBusy) {
			o.requeue()
			return
		}
		LogDebug("Debounced compute failed: %v", err)
	}
}

// requeue handles a debounced compute that lost the race for busy. The
// compute that won may already have finished, in which case nothing would
// pick up a rerun flag, so the timer is armed again instead.
func (o *Orchestrator) requeue() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.busy {
		o.rerun = true
		return
	}
	o.armLocked()
}

// Compute runs the pipeline now. It returns ErrComputeBusy when a compute
// is already in flight.
func (o *Orchestrator) Compute(ctx context.Context) (*ComputeResult, error) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil, errOrchestratorClosed
	}
	if o.busy {
		o.mu.Unlock()
		return nil, ErrComputeBusy
	}
	o.busy = true
	o.mu.Unlock()
	defer o.finish()

	markup, text := o.reconcile()

	doc := o.editor.Document()
	if err := o.validate(doc.Queries, text); err != nil {
		o.observer.Advise(Advisory{Level: AdvisoryWarning, Message: err.(*ValidationError).Message, Err: err})
		return nil, err
	}

	sessionID := o.lifecycle.SessionID()
	result := &ComputeResult{SessionID: sessionID, Markup: markup, Text: text}
	for i, q := range doc.Queries {
		if strings.TrimSpace(q) == "" {
			continue
		}
		slot := o.scoreSlot(ctx, sessionID, i, strings.TrimSpace(q), text)
		o.editor.SetScore(i, slot.Score)
		if slot.Score != nil && *slot.Score < o.cfg.LowScore {
			result.LowScore = true
		}
		result.Slots = append(result.Slots, slot)
	}
	o.observer.ScoresUpdated(result.Slots)
	if result.LowScore {
		o.observer.Advise(Advisory{
			Level:   AdvisoryInfo,
			Message: fmt.Sprintf("Similarity is below %.0f%%: answer the question directly and reuse its key terms", o.cfg.LowScore),
		})
	}

	o.persist(sessionID, text)
	return result, nil
}

func (o *Orchestrator) finish() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.busy = false
	if o.rerun {
		o.rerun = false
		o.armLocked()
	}
}

// reconcile overlays the changes since the last snapshot and stores the
// new snapshot.
func (o *Orchestrator) reconcile() (markup, text string) {
	previous, err := o.cache.Text()
	if err != nil {
		LogWarn("Failed to read cached text: %v", err)
	}
	current := o.editor.Markup()
	markup, snapshot := Reconcile(previous, current)
	if markup != current {
		o.editor.SetMarkup(markup)
		if err := o.cache.SetText(snapshot); err != nil {
			LogWarn("Failed to cache text: %v", err)
		}
		o.observer.DocumentChanged(o.editor.Document(), markup)
	}
	return markup, o.editor.PlainText()
}

func (o *Orchestrator) validate(queries []string, text string) error {
	hasQuery := false
	for _, q := range queries {
		if strings.TrimSpace(q) != "" {
			hasQuery = true
			break
		}
	}
	if !hasQuery {
		return &ValidationError{Field: "query", Message: "query is required"}
	}
	if strings.TrimSpace(text) == "" {
		return &ValidationError{Field: "main_text", Message: "main text is required"}
	}
	if n := utf8.RuneCountInString(text); n > o.cfg.MaxTextLength {
		return &ValidationError{
			Field:   "main_text",
			Message: fmt.Sprintf("main text is %d characters, the limit is %d", n, o.cfg.MaxTextLength),
		}
	}
	return nil
}

func (o *Orchestrator) scoreSlot(ctx context.Context, sessionID string, slot int, query, text string) SlotResult {
	res := SlotResult{Slot: slot, Query: query, Badge: ScoreBadge(nil), Distance: ScoreBadge(nil)}

	score, ok, err := o.remote.Similarity(ctx, sessionID, query, text)
	if err == nil && !ok {
		err = fmt.Errorf("no similarity score returned")
	}
	if err != nil {
		res.Err = err
		o.observer.Advise(Advisory{
			Level:   AdvisoryDanger,
			Message: fmt.Sprintf("Scoring failed for query %d: %v", slot+1, err),
			Err:     err,
		})
		return res
	}

	res.Score = float64Ptr(score)
	res.Badge = ScoreBadgeAt(res.Score, o.cfg.LowScore)
	res.Distance = ScoreBadge(float64Ptr(Distance(score)))
	res.Gaps = KeywordGaps(query, text)
	return res
}

// persist stores the snapshot locally right away and saves the blob
// remotely in the background.
func (o *Orchestrator) persist(sessionID, text string) {
	if err := o.cache.SetText(text); err != nil {
		LogWarn("Failed to cache text: %v", err)
	}
	if sessionID == "" {
		o.observer.Advise(Advisory{Level: AdvisoryWarning, Message: "Not saved remotely: no active session", Err: ErrNoSession})
		return
	}

	doc := o.editor.Document()
	data := SessionData{MainText: text, Queries: doc.Queries, Scores: doc.Scores}

	o.saves.Add(1)
	go func() {
		defer o.saves.Done()
		summary, err := o.remote.SaveSession(o.ctx, sessionID, data)
		if err != nil {
			o.observer.Advise(Advisory{
				Level:   AdvisoryWarning,
				Message: fmt.Sprintf("Session %s was not saved remotely: %v", sessionID, err),
				Err:     err,
			})
			return
		}
		o.lifecycle.MirrorSummary(sessionID, summary)
	}()
}

// GenerateQueries replaces the query slots with intents generated for the
// current text. Stale scores are cleared.
func (o *Orchestrator) GenerateQueries(ctx context.Context) ([]string, error) {
	text := o.editor.PlainText()
	if strings.TrimSpace(text) == "" {
		err := &ValidationError{Field: "main_text", Message: "main text is required"}
		o.observer.Advise(Advisory{Level: AdvisoryWarning, Message: err.Message, Err: err})
		return nil, err
	}

	intents, err := o.remote.GenerateQueries(ctx, text)
	if err != nil {
		o.observer.Advise(Advisory{
			Level:   AdvisoryDanger,
			Message: fmt.Sprintf("Query generation failed: %v", err),
			Err:     err,
		})
		return nil, err
	}

	for i := 0; i < MaxQueries; i++ {
		q := ""
		if i < len(intents) {
			q = intents[i]
		}
		o.editor.SetQuery(i, q)
		o.editor.SetScore(i, nil)
	}
	o.observer.DocumentChanged(o.editor.Document(), o.editor.Markup())
	return intents, nil
}

// ClearQuery empties slot and resets its score
func (o *Orchestrator) ClearQuery(slot int) {
	o.editor.SetQuery(slot, "")
	o.editor.SetScore(slot, nil)
	o.observer.DocumentChanged(o.editor.Document(), o.editor.Markup())
}

// Suggest returns rule-based tips for the current text and queries
func (o *Orchestrator) Suggest() ([]string, error) {
	doc := o.editor.Document()
	var queries []string
	for _, q := range doc.Queries {
		if strings.TrimSpace(q) != "" {
			queries = append(queries, q)
		}
	}
	if len(queries) == 0 || strings.TrimSpace(doc.MainText) == "" {
		return nil, &ValidationError{Field: "query", Message: "a query and main text are required"}
	}
	return Suggestions(strings.Join(queries, " "), doc.MainText), nil
}

// Wait blocks until every background save has finished
func (o *Orchestrator) Wait() {
	o.saves.Wait()
}

// Close stops pending computes and drains background saves
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.closed = true
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	o.mu.Unlock()

	o.running.Wait()
	o.saves.Wait()
	o.cancel()
}

const highScore = 80.0

// ScoreBadge renders score as a percentage badge with the default low-score
// cut-off; nil renders "-".
func ScoreBadge(score *float64) Badge {
	return ScoreBadgeAt(score, DefaultLowScore)
}

// ScoreBadgeAt is ScoreBadge with rounded scores below low classed
// "score-low". Scores from low up to 80 are "score-medium"; a low of 80 or
// more leaves no medium band.
func ScoreBadgeAt(score *float64, low float64) Badge {
	if score == nil || math.IsNaN(*score) {
		return Badge{Text: "-"}
	}
	pct := math.Round(*score)
	class := "score-high"
	switch {
	case pct < low:
		class = "score-low"
	case pct < highScore:
		class = "score-medium"
	}
	return Badge{Text: fmt.Sprintf("%d%%", int(pct)), Class: class}
}

// Distance is the gap to a perfect score: max(0, 100 - round(score))
func Distance(score float64) float64 {
	return math.Max(0, 100-math.Round(score))
}

// KeywordGaps lists the query tokens longer than one character that do
// not occur in text, in query order without duplicates.
func KeywordGaps(query, text string) []string {
	present := make(map[string]bool)
	for _, t := range tokenize(text) {
		present[t] = true
	}
	seen := make(map[string]bool)
	var missing []string
	for _, t := range tokenize(query) {
		if utf8.RuneCountInString(t) <= 1 || present[t] || seen[t] {
			continue
		}
		seen[t] = true
		missing = append(missing, t)
	}
	return missing
}

func tokenize(s string) []string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, strings.ToLower(s))
	return strings.Fields(s)
}

// Suggestions builds improvement tips: missing keywords first, then
// structural advice.
func Suggestions(query, text string) []string {
	var tips []string
	if gaps := KeywordGaps(query, text); len(gaps) > 0 {
		if len(gaps) > maxSuggestedGaps {
			gaps = gaps[:maxSuggestedGaps]
		}
		tips = append(tips, "Work these keywords in naturally: "+strings.Join(gaps, ", "))
	}
	return append(tips,
		"Answer the core intent of the question in the first two sentences and restate the key terms in a subheading.",
		"Close with a clear conclusion or next step (FAQ, call to action, further reading).",
		"Avoid keyword stuffing; keep the text readable and natural.",
	)
}
