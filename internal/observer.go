package internal

// AdvisoryLevel grades a user-facing notification
type AdvisoryLevel int

const (
	AdvisoryInfo AdvisoryLevel = iota
	AdvisoryWarning
	AdvisoryDanger
)

func (l AdvisoryLevel) String() string {
	switch l {
	case AdvisoryWarning:
		return "warning"
	case AdvisoryDanger:
		return "danger"
	default:
		return "info"
	}
}

// Advisory is a notification for the user; Err is set when one caused it
type Advisory struct {
	Level   AdvisoryLevel
	Message string
	Err     error
}

// Badge is a rendered score: Text like "42%" and a CSS-style class
type Badge struct {
	Text  string
	Class string
}

// SlotResult is the outcome of scoring one query slot
type SlotResult struct {
	Slot     int
	Query    string
	Score    *float64
	Badge    Badge
	Distance Badge
	Gaps     []string
	Err      error
}

// Observer receives state changes from the lifecycle and the orchestrator.
// Calls happen on the goroutine that made the change.
type Observer interface {
	DocumentChanged(doc Document, markup string)
	ScoresUpdated(results []SlotResult)
	SessionsChanged(sessions []SessionSummary)
	Advise(a Advisory)
}

// NopObserver ignores every notification
type NopObserver struct{}

func (NopObserver) DocumentChanged(Document, string) {}
func (NopObserver) ScoresUpdated([]SlotResult) {}
func (NopObserver) SessionsChanged([]SessionSummary) {}
func (NopObserver) Advise(Advisory) {}

// LogObserver forwards advisories to the package logger
type LogObserver struct {
	NopObserver
}

func (LogObserver) Advise(a Advisory) {
	switch a.Level {
	case AdvisoryDanger:
		LogError("%s", a.Message)
	case AdvisoryWarning:
		LogWarn("%s", a.Message)
	default:
		LogInfo("%s", a.Message)
	}
}
