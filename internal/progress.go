package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// mark is the leading symbol of a console line. On a terminal the glyph is
// rendered in color; elsewhere the plain prefix is used instead.
type mark struct {
	glyph string
	color lipgloss.Color
	plain string
}

var (
	markInfo    = mark{glyph: "ℹ", color: "62"}
	markSuccess = mark{glyph: "✓", color: "42"}
	markWarning = mark{glyph: "⚠", color: "214", plain: "WARNING: "}
	markError   = mark{glyph: "✗", color: "196"}
)

func (m mark) render() string {
	return lipgloss.NewStyle().Foreground(m.color).Bold(true).Render(m.glyph)
}

func printMark(w io.Writer, m mark, message string) {
	if IsTerminal(w) {
		fmt.Fprintf(w, "%s %s\n", m.render(), message)
		return
	}
	fmt.Fprintf(w, "%s%s\n", m.plain, message)
}

// IsTerminal reports whether w is a character device. Output to anything
// else is rendered without color.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

func PrintSuccess(message string) { printMark(os.Stdout, markSuccess, message) }
func PrintInfo(message string)    { printMark(os.Stdout, markInfo, message) }
func PrintWarning(message string) { printMark(os.Stderr, markWarning, message) }
func PrintError(message string)   { printMark(os.Stderr, markError, message) }

// PrintAdvisory routes a by level: danger to stderr as an error, warnings
// to stderr, everything else to stdout.
func PrintAdvisory(a Advisory) {
	switch a.Level {
	case AdvisoryDanger:
		PrintError(a.Message)
	case AdvisoryWarning:
		PrintWarning(a.Message)
	default:
		PrintInfo(a.Message)
	}
}

// ConsoleObserver prints advisories as they are raised
type ConsoleObserver struct {
	NopObserver
}

func (ConsoleObserver) Advise(a Advisory) { PrintAdvisory(a) }

// ProgressStep is one named unit of work for ShowProgressWithSteps
type ProgressStep struct {
	Message string
	Fn      func() error
}

// ShowProgress runs fn behind a spinner on stderr. Off a terminal it only
// logs the message. fn keeps running if ctx ends first; its result is
// discarded.
func ShowProgress(ctx context.Context, message string, fn func() error) error {
	if !IsTerminal(os.Stderr) {
		LogInfo("%s", message)
		return fn()
	}
	return spin(ctx, os.Stderr, message, fn)
}

// ShowProgressWithSteps runs steps in order and stops at the first failure,
// wrapping its error with the step message.
func ShowProgressWithSteps(ctx context.Context, steps []ProgressStep) error {
	total := len(steps)
	for i, step := range steps {
		label := fmt.Sprintf("[%d/%d] %s", i+1, total, step.Message)
		if err := ShowProgress(ctx, label, step.Fn); err != nil {
			return fmt.Errorf("%s: %w", step.Message, err)
		}
	}
	return nil
}

var spinnerFrames = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

const spinnerInterval = 100 * time.Millisecond

// spin animates message on w until fn returns or ctx ends, then leaves a
// final line marked with the outcome.
func spin(ctx context.Context, w io.Writer, message string, fn func() error) error {
	result := make(chan error, 1)
	go func() { result <- fn() }()

	frame := lipgloss.NewStyle().Foreground(markInfo.color).Bold(true)
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	var err error
	for n := 0; ; n++ {
		select {
		case err = <-result:
		case <-ctx.Done():
			err = ctx.Err()
		case <-ticker.C:
			fmt.Fprintf(w, "\r%s %s", frame.Render(string(spinnerFrames[n%len(spinnerFrames)])), message)
			continue
		}
		break
	}

	outcome := markSuccess
	if err != nil {
		outcome = markError
	}
	fmt.Fprintf(w, "\r%s %s\n", outcome.render(), message)
	return err
}
