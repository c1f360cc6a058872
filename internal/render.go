package internal

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	deletedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#dc2626")).
			Background(lipgloss.Color("#fee2e2")).
			Strikethrough(true)

	insertedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#16a34a")).
			Background(lipgloss.Color("#dcfce7"))

	badgeStyles = map[string]lipgloss.Style{
		"score-low":    lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		"score-medium": lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		"score-high":   lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
	}
)

// RenderSegments renders a diff for the terminal: deletions struck through
// in red, insertions in green. With color off, deletions are shown as
// [-text-] and insertions as {+text+}.
func RenderSegments(segments []DiffSegment, color bool) string {
	var b strings.Builder
	for _, s := range segments {
		switch s.Op {
		case DiffDelete:
			if color {
				b.WriteString(deletedStyle.Render(s.Text))
			} else {
				b.WriteString("[-" + s.Text + "-]")
			}
		case DiffInsert:
			if color {
				b.WriteString(insertedStyle.Render(s.Text))
			} else {
				b.WriteString("{+" + s.Text + "+}")
			}
		default:
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

// MarkupSegments recovers diff segments from overlay markup
func MarkupSegments(markup string) []DiffSegment {
	var segments []DiffSegment
	rest := markup
	for rest != "" {
		op, open, idx := DiffEqual, "", -1
		if i := strings.Index(rest, deletionOpen); i >= 0 {
			op, open, idx = DiffDelete, deletionOpen, i
		}
		if i := strings.Index(rest, insertionOpen); i >= 0 && (idx < 0 || i < idx) {
			op, open, idx = DiffInsert, insertionOpen, i
		}
		if idx < 0 {
			segments = appendSegment(segments, DiffEqual, ExtractPlainText(rest))
			break
		}
		segments = appendSegment(segments, DiffEqual, ExtractPlainText(rest[:idx]))
		rest = rest[idx+len(open):]
		end := strings.Index(rest, spanClose)
		if end < 0 {
			end = len(rest)
		}
		segments = appendSegment(segments, op, ExtractPlainText(rest[:end]))
		rest = strings.TrimPrefix(rest[end:], spanClose)
	}
	return segments
}

func appendSegment(segments []DiffSegment, op DiffOp, text string) []DiffSegment {
	if text == "" {
		return segments
	}
	return append(segments, DiffSegment{Op: op, Text: text})
}

// RenderBadge styles a score badge for the terminal
func RenderBadge(b Badge, color bool) string {
	style, ok := badgeStyles[b.Class]
	if !color || !ok {
		return b.Text
	}
	return style.Render(b.Text)
}
