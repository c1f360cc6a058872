package internal

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffOp is the kind of a diff segment
type DiffOp int

const (
	DiffEqual DiffOp = iota
	DiffDelete
	DiffInsert
)

func (op DiffOp) String() string {
	switch op {
	case DiffDelete:
		return "delete"
	case DiffInsert:
		return "insert"
	default:
		return "equal"
	}
}

// DiffSegment is one run of the edit script between two texts
type DiffSegment struct {
	Op   DiffOp
	Text string
}

// Diff computes a character-level edit script from oldText to newText
// followed by a semantic cleanup pass. The diff timeout is disabled so the
// result depends only on the inputs.
func Diff(oldText, newText string) []DiffSegment {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	diffs := dmp.DiffMain(oldText, newText, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	segments := make([]DiffSegment, 0, len(diffs))
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		var op DiffOp
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			op = DiffDelete
		case diffmatchpatch.DiffInsert:
			op = DiffInsert
		default:
			op = DiffEqual
		}
		segments = append(segments, DiffSegment{Op: op, Text: d.Text})
	}
	return segments
}

// RenderMarkup renders segments as markup with deletion and insertion spans
func RenderMarkup(segments []DiffSegment) string {
	var b strings.Builder
	for _, s := range segments {
		text := EscapeText(s.Text)
		switch s.Op {
		case DiffDelete:
			b.WriteString(deletionOpen)
			b.WriteString(text)
			b.WriteString(spanClose)
		case DiffInsert:
			b.WriteString(insertionOpen)
			b.WriteString(text)
			b.WriteString(spanClose)
		default:
			b.WriteString(text)
		}
	}
	return b.String()
}

// Reconcile annotates currentMarkup with what changed since previousPlain.
// It returns the markup to show and the plain-text snapshot to store. When
// there is no previous snapshot or nothing changed, the markup comes back
// untouched. Line endings in previousPlain are normalized to LF first.
func Reconcile(previousPlain, currentMarkup string) (markup, snapshot string) {
	previousPlain = normalizeNewlines(previousPlain)
	current := ExtractPlainText(currentMarkup)
	if previousPlain == "" || previousPlain == current {
		return currentMarkup, previousPlain
	}
	markup = RenderMarkup(Diff(previousPlain, current))
	return markup, ExtractPlainText(markup)
}

// SplitSegments rebuilds the old and new texts from segments
func SplitSegments(segments []DiffSegment) (oldText, newText string) {
	var o, n strings.Builder
	for _, s := range segments {
		switch s.Op {
		case DiffEqual:
			o.WriteString(s.Text)
			n.WriteString(s.Text)
		case DiffDelete:
			o.WriteString(s.Text)
		case DiffInsert:
			n.WriteString(s.Text)
		}
	}
	return o.String(), n.String()
}
