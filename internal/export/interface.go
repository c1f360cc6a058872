package export

import (
	"fmt"
	"io"

	"github.com/jmsie/aeo/internal"
)

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(record *internal.SessionRecord, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: jsonl, md, yaml, json)", format)
	}
}

// slot is one query with its score, as written by the line-oriented formats
type slot struct {
	Index    int      `json:"slot"`
	Query    string   `json:"query"`
	Score    *float64 `json:"score"`
	Badge    string   `json:"badge"`
	Distance string   `json:"distance"`
}

// slots lists the non-empty query slots of record
func slots(record *internal.SessionRecord) []slot {
	var out []slot
	for i, q := range record.Data.Queries {
		if q == "" {
			continue
		}
		var score *float64
		if i < len(record.Data.Scores) {
			score = record.Data.Scores[i]
		}
		s := slot{Index: i + 1, Query: q, Score: score, Badge: internal.ScoreBadge(score).Text, Distance: "-"}
		if score != nil {
			s.Distance = internal.ScoreBadge(float64Ptr(internal.Distance(*score))).Text
		}
		out = append(out, s)
	}
	return out
}

func float64Ptr(v float64) *float64 {
	return &v
}
