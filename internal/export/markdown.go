package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jmsie/aeo/internal"
)

// MarkdownExporter exports a session record as a Markdown report
type MarkdownExporter struct{}

// Export exports a session record to Markdown format
func (e *MarkdownExporter) Export(record *internal.SessionRecord, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# Session %s\n\n", record.SessionID)

	if record.Summary != "" {
		_, _ = fmt.Fprintf(w, "**Summary:** %s  \n", escapeMarkdown(record.Summary))
	}
	if !record.ExportedAt.IsZero() {
		_, _ = fmt.Fprintf(w, "**Exported:** %s  \n", record.ExportedAt.Format(time.RFC3339))
	}
	_, _ = fmt.Fprintf(w, "**Characters:** %d\n\n", len([]rune(record.Data.MainText)))

	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Queries\n\n")

	rows := slots(record)
	if len(rows) == 0 {
		_, _ = fmt.Fprintf(w, "_No queries._\n\n")
	} else {
		_, _ = fmt.Fprintf(w, "| # | Query | Score | Distance |\n")
		_, _ = fmt.Fprintf(w, "|---|-------|-------|----------|\n")
		for _, s := range rows {
			_, _ = fmt.Fprintf(w, "| %d | %s | %s | %s |\n", s.Index, escapeCell(s.Query), s.Badge, s.Distance)
		}
		_, _ = fmt.Fprintf(w, "\n")
	}

	_, _ = fmt.Fprintf(w, "## Text\n\n%s\n", escapeMarkdown(record.Data.MainText))

	if len(rows) > 0 {
		_, _ = fmt.Fprintf(w, "\n## Suggestions\n\n")
		queries := make([]string, 0, len(rows))
		for _, s := range rows {
			queries = append(queries, s.Query)
		}
		for _, tip := range internal.Suggestions(strings.Join(queries, " "), record.Data.MainText) {
			_, _ = fmt.Fprintf(w, "- %s\n", tip)
		}
	}

	return nil
}

// escapeMarkdown escapes markdown special characters
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

func escapeCell(text string) string {
	return strings.ReplaceAll(escapeMarkdown(text), "|", "\\|")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
