package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jmsie/aeo/internal"
)

// JSONLExporter exports one line per query slot
type JSONLExporter struct{}

// Export exports a session record to JSONL format
func (e *JSONLExporter) Export(record *internal.SessionRecord, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, s := range slots(record) {
		obj := map[string]interface{}{
			"session_id": record.SessionID,
			"slot":       s.Index,
			"query":      s.Query,
			"score":      s.Score,
			"badge":      s.Badge,
			"distance":   s.Distance,
		}
		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("failed to encode slot %d: %w", s.Index, err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
