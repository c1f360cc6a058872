package export

import (
	"io"

	"github.com/jmsie/aeo/internal"
	"gopkg.in/yaml.v3"
)

// YAMLExporter exports a session record in YAML format
type YAMLExporter struct{}

// Export exports a session record to YAML format
func (e *YAMLExporter) Export(record *internal.SessionRecord, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()

	return enc.Encode(record)
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}
