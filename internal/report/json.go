package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/creditline/internal/pipeline"
)

// JSONWriter outputs reports in JSON format for tool integration.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string.
	indentString string

	// version is recorded in full reports.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the creditline version in full reports.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONReport is the document written by JSONWriter.Write.
type JSONReport struct {
	// Version is the creditline version that produced the report.
	Version string `json:"version,omitempty"`

	// Summary holds the batch counts.
	Summary *Summary `json:"summary"`

	// Documents holds one entry per job, in job order.
	Documents []*pipeline.Result `json:"documents"`
}

// Write outputs the summary and every result.
func (w *JSONWriter) Write(results []*pipeline.Result) (int, error) {
	docs := make([]*pipeline.Result, 0, len(results))
	for _, r := range results {
		if r != nil {
			docs = append(docs, r)
		}
	}

	return w.writeJSON(&JSONReport{
		Version:   w.version,
		Summary:   NewSummary(results),
		Documents: docs,
	})
}

// WriteSummary outputs the summary only.
func (w *JSONWriter) WriteSummary(summary *Summary) (int, error) {
	return w.writeJSON(summary)
}

// writeJSON marshals v and writes it with a trailing newline.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
