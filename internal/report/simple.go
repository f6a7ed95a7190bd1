package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/creditline/internal/pipeline"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose lists every label of every document.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose lists every label instead of per-document counts.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the summary followed by one section per document.
func (w *SimpleWriter) Write(results []*pipeline.Result) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb)
	w.writeSummary(&sb, NewSummary(results))
	w.writeDocuments(&sb, results)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteSummary outputs the summary only.
func (w *SimpleWriter) WriteSummary(summary *Summary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb)
	w.writeSummary(&sb, summary)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// rule writes a section divider.
func rule(sb *strings.Builder, c string) {
	sb.WriteString(strings.Repeat(c, 70))
	sb.WriteString("\n")
}

// writeHeader writes the report banner.
func (w *SimpleWriter) writeHeader(sb *strings.Builder) {
	sb.WriteString("\n")
	rule(sb, "=")
	sb.WriteString("                         CREDITLINE REPORT\n")
	rule(sb, "=")
	sb.WriteString("\n")
}

// writeSummary writes the batch counts.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, s *Summary) {
	rule(sb, "-")
	sb.WriteString("SUMMARY\n")
	rule(sb, "-")
	sb.WriteString("\n")

	fmt.Fprintf(sb, "  Documents:    %d (%d failed)\n", s.Documents, s.Failed)
	fmt.Fprintf(sb, "  Annotations:  %d\n", s.Annotations)
	fmt.Fprintf(sb, "  Matched:      %d\n", s.Matched)
	fmt.Fprintf(sb, "  Default:      %d\n", s.DefaultHits)
	fmt.Fprintf(sb, "  Wrapped:      %d\n", s.Wrapped)
	for _, k := range kinds {
		fmt.Fprintf(sb, "  %-13s %d\n", string(k)+":", s.ByKind[k])
	}
	sb.WriteString("\n")

	if len(s.Holders) > 0 {
		sb.WriteString("  Holders:\n")
		for _, h := range s.Holders {
			fmt.Fprintf(sb, "    %4d  %s\n", h.Count, h.Holder)
		}
		sb.WriteString("\n")
	}

	for _, f := range s.Failures {
		fmt.Fprintf(sb, "  [!] %s: %s\n", f.Input, f.Error)
	}
	if s.HasFailures() {
		sb.WriteString("\n")
	}
}

// writeDocuments writes one block per document.
func (w *SimpleWriter) writeDocuments(sb *strings.Builder, results []*pipeline.Result) {
	if len(results) == 0 {
		return
	}

	rule(sb, "-")
	sb.WriteString("DOCUMENTS\n")
	rule(sb, "-")
	sb.WriteString("\n")

	for _, r := range results {
		if r == nil {
			continue
		}
		if r.Failed() {
			fmt.Fprintf(sb, "[!] %s\n    Error: %s\n\n", r.Job.Input, r.ErrorMessage)
			continue
		}

		fmt.Fprintf(sb, "[+] %s\n", r.Job.Input)
		if r.Job.Output != "" {
			fmt.Fprintf(sb, "    Output:      %s\n", r.Job.Output)
		}
		fmt.Fprintf(sb, "    Annotations: %d (position %s)\n", len(r.Annotations), r.Position)
		if w.verbose {
			fmt.Fprintf(sb, "    SHA3-256:    %s\n", r.OutputHash)
			for _, a := range r.Annotations {
				marker := "*"
				if !a.Matched {
					marker = "?"
				}
				fmt.Fprintf(sb, "    %s %-12s %-10s %s %s\n",
					marker, a.ImageID, a.Kind, a.Record.Copyright, a.Record.Year)
			}
		}
		sb.WriteString("\n")
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	rule(sb, "=")
	sb.WriteString("Report generated by creditline\n")
	sb.WriteString("https://github.com/nao1215/creditline\n")
	rule(sb, "=")
}
