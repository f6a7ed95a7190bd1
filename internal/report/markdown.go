package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/creditline/internal/model"
	"github.com/nao1215/creditline/internal/pipeline"
)

// MarkdownWriter outputs reports in Markdown format for documentation and
// review.
type MarkdownWriter struct {
	baseWriter

	// title is used for positions and container kinds in headings.
	title cases.Caser
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		title:      cases.Title(language.English),
	}
}

// Write outputs the summary and one table per document.
func (w *MarkdownWriter) Write(results []*pipeline.Result) (int, error) {
	md := markdown.NewMarkdown(w.output)

	summary := NewSummary(results)
	w.writeHeader(md, summary)
	w.writeSummary(md, summary)
	w.writeDocuments(md, results)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteSummary outputs the summary only.
func (w *MarkdownWriter) WriteSummary(summary *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeSummary(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report title and run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, s *Summary) {
	md.H1("Creditline Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Generated", s.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Documents", strconv.Itoa(s.Documents)},
			{"Status", w.statusText(s)},
		},
	})
	md.PlainText("")
}

// statusText returns the status cell text.
func (w *MarkdownWriter) statusText(s *Summary) string {
	if s.HasFailures() {
		return "❌ " + strconv.Itoa(s.Failed) + " failed"
	}
	return "✅ Complete"
}

// writeSummary writes the label counts, the holder chart and an alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, s *Summary) {
	md.H2("Summary")
	md.PlainText("")

	rows := [][]string{
		{"Matched", strconv.Itoa(s.Matched)},
		{"Default record", strconv.Itoa(s.DefaultHits)},
		{"Wrapped images", strconv.Itoa(s.Wrapped)},
	}
	for _, k := range kinds {
		rows = append(rows, []string{w.title.String(string(k)) + " containers", strconv.Itoa(s.ByKind[k])})
	}
	rows = append(rows, []string{"**Total labels**", "**" + strconv.Itoa(s.Annotations) + "**"})

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(s.Holders) > 0 {
		w.writePieChart(md, s)
	}
	w.writeAlert(md, s)
}

// writePieChart writes a mermaid pie chart of labels per holder.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s *Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Labels by Copyright Holder"),
		piechart.WithShowData(true),
	)
	for _, h := range s.Holders {
		chart.LabelAndIntValue(orDash(h.Holder), uint64(h.Count)) //nolint:gosec // counts are non-negative
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert describing the outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, s *Summary) {
	switch {
	case s.HasFailures():
		md.Warningf("%d document(s) could not be annotated.", s.Failed)
	case s.DefaultHits > 0:
		md.Importantf(
			"%d label(s) show the default record. Add metadata for these images to credit them correctly.",
			s.DefaultHits,
		)
	case s.Annotations == 0:
		md.Note("No images were found.")
	default:
		md.Tip("Every image is credited from the metadata table.")
	}
	md.PlainText("")
}

// writeDocuments writes one section per document.
func (w *MarkdownWriter) writeDocuments(md *markdown.Markdown, results []*pipeline.Result) {
	md.H2("Documents")
	md.PlainText("")

	for _, r := range results {
		if r == nil {
			continue
		}

		md.H3(r.Job.Input)
		md.PlainText("")

		if r.Failed() {
			md.Cautionf("Annotation failed: %s", r.ErrorMessage)
			md.PlainText("")
			continue
		}

		md.BulletList(
			"Output: "+orDash(r.Job.Output),
			"Position: "+w.positionText(r.Position),
			"SHA3-256: `"+orDash(r.OutputHash)+"`",
		)
		md.PlainText("")

		if len(r.Annotations) == 0 {
			md.PlainText("No images found.")
			md.PlainText("")
			continue
		}

		rows := make([][]string, len(r.Annotations))
		for i, a := range r.Annotations {
			id := "`" + a.ImageID + "`"
			if !a.Matched {
				id += " (default)"
			}
			rows[i] = []string{
				id,
				w.title.String(string(a.Kind)),
				truncateString(orDash(a.Record.Source), 40),
				truncateString(orDash(a.Record.Copyright), 40),
				orDash(a.Record.Year),
				truncateString(orDash(a.Record.License), 30),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Identifier", "Container", "Source", "Holder", "Year", "License"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

// positionText title-cases a position, "bottom-right" becomes
// "Bottom-Right".
func (w *MarkdownWriter) positionText(p model.Position) string {
	if p == "" {
		return "-"
	}
	return w.title.String(string(p))
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [creditline](https://github.com/nao1215/creditline)*")
}
