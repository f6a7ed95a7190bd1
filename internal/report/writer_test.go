package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/nao1215/creditline/internal/annotator"
	"github.com/nao1215/creditline/internal/model"
	"github.com/nao1215/creditline/internal/pipeline"
)

// createTestResults creates results with sample data for testing.
func createTestResults() []*pipeline.Result {
	seed := model.SeedTable()
	return []*pipeline.Result{
		{
			Job:        pipeline.Job{Input: "gallery.html", Output: "out/gallery.html"},
			Stats:      annotator.Stats{Annotated: 3, Wrapped: 1, DefaultHits: 1},
			Position:   model.PositionBottomRight,
			OutputHash: "abc123",
			Annotations: []annotator.Annotation{
				{ImageID: "f22-001", Kind: annotator.KindCard, Record: seed["f22-001"], Matched: true},
				{ImageID: "su57-001", Kind: annotator.KindGallery, Record: seed["su57-001"], Matched: true},
				{ImageID: "mig29-001", Kind: annotator.KindStandalone, Record: model.DefaultRecord()},
			},
		},
		{
			Job:         pipeline.Job{Input: "news.html"},
			Position:    model.PositionTopLeft,
			Annotations: []annotator.Annotation{{ImageID: "f16-001", Kind: annotator.KindCard, Record: seed["f16-001"], Matched: true}},
		},
		{
			Job:          pipeline.Job{Input: "broken.html"},
			Err:          errors.New("failed to open broken.html"),
			ErrorMessage: "failed to open broken.html",
		},
		nil,
	}
}

// TestNewSummary tests result aggregation.
func TestNewSummary(t *testing.T) {
	t.Parallel()

	s := NewSummary(createTestResults())

	if s.Documents != 3 || s.Failed != 1 {
		t.Errorf("expected 3 documents with 1 failure, got %d/%d", s.Documents, s.Failed)
	}
	if s.Annotations != 4 || s.Matched != 3 || s.DefaultHits != 1 || s.Wrapped != 1 {
		t.Errorf("unexpected counts %+v", s)
	}
	if s.ByKind[annotator.KindCard] != 2 || s.ByKind[annotator.KindGallery] != 1 || s.ByKind[annotator.KindStandalone] != 1 {
		t.Errorf("unexpected kinds %v", s.ByKind)
	}
	if len(s.Holders) != 3 || s.Holders[0].Holder != "U.S. Air Force" || s.Holders[0].Count != 2 {
		t.Errorf("expected holders sorted by count, got %+v", s.Holders)
	}
	if len(s.Failures) != 1 || s.Failures[0].Input != "broken.html" {
		t.Errorf("unexpected failures %+v", s.Failures)
	}
	if !s.HasFailures() {
		t.Error("expected HasFailures")
	}

	empty := NewSummary(nil)
	if empty.Documents != 0 || empty.HasFailures() || len(empty.Holders) != 0 {
		t.Errorf("unexpected empty summary %+v", empty)
	}
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes summary and documents", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewSimpleWriter(&buf).Write(createTestResults())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("expected %d bytes reported, got %d", buf.Len(), n)
		}

		output := buf.String()
		for _, want := range []string{
			"CREDITLINE REPORT",
			"Documents:    3 (1 failed)",
			"Annotations:  4",
			"U.S. Air Force",
			"[+] gallery.html",
			"Output:      out/gallery.html",
			"[!] broken.html",
			"failed to open broken.html",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
		if strings.Contains(output, "f22-001") {
			t.Error("expected labels to be listed only in verbose mode")
		}
	})

	t.Run("verbose mode lists labels", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestResults()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "f22-001") || !strings.Contains(output, "SHA3-256:    abc123") {
			t.Errorf("expected verbose details, got:\n%s", output)
		}
		if !strings.Contains(output, "? mig29-001") {
			t.Error("expected default-record marker")
		}
	})

	t.Run("summary only", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteSummary(NewSummary(createTestResults())); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "DOCUMENTS") {
			t.Error("summary should not list documents")
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes valid report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithVersion("v1.2.3")).Write(createTestResults()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got struct {
			Version string `json:"version"`
			Summary struct {
				Documents   int `json:"documents"`
				Annotations int `json:"annotations"`
			} `json:"summary"`
			Documents []struct {
				Job struct {
					Input string `json:"input"`
				} `json:"job"`
				Annotations []struct {
					ImageID string `json:"image_id"`
					Matched bool   `json:"matched"`
				} `json:"annotations"`
				Error string `json:"error"`
			} `json:"documents"`
		}
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
		}
		if got.Version != "v1.2.3" || got.Summary.Documents != 3 || got.Summary.Annotations != 4 {
			t.Errorf("unexpected header %+v", got)
		}
		if len(got.Documents) != 3 {
			t.Fatalf("expected nil results to be dropped, got %d documents", len(got.Documents))
		}
		if got.Documents[0].Annotations[0].ImageID != "f22-001" || !got.Documents[0].Annotations[0].Matched {
			t.Errorf("unexpected first annotation %+v", got.Documents[0].Annotations[0])
		}
		if got.Documents[2].Error != "failed to open broken.html" {
			t.Errorf("expected error message, got %q", got.Documents[2].Error)
		}
	})

	t.Run("compact and pretty", func(t *testing.T) {
		t.Parallel()

		summary := NewSummary(createTestResults())

		var compact, pretty bytes.Buffer
		if _, err := NewJSONWriter(&compact).WriteSummary(summary); err != nil {
			t.Fatal(err)
		}
		if _, err := NewJSONWriter(&pretty, WithPrettyPrint()).WriteSummary(summary); err != nil {
			t.Fatal(err)
		}
		if strings.Count(compact.String(), "\n") != 1 {
			t.Error("expected single-line compact output")
		}
		if !strings.Contains(pretty.String(), "\n  \"documents\": 3") {
			t.Errorf("expected indented output, got %s", pretty.String())
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(createTestResults()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"# Creditline Report",
		"## Summary",
		"```mermaid",
		"Labels by Copyright Holder",
		"### gallery.html",
		"Position: Bottom-Right",
		"Position: Top-Left",
		"`mig29-001` (default)",
		"Russian Ministry of Defense",
		"Standalone containers",
		"Annotation failed: failed to open broken.html",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
}

// TestMarkdownWriterAlerts tests alert selection.
func TestMarkdownWriterAlerts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		summary *Summary
		want    string
	}{
		{name: "failures", summary: &Summary{Failed: 1}, want: "[!WARNING]"},
		{name: "default hits", summary: &Summary{Annotations: 2, DefaultHits: 1}, want: "[!IMPORTANT]"},
		{name: "no images", summary: &Summary{}, want: "[!NOTE]"},
		{name: "all matched", summary: &Summary{Annotations: 2, Matched: 2}, want: "[!TIP]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			if _, err := NewMarkdownWriter(&buf).WriteSummary(tt.summary); err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("expected %s alert, got:\n%s", tt.want, buf.String())
			}
		})
	}
}

// TestMultiWriter tests writing to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var text, js bytes.Buffer
	w := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))

	n, err := w.Write(createTestResults())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != text.Len()+js.Len() {
		t.Errorf("expected %d bytes, got %d", text.Len()+js.Len(), n)
	}
	if !json.Valid(js.Bytes()) {
		t.Error("expected valid JSON output")
	}
}

// TestTruncateString tests rune-aware truncation.
func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{in: "short", max: 10, want: "short"},
		{in: "exactly10!", max: 10, want: "exactly10!"},
		{in: "this is too long", max: 10, want: "this is..."},
		{in: "美国空军官方图库", max: 5, want: "美国..."},
		{in: "abcdef", max: 2, want: "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := truncateString(tt.in, tt.max); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}
