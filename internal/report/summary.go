package report

import (
	"sort"
	"time"

	"github.com/nao1215/creditline/internal/annotator"
	"github.com/nao1215/creditline/internal/pipeline"
)

// Summary condenses a batch of results into the counts shown at the top of
// every report.
type Summary struct {
	// GeneratedAt is when the summary was built.
	GeneratedAt time.Time `json:"generated_at"`

	// Documents is the number of processed jobs.
	Documents int `json:"documents"`

	// Failed is the number of jobs that did not complete.
	Failed int `json:"failed"`

	// Annotations is the number of labels in the output documents.
	Annotations int `json:"annotations"`

	// Matched is the number of labels backed by a table entry.
	Matched int `json:"matched"`

	// DefaultHits is the number of labels showing the default record.
	DefaultHits int `json:"default_hits"`

	// Wrapped is the number of synthesized containers.
	Wrapped int `json:"wrapped"`

	// ByKind counts labels per container tier.
	ByKind map[annotator.ContainerKind]int `json:"by_kind"`

	// Holders counts labels per copyright holder.
	Holders []HolderCount `json:"holders,omitempty"`

	// Failures lists the failed inputs with their error.
	Failures []Failure `json:"failures,omitempty"`
}

// HolderCount is the number of labels crediting one holder.
type HolderCount struct {
	Holder string `json:"holder"`
	Count  int    `json:"count"`
}

// Failure is one job that did not complete.
type Failure struct {
	Input string `json:"input"`
	Error string `json:"error"`
}

// NewSummary builds a Summary from results. Nil results are ignored.
func NewSummary(results []*pipeline.Result) *Summary {
	s := &Summary{
		GeneratedAt: time.Now(),
		ByKind:      make(map[annotator.ContainerKind]int),
	}

	holders := make(map[string]int)
	for _, r := range results {
		if r == nil {
			continue
		}
		s.Documents++
		if r.Failed() {
			s.Failed++
			s.Failures = append(s.Failures, Failure{Input: r.Job.Input, Error: r.ErrorMessage})
			continue
		}

		s.Wrapped += r.Stats.Wrapped
		for _, a := range r.Annotations {
			s.Annotations++
			s.ByKind[a.Kind]++
			if a.Matched {
				s.Matched++
			} else {
				s.DefaultHits++
			}
			holders[a.Record.Copyright]++
		}
	}

	for holder, count := range holders {
		s.Holders = append(s.Holders, HolderCount{Holder: holder, Count: count})
	}
	sort.Slice(s.Holders, func(i, j int) bool {
		if s.Holders[i].Count != s.Holders[j].Count {
			return s.Holders[i].Count > s.Holders[j].Count
		}
		return s.Holders[i].Holder < s.Holders[j].Holder
	})

	return s
}

// HasFailures reports whether any job failed.
func (s *Summary) HasFailures() bool {
	return s.Failed > 0
}

// kinds is the display order of container tiers.
var kinds = []annotator.ContainerKind{
	annotator.KindCard,
	annotator.KindGallery,
	annotator.KindStandalone,
}
