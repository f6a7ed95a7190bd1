package pipeline

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/creditline/internal/model"
)

// defaultConcurrency is used when no WithConcurrency option is given.
const defaultConcurrency = 4

// Processor annotates many documents concurrently.
// Every job gets a fresh pipeline, and with it its own Annotator and a
// private copy of the metadata table, so jobs never share mutable state.
type Processor struct {
	// pipelineFactory creates a new pipeline for each job.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of concurrent jobs.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// settings feed the default pipeline factory.
	settings Settings

	mu sync.Mutex
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithConcurrency sets the maximum number of concurrent jobs.
// Non-positive values are ignored.
func WithConcurrency(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithBatchLogger sets a custom logger for batch processing and for the
// default pipelines.
func WithBatchLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithConfig sets the display configuration of every document.
func WithConfig(cfg model.DisplayConfig) ProcessorOption {
	return func(p *Processor) {
		p.settings.Config = cfg
	}
}

// WithTable sets the metadata table every document starts with.
func WithTable(t model.Table) ProcessorOption {
	return func(p *Processor) {
		p.settings.Table = t
	}
}

// WithHidden hides every label after annotation.
func WithHidden(hidden bool) ProcessorOption {
	return func(p *Processor) {
		p.settings.Hidden = hidden
	}
}

// WithBaseURL sets the base relative image sources resolve against.
func WithBaseURL(base *url.URL) ProcessorOption {
	return func(p *Processor) {
		p.settings.BaseURL = base
	}
}

// WithSettings replaces all document settings at once.
func WithSettings(s Settings) ProcessorOption {
	return func(p *Processor) {
		p.settings = s
	}
}

// WithPipelineFactory replaces the default pipeline. The factory is called
// once per job.
func WithPipelineFactory(factory func() *Pipeline) ProcessorOption {
	return func(p *Processor) {
		p.pipelineFactory = factory
	}
}

// NewProcessor creates a Processor running DefaultPipeline.
func NewProcessor(opts ...ProcessorOption) *Processor {
	p := &Processor{
		concurrency: defaultConcurrency,
		settings:    DefaultSettings(),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.pipelineFactory == nil {
		settings := p.settings
		logger := p.logger
		p.pipelineFactory = func() *Pipeline {
			return DefaultPipeline(settings, WithLogger(logger))
		}
	}

	return p
}

// Concurrency returns the job limit.
func (p *Processor) Concurrency() int {
	return p.concurrency
}

// ProcessBatch runs every job and returns the results in job order.
// A failed job is recorded in its Result and does not stop the others; the
// returned error is only set when ctx is cancelled.
func (p *Processor) ProcessBatch(ctx context.Context, jobs []Job) ([]*Result, error) {
	p.logger.Info("starting batch processing",
		"total_jobs", len(jobs),
		"concurrency", p.concurrency,
	)

	startTime := time.Now()
	results := make([]*Result, len(jobs))

	err := p.ProcessBatchWithCallback(ctx, jobs, func(result *Result, index int) {
		p.mu.Lock()
		results[index] = result
		p.mu.Unlock()
	})

	p.logger.Info("batch processing complete",
		"total_jobs", len(jobs),
		"elapsed", time.Since(startTime),
	)

	// Jobs skipped by cancellation still get a result.
	for i, r := range results {
		if r == nil {
			r = &Result{Job: jobs[i]}
			if err != nil {
				r.Err = err
				r.ErrorMessage = err.Error()
			}
			results[i] = r
		}
	}

	return results, err
}

// ProcessBatchWithCallback runs every job and calls callback with each
// result and its job index as soon as the job finishes. The callback is
// called from worker goroutines and must be safe for concurrent use.
func (p *Processor) ProcessBatchWithCallback(
	ctx context.Context,
	jobs []Job,
	callback func(result *Result, index int),
) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			task := NewTask(job)
			if err := p.pipelineFactory().Execute(ctx, task); err != nil {
				p.logger.Warn("annotation failed",
					"input", job.Input,
					"error", err,
				)
			} else {
				p.logger.Info("document annotated",
					"input", job.Input,
					"annotations", len(task.Result.Annotations),
				)
			}

			callback(task.Result, i)
			return nil
		})
	}

	return g.Wait()
}
