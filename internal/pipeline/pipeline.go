package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/creditline/internal/annotator"
	"github.com/nao1215/creditline/internal/dom"
	"github.com/nao1215/creditline/internal/model"
)

// Job names one document to annotate.
type Job struct {
	// Input is the path of the HTML file to read.
	Input string `json:"input"`

	// Output is the path the annotated document is written to.
	// When empty, the rendered document is only kept in the Task.
	Output string `json:"output,omitempty"`
}

// Result is the outcome of one Job.
type Result struct {
	Job Job `json:"job"`

	// Stats are the annotator counters after the run.
	Stats annotator.Stats `json:"stats"`

	// Position is the label corner the document was rendered with.
	Position model.Position `json:"position"`

	// Annotations lists the labels in document order.
	Annotations []annotator.Annotation `json:"annotations"`

	// OutputHash is the hex SHA3-256 digest of the rendered document.
	OutputHash string `json:"output_hash,omitempty"`

	// Steps are the names of the steps that ran.
	Steps []string `json:"steps"`

	// Elapsed is the time the pipeline took.
	Elapsed time.Duration `json:"elapsed"`

	// Err is the first step failure.
	Err error `json:"-"`

	// ErrorMessage mirrors Err for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// Failed reports whether the job did not complete.
func (r *Result) Failed() bool {
	return r.Err != nil
}

// Task is the state handed from step to step for one Job.
type Task struct {
	// Job is the document being processed.
	Job Job

	// Document is set by the load step.
	Document *dom.Document

	// Annotator is set by the annotate step.
	Annotator *annotator.Annotator

	// Output is the rendered document, set by the render step.
	Output []byte

	// Result accumulates the outcome.
	Result *Result
}

// NewTask creates a Task for job.
func NewTask(job Job) *Task {
	return &Task{
		Job:    job,
		Result: &Result{Job: job},
	}
}

// Step is one stage of document processing.
type Step interface {
	// Do executes the step. Returning an error stops the pipeline unless
	// it runs with WithContinueOnError.
	Do(ctx context.Context, task *Task) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError keeps running later steps after a failure.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. Only the first error is kept in the Result.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence against task.
// Cancellation is checked between steps. The annotator created by the
// annotate step is closed before Execute returns.
func (p *Pipeline) Execute(ctx context.Context, task *Task) error {
	start := time.Now()
	defer func() {
		task.Result.Elapsed = time.Since(start)
		if task.Annotator != nil {
			task.Annotator.Close()
		}
	}()

	var firstErr error
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"input", task.Job.Input,
				"reason", ctx.Err(),
			)
			p.fail(task, ctx.Err())
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"input", task.Job.Input,
		)

		if err := step.Do(ctx, task); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"input", task.Job.Input,
				"error", err,
			)
			p.fail(task, err)
			if firstErr == nil {
				firstErr = err
			}
			if !p.continueOnError {
				return err
			}
			continue
		}

		task.Result.Steps = append(task.Result.Steps, step.Name())
	}

	return firstErr
}

// fail records err on the task result unless an earlier error is there.
func (p *Pipeline) fail(task *Task, err error) {
	if task.Result.Err != nil {
		return
	}
	task.Result.Err = err
	task.Result.ErrorMessage = err.Error()
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
