package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, task *Task) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, task *Task) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, task)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

// silentLogger discards everything.
func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()
		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
		if p.logger == nil {
			t.Error("expected default logger")
		}
		if p.continueOnError {
			t.Error("expected continueOnError to be false by default")
		}
	})

	t.Run("applies options", func(t *testing.T) {
		t.Parallel()

		logger := silentLogger()
		p := New(WithContinueOnError(true), WithLogger(logger))
		if !p.continueOnError {
			t.Error("expected continueOnError to be true")
		}
		if p.logger != logger {
			t.Error("expected custom logger")
		}
	})
}

// TestPipelineExecute tests step execution semantics.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		p := New(WithLogger(silentLogger()))
		for _, name := range []string{"step-1", "step-2"} {
			p.AddStep(&mockStep{
				name: name,
				doFunc: func(_ context.Context, _ *Task) error {
					order = append(order, name)
					return nil
				},
			})
		}

		task := NewTask(Job{Input: "page.html"})
		if err := p.Execute(context.Background(), task); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"step-1", "step-2"}
		if !reflect.DeepEqual(order, want) {
			t.Errorf("wrong execution order: %v", order)
		}
		if !reflect.DeepEqual(task.Result.Steps, want) {
			t.Errorf("expected performed steps %v, got %v", want, task.Result.Steps)
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		expectedErr := errors.New("step failed")
		second := &mockStep{name: "should-not-run"}

		p := New(WithLogger(silentLogger()))
		p.AddSteps(
			&mockStep{
				name:   "failing-step",
				doFunc: func(_ context.Context, _ *Task) error { return expectedErr },
			},
			second,
		)

		task := NewTask(Job{Input: "page.html"})
		err := p.Execute(context.Background(), task)
		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if second.callCount != 0 {
			t.Error("second step should not have been called")
		}
		if !task.Result.Failed() || task.Result.ErrorMessage != "step failed" {
			t.Errorf("expected error recorded in result, got %+v", task.Result)
		}
		if len(task.Result.Steps) != 0 {
			t.Errorf("failed step should not be recorded as performed: %v", task.Result.Steps)
		}
	})

	t.Run("continues on error when configured", func(t *testing.T) {
		t.Parallel()

		first := errors.New("first")
		p := New(WithLogger(silentLogger()), WithContinueOnError(true))
		second := &mockStep{name: "should-run"}
		p.AddSteps(
			&mockStep{name: "a", doFunc: func(_ context.Context, _ *Task) error { return first }},
			second,
			&mockStep{name: "b", doFunc: func(_ context.Context, _ *Task) error { return errors.New("second") }},
		)

		task := NewTask(Job{})
		err := p.Execute(context.Background(), task)
		if !errors.Is(err, first) {
			t.Errorf("expected first error, got %v", err)
		}
		if second.callCount != 1 {
			t.Error("expected later step to run")
		}
		if !errors.Is(task.Result.Err, first) {
			t.Errorf("expected first error kept in result, got %v", task.Result.Err)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		step := &mockStep{name: "never"}
		p := New(WithLogger(silentLogger()))
		p.AddStep(step)

		task := NewTask(Job{})
		if err := p.Execute(ctx, task); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if step.callCount != 0 {
			t.Error("step should not run after cancellation")
		}
		if !errors.Is(task.Result.Err, context.Canceled) {
			t.Errorf("expected cancellation recorded, got %v", task.Result.Err)
		}
	})

	t.Run("records elapsed time", func(t *testing.T) {
		t.Parallel()

		p := New(WithLogger(silentLogger()))
		p.AddStep(&mockStep{name: "noop"})
		task := NewTask(Job{})
		if err := p.Execute(context.Background(), task); err != nil {
			t.Fatal(err)
		}
		if task.Result.Elapsed < 0 {
			t.Errorf("unexpected elapsed %v", task.Result.Elapsed)
		}
	})
}

// TestPipelineStepNames tests step name listing.
func TestPipelineStepNames(t *testing.T) {
	t.Parallel()

	p := DefaultPipeline(DefaultSettings(), WithLogger(silentLogger()))
	want := []string{"load", "annotate", "render", "write"}
	if !reflect.DeepEqual(p.StepNames(), want) {
		t.Errorf("expected %v, got %v", want, p.StepNames())
	}
	if p.StepCount() != len(want) {
		t.Errorf("expected %d steps, got %d", len(want), p.StepCount())
	}
}
