package pipeline

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"golang.org/x/crypto/sha3"

	"github.com/nao1215/creditline/internal/annotator"
	"github.com/nao1215/creditline/internal/dom"
	"github.com/nao1215/creditline/internal/model"
)

// DefaultMaxDocumentSize is the largest HTML file the load step reads.
const DefaultMaxDocumentSize = 32 * 1024 * 1024

var (
	// ErrNoDocument is returned by steps that need a loaded document.
	ErrNoDocument = errors.New("no document loaded")

	// ErrDocumentTooLarge is returned when an input exceeds the size limit.
	ErrDocumentTooLarge = errors.New("document too large")
)

// LoadStep reads and parses the job input.
type LoadStep struct {
	// maxSize limits the bytes read from the input.
	maxSize int64
}

// NewLoadStep creates a load step reading at most maxSize bytes.
// A non-positive maxSize selects DefaultMaxDocumentSize.
func NewLoadStep(maxSize int64) *LoadStep {
	if maxSize <= 0 {
		maxSize = DefaultMaxDocumentSize
	}
	return &LoadStep{maxSize: maxSize}
}

// Name returns the step name.
func (s *LoadStep) Name() string {
	return "load"
}

// Do parses the input file. Valid UTF-8 is read as UTF-8; other content is
// decoded by its byte order mark or <meta> charset declaration.
func (s *LoadStep) Do(_ context.Context, task *Task) error {
	f, err := os.Open(task.Job.Input) //nolint:gosec // User-provided input path is intentional
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", task.Job.Input, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.maxSize+1))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", task.Job.Input, err)
	}
	if int64(len(data)) > s.maxSize {
		return fmt.Errorf("%w: %s exceeds %d bytes", ErrDocumentTooLarge, task.Job.Input, s.maxSize)
	}

	doc, err := dom.ParseBytes(data, "")
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", task.Job.Input, err)
	}
	task.Document = doc
	return nil
}

// AnnotateStep runs an Annotator over the loaded document.
type AnnotateStep struct {
	config  model.DisplayConfig
	table   model.Table
	baseURL *url.URL
	hidden  bool
	logger  *slog.Logger
}

// AnnotateStepOption configures an AnnotateStep.
type AnnotateStepOption func(*AnnotateStep)

// WithAnnotateConfig sets the display configuration.
func WithAnnotateConfig(cfg model.DisplayConfig) AnnotateStepOption {
	return func(s *AnnotateStep) {
		s.config = cfg
	}
}

// WithAnnotateTable sets the metadata table. Every task gets its own copy.
func WithAnnotateTable(t model.Table) AnnotateStepOption {
	return func(s *AnnotateStep) {
		if t != nil {
			s.table = t
		}
	}
}

// WithAnnotateBaseURL sets the base relative image sources resolve against.
func WithAnnotateBaseURL(base *url.URL) AnnotateStepOption {
	return func(s *AnnotateStep) {
		s.baseURL = base
	}
}

// WithAnnotateHidden hides every label after annotation.
func WithAnnotateHidden(hidden bool) AnnotateStepOption {
	return func(s *AnnotateStep) {
		s.hidden = hidden
	}
}

// WithAnnotateLogger sets the logger handed to the Annotator.
func WithAnnotateLogger(logger *slog.Logger) AnnotateStepOption {
	return func(s *AnnotateStep) {
		s.logger = logger
	}
}

// NewAnnotateStep creates an annotate step with the default configuration
// and the seed table.
func NewAnnotateStep(opts ...AnnotateStepOption) *AnnotateStep {
	s := &AnnotateStep{
		config: model.DefaultDisplayConfig(),
		table:  model.SeedTable(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *AnnotateStep) Name() string {
	return "annotate"
}

// Do annotates the document and records the labels and counters.
func (s *AnnotateStep) Do(_ context.Context, task *Task) error {
	if task.Document == nil {
		return ErrNoDocument
	}

	opts := []annotator.Option{
		annotator.WithConfig(s.config),
		annotator.WithTable(s.table),
		annotator.WithLogger(s.logger.With("input", task.Job.Input)),
	}
	if s.baseURL != nil {
		opts = append(opts, annotator.WithBaseURL(s.baseURL))
	}

	a := annotator.New(task.Document, opts...)
	a.Init(model.ConfigPatch{})
	if s.hidden {
		a.ToggleVisibility(false)
	}
	task.Annotator = a

	task.Result.Stats = a.Stats()
	task.Result.Position = a.Config().Position
	task.Result.Annotations = a.Annotations()
	return nil
}

// RenderStep serializes the document and computes its digest.
type RenderStep struct{}

// NewRenderStep creates a render step.
func NewRenderStep() *RenderStep {
	return &RenderStep{}
}

// Name returns the step name.
func (s *RenderStep) Name() string {
	return "render"
}

// Charset declarations rewritten by the render step.
var (
	metaCharsetSel     = dom.MustCompile(`meta[charset]`)
	metaContentTypeSel = dom.MustCompile(`meta[http-equiv="content-type" i]`)
)

// Do renders the document into task.Output. Output is always UTF-8, so any
// <meta> charset declaration is rewritten to match, and a head without one
// gets <meta charset="utf-8"> as its first child.
func (s *RenderStep) Do(_ context.Context, task *Task) error {
	if task.Document == nil {
		return ErrNoDocument
	}

	root := task.Document.Root()
	charsets := dom.QueryAll(root, metaCharsetSel)
	contentTypes := dom.QueryAll(root, metaContentTypeSel)
	for _, m := range charsets {
		dom.SetAttr(m, "charset", "utf-8")
	}
	for _, m := range contentTypes {
		dom.SetAttr(m, "content", "text/html; charset=utf-8")
	}
	if head := task.Document.Head(); head != nil && len(charsets)+len(contentTypes) == 0 {
		meta := dom.CreateElement("meta")
		dom.SetAttr(meta, "charset", "utf-8")
		head.InsertBefore(meta, head.FirstChild)
	}

	var buf bytes.Buffer
	if err := task.Document.Render(&buf); err != nil {
		return fmt.Errorf("failed to render %s: %w", task.Job.Input, err)
	}
	task.Output = buf.Bytes()
	task.Result.OutputHash = Digest(task.Output)
	return nil
}

// Digest returns the hex SHA3-256 digest of data.
func Digest(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// WriteStep writes the rendered document to the job output.
type WriteStep struct {
	// perm is the mode of newly created files.
	perm os.FileMode
}

// NewWriteStep creates a write step.
func NewWriteStep() *WriteStep {
	return &WriteStep{perm: 0644}
}

// Name returns the step name.
func (s *WriteStep) Name() string {
	return "write"
}

// Do writes task.Output to Job.Output. A job without an output path is
// left untouched. Existing files keep their mode.
func (s *WriteStep) Do(_ context.Context, task *Task) error {
	if task.Job.Output == "" {
		return nil
	}

	perm := s.perm
	if info, err := os.Stat(task.Job.Output); err == nil {
		perm = info.Mode().Perm()
	}

	if dir := filepath.Dir(task.Job.Output); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := os.WriteFile(task.Job.Output, task.Output, perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", task.Job.Output, err)
	}
	return nil
}

// Settings configures DefaultPipeline.
type Settings struct {
	// Config is the display configuration every document starts with.
	Config model.DisplayConfig

	// Table is the metadata table every document starts with.
	Table model.Table

	// BaseURL resolves relative image sources. Nil means "/".
	BaseURL *url.URL

	// Hidden hides every label after annotation.
	Hidden bool

	// MaxDocumentSize limits the input size.
	MaxDocumentSize int64
}

// DefaultSettings returns the default display configuration and seed table.
func DefaultSettings() Settings {
	return Settings{
		Config:          model.DefaultDisplayConfig(),
		Table:           model.SeedTable(),
		MaxDocumentSize: DefaultMaxDocumentSize,
	}
}

// withDefaults fills the zero fields of s.
func (s Settings) withDefaults() Settings {
	if s.Config == (model.DisplayConfig{}) {
		s.Config = model.DefaultDisplayConfig()
	}
	if s.Table == nil {
		s.Table = model.SeedTable()
	}
	return s
}

// DefaultPipeline creates the load, annotate, render and write pipeline.
func DefaultPipeline(settings Settings, opts ...Option) *Pipeline {
	settings = settings.withDefaults()
	p := New(opts...)
	p.AddSteps(
		NewLoadStep(settings.MaxDocumentSize),
		NewAnnotateStep(
			WithAnnotateConfig(settings.Config),
			WithAnnotateTable(settings.Table),
			WithAnnotateBaseURL(settings.BaseURL),
			WithAnnotateHidden(settings.Hidden),
			WithAnnotateLogger(p.logger),
		),
		NewRenderStep(),
		NewWriteStep(),
	)
	return p
}

// AnnotateDocument annotates the HTML read from r and writes the result to
// w. It runs the annotate and render steps of DefaultPipeline without any
// file access.
func AnnotateDocument(ctx context.Context, r io.Reader, w io.Writer, settings Settings, opts ...Option) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	doc, err := dom.ParseBytes(data, "")
	if err != nil {
		return nil, err
	}

	settings = settings.withDefaults()
	p := New(opts...)
	p.AddSteps(
		NewAnnotateStep(
			WithAnnotateConfig(settings.Config),
			WithAnnotateTable(settings.Table),
			WithAnnotateBaseURL(settings.BaseURL),
			WithAnnotateHidden(settings.Hidden),
			WithAnnotateLogger(p.logger),
		),
		NewRenderStep(),
	)

	task := NewTask(Job{})
	task.Document = doc
	if err := p.Execute(ctx, task); err != nil {
		return task.Result, err
	}
	if _, err := w.Write(task.Output); err != nil {
		return task.Result, fmt.Errorf("failed to write document: %w", err)
	}
	return task.Result, nil
}
