package annotator

import (
	"log/slog"
	"net/url"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/nao1215/creditline/internal/dom"
	"github.com/nao1215/creditline/internal/imageid"
	"github.com/nao1215/creditline/internal/model"
)

// ContainerKind tells which scanner tier produced an annotation.
type ContainerKind string

// Container kinds.
const (
	KindCard       ContainerKind = "card"
	KindGallery    ContainerKind = "gallery"
	KindStandalone ContainerKind = "standalone"
)

// Stats counts what an Annotator has done since it was created.
type Stats struct {
	// Annotated is the number of labels rendered, re-renders included.
	Annotated int `json:"annotated"`

	// Wrapped is the number of containers synthesized around bare images.
	Wrapped int `json:"wrapped"`

	// DefaultHits is the number of labels rendered from the default record.
	DefaultHits int `json:"default_hits"`

	// Dynamic is the number of labels rendered from change notifications.
	Dynamic int `json:"dynamic"`

	// ImportFailures is the number of rejected imports.
	ImportFailures int `json:"import_failures"`
}

// Annotation describes one rendered label.
type Annotation struct {
	// ImageID is the identifier the label was rendered for.
	ImageID string `json:"image_id"`

	// Kind is the container tier.
	Kind ContainerKind `json:"kind"`

	// Source is the resolved image URL, empty when the image has no src.
	Source string `json:"source,omitempty"`

	// Record is the metadata shown by the label.
	Record model.CopyrightRecord `json:"record"`

	// Matched is false when the default record was used.
	Matched bool `json:"matched"`

	// Node is the label element.
	Node *html.Node `json:"-"`

	// Container is the element the label is appended to.
	Container *html.Node `json:"-"`
}

// entry tracks a label rendered by this Annotator.
type entry struct {
	container *html.Node
	image     *html.Node
	id        string
	kind      ContainerKind
}

// Annotator renders copyright labels into a single document.
type Annotator struct {
	// doc is the document being annotated.
	doc *dom.Document

	// config is replaced wholesale on every update.
	config model.DisplayConfig

	// table is owned by this Annotator.
	table model.Table

	// resolver derives image identifiers.
	resolver imageid.Resolver

	// policy sanitizes record fields before they become markup.
	policy *bluemonday.Policy

	// logger is the diagnostic channel.
	logger *slog.Logger

	// watch is the mutation subscription installed by Init.
	watch *dom.Subscription

	// entries maps label nodes to what they were rendered for.
	entries map[*html.Node]*entry

	// stats counts activity for reports.
	stats Stats
}

// Option configures an Annotator.
type Option func(*Annotator)

// WithConfig sets the configuration Init merges its patch over.
func WithConfig(cfg model.DisplayConfig) Option {
	return func(a *Annotator) {
		a.config = cfg
	}
}

// WithTable sets the initial metadata table. The table is copied.
func WithTable(t model.Table) Option {
	return func(a *Annotator) {
		a.table = t.Clone()
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Annotator) {
		a.logger = logger
	}
}

// WithBaseURL sets the URL relative image sources are resolved against.
func WithBaseURL(base *url.URL) Option {
	return func(a *Annotator) {
		a.resolver = imageid.NewResolver(base)
	}
}

// New creates an Annotator for doc with the default configuration and the
// seed metadata table unless overridden by options.
func New(doc *dom.Document, opts ...Option) *Annotator {
	a := &Annotator{
		doc:     doc,
		config:  model.DefaultDisplayConfig(),
		table:   model.SeedTable(),
		policy:  labelPolicy(),
		entries: make(map[*html.Node]*entry),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.table == nil {
		a.table = model.Table{}
	}

	return a
}

// Init merges patch into the configuration, injects the stylesheet,
// annotates every eligible image and starts watching the document. Calling
// Init again re-applies the first three steps; the watcher is installed once.
func (a *Annotator) Init(patch model.ConfigPatch) {
	a.config = a.config.Merge(patch)
	a.InitStyles()
	a.AnnotateAllImages()
	a.startWatcher()

	a.logger.Debug("annotator initialized",
		"position", a.config.Position,
		"annotations", len(a.entries),
	)
}

// Close stops watching the document. Rendered labels stay in place.
func (a *Annotator) Close() {
	if a.watch != nil {
		a.watch.Unsubscribe()
		a.watch = nil
	}
}

// Document returns the annotated document.
func (a *Annotator) Document() *dom.Document {
	return a.doc
}

// Config returns the current display configuration.
func (a *Annotator) Config() model.DisplayConfig {
	return a.config
}

// Table returns a copy of the metadata table.
func (a *Annotator) Table() model.Table {
	return a.table.Clone()
}

// Stats returns the activity counters.
func (a *Annotator) Stats() Stats {
	return a.stats
}

// ImageID returns the identifier of img.
func (a *Annotator) ImageID(img *html.Node) string {
	return a.resolver.Resolve(img)
}

// CopyrightInfo returns the record for id, or the default record.
func (a *Annotator) CopyrightInfo(id string) model.CopyrightRecord {
	return a.table.Lookup(id)
}

// Annotations describes every label rendered by this Annotator that is
// still attached to the document, in document order.
func (a *Annotator) Annotations() []Annotation {
	out := make([]Annotation, 0, len(a.entries))
	for _, n := range dom.QueryAll(a.doc.Root(), annotationSel) {
		e, ok := a.entries[n]
		if !ok {
			continue
		}
		out = append(out, Annotation{
			ImageID:   e.id,
			Kind:      e.kind,
			Source:    a.resolver.SourceURL(e.image),
			Record:    a.table.Lookup(e.id),
			Matched:   a.table.Has(e.id),
			Node:      n,
			Container: e.container,
		})
	}
	return out
}

// prune forgets labels that are no longer attached to the document.
func (a *Annotator) prune() {
	root := a.doc.Root()
	for n := range a.entries {
		if !dom.Contains(root, n) {
			delete(a.entries, n)
		}
	}
}
