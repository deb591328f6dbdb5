// Package replate is a structural HTML templating engine.
//
// A template source is plain HTML containing ${...} markers:
//
//	<a class="${user.role}" href="/u/${user.id}">${user.name:title}</a>
//
// The first render parses the source once into a node tree and records which
// text nodes and attributes contain markers. Every later render only rewrites
// those locations; the tree is never rebuilt and the returned nodes keep
// their identity across renders.
//
// Values are HTML-escaped by default. The raw filter inserts a value
// verbatim. Paths that cannot be resolved render as the empty string.
package replate

import (
	"io"
	"log/slog"
	"time"

	"golang.org/x/net/html"

	"github.com/livefir/replate/internal/dom"
	"github.com/livefir/replate/internal/filter"
	"github.com/livefir/replate/internal/metrics"
	"github.com/livefir/replate/internal/replace"
)

type (
	// Node is a node of a rendered template.
	Node = dom.Node
	// Document is the root wrapper owning a template's top-level nodes.
	Document = dom.Document
	// Tree is the replacement tree of a built template.
	Tree = replace.Tree
	// Filter transforms a resolved value, as in ${name:upper}.
	Filter = filter.Func
	// Filters is an immutable set of named filters.
	Filters = filter.Registry
)

// DefaultFilters returns the built-in filters: raw, escape, lower, upper,
// title, trim and truncate.
func DefaultFilters() *Filters {
	return filter.Default()
}

// Template is a reusable template handle.
//
// A Template is not safe for concurrent use. Clone it to render independent
// streams in parallel.
type Template struct {
	source string
	config *Config

	built bool
	doc   *dom.Document
	tree  *replace.Tree
}

// New creates a template from source. Nothing is parsed until the first
// call to Build or Render.
func New(source string, opts ...Option) *Template {
	config := newConfig(opts)
	config.Metrics.IncrementTemplateCreated()

	return &Template{
		source: source,
		config: config,
	}
}

// Create is an alias for New.
func Create(source string, opts ...Option) *Template {
	return New(source, opts...)
}

// Name returns the configured template name.
func (t *Template) Name() string {
	return t.config.Name
}

// Source returns the template source as given to New.
func (t *Template) Source() string {
	return t.source
}

// Built reports whether the node tree and replacement tree exist.
func (t *Template) Built() bool {
	return t.built
}

// Build parses the source and builds the replacement tree. It does nothing
// on a built template. On failure the template stays unbuilt and the error
// is a *BuildError.
func (t *Template) Build() error {
	if t.built {
		return nil
	}

	start := time.Now()
	logger := t.config.Logger.With(slog.String("template", t.config.Name))

	source := t.source
	if t.config.Minify {
		minified, err := minifySource(source)
		if err != nil {
			// If minification fails, fall back to original content
			logger.Warn("source minification failed", slog.String("error", err.Error()))
		} else {
			source = minified
		}
	}

	doc, err := t.config.Parser(source, t.config.Context)
	if err != nil {
		t.config.Metrics.IncrementBuildFailure()
		logger.Error("template build failed", slog.String("error", err.Error()))
		return &BuildError{Name: t.config.Name, Err: err}
	}
	if doc == nil {
		doc = &dom.Document{}
	}

	t.doc = doc
	t.tree = replace.Build(doc)
	t.built = true
	t.checkFilters(logger)

	elapsed := time.Since(start)
	t.config.Metrics.RecordBuild(elapsed)

	stats := t.tree.Stats()
	logger.Debug("template built",
		slog.Int("nodes", len(doc.Nodes)),
		slog.Int("dynamic_texts", stats.Texts),
		slog.Int("dynamic_attributes", stats.Attributes),
		slog.Duration("duration", elapsed),
	)
	return nil
}

// checkFilters reports markers naming a filter that is not registered.
// Such markers render their value escaped.
func (t *Template) checkFilters(logger *slog.Logger) {
	for _, u := range t.tree.Units() {
		if u.Filter == "" || u.Filter == filter.Raw {
			continue
		}
		if _, ok := t.config.Filters.Lookup(u.Filter); ok {
			continue
		}
		t.config.Metrics.IncrementCustomCounter(metrics.UnknownFilter)
		logger.Warn("unknown filter",
			slog.String("filter", u.Filter),
			slog.String("marker", u.Source),
		)
	}
}

// Render builds the template if needed, writes data into every dynamic
// location and returns the top-level nodes. The returned slice and nodes are
// the same on every call; only their content changes.
func (t *Template) Render(data any) ([]*Node, error) {
	if err := t.Build(); err != nil {
		return nil, err
	}

	start := time.Now()
	written := replace.Apply(t.doc, t.tree, data, t.config.Filters)
	t.config.Metrics.RecordRender(written, time.Since(start))

	return t.doc.Nodes, nil
}

// RenderTo renders data and writes the resulting HTML to w.
func (t *Template) RenderTo(w io.Writer, data any) error {
	nodes, err := t.Render(data)
	if err != nil {
		return err
	}
	return dom.Render(w, nodes...)
}

// AppendTo renders data and appends a copy of the result to parent, a node
// of a document built with golang.org/x/net/html.
func (t *Template) AppendTo(parent *html.Node, data any) error {
	nodes, err := t.Render(data)
	if err != nil {
		return err
	}
	dom.AppendTo(parent, nodes...)
	return nil
}

// Clone returns a template sharing this template's source, configuration
// and, once built, its replacement tree. The clone owns an independent copy
// of the node tree, so both can hold different content at the same time.
func (t *Template) Clone() *Template {
	clone := &Template{
		source: t.source,
		config: t.config,
		built:  t.built,
		tree:   t.tree,
	}
	if t.built {
		clone.doc = t.doc.Clone()
	}
	t.config.Metrics.IncrementTemplateCloned()
	return clone
}

// Nodes returns the current top-level nodes, or nil before the first build.
func (t *Template) Nodes() []*Node {
	if !t.built {
		return nil
	}
	return t.doc.Nodes
}

// Document returns the node tree, or nil before the first build.
func (t *Template) Document() *Document {
	return t.doc
}

// Replacements returns the replacement tree. It is nil before the first
// build and for templates without markers. It must not be modified.
func (t *Template) Replacements() *Tree {
	return t.tree
}

// HTML serializes the current state of the node tree.
func (t *Template) HTML() string {
	if !t.built {
		return ""
	}
	return t.doc.HTML()
}
