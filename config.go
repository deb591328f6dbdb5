package replate

import (
	"log/slog"

	"github.com/livefir/replate/internal/dom"
	"github.com/livefir/replate/internal/filter"
	"github.com/livefir/replate/internal/metrics"
)

// ParseFunc turns a template source into a document. The context names the
// element the source is parsed inside of.
type ParseFunc func(source, context string) (*dom.Document, error)

// Config holds template configuration options
type Config struct {
	Name    string            // Name used in logs and errors
	Filters *filter.Registry  // Filters available to markers
	Logger  *slog.Logger      // Structured logger; discarded when nil
	Metrics *metrics.Collector // Optional metrics collector
	Minify  bool              // Collapse whitespace in the source before parsing
	Context string            // Element the source is parsed inside of
	Parser  ParseFunc         // Markup parser; dom.Parse by default
}

// Option is a functional option for configuring a Template
type Option func(*Config)

// WithName sets the template name used in logs and errors
func WithName(name string) Option {
	return func(c *Config) {
		c.Name = name
	}
}

// WithFilters replaces the filter registry
func WithFilters(reg *filter.Registry) Option {
	return func(c *Config) {
		if reg != nil {
			c.Filters = reg
		}
	}
}

// WithFilter adds a single filter on top of the configured registry. The
// registry itself is not modified; a derived one is stored in the config.
func WithFilter(name string, fn Filter) Option {
	return func(c *Config) {
		c.Filters = c.Filters.With(name, fn)
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithMetrics records build and render activity in collector
func WithMetrics(collector *metrics.Collector) Option {
	return func(c *Config) {
		c.Metrics = collector
	}
}

// WithMinify enables source minification before parsing
func WithMinify(enabled bool) Option {
	return func(c *Config) {
		c.Minify = enabled
	}
}

// WithContext sets the element the source is parsed inside of, for
// sources such as table rows that are only valid in a specific parent
func WithContext(tag string) Option {
	return func(c *Config) {
		c.Context = tag
	}
}

// WithParser replaces the markup parser
func WithParser(parse ParseFunc) Option {
	return func(c *Config) {
		if parse != nil {
			c.Parser = parse
		}
	}
}

func newConfig(opts []Option) *Config {
	config := &Config{
		Filters: filter.Default(),
		Context: dom.DefaultContext,
		Parser:  dom.Parse,
	}

	for _, opt := range opts {
		opt(config)
	}

	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return config
}
