package replate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/livefir/replate/internal/metrics"
)

// Set is a named collection of templates sharing one configuration.
//
// Thread-safe: templates may be added and looked up concurrently. The
// templates themselves are not safe for concurrent rendering; use Clone to
// get an independent handle per goroutine.
type Set struct {
	opts      []Option
	metrics   *metrics.Collector
	templates map[string]*Template
	mu        sync.RWMutex
}

// NewSet creates an empty set. opts are applied to every template added.
func NewSet(opts ...Option) *Set {
	return &Set{
		opts:      opts,
		metrics:   newConfig(opts).Metrics,
		templates: make(map[string]*Template),
	}
}

// Add creates a template named name from source, replacing any template
// with the same name.
func (s *Set) Add(name, source string) (*Template, error) {
	if name == "" {
		return nil, fmt.Errorf("template name cannot be empty")
	}

	opts := make([]Option, 0, len(s.opts)+1)
	opts = append(opts, s.opts...)
	opts = append(opts, WithName(name))
	tmpl := New(source, opts...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[name] = tmpl
	return tmpl, nil
}

// Lookup returns the template named name.
func (s *Set) Lookup(name string) (*Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tmpl, exists := s.templates[name]
	if !exists {
		s.metrics.IncrementCustomCounter(metrics.TemplateNotFound)
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	return tmpl, nil
}

// Clone returns an independent copy of the template named name.
func (s *Set) Clone(name string) (*Template, error) {
	tmpl, err := s.Lookup(name)
	if err != nil {
		return nil, err
	}
	return tmpl.Clone(), nil
}

// Names returns the template names in sorted order.
func (s *Set) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of templates in the set.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.templates)
}

// ParseDir adds every .html, .tmpl and .replate file below dir. Templates
// are named by their slash-separated path relative to dir.
func (s *Set) ParseDir(dir string) error {
	fsys := os.DirFS(dir)

	files, err := discoverTemplateFiles(fsys)
	if err != nil {
		return fmt.Errorf("failed to discover templates in %s: %w", dir, err)
	}

	return s.addFiles(fsys, files)
}

// ParseFS adds the files of fsys matching any of patterns, as understood by
// fs.Glob. Templates are named by their path within fsys.
func (s *Set) ParseFS(fsys fs.FS, patterns ...string) error {
	var files []string
	for _, pattern := range patterns {
		matches, err := fs.Glob(fsys, pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return fmt.Errorf("pattern %q matches no files", pattern)
		}
		files = append(files, matches...)
	}

	return s.addFiles(fsys, files)
}

func (s *Set) addFiles(fsys fs.FS, files []string) error {
	for _, file := range files {
		content, err := fs.ReadFile(fsys, file)
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", file, err)
		}

		name := strings.TrimPrefix(path.Clean(file), "./")
		if _, err := s.Add(name, string(content)); err != nil {
			return err
		}
	}
	return nil
}
