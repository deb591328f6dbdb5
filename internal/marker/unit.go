// Package marker parses ${...} substitution markers out of text and renders
// them against data.
//
// A marker names a dotted path into the data, optionally followed by a filter
// and the filter's arguments, all separated by colons:
//
//	${user.name}
//	${user.name:upper}
//	${user.bio:truncate:80:...}
//
// Text containing markers is scanned once into a Fragment, an alternating
// sequence of literal strings and Units. Rendering a Fragment concatenates the
// literals with each Unit's rendered value.
package marker

import (
	"html"
	"strings"

	"github.com/livefir/replate/internal/filter"
	"github.com/livefir/replate/internal/lookup"
)

// Unit is a single parsed marker. It is immutable once parsed.
type Unit struct {
	Path   string   `json:"path"`
	Filter string   `json:"filter,omitempty"`
	Args   []string `json:"args,omitempty"`
	// Source is the marker body as written, without the ${ and }.
	Source string `json:"-"`
}

// ParseUnit parses a marker body such as "user.name:truncate:10".
//
// The body is read in markup form, so entity references inside filter
// arguments are decoded.
func ParseUnit(body string) *Unit {
	parts := strings.Split(body, ":")
	u := &Unit{
		Path:   strings.TrimSpace(parts[0]),
		Source: body,
	}
	if len(parts) > 1 {
		u.Filter = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		u.Args = make([]string, len(parts)-2)
		for i, arg := range parts[2:] {
			u.Args[i] = html.UnescapeString(arg)
		}
	}
	return u
}

// Render resolves the unit against data and returns the markup-safe string
// to substitute. A path that cannot be resolved renders as the empty string
// and no filter runs. A filter name missing from reg falls back to the
// default escaping.
func (u *Unit) Render(data any, reg *filter.Registry) string {
	value, ok := lookup.Resolve(data, u.Path)
	if !ok {
		return ""
	}
	s := lookup.Stringify(value)

	if u.Filter == filter.Raw {
		return s
	}
	if u.Filter != "" {
		if fn, ok := reg.Lookup(u.Filter); ok {
			return fn(s, u.Args...)
		}
	}
	return filter.EscapeString(s)
}

// String returns the marker as it would appear in a template.
func (u *Unit) String() string {
	return "${" + u.Source + "}"
}
