// Package filter holds the named string transforms that can be attached to a
// substitution marker, as in ${name:upper} or ${bio:truncate:80}.
//
// A Registry is immutable once built. Deriving a registry with additional
// filters returns a new value and leaves the receiver untouched, so a single
// registry can be shared by every template in a process.
package filter

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Func transforms an already resolved value. Args are the colon separated
// tokens that follow the filter name in a marker.
type Func func(value string, args ...string) string

// Names of the built-in filters.
const (
	Raw      = "raw"
	Escape   = "escape"
	Lower    = "lower"
	Upper    = "upper"
	Title    = "title"
	Trim     = "trim"
	Truncate = "truncate"
)

// Registry maps filter names to functions.
type Registry struct {
	funcs map[string]Func
}

var builtins = New(map[string]Func{
	Raw:      func(value string, _ ...string) string { return value },
	Escape:   func(value string, _ ...string) string { return EscapeString(value) },
	Lower:    escaped(ToLower),
	Upper:    escaped(ToUpper),
	Title:    escaped(ToTitle),
	Trim:     escaped(strings.TrimSpace),
	Truncate: func(value string, args ...string) string { return EscapeString(TruncateString(value, args...)) },
})

// Default returns the registry holding the built-in filters.
func Default() *Registry {
	return builtins
}

// New creates a registry from funcs. The map is copied.
func New(funcs map[string]Func) *Registry {
	r := &Registry{funcs: make(map[string]Func, len(funcs))}
	for name, fn := range funcs {
		if fn != nil {
			r.funcs[name] = fn
		}
	}
	return r
}

// With returns a new registry containing the receiver's filters plus fn
// registered under name. An existing filter with the same name is replaced
// in the returned registry only.
func (r *Registry) With(name string, fn Func) *Registry {
	next := New(r.all())
	if fn != nil {
		next.funcs[name] = fn
	}
	return next
}

// Merge returns a new registry with the filters of other layered on top of
// the receiver's.
func (r *Registry) Merge(other *Registry) *Registry {
	next := New(r.all())
	for name, fn := range other.all() {
		next.funcs[name] = fn
	}
	return next
}

// Lookup returns the filter registered under name.
func (r *Registry) Lookup(name string) (Func, bool) {
	if r == nil {
		return nil, false
	}
	fn, ok := r.funcs[name]
	return fn, ok
}

// Names returns the registered filter names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) all() map[string]Func {
	if r == nil {
		return nil
	}
	return r.funcs
}

// escaped composes a plain text transform with the default escaper.
func escaped(transform func(string) string) Func {
	return func(value string, _ ...string) string {
		return EscapeString(transform(value))
	}
}

// ToLower lowercases s.
func ToLower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// ToUpper uppercases s.
func ToUpper(s string) string {
	return cases.Upper(language.Und).String(s)
}

// ToTitle capitalizes the first letter of each whitespace delimited word and
// lowercases the rest.
func ToTitle(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for len(s) > 0 {
		if i := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) }); i != 0 {
			if i < 0 {
				i = len(s)
			}
			b.WriteString(s[:i])
			s = s[i:]
			continue
		}
		end := strings.IndexFunc(s, unicode.IsSpace)
		if end < 0 {
			end = len(s)
		}
		first, size := utf8.DecodeRuneInString(s)
		b.WriteRune(unicode.ToTitle(first))
		b.WriteString(ToLower(s[size:end]))
		s = s[end:]
	}
	return b.String()
}

// TruncateString keeps at most args[0] runes of s. When s is cut, args[1] is
// appended, defaulting to an ellipsis. A missing or invalid length leaves s
// unchanged.
func TruncateString(s string, args ...string) string {
	if len(args) == 0 {
		return s
	}
	limit, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil || limit < 0 {
		return s
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	suffix := "…"
	if len(args) > 1 {
		suffix = args[1]
	}

	runes := []rune(s)
	return string(runes[:limit]) + suffix
}
