package marker

import (
	"strings"

	"github.com/livefir/replate/internal/filter"
)

// Part is one element of a Fragment: either a Literal or a *Unit.
type Part interface {
	render(data any, reg *filter.Registry) string
}

// Literal is static text inside a Fragment.
type Literal string

func (l Literal) render(any, *filter.Registry) string { return string(l) }

func (u *Unit) render(data any, reg *filter.Registry) string { return u.Render(data, reg) }

// Fragment is the scanned form of one text or attribute value. It has odd
// length, literals at even indices and units at odd indices. A Fragment of
// length one is a plain literal.
type Fragment []Part

// Dynamic reports whether the fragment contains at least one marker.
func (f Fragment) Dynamic() bool {
	return len(f) > 1
}

// Units returns the markers in order of appearance.
func (f Fragment) Units() []*Unit {
	units := make([]*Unit, 0, len(f)/2)
	for _, p := range f {
		if u, ok := p.(*Unit); ok {
			units = append(units, u)
		}
	}
	return units
}

// Stitch renders every part against data and concatenates the results.
func (f Fragment) Stitch(data any, reg *filter.Registry) string {
	if len(f) == 1 {
		return f[0].render(data, reg)
	}

	var b strings.Builder
	for _, p := range f {
		b.WriteString(p.render(data, reg))
	}
	return b.String()
}

// String reassembles the original text.
func (f Fragment) String() string {
	var b strings.Builder
	for _, p := range f {
		switch v := p.(type) {
		case Literal:
			b.WriteString(string(v))
		case *Unit:
			b.WriteString(v.String())
		}
	}
	return b.String()
}
