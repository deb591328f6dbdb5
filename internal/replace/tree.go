// Package replace builds and applies the replacement tree of a template: a
// sparse index of the text nodes and attributes that contain markers, keyed
// by their position in the document.
//
// Build walks the parsed document once. Apply is then run for every render
// and only visits the positions recorded in the tree.
package replace

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/livefir/replate/internal/marker"
)

// TextKey is the key under which a text node's fragment appears in the JSON
// form of a tree. Attribute names are lowercased by the parser, so it cannot
// collide with one.
const TextKey = "textContent"

// Tree describes the dynamic content at one position of the document. A
// Tree with no entries is never stored; positions without dynamic content
// are simply absent from their parent.
type Tree struct {
	// Text is set when the position is a text node containing markers.
	Text marker.Fragment
	// Attrs lists the attributes of an element containing markers, in
	// document order.
	Attrs []AttrSlot
	// Children lists the child positions with dynamic content, in
	// ascending index order.
	Children []ChildSlot
}

// AttrSlot is a dynamic attribute.
type AttrSlot struct {
	Name     string
	Fragment marker.Fragment
}

// ChildSlot is a child position with dynamic content.
type ChildSlot struct {
	Index int
	Tree  *Tree
}

// Empty reports whether the tree records no dynamic content.
func (t *Tree) Empty() bool {
	return t == nil || (len(t.Text) == 0 && len(t.Attrs) == 0 && len(t.Children) == 0)
}

// Child returns the subtree recorded for child index i.
func (t *Tree) Child(i int) *Tree {
	if t == nil {
		return nil
	}
	for _, c := range t.Children {
		if c.Index == i {
			return c.Tree
		}
	}
	return nil
}

// Attr returns the fragment recorded for the attribute named name.
func (t *Tree) Attr(name string) (marker.Fragment, bool) {
	if t == nil {
		return nil, false
	}
	for _, a := range t.Attrs {
		if a.Name == name {
			return a.Fragment, true
		}
	}
	return nil, false
}

// Stats counts the recorded locations.
type Stats struct {
	Texts      int `json:"texts"`
	Attributes int `json:"attributes"`
	Markers    int `json:"markers"`
}

// Locations is the number of fragments the tree rewrites on every render.
func (s Stats) Locations() int {
	return s.Texts + s.Attributes
}

// Stats walks the tree and counts its dynamic locations.
func (t *Tree) Stats() Stats {
	var s Stats
	t.collect(&s)
	return s
}

func (t *Tree) collect(s *Stats) {
	if t == nil {
		return
	}
	if t.Text != nil {
		s.Texts++
		s.Markers += len(t.Text.Units())
	}
	for _, a := range t.Attrs {
		s.Attributes++
		s.Markers += len(a.Fragment.Units())
	}
	for _, c := range t.Children {
		c.Tree.collect(s)
	}
}

// Units returns every marker in the tree in document order.
func (t *Tree) Units() []*marker.Unit {
	var units []*marker.Unit
	t.walkUnits(func(u *marker.Unit) { units = append(units, u) })
	return units
}

func (t *Tree) walkUnits(fn func(*marker.Unit)) {
	if t == nil {
		return
	}
	for _, u := range t.Text.Units() {
		fn(u)
	}
	for _, a := range t.Attrs {
		for _, u := range a.Fragment.Units() {
			fn(u)
		}
	}
	for _, c := range t.Children {
		c.Tree.walkUnits(fn)
	}
}

// MarshalJSON encodes the tree as an object keyed by child index, attribute
// name or TextKey, in document order.
func (t *Tree) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	writeEntry := func(key string, value any) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false

		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}

	if t.Text != nil {
		if err := writeEntry(TextKey, t.Text); err != nil {
			return nil, err
		}
	}
	for _, a := range t.Attrs {
		if err := writeEntry(a.Name, a.Fragment); err != nil {
			return nil, err
		}
	}
	for _, c := range t.Children {
		if err := writeEntry(strconv.Itoa(c.Index), c.Tree); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
