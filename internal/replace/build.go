package replace

import (
	"github.com/livefir/replate/internal/dom"
	"github.com/livefir/replate/internal/marker"
)

// ScanFunc splits a text or attribute value into a fragment.
type ScanFunc func(text string) marker.Fragment

// Build walks doc once and returns the replacement tree rooted at the
// document. It returns nil when nothing in the document is dynamic.
func Build(doc *dom.Document) *Tree {
	return BuildWith(doc, marker.Scan)
}

// BuildWith is Build with a custom scanner.
func BuildWith(doc *dom.Document, scan ScanFunc) *Tree {
	if doc == nil {
		return nil
	}

	root := &Tree{}
	for i, n := range doc.Nodes {
		if sub := buildNode(n, scan); sub != nil {
			root.Children = append(root.Children, ChildSlot{Index: i, Tree: sub})
		}
	}
	if root.Empty() {
		return nil
	}
	return root
}

// buildNode returns the subtree for n, or nil when n and its descendants
// hold no markers.
func buildNode(n *dom.Node, scan ScanFunc) *Tree {
	switch n.Type {
	case dom.ElementNode:
		t := &Tree{}
		for _, a := range n.Attrs {
			if frag := scan(a.Val); frag.Dynamic() {
				t.Attrs = append(t.Attrs, AttrSlot{Name: a.Key, Fragment: frag})
			}
		}
		for i, child := range n.Children {
			if sub := buildNode(child, scan); sub != nil {
				t.Children = append(t.Children, ChildSlot{Index: i, Tree: sub})
			}
		}
		if t.Empty() {
			return nil
		}
		return t

	case dom.TextNode:
		if frag := scan(n.Data); frag.Dynamic() {
			return &Tree{Text: frag}
		}
		return nil

	default:
		return nil
	}
}
