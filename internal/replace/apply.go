package replace

import (
	"github.com/livefir/replate/internal/dom"
	"github.com/livefir/replate/internal/filter"
)

// Apply writes the rendered fragments of tree into doc and returns the
// number of fragments written. Positions absent from the tree are never
// touched. A recorded position that no longer exists in doc is skipped.
func Apply(doc *dom.Document, tree *Tree, data any, reg *filter.Registry) int {
	if doc == nil || tree == nil {
		return 0
	}

	written := 0
	for _, c := range tree.Children {
		if n := doc.Child(c.Index); n != nil {
			written += applyNode(n, c.Tree, data, reg)
		}
	}
	return written
}

func applyNode(n *dom.Node, tree *Tree, data any, reg *filter.Registry) int {
	if n.IsText() {
		if tree.Text == nil {
			return 0
		}
		n.Data = tree.Text.Stitch(data, reg)
		return 1
	}

	written := 0
	for _, a := range tree.Attrs {
		n.SetAttr(a.Name, a.Fragment.Stitch(data, reg))
		written++
	}
	for _, c := range tree.Children {
		if child := n.Child(c.Index); child != nil {
			written += applyNode(child, c.Tree, data, reg)
		}
	}
	return written
}
