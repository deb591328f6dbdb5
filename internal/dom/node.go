// Package dom is the node tree a template renders into.
//
// The tree is a simplified copy of what golang.org/x/net/html produces:
// element, text and comment nodes with ordered attributes and ordered
// children. Text and attribute values are kept in markup form, meaning
// entity-escaped exactly as they are serialized, so a substituted value can
// be written into the tree verbatim.
package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Node types kept in the tree. Other html node types are dropped while
// parsing.
const (
	ElementNode = html.ElementNode
	TextNode    = html.TextNode
	CommentNode = html.CommentNode
)

// Attr is a single element attribute. Val is in markup form.
type Attr struct {
	Namespace string
	Key       string
	Val       string
}

// Node is an element, text or comment node.
//
// For elements Data holds the tag name; for text and comments it holds the
// content.
type Node struct {
	Type     html.NodeType
	Data     string
	Attrs    []Attr
	Children []*Node
}

// Document owns the ordered top-level nodes of a parsed source.
type Document struct {
	Nodes []*Node
}

// NewElement creates an element node.
func NewElement(tag string, attrs ...Attr) *Node {
	return &Node{Type: ElementNode, Data: tag, Attrs: attrs}
}

// NewText creates a text node. data must already be in markup form.
func NewText(data string) *Node {
	return &Node{Type: TextNode, Data: data}
}

// IsElement returns true if this is an element node
func (n *Node) IsElement() bool {
	return n.Type == ElementNode
}

// IsText returns true if this is a text node
func (n *Node) IsText() bool {
	return n.Type == TextNode
}

// Attr returns the value of the attribute named key.
func (n *Node) Attr(key string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets the attribute named key, appending it if the element does not
// have it yet.
func (n *Node) SetAttr(key, val string) {
	for i := range n.Attrs {
		if n.Attrs[i].Key == key {
			n.Attrs[i].Val = val
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Key: key, Val: val})
}

// Child returns the child at index i, or nil when out of range.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// TextContent returns the concatenated text of the node and its
// descendants, in markup form.
func (n *Node) TextContent() string {
	switch n.Type {
	case TextNode:
		return n.Data
	case ElementNode:
		var text strings.Builder
		for _, child := range n.Children {
			text.WriteString(child.TextContent())
		}
		return text.String()
	default:
		return ""
	}
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	clone := &Node{
		Type: n.Type,
		Data: n.Data,
	}
	if n.Attrs != nil {
		clone.Attrs = make([]Attr, len(n.Attrs))
		copy(clone.Attrs, n.Attrs)
	}
	if n.Children != nil {
		clone.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			clone.Children[i] = child.Clone()
		}
	}
	return clone
}

// Clone returns a deep copy of the document. The copy shares no nodes with
// the receiver.
func (d *Document) Clone() *Document {
	clone := &Document{Nodes: make([]*Node, len(d.Nodes))}
	for i, n := range d.Nodes {
		clone.Nodes[i] = n.Clone()
	}
	return clone
}

// Child returns the top-level node at index i, or nil when out of range.
func (d *Document) Child(i int) *Node {
	if i < 0 || i >= len(d.Nodes) {
		return nil
	}
	return d.Nodes[i]
}

// HTML serializes the document.
func (d *Document) HTML() string {
	var b strings.Builder
	// strings.Builder never fails to write.
	_ = Render(&b, d.Nodes...)
	return b.String()
}
