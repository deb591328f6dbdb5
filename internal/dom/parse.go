package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/livefir/replate/internal/filter"
)

// DefaultContext is the element a source is parsed inside of when no other
// context is given. Parsing inside a div mirrors assigning innerHTML to one.
const DefaultContext = "div"

// Elements whose text children are serialized without escaping.
var rawTextElements = map[string]bool{
	"iframe":    true,
	"noembed":   true,
	"noframes":  true,
	"noscript":  true,
	"plaintext": true,
	"script":    true,
	"style":     true,
	"xmp":       true,
}

// Parse parses source as an HTML fragment inside a context element named
// contextTag (DefaultContext when empty) and converts the result into a
// Document. Whitespace-only text nodes are kept so child positions match
// the source.
func Parse(source, contextTag string) (*Document, error) {
	if contextTag == "" {
		contextTag = DefaultContext
	}
	context := &html.Node{
		Type:     html.ElementNode,
		Data:     contextTag,
		DataAtom: atom.Lookup([]byte(contextTag)),
	}

	nodes, err := html.ParseFragment(strings.NewReader(source), context)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML fragment: %w", err)
	}

	doc := &Document{Nodes: make([]*Node, 0, len(nodes))}
	for _, n := range nodes {
		if converted := convertNode(n, false); converted != nil {
			doc.Nodes = append(doc.Nodes, converted)
		}
	}
	return doc, nil
}

// convertNode recursively converts an html.Node. Unsupported node types
// return nil.
func convertNode(n *html.Node, rawText bool) *Node {
	switch n.Type {
	case html.TextNode:
		data := n.Data
		if !rawText {
			data = filter.EscapeString(data)
		}
		return NewText(data)

	case html.CommentNode:
		return &Node{Type: CommentNode, Data: n.Data}

	case html.ElementNode:
		node := NewElement(n.Data)
		if len(n.Attr) > 0 {
			node.Attrs = make([]Attr, 0, len(n.Attr))
			for _, a := range n.Attr {
				node.Attrs = append(node.Attrs, Attr{
					Namespace: a.Namespace,
					Key:       a.Key,
					Val:       filter.EscapeString(a.Val),
				})
			}
		}

		childRaw := rawTextElements[n.Data]
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if child := convertNode(c, childRaw); child != nil {
				node.Children = append(node.Children, child)
			}
		}
		return node

	default:
		return nil
	}
}
