package dom

import (
	"bufio"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"keygen": true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// Render writes nodes as HTML to w. Values are already in markup form and
// are written verbatim.
func Render(w io.Writer, nodes ...*Node) error {
	bw := bufio.NewWriter(w)
	for _, n := range nodes {
		if err := render(bw, n); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func render(w *bufio.Writer, n *Node) error {
	switch n.Type {
	case TextNode:
		_, err := w.WriteString(n.Data)
		return err

	case CommentNode:
		if _, err := w.WriteString("<!--"); err != nil {
			return err
		}
		if _, err := w.WriteString(n.Data); err != nil {
			return err
		}
		_, err := w.WriteString("-->")
		return err

	case ElementNode:
		if err := w.WriteByte('<'); err != nil {
			return err
		}
		if _, err := w.WriteString(n.Data); err != nil {
			return err
		}
		for _, a := range n.Attrs {
			if err := w.WriteByte(' '); err != nil {
				return err
			}
			if a.Namespace != "" {
				if _, err := w.WriteString(a.Namespace + ":"); err != nil {
					return err
				}
			}
			if _, err := w.WriteString(a.Key + `="` + a.Val + `"`); err != nil {
				return err
			}
		}
		if err := w.WriteByte('>'); err != nil {
			return err
		}
		if voidElements[n.Data] {
			return nil
		}
		for _, child := range n.Children {
			if err := render(w, child); err != nil {
				return err
			}
		}
		_, err := w.WriteString("</" + n.Data + ">")
		return err

	default:
		return nil
	}
}

// AppendTo converts nodes into golang.org/x/net/html nodes and appends them
// to parent, decoding values from markup form. It lets a rendered template
// be attached to a document built with that package. Text holding markup,
// as written by the raw filter, is parsed in the context of its parent so
// the result matches what Render writes.
func AppendTo(parent *html.Node, nodes ...*Node) {
	rawText := rawTextElements[parent.Data]
	for _, n := range nodes {
		appendHTML(parent, n, rawText)
	}
}

func appendHTML(parent *html.Node, n *Node, rawText bool) {
	switch n.Type {
	case TextNode:
		if rawText {
			parent.AppendChild(&html.Node{Type: html.TextNode, Data: n.Data})
			return
		}
		if strings.ContainsRune(n.Data, '<') {
			if parsed, err := html.ParseFragment(strings.NewReader(n.Data), fragmentContext(parent)); err == nil {
				for _, child := range parsed {
					parent.AppendChild(child)
				}
				return
			}
		}
		parent.AppendChild(&html.Node{Type: html.TextNode, Data: html.UnescapeString(n.Data)})

	case CommentNode:
		parent.AppendChild(&html.Node{Type: html.CommentNode, Data: n.Data})

	case ElementNode:
		out := &html.Node{Type: html.ElementNode, Data: n.Data, DataAtom: atom.Lookup([]byte(n.Data))}
		for _, a := range n.Attrs {
			out.Attr = append(out.Attr, html.Attribute{
				Namespace: a.Namespace,
				Key:       a.Key,
				Val:       html.UnescapeString(a.Val),
			})
		}
		childRaw := rawTextElements[n.Data]
		for _, child := range n.Children {
			appendHTML(out, child, childRaw)
		}
		parent.AppendChild(out)
	}
}

// fragmentContext returns an element equivalent to parent that
// html.ParseFragment accepts as its context.
func fragmentContext(parent *html.Node) *html.Node {
	if parent.Type != html.ElementNode {
		return &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	}
	return &html.Node{Type: html.ElementNode, Data: parent.Data, DataAtom: atom.Lookup([]byte(parent.Data))}
}
