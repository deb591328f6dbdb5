package dom

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		validate func(t *testing.T, doc *Document)
	}{
		{
			name:   "single element",
			source: "<div>${foo}</div>",
			validate: func(t *testing.T, doc *Document) {
				if len(doc.Nodes) != 1 {
					t.Fatalf("expected 1 top-level node, got %d", len(doc.Nodes))
				}
				div := doc.Nodes[0]
				if !div.IsElement() || div.Data != "div" {
					t.Fatalf("expected div element, got %+v", div)
				}
				if len(div.Children) != 1 || !div.Children[0].IsText() || div.Children[0].Data != "${foo}" {
					t.Errorf("unexpected children %+v", div.Children)
				}
			},
		},
		{
			name:   "mixed top level",
			source: "1: ${foo}<em>2: ${bar}</em>3: ${baz}",
			validate: func(t *testing.T, doc *Document) {
				if len(doc.Nodes) != 3 {
					t.Fatalf("expected 3 top-level nodes, got %d", len(doc.Nodes))
				}
				if !doc.Nodes[0].IsText() || !doc.Nodes[1].IsElement() || !doc.Nodes[2].IsText() {
					t.Errorf("unexpected node types")
				}
			},
		},
		{
			name:   "whitespace kept",
			source: "<ul>\n  <li>a</li>\n</ul>",
			validate: func(t *testing.T, doc *Document) {
				ul := doc.Nodes[0]
				if len(ul.Children) != 3 {
					t.Fatalf("expected whitespace text around li, got %d children", len(ul.Children))
				}
			},
		},
		{
			name:   "attributes in order and escaped",
			source: `<a href="/x?a=1&amp;b=2" title='say "hi"' class="${cls}">x</a>`,
			validate: func(t *testing.T, doc *Document) {
				a := doc.Nodes[0]
				keys := make([]string, 0, len(a.Attrs))
				for _, attr := range a.Attrs {
					keys = append(keys, attr.Key)
				}
				if strings.Join(keys, ",") != "href,title,class" {
					t.Errorf("attribute order = %v", keys)
				}
				if v, _ := a.Attr("href"); v != "/x?a=1&amp;b=2" {
					t.Errorf("href = %q", v)
				}
				if v, _ := a.Attr("title"); v != "say &quot;hi&quot;" {
					t.Errorf("title = %q", v)
				}
			},
		},
		{
			name:   "comments keep their position",
			source: "<p><!-- note -->${x}</p>",
			validate: func(t *testing.T, doc *Document) {
				p := doc.Nodes[0]
				if len(p.Children) != 2 || p.Children[0].Type != CommentNode {
					t.Fatalf("expected comment then text, got %+v", p.Children)
				}
			},
		},
		{
			name:   "script text is raw",
			source: "<script>if (a < b) {}</script>",
			validate: func(t *testing.T, doc *Document) {
				if got := doc.Nodes[0].TextContent(); got != "if (a < b) {}" {
					t.Errorf("script text = %q", got)
				}
			},
		},
		{
			name:   "empty source",
			source: "",
			validate: func(t *testing.T, doc *Document) {
				if len(doc.Nodes) != 0 {
					t.Errorf("expected no nodes, got %d", len(doc.Nodes))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.source, "")
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			tt.validate(t, doc)
		})
	}
}

func TestParseContext(t *testing.T) {
	doc, err := Parse("<tr><td>${cell}</td></tr>", "tbody")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(doc.Nodes) != 1 || doc.Nodes[0].Data != "tr" {
		t.Fatalf("expected a tr inside a tbody context, got %q", doc.HTML())
	}
}

func TestRoundTrip(t *testing.T) {
	sources := []string{
		"<div>FOO</div>",
		`<div class="a b" id="x">1 &amp; 2 &lt;3&gt;</div>`,
		"1: FOO<em>2: BAR</em>3: BAZ",
		"<p>line<br>break<img src=\"a.png\"></p>",
		"<ul>\n  <li>a</li>\n  <li>b</li>\n</ul>",
		"<p><!-- note -->text</p>",
		"<style>p > a { color: red }</style>",
	}

	for _, source := range sources {
		doc, err := Parse(source, "")
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", source, err)
		}
		if got := doc.HTML(); got != source {
			t.Errorf("round trip mismatch:\n got: %q\nwant: %q", got, source)
		}
	}
}

func TestClone(t *testing.T) {
	doc, err := Parse(`<div class="a"><span>x</span></div>`, "")
	if err != nil {
		t.Fatal(err)
	}

	clone := doc.Clone()
	if clone.Nodes[0] == doc.Nodes[0] || clone.Nodes[0].Children[0] == doc.Nodes[0].Children[0] {
		t.Fatal("clone shares nodes with the original")
	}

	clone.Nodes[0].SetAttr("class", "b")
	clone.Nodes[0].Children[0].Children[0].Data = "y"

	if got := doc.HTML(); got != `<div class="a"><span>x</span></div>` {
		t.Errorf("original changed after mutating clone: %s", got)
	}
	if got := clone.HTML(); got != `<div class="b"><span>y</span></div>` {
		t.Errorf("clone = %s", got)
	}
}

func TestNodeHelpers(t *testing.T) {
	n := NewElement("input", Attr{Key: "type", Val: "text"})
	n.SetAttr("value", "v")
	n.SetAttr("type", "email")

	if v, ok := n.Attr("type"); !ok || v != "email" {
		t.Errorf("type = %q, %v", v, ok)
	}
	if _, ok := n.Attr("missing"); ok {
		t.Error("unexpected attribute")
	}
	if n.Child(0) != nil || n.Child(-1) != nil {
		t.Error("Child out of range should be nil")
	}
	if got := (&Document{Nodes: []*Node{n}}).HTML(); got != `<input type="email" value="v">` {
		t.Errorf("HTML() = %s", got)
	}
	if (&Document{}).Child(0) != nil {
		t.Error("empty document Child(0) should be nil")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRenderWriterError(t *testing.T) {
	doc, _ := Parse("<p>x</p>", "")
	if err := Render(failingWriter{}, doc.Nodes...); err == nil {
		t.Error("expected write error")
	}
}

func TestAppendTo(t *testing.T) {
	doc, err := Parse(`<p title="a &amp; b">x &lt; y</p>`, "")
	if err != nil {
		t.Fatal(err)
	}

	body := &html.Node{Type: html.ElementNode, Data: "body"}
	AppendTo(body, doc.Nodes...)

	p := body.FirstChild
	if p == nil || p.Data != "p" {
		t.Fatal("expected p appended to body")
	}
	if p.Attr[0].Val != "a & b" {
		t.Errorf("attribute not decoded: %q", p.Attr[0].Val)
	}
	if p.FirstChild.Data != "x < y" {
		t.Errorf("text not decoded: %q", p.FirstChild.Data)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, p); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != `<p title="a &amp; b">x &lt; y</p>` {
		t.Errorf("html.Render = %s", got)
	}
}

func TestAppendToParsesMarkupText(t *testing.T) {
	tests := []struct {
		name   string
		parent string
		node   *Node
		want   string
	}{
		{
			name:   "markup text",
			parent: "body",
			node:   &Node{Type: ElementNode, Data: "p", Children: []*Node{{Type: TextNode, Data: "<b>bold</b> &amp; more"}}},
			want:   "<p><b>bold</b> &amp; more</p>",
		},
		{
			name:   "markup at top level",
			parent: "body",
			node:   &Node{Type: TextNode, Data: "<em>x</em>"},
			want:   "<em>x</em>",
		},
		{
			name:   "table context",
			parent: "table",
			node:   &Node{Type: ElementNode, Data: "tbody", Children: []*Node{{Type: TextNode, Data: "<tr><td>1</td></tr>"}}},
			want:   "<tbody><tr><td>1</td></tr></tbody>",
		},
		{
			name:   "escaped text stays text",
			parent: "body",
			node:   &Node{Type: TextNode, Data: "&lt;b&gt;"},
			want:   "&lt;b&gt;",
		},
		{
			name:   "raw text element",
			parent: "body",
			node:   &Node{Type: ElementNode, Data: "script", Children: []*Node{{Type: TextNode, Data: "a<b"}}},
			want:   "<script>a<b</script>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent := &html.Node{Type: html.ElementNode, Data: tt.parent}
			AppendTo(parent, tt.node)

			var buf bytes.Buffer
			for c := parent.FirstChild; c != nil; c = c.NextSibling {
				if err := html.Render(&buf, c); err != nil {
					t.Fatal(err)
				}
			}
			if got := buf.String(); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}
