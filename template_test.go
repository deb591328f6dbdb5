package replate

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"golang.org/x/net/html"

	"github.com/livefir/replate/internal/dom"
	"github.com/livefir/replate/internal/metrics"
)

func renderHTML(t *testing.T, tmpl *Template, data any) string {
	t.Helper()
	var buf bytes.Buffer
	if err := tmpl.RenderTo(&buf, data); err != nil {
		t.Fatalf("RenderTo() error = %v", err)
	}
	return buf.String()
}

func TestVariableSubstitution(t *testing.T) {
	tests := []struct {
		name   string
		source string
		data   any
		want   string
	}{
		{
			name:   "basic variable",
			source: "<div>${foo}</div>",
			data:   map[string]any{"foo": "FOO"},
			want:   "<div>FOO</div>",
		},
		{
			name:   "multiple variables",
			source: "1: ${foo}<em>2: ${bar}</em>3: ${baz}",
			data:   map[string]any{"foo": "FOO", "bar": "BAR", "baz": "BAZ"},
			want:   "1: FOO<em>2: BAR</em>3: BAZ",
		},
		{
			name:   "nested variables",
			source: "${foo} ${foo.bar} ${foo.bar.baz} ${foo.bar.baz.quux}",
			data: map[string]any{
				"foo": map[string]any{"bar": map[string]any{"baz": "hello"}},
			},
			want: "map[bar:map[baz:hello]] map[baz:hello] hello ",
		},
		{
			name:   "attribute substitution",
			source: `<div class="${foo}">${foo}</div>`,
			data:   map[string]any{"foo": "FOO"},
			want:   `<div class="FOO">FOO</div>`,
		},
		{
			name:   "escaping is uniform",
			source: `<div class="${foo}">${foo}</div>`,
			data:   map[string]any{"foo": `<bar> & ' "`},
			want:   `<div class="&lt;bar&gt; &amp; &#39; &quot;">&lt;bar&gt; &amp; &#39; &quot;</div>`,
		},
		{
			name:   "raw bypasses escaping",
			source: `<div>${body:raw}</div>`,
			data:   map[string]any{"body": "<b>bold</b> & more"},
			want:   `<div><b>bold</b> & more</div>`,
		},
		{
			name:   "filters",
			source: `<h1 title="${name:upper}">${name:title}</h1><p>${bio:truncate:5}</p>`,
			data:   map[string]any{"name": "ada lovelace", "bio": "Analyst and writer"},
			want:   `<h1 title="ADA LOVELACE">Ada Lovelace</h1><p>Analy…</p>`,
		},
		{
			name:   "unknown filter escapes",
			source: `<p>${v:sparkle}</p>`,
			data:   map[string]any{"v": "<i>"},
			want:   `<p>&lt;i&gt;</p>`,
		},
		{
			name:   "struct data",
			source: `<a href="/u/${ID}">${Name}</a>`,
			data: struct {
				ID   int
				Name string
			}{7, "Ada"},
			want:   `<a href="/u/7">Ada</a>`,
		},
		{
			name:   "json numbers",
			source: `<p data-n="${n}">${big} ${ratio}</p>`,
			data:   map[string]any{"n": float64(1e6), "big": float64(123456789), "ratio": 0.5},
			want:   `<p data-n="1000000">123456789 0.5</p>`,
		},
		{
			name:   "unterminated marker is literal",
			source: `<p>cost: ${price</p>`,
			data:   map[string]any{"price": 3},
			want:   `<p>cost: ${price</p>`,
		},
		{
			name:   "nil data",
			source: `<p class="${a.b}">${a.b.c}</p>`,
			data:   nil,
			want:   `<p class=""></p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderHTML(t, New(tt.source), tt.data); got != tt.want {
				t.Errorf("render =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestResultReuse(t *testing.T) {
	tmpl := Create(`<div class="${foo}"><em>${foo}</em></div>`)

	result, err := tmpl.Render(map[string]any{"foo": "FOO"})
	if err != nil {
		t.Fatal(err)
	}
	first := result[0]
	firstEm := first.Children[0]
	if got := tmpl.HTML(); got != `<div class="FOO"><em>FOO</em></div>` {
		t.Errorf("first render = %s", got)
	}

	rerender, err := tmpl.Render(map[string]any{"foo": "BAR"})
	if err != nil {
		t.Fatal(err)
	}

	if len(result) != len(rerender) || &result[0] != &rerender[0] {
		t.Error("the return values are not the same slice")
	}
	if rerender[0] != first || rerender[0].Children[0] != firstEm {
		t.Error("the exact same nodes should be returned")
	}
	if got := tmpl.HTML(); got != `<div class="BAR"><em>BAR</em></div>` {
		t.Errorf("second render = %s", got)
	}
}

func TestLiteralSourcesAreStable(t *testing.T) {
	faker := gofakeit.New(7)
	sources := []string{
		"<div>static</div>",
		"<ul>\n  <li>one</li>\n  <li class=\"x\">two</li>\n</ul>",
		"just text, $ and { } but no markers",
		"<p>broken ${marker</p>",
	}

	for _, source := range sources {
		tmpl := New(source)
		parsed, err := dom.Parse(source, "")
		if err != nil {
			t.Fatal(err)
		}
		want := parsed.HTML()

		for i := 0; i < 5; i++ {
			data := map[string]any{"marker": faker.Word(), "name": faker.Name()}
			if got := renderHTML(t, tmpl, data); got != want {
				t.Errorf("render of %q = %q, want parsed structure %q", source, got, want)
			}
		}
		if tmpl.Replacements() != nil {
			t.Errorf("literal source %q has a replacement tree", source)
		}
	}
}

func TestLazyBuild(t *testing.T) {
	calls := 0
	parse := func(source, context string) (*dom.Document, error) {
		calls++
		return dom.Parse(source, context)
	}

	tmpl := New("<p>${x}</p>", WithParser(parse))
	if tmpl.Built() || tmpl.Nodes() != nil || tmpl.HTML() != "" {
		t.Fatal("template built before first render")
	}

	for i := 0; i < 3; i++ {
		if _, err := tmpl.Render(map[string]int{"x": i}); err != nil {
			t.Fatal(err)
		}
	}
	if err := tmpl.Build(); err != nil {
		t.Fatal(err)
	}

	if calls != 1 {
		t.Errorf("source parsed %d times, want 1", calls)
	}
	if got := tmpl.HTML(); got != "<p>2</p>" {
		t.Errorf("HTML = %s", got)
	}
}

func TestBuildFailure(t *testing.T) {
	parseErr := errors.New("parser unavailable")
	collector := metrics.NewCollector()
	tmpl := New("<p>${x}</p>",
		WithName("broken"),
		WithMetrics(collector),
		WithParser(func(string, string) (*dom.Document, error) { return nil, parseErr }),
	)

	nodes, err := tmpl.Render(map[string]any{"x": 1})
	if err == nil {
		t.Fatal("expected build error")
	}
	if nodes != nil {
		t.Error("expected no nodes on failure")
	}

	var buildErr *BuildError
	if !errors.As(err, &buildErr) || buildErr.Name != "broken" {
		t.Errorf("expected *BuildError for broken, got %v", err)
	}
	if !errors.Is(err, parseErr) {
		t.Error("build error does not wrap the parser error")
	}
	if tmpl.Built() {
		t.Error("failed template must stay unbuilt")
	}
	if got := collector.GetMetrics().BuildFailures; got != 1 {
		t.Errorf("BuildFailures = %d", got)
	}
}

func TestClone(t *testing.T) {
	original := New(`<p class="${cls}">${msg}</p>`)
	if _, err := original.Render(map[string]string{"cls": "a", "msg": "original"}); err != nil {
		t.Fatal(err)
	}

	clone := original.Clone()
	if !clone.Built() {
		t.Fatal("clone of a built template should be built")
	}
	if clone.Replacements() != original.Replacements() {
		t.Error("clone should share the replacement tree")
	}
	if clone.Nodes()[0] == original.Nodes()[0] {
		t.Fatal("clone shares nodes with the original")
	}

	if _, err := clone.Render(map[string]string{"cls": "b", "msg": "clone"}); err != nil {
		t.Fatal(err)
	}

	if got := original.HTML(); got != `<p class="a">original</p>` {
		t.Errorf("original changed: %s", got)
	}
	if got := clone.HTML(); got != `<p class="b">clone</p>` {
		t.Errorf("clone = %s", got)
	}
}

func TestCloneUnbuilt(t *testing.T) {
	original := New("<p>${x}</p>")
	clone := original.Clone()

	if clone.Built() || original.Built() {
		t.Fatal("cloning must not build")
	}
	if clone.Source() != original.Source() {
		t.Error("clone source differs")
	}

	if got := renderHTML(t, clone, map[string]int{"x": 1}); got != "<p>1</p>" {
		t.Errorf("clone render = %s", got)
	}
	if original.Built() {
		t.Error("rendering the clone built the original")
	}
}

func TestOptions(t *testing.T) {
	shout := func(value string, _ ...string) string { return strings.ToUpper(value) + "!" }

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	collector := metrics.NewCollector()

	tmpl := New("<td>${msg:shout}</td>",
		WithName("row"),
		WithFilter("shout", shout),
		WithContext("tr"),
		WithLogger(logger),
		WithMetrics(collector),
	)

	if got := renderHTML(t, tmpl, map[string]string{"msg": "hi"}); got != "<td>HI!</td>" {
		t.Errorf("render = %s", got)
	}
	if tmpl.Name() != "row" {
		t.Errorf("Name() = %q", tmpl.Name())
	}
	if _, ok := DefaultFilters().Lookup("shout"); ok {
		t.Error("WithFilter modified the default registry")
	}
	if !strings.Contains(logs.String(), "template built") || !strings.Contains(logs.String(), "template=row") {
		t.Errorf("expected a build log line, got %q", logs.String())
	}

	m := collector.GetMetrics()
	if m.TemplatesCreated != 1 || m.TemplatesBuilt != 1 || m.Renders != 1 || m.FragmentsWritten != 1 {
		t.Errorf("metrics = %+v", m)
	}
}

func TestUnknownFiltersAreReported(t *testing.T) {
	tests := []struct {
		name   string
		source string
		opts   []Option
		want   int64
	}{
		{name: "none", source: `<p class="${a:upper}">${b:raw} ${c}</p>`, want: 0},
		{name: "text and attribute", source: `<p class="${a:sparkle}">${b:glow:2}</p>`, want: 2},
		{name: "custom filter", source: `<p>${a:bang}</p>`, opts: []Option{WithFilter("bang", func(v string, _ ...string) string { return v })}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector := metrics.NewCollector()
			var logs bytes.Buffer
			opts := append([]Option{
				WithMetrics(collector),
				WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
			}, tt.opts...)

			tmpl := New(tt.source, opts...)
			if err := tmpl.Build(); err != nil {
				t.Fatal(err)
			}
			tmpl.Render(nil)

			if got := collector.GetCustomCounters()[metrics.UnknownFilter]; got != tt.want {
				t.Errorf("Expected %d unknown filters, got %d", tt.want, got)
			}
			if tt.want > 0 && !strings.Contains(logs.String(), "unknown filter") {
				t.Errorf("Expected a warning, got %q", logs.String())
			}
		})
	}
}

func TestWithFilters(t *testing.T) {
	reg := DefaultFilters().With("stars", func(value string, args ...string) string {
		return "*" + value + "*"
	})
	tmpl := New("<b>${v:stars}</b>", WithFilters(reg))
	if got := renderHTML(t, tmpl, map[string]string{"v": "x"}); got != "<b>*x*</b>" {
		t.Errorf("render = %s", got)
	}
}

func TestMinify(t *testing.T) {
	source := "<ul>\n   <li class=\"${cls}\">  ${a}  </li>\n   <!-- gone -->\n   <li>${b}</li>\n</ul>"
	tmpl := New(source, WithMinify(true))

	got := renderHTML(t, tmpl, map[string]string{"cls": "x", "a": "A", "b": "B"})
	if strings.Contains(got, "gone") || strings.Contains(got, "\n") {
		t.Errorf("source was not minified: %q", got)
	}
	for _, want := range []string{`class="x"`, "A", "<li>B</li>"} {
		if !strings.Contains(got, want) {
			t.Errorf("minified render %q missing %q", got, want)
		}
	}
}

func TestAppendTo(t *testing.T) {
	tmpl := New(`<p title="${t}">${v}</p>`)
	body := &html.Node{Type: html.ElementNode, Data: "body"}

	if err := tmpl.AppendTo(body, map[string]string{"t": "a&b", "v": "x<y"}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, body.FirstChild); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != `<p title="a&amp;b">x&lt;y</p>` {
		t.Errorf("appended = %s", got)
	}
}

func TestAppendToMatchesRender(t *testing.T) {
	tmpl := New(`<div>${body:raw}</div>`)
	data := map[string]string{"body": "<b>bold</b> & <i>more</i>"}

	rendered := renderHTML(t, tmpl, data)

	body := &html.Node{Type: html.ElementNode, Data: "body"}
	if err := tmpl.AppendTo(body, data); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, body.FirstChild); err != nil {
		t.Fatal(err)
	}

	want := `<div><b>bold</b> &amp; <i>more</i></div>`
	if got := buf.String(); got != want {
		t.Errorf("Expected appended %s, got %s", want, got)
	}
	if rendered != `<div><b>bold</b> & <i>more</i></div>` {
		t.Errorf("Expected raw render, got %s", rendered)
	}
}

func TestReplacementsAccessors(t *testing.T) {
	tmpl := New(`<p class="${a}">${b} ${c}</p>`)
	if tmpl.Replacements() != nil || tmpl.Document() != nil {
		t.Fatal("unbuilt template exposes trees")
	}
	if err := tmpl.Build(); err != nil {
		t.Fatal(err)
	}

	stats := tmpl.Replacements().Stats()
	if stats.Texts != 1 || stats.Attributes != 1 || stats.Markers != 3 {
		t.Errorf("Stats() = %+v", stats)
	}
	if tmpl.Document() == nil || len(tmpl.Document().Nodes) != 1 {
		t.Error("Document() not available after build")
	}
}
