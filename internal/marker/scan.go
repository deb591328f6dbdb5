package marker

import "strings"

const (
	openDelim  = "${"
	closeDelim = "}"
)

// Scan splits text into literals and units. Markers are matched left to
// right without overlap, each ending at the first closing brace after its
// opening ${. An opening ${ with no closing brace, an empty body, or a body
// spanning a line break is not a marker and stays in the literal text.
//
// The result always has odd length with units at the odd indices.
func Scan(text string) Fragment {
	var out Fragment
	literalStart := 0
	searchFrom := 0

	for searchFrom < len(text) {
		open := strings.Index(text[searchFrom:], openDelim)
		if open < 0 {
			break
		}
		open += searchFrom
		bodyStart := open + len(openDelim)

		end := strings.Index(text[bodyStart:], closeDelim)
		if end < 0 {
			break
		}
		body := text[bodyStart : bodyStart+end]
		if body == "" || strings.ContainsAny(body, "\r\n") {
			searchFrom = open + 1
			continue
		}

		out = append(out, Literal(text[literalStart:open]), ParseUnit(body))
		literalStart = bodyStart + end + len(closeDelim)
		searchFrom = literalStart
	}

	return append(out, Literal(text[literalStart:]))
}
