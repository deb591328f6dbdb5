package filter

import "strings"

// The same table is used for text content and attribute values.
var htmlEscaper = strings.NewReplacer(
	`&`, "&amp;",
	`<`, "&lt;",
	`>`, "&gt;",
	`'`, "&#39;",
	`"`, "&quot;",
)

// EscapeString is the default transform applied to substituted values.
func EscapeString(s string) string {
	if !strings.ContainsAny(s, `&<>'"`) {
		return s
	}
	return htmlEscaper.Replace(s)
}
