package replate

import (
	"sync"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
)

var (
	minifier *minify.M
	once     sync.Once
)

// getMinifier returns a configured HTML minifier (singleton). End tags and
// attribute quotes are kept so the parsed structure matches the source, and
// ${ } markers are treated as template delimiters and left intact.
func getMinifier() *minify.M {
	once.Do(func() {
		minifier = minify.New()
		minifier.Add("text/html", &html.Minifier{
			KeepDefaultAttrVals: true,
			KeepEndTags:         true,
			KeepQuotes:          true,
			TemplateDelims:      [2]string{"${", "}"},
		})
	})
	return minifier
}

// minifySource collapses insignificant whitespace and drops comments from
// a template source
func minifySource(source string) (string, error) {
	return getMinifier().String("text/html", source)
}
