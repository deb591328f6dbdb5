// Package data loads the documents rendered by the replate CLI.
package data

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"gopkg.in/yaml.v3"

	"github.com/livefir/replate/internal/marker"
)

// Format is a data document encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// FormatOf picks the format from a file extension. Anything that is not
// .yaml or .yml is treated as JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

// LoadFile reads the document at path. "-" reads JSON from stdin.
func LoadFile(path string) (any, error) {
	if path == "-" {
		return Decode(os.Stdin, JSON)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer f.Close()

	doc, err := Decode(f, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return doc, nil
}

// Decode reads one document from r. An empty input decodes to nil.
func Decode(r io.Reader, format Format) (any, error) {
	var doc any
	var err error

	switch format {
	case YAML:
		err = yaml.NewDecoder(r).Decode(&doc)
	case JSON:
		err = json.NewDecoder(r).Decode(&doc)
	default:
		return nil, fmt.Errorf("unsupported data format %q", format)
	}

	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", format, err)
	}
	return doc, nil
}

// Sample builds a document that resolves every unit path to a fake value,
// for previewing a template without real data. The same seed gives the same
// document.
func Sample(units []*marker.Unit, seed uint64) map[string]any {
	faker := gofakeit.New(seed)
	root := make(map[string]any)

	for _, u := range units {
		segments := strings.Split(u.Path, ".")
		current := root
		for i, segment := range segments {
			last := i == len(segments)-1
			existing, exists := current[segment]

			if last {
				if !exists {
					current[segment] = sampleValue(faker, segment)
				}
				break
			}

			next, ok := existing.(map[string]any)
			if !ok {
				// A deeper path wins over a leaf with the same prefix
				next = make(map[string]any)
				current[segment] = next
			}
			current = next
		}
	}
	return root
}

// sampleValue picks a fake value that loosely matches the segment name.
func sampleValue(faker *gofakeit.Faker, segment string) string {
	name := strings.ToLower(segment)
	switch {
	case strings.Contains(name, "email"):
		return faker.Email()
	case strings.Contains(name, "url") || strings.Contains(name, "href") || strings.Contains(name, "link"):
		return faker.URL()
	case strings.Contains(name, "name"):
		return faker.Name()
	case strings.Contains(name, "city"):
		return faker.City()
	case strings.Contains(name, "color"):
		return faker.Color()
	case name == "id" || strings.HasSuffix(name, "_id"):
		return faker.UUID()
	default:
		return faker.Word()
	}
}
