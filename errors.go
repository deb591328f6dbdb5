package replate

import (
	"errors"
	"fmt"
)

// ErrTemplateNotFound is returned by Set lookups for unknown names.
var ErrTemplateNotFound = errors.New("template not found")

// BuildError reports a template whose source could not be turned into a
// node tree. The template stays unbuilt.
type BuildError struct {
	Name string
	Err  error
}

func (e *BuildError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("failed to build template: %v", e.Err)
	}
	return fmt.Sprintf("failed to build template %q: %v", e.Name, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}
