package document

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format converts between text and documents.
type Format interface {
	Name() string
	Parse(data []byte) (*Document, error)
	Render(doc *Document, indent string) ([]byte, error)
}

var (
	// JSON reads JSON with comments and writes indented JSON with // comments.
	JSON Format = jsonFormat{}
	// YAML reads and writes YAML, keeping comments as head comments.
	YAML Format = yamlFormat{}
)

// FormatFor picks a format from a file extension. Anything that is not
// .yaml or .yml is treated as JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

// SyntaxError reports malformed document text.
type SyntaxError struct {
	Line   int
	Column int
	Msg    string
	Err    error
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Line, e.Column, e.Msg)
	}
	return "syntax error: " + e.Msg
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}
