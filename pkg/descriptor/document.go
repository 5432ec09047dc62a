// Package descriptor parses the YAML documents shipped in service packages.
package descriptor

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseError reports a document that is not well-formed YAML.
type ParseError struct {
	Path string // set by callers that know where the bytes came from
	Line int    // 0 when unknown
	Err  error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("malformed descriptor")
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d", e.Line)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// Document is a parsed YAML document. The zero value is the empty document.
type Document struct {
	node *yaml.Node
}

// Empty returns the empty document.
func Empty() Document {
	return Document{}
}

// IsEmpty reports whether the document has no content.
func (d Document) IsEmpty() bool {
	if d.node == nil {
		return true
	}
	return d.node.Kind == yaml.DocumentNode && len(d.node.Content) == 0
}

// Decode decodes the document into v. Decoding the empty document leaves v
// untouched.
func (d Document) Decode(v any) error {
	if d.IsEmpty() {
		return nil
	}
	return d.node.Decode(v)
}

// Map returns the document as a generic map. The empty document yields an
// empty map.
func (d Document) Map() (map[string]any, error) {
	out := map[string]any{}
	if err := d.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

var lineRegex = regexp.MustCompile(`line (\d+)`)

// Parse parses one YAML document. Malformed input yields a *ParseError.
func Parse(data []byte) (Document, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		pe := &ParseError{Err: err}
		if m := lineRegex.FindStringSubmatch(err.Error()); m != nil {
			pe.Line, _ = strconv.Atoi(m[1])
		}
		return Document{}, pe
	}
	if node.Kind == 0 {
		return Empty(), nil
	}
	return Document{node: &node}, nil
}

// ParseFile reads name from fsys and parses it. Read errors are returned as
// is, so callers can tell missing files from malformed ones.
func ParseFile(fsys fs.FS, name string) (Document, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Document{}, err
	}
	doc, err := Parse(data)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = name
		}
		return Document{}, err
	}
	return doc, nil
}

// MakeRelative strips exactly one leading "/" from p. It does not clean the
// path or strip repeatedly: "//a" becomes "/a".
func MakeRelative(p string) string {
	return strings.TrimPrefix(p, "/")
}
