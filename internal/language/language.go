// Package language wraps the gqlparser AST and parser behind local names so
// the rest of the module never imports the parser directly.
package language

import (
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// Error is a located GraphQL parse/validation error.
type Error struct {
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

// ParseQuery parses one executable document.
func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseSchema parses SDL without validation.
func ParseSchema(name, source string) (*SchemaDocument, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: name, Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadSchema parses and validates SDL into a usable schema. Rendered SDL
// must always load cleanly; tests rely on this for round-trip checks.
func LoadSchema(name, source string) (*ast.Schema, error) {
	return gqlparser.LoadSchema(&ast.Source{Name: name, Input: source})
}
