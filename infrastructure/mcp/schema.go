package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/felixgeelhaar/pdftools-mcp/domain/tool"
)

// ErrInvalidSchema is returned when a tool advertises an input schema that
// does not compile.
var ErrInvalidSchema = errors.New("invalid tool input schema")

// ErrUnknownSchema is returned when validating arguments for a tool that is
// not in the set.
var ErrUnknownSchema = errors.New("no schema for tool")

// SchemaSet holds the compiled input schemas of a catalog.
type SchemaSet struct {
	schemas map[string]*gojsonschema.Schema
}

// CompileSchemas compiles every tool's input schema.
func CompileSchemas(tools []tool.Tool) (*SchemaSet, error) {
	set := &SchemaSet{schemas: make(map[string]*gojsonschema.Schema, len(tools))}
	for _, t := range tools {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(t.InputSchema().Raw()))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSchema, t.Name(), err)
		}
		set.schemas[t.Name()] = schema
	}
	return set, nil
}

// Len returns the number of compiled schemas.
func (s *SchemaSet) Len() int {
	return len(s.schemas)
}

// Validate checks args against the named tool's schema. It returns the
// violations, or nil when args conform.
func (s *SchemaSet) Validate(name string, args json.RawMessage) ([]string, error) {
	schema, ok := s.schemas[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSchema, name)
	}
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(args))
	if err != nil {
		return nil, fmt.Errorf("validating arguments: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		violations = append(violations, e.String())
	}
	return violations, nil
}
