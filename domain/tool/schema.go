package tool

import (
	"encoding/json"
	"fmt"
)

// Schema wraps a JSON Schema describing tool input.
type Schema struct {
	raw json.RawMessage
}

// NewSchema creates a schema from raw JSON.
func NewSchema(raw json.RawMessage) Schema {
	return Schema{raw: raw}
}

// EmptySchema returns a schema that accepts any object.
func EmptySchema() Schema {
	return Schema{raw: json.RawMessage(`{"type":"object"}`)}
}

// Property describes one input parameter.
type Property struct {
	Name        string
	Type        string
	Description string
	Enum        []string
	Items       string
	Minimum     *int
	Maximum     *int
	MinItems    *int
	Default     any
	Required    bool
}

// ObjectSchema builds an object schema from ordered properties.
func ObjectSchema(props ...Property) Schema {
	properties := make(map[string]any, len(props))
	var required []string
	for _, p := range props {
		def := map[string]any{"type": p.Type}
		if p.Description != "" {
			def["description"] = p.Description
		}
		if len(p.Enum) > 0 {
			def["enum"] = p.Enum
		}
		if p.Items != "" {
			def["items"] = map[string]any{"type": p.Items}
		}
		if p.Minimum != nil {
			def["minimum"] = *p.Minimum
		}
		if p.Maximum != nil {
			def["maximum"] = *p.Maximum
		}
		if p.MinItems != nil {
			def["minItems"] = *p.MinItems
		}
		if p.Default != nil {
			def["default"] = p.Default
		}
		properties[p.Name] = def
		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	raw, _ := json.Marshal(schema)
	return Schema{raw: raw}
}

// Raw returns the underlying JSON schema.
func (s Schema) Raw() json.RawMessage {
	if len(s.raw) == 0 {
		return json.RawMessage(`{"type":"object"}`)
	}
	return s.raw
}

// IsEmpty returns true if the schema is empty or nil.
func (s Schema) IsEmpty() bool {
	return len(s.raw) == 0 || string(s.raw) == "{}" || string(s.raw) == "null"
}

// Map decodes the schema into a generic map.
func (s Schema) Map() (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(s.Raw(), &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	return m, nil
}

// MarshalJSON implements json.Marshaler.
func (s Schema) MarshalJSON() ([]byte, error) {
	return s.Raw(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Schema) UnmarshalJSON(data []byte) error {
	s.raw = append(json.RawMessage(nil), data...)
	return nil
}

// IntPtr is a helper for optional schema bounds.
func IntPtr(v int) *int {
	return &v
}
