package mcp

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/felixgeelhaar/pdftools-mcp/domain/tool"
)

// ToolDef is the MCP catalog entry for a tool.
type ToolDef struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	InputSchema json.RawMessage  `json:"inputSchema"`
	Annotations *ToolAnnotations `json:"annotations,omitempty"`
}

// ToolAnnotations are the MCP behavioral hints.
type ToolAnnotations struct {
	ReadOnlyHint    bool `json:"readOnlyHint,omitempty"`
	DestructiveHint bool `json:"destructiveHint,omitempty"`
	IdempotentHint  bool `json:"idempotentHint,omitempty"`
}

// ToolToDef converts a tool to its catalog entry.
func ToolToDef(t tool.Tool) ToolDef {
	ann := t.Annotations()
	def := ToolDef{
		Name:        t.Name(),
		Description: t.Description(),
		InputSchema: t.InputSchema().Raw(),
	}
	if ann.ReadOnly || ann.Destructive || ann.Idempotent {
		def.Annotations = &ToolAnnotations{
			ReadOnlyHint:    ann.ReadOnly,
			DestructiveHint: ann.Destructive,
			IdempotentHint:  ann.Idempotent,
		}
	}
	return def
}

// Catalog converts tools to catalog entries, preserving order.
func Catalog(tools []tool.Tool) []ToolDef {
	defs := make([]ToolDef, len(tools))
	for i, t := range tools {
		defs[i] = ToolToDef(t)
	}
	return defs
}

// Describe renders the tool description followed by a parameter summary
// taken from its input schema. Clients that only read descriptions still
// learn the argument names this way.
func Describe(t tool.Tool) string {
	var sb strings.Builder
	sb.WriteString(t.Description())

	schema, err := t.InputSchema().Map()
	if err != nil {
		return sb.String()
	}
	props, _ := schema["properties"].(map[string]any)
	if len(props) == 0 {
		return sb.String()
	}

	required := map[string]bool{}
	if list, ok := schema["required"].([]any); ok {
		for _, r := range list {
			if s, ok := r.(string); ok {
				required[s] = true
			}
		}
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if required[names[i]] != required[names[j]] {
			return required[names[i]]
		}
		return names[i] < names[j]
	})

	sb.WriteString("\n\nParameters:")
	for _, name := range names {
		prop, _ := props[name].(map[string]any)
		fmt.Fprintf(&sb, "\n- %s (%s", name, propType(prop))
		if required[name] {
			sb.WriteString(", required")
		}
		sb.WriteString(")")
		if desc, _ := prop["description"].(string); desc != "" {
			sb.WriteString(": " + desc)
		}
		if enum, ok := prop["enum"].([]any); ok && len(enum) > 0 {
			vals := make([]string, len(enum))
			for i, v := range enum {
				vals[i] = fmt.Sprint(v)
			}
			sb.WriteString(" [" + strings.Join(vals, "|") + "]")
		}
	}
	return sb.String()
}

func propType(prop map[string]any) string {
	typ, _ := prop["type"].(string)
	if typ != "array" {
		return typ
	}
	if items, ok := prop["items"].(map[string]any); ok {
		if it, _ := items["type"].(string); it != "" {
			return "array of " + it
		}
	}
	return typ
}
