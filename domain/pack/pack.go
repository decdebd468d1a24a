// Package pack groups related tools into an installable collection.
package pack

import (
	"fmt"

	"github.com/felixgeelhaar/pdftools-mcp/domain/tool"
)

// Pack is a named collection of tools installed together.
type Pack struct {
	// Name is the unique identifier for the pack.
	Name string

	// Description explains what the pack provides.
	Description string

	// Version is the semantic version of the pack.
	Version string

	// Tools is the collection of tools in catalog order.
	Tools []tool.Tool

	// Metadata holds additional pack information.
	Metadata map[string]string
}

// ToolNames returns the names of all tools in the pack.
func (p *Pack) ToolNames() []string {
	names := make([]string, len(p.Tools))
	for i, t := range p.Tools {
		names[i] = t.Name()
	}
	return names
}

// GetTool returns a tool by name from the pack.
func (p *Pack) GetTool(name string) (tool.Tool, bool) {
	for _, t := range p.Tools {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// Install registers every tool of the pack into reg, in order.
func (p *Pack) Install(reg tool.Registry) error {
	if p == nil || p.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidPack)
	}
	seen := make(map[string]bool, len(p.Tools))
	for _, t := range p.Tools {
		if t == nil {
			return fmt.Errorf("%w: nil tool in %s", ErrInvalidPack, p.Name)
		}
		if seen[t.Name()] {
			return fmt.Errorf("%w: %s", ErrDuplicateTool, t.Name())
		}
		seen[t.Name()] = true
		if err := reg.Register(t); err != nil {
			return fmt.Errorf("install %s: %w", p.Name, err)
		}
	}
	return nil
}

// Builder provides a fluent API for constructing packs.
type Builder struct {
	pack *Pack
}

// NewBuilder creates a new pack builder.
func NewBuilder(name string) *Builder {
	return &Builder{
		pack: &Pack{
			Name:     name,
			Tools:    make([]tool.Tool, 0),
			Metadata: make(map[string]string),
		},
	}
}

// WithDescription sets the pack description.
func (b *Builder) WithDescription(desc string) *Builder {
	b.pack.Description = desc
	return b
}

// WithVersion sets the pack version.
func (b *Builder) WithVersion(version string) *Builder {
	b.pack.Version = version
	return b
}

// AddTools appends tools to the pack.
func (b *Builder) AddTools(tools ...tool.Tool) *Builder {
	b.pack.Tools = append(b.pack.Tools, tools...)
	return b
}

// WithMetadata adds metadata to the pack.
func (b *Builder) WithMetadata(key, value string) *Builder {
	b.pack.Metadata[key] = value
	return b
}

// Build returns the constructed pack.
func (b *Builder) Build() *Pack {
	return b.pack
}
