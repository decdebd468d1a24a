package tool

// Registry manages tool registration and lookup.
type Registry interface {
	// Register adds a tool to the registry.
	Register(tool Tool) error

	// Get retrieves a tool by name.
	Get(name string) (Tool, bool)

	// List returns all registered tools in registration order.
	List() []Tool

	// Names returns all registered tool names in registration order.
	Names() []string

	// Has checks if a tool is registered.
	Has(name string) bool
}
