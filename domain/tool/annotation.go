// Package tool provides the domain model for tools exposed over MCP.
package tool

// Annotations describe tool behavior to clients.
type Annotations struct {
	// ReadOnly indicates the tool does not write files.
	ReadOnly bool `json:"read_only"`

	// Destructive indicates the tool may overwrite or rename existing files.
	Destructive bool `json:"destructive"`

	// Idempotent indicates repeated calls with the same input yield the same files.
	Idempotent bool `json:"idempotent"`

	// Tags are arbitrary labels for categorization.
	Tags []string `json:"tags,omitempty"`
}

// DefaultAnnotations returns annotations for a tool that writes new files.
func DefaultAnnotations() Annotations {
	return Annotations{}
}
