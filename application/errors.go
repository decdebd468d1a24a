package application

import "errors"

// Dispatcher errors.
var (
	// ErrMissingRoute is returned by NewDispatcher when an operation has no tool.
	ErrMissingRoute = errors.New("operation has no registered tool")

	// ErrRegistryRequired is returned by NewDispatcher without a registry.
	ErrRegistryRequired = errors.New("tool registry is required")
)

// ConfigurationError reports that a tool could not be launched at all,
// which means the installation is broken rather than the call being bad.
// It is surfaced to MCP clients as a protocol-level failure.
type ConfigurationError struct {
	// Tool is the operation that failed to launch.
	Tool string
	// Message is the sanitized, client-safe description.
	Message string
	// Err is the underlying launch error. Never sent to clients.
	Err error
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
