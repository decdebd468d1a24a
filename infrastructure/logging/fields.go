package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// maxLoggedValue caps untrusted strings such as rejected tool names.
const maxLoggedValue = 64

// ToolName adds a tool name field. Long names are truncated.
func ToolName(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("tool", truncate(name))
	}
}

// Executable adds the executable name.
func Executable(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("executable", name)
	}
}

// InvocationID adds the per-call correlation id.
func InvocationID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("invocation_id", id)
	}
}

// ExitCode adds a process exit code.
func ExitCode(code int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("exit_code", code)
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// Bytes adds a byte count with a custom key.
func Bytes(key string, n int64) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64(key, n)
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Reason adds a reason field.
func Reason(reason string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("reason", reason)
	}
}

// Component adds a component field for categorization.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// Operation adds an operation field.
func Operation(op string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("operation", op)
	}
}

// Str adds a string field with custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}

// Int adds an int field with custom key.
func Int(key string, value int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int(key, value)
	}
}

// Bool adds a bool field with custom key.
func Bool(key string, value bool) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Bool(key, value)
	}
}

func truncate(s string) string {
	if len(s) <= maxLoggedValue {
		return s
	}
	return s[:maxLoggedValue] + "..."
}
