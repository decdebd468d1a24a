// Package audit records an append-only trail of tool dispatches.
package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Event represents one audited dispatch.
type Event struct {
	Timestamp    time.Time     `json:"timestamp"`
	EventType    EventType     `json:"event_type"`
	InvocationID string        `json:"invocation_id,omitempty"`
	ToolName     string        `json:"tool_name,omitempty"`
	Success      bool          `json:"success"`
	Error        string        `json:"error,omitempty"`
	Duration     time.Duration `json:"duration_ns,omitempty"`
	Transport    string        `json:"transport,omitempty"`
}

// EventType categorizes audit events.
type EventType string

const (
	EventToolCall          EventType = "tool_call"
	EventToolRejection     EventType = "tool_rejection"
	EventValidationFailure EventType = "validation_failure"
	EventExecutionFailure  EventType = "execution_failure"
	EventLaunchFailure     EventType = "launch_failure"
	EventRateLimited       EventType = "rate_limited"
)

// maxToolName caps the recorded length of rejected names.
const maxToolName = 64

// Logger defines the interface for audit logging.
type Logger interface {
	// Log records an audit event.
	Log(ctx context.Context, event Event) error

	// Query retrieves events matching the filter.
	Query(ctx context.Context, filter Filter) ([]Event, error)

	// Close releases resources.
	Close() error
}

// Filter specifies criteria for querying events.
type Filter struct {
	StartTime  time.Time
	EndTime    time.Time
	EventTypes []EventType
	ToolName   string
	Success    *bool
	Limit      int
}

func normalize(event Event) Event {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if len(event.ToolName) > maxToolName {
		event.ToolName = event.ToolName[:maxToolName] + "..."
	}
	return event
}

// MemoryLogger implements Logger using in-memory storage.
type MemoryLogger struct {
	mu     sync.RWMutex
	events []Event
	maxLen int
}

// MemoryLoggerOption configures the memory logger.
type MemoryLoggerOption func(*MemoryLogger)

// WithMaxEvents sets the maximum number of events to retain.
func WithMaxEvents(max int) MemoryLoggerOption {
	return func(l *MemoryLogger) {
		l.maxLen = max
	}
}

// NewMemoryLogger creates a new in-memory audit logger.
func NewMemoryLogger(opts ...MemoryLoggerOption) *MemoryLogger {
	l := &MemoryLogger{
		events: make([]Event, 0),
		maxLen: 10000,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Log records an event.
func (l *MemoryLogger) Log(_ context.Context, event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, normalize(event))

	if l.maxLen > 0 && len(l.events) > l.maxLen {
		l.events = l.events[len(l.events)-l.maxLen:]
	}
	return nil
}

// Query retrieves events matching the filter.
func (l *MemoryLogger) Query(_ context.Context, filter Filter) ([]Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var result []Event
	for _, event := range l.events {
		if !matchesFilter(event, filter) {
			continue
		}
		result = append(result, event)
		if filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
	}
	return result, nil
}

// Close releases resources.
func (l *MemoryLogger) Close() error {
	return nil
}

// Events returns all events.
func (l *MemoryLogger) Events() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	result := make([]Event, len(l.events))
	copy(result, l.events)
	return result
}

func matchesFilter(event Event, filter Filter) bool {
	if !filter.StartTime.IsZero() && event.Timestamp.Before(filter.StartTime) {
		return false
	}
	if !filter.EndTime.IsZero() && event.Timestamp.After(filter.EndTime) {
		return false
	}
	if len(filter.EventTypes) > 0 {
		found := false
		for _, t := range filter.EventTypes {
			if event.EventType == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.ToolName != "" && event.ToolName != filter.ToolName {
		return false
	}
	if filter.Success != nil && event.Success != *filter.Success {
		return false
	}
	return true
}

// JSONLogger writes events as JSON lines to an io.Writer.
type JSONLogger struct {
	mu      sync.Mutex
	writer  io.Writer
	encoder *json.Encoder
}

// NewJSONLogger creates a new JSON audit logger.
func NewJSONLogger(writer io.Writer) *JSONLogger {
	return &JSONLogger{
		writer:  writer,
		encoder: json.NewEncoder(writer),
	}
}

// Log records an event as JSON.
func (l *JSONLogger) Log(_ context.Context, event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.encoder.Encode(normalize(event))
}

// Query is not supported by JSONLogger.
func (l *JSONLogger) Query(context.Context, Filter) ([]Event, error) {
	return nil, nil
}

// Close releases resources.
func (l *JSONLogger) Close() error {
	if closer, ok := l.writer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// MultiLogger logs to multiple loggers.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a logger that writes to multiple loggers.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

// Log records an event to all loggers.
func (l *MultiLogger) Log(ctx context.Context, event Event) error {
	var firstErr error
	for _, logger := range l.loggers {
		if err := logger.Log(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Query queries the first logger that supports it.
func (l *MultiLogger) Query(ctx context.Context, filter Filter) ([]Event, error) {
	for _, logger := range l.loggers {
		events, err := logger.Query(ctx, filter)
		if err == nil && events != nil {
			return events, nil
		}
	}
	return nil, nil
}

// Close closes all loggers.
func (l *MultiLogger) Close() error {
	var firstErr error
	for _, logger := range l.loggers {
		if err := logger.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NopLogger discards every event.
type NopLogger struct{}

// Log discards the event.
func (NopLogger) Log(context.Context, Event) error { return nil }

// Query returns nothing.
func (NopLogger) Query(context.Context, Filter) ([]Event, error) { return nil, nil }

// Close does nothing.
func (NopLogger) Close() error { return nil }
