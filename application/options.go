package application

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/pdftools-mcp/domain/tool"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/resilience"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/security/audit"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/telemetry"
)

// Option configures the dispatcher.
type Option func(*DispatcherConfig)

// WithRegistry sets the tool registry.
func WithRegistry(r tool.Registry) Option {
	return func(c *DispatcherConfig) {
		c.Registry = r
	}
}

// WithRateLimiter sets the admission rate limiter.
func WithRateLimiter(l *resilience.RateLimiter) Option {
	return func(c *DispatcherConfig) {
		c.RateLimiter = l
	}
}

// WithAudit sets the audit logger.
func WithAudit(l audit.Logger) Option {
	return func(c *DispatcherConfig) {
		c.Audit = l
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m telemetry.Recorder) Option {
	return func(c *DispatcherConfig) {
		c.Metrics = m
	}
}

// WithTracer sets the tracer used for dispatch spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *DispatcherConfig) {
		c.Tracer = t
	}
}

// WithTransport labels audit events with the serving transport.
func WithTransport(name string) Option {
	return func(c *DispatcherConfig) {
		c.Transport = name
	}
}

// New creates a dispatcher from options.
func New(opts ...Option) (*Dispatcher, error) {
	var config DispatcherConfig
	for _, opt := range opts {
		opt(&config)
	}
	return NewDispatcher(config)
}
