package application

import (
	"testing"

	"go.opentelemetry.io/otel/trace/noop"

	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/resilience"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/security/audit"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/storage/memory"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/telemetry"
)

func TestWithRegistry(t *testing.T) {
	t.Parallel()

	registry := memory.NewToolRegistry()
	config := &DispatcherConfig{}

	WithRegistry(registry)(config)

	if config.Registry != registry {
		t.Error("WithRegistry should set the registry")
	}
}

func TestWithRateLimiter(t *testing.T) {
	t.Parallel()

	limiter := resilience.NewRateLimiter(resilience.Config{Rate: 5})
	config := &DispatcherConfig{}

	WithRateLimiter(limiter)(config)

	if config.RateLimiter != limiter {
		t.Error("WithRateLimiter should set the limiter")
	}
}

func TestWithAudit(t *testing.T) {
	t.Parallel()

	logger := audit.NewMemoryLogger()
	config := &DispatcherConfig{}

	WithAudit(logger)(config)

	if config.Audit != logger {
		t.Error("WithAudit should set the audit logger")
	}
}

func TestWithMetrics(t *testing.T) {
	t.Parallel()

	config := &DispatcherConfig{}

	WithMetrics(telemetry.NoopMetricsProvider{})(config)

	if _, ok := config.Metrics.(telemetry.NoopMetricsProvider); !ok {
		t.Errorf("Metrics = %T, want NoopMetricsProvider", config.Metrics)
	}
}

func TestWithTracerAndTransport(t *testing.T) {
	t.Parallel()

	tracer := noop.NewTracerProvider().Tracer("test")
	config := &DispatcherConfig{}

	WithTracer(tracer)(config)
	WithTransport("http")(config)

	if config.Tracer != tracer {
		t.Error("WithTracer should set the tracer")
	}
	if config.Transport != "http" {
		t.Errorf("Transport = %q, want http", config.Transport)
	}
}

func TestNew_AppliesOptions(t *testing.T) {
	t.Parallel()

	if _, err := New(); err == nil {
		t.Error("New() without a registry should fail")
	}

	d, err := New(WithRegistry(newTestRegistry(nil, nil)), WithTransport("stdio"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := len(d.Tools()); got != 7 {
		t.Errorf("Tools() = %d, want 7", got)
	}
}
