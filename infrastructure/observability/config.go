// Package observability provides OpenTelemetry tracing setup.
package observability

import (
	"io"
	"os"
	"time"
)

// ExporterType specifies the trace exporter.
type ExporterType string

const (
	// ExporterOTLP exports to an OTLP gRPC endpoint.
	ExporterOTLP ExporterType = "otlp"

	// ExporterStdout writes spans as JSON. Despite the name it defaults to
	// stderr, because stdout carries the MCP stream.
	ExporterStdout ExporterType = "stdout"

	// ExporterNoop disables export.
	ExporterNoop ExporterType = "none"
)

// Config configures tracing.
type Config struct {
	// ServiceName is the name of the service for telemetry.
	ServiceName string

	// ServiceVersion is the version of the service.
	ServiceVersion string

	// Exporter specifies the trace exporter type.
	Exporter ExporterType

	// Endpoint is the OTLP endpoint (e.g., "localhost:4317").
	Endpoint string

	// Insecure disables TLS for the exporter connection.
	Insecure bool

	// SampleRate is the sampling rate (0.0-1.0).
	SampleRate float64

	// BatchTimeout is the batch export timeout.
	BatchTimeout time.Duration

	// Writer receives spans from the stdout exporter.
	Writer io.Writer
}

// DefaultConfig returns a configuration with tracing disabled.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "pdftools-mcp",
		ServiceVersion: "dev",
		Exporter:       ExporterNoop,
		SampleRate:     1.0,
		BatchTimeout:   5 * time.Second,
		Writer:         os.Stderr,
	}
}

// Option configures the provider.
type Option func(*Config)

// WithServiceName sets the service name.
func WithServiceName(name string) Option {
	return func(c *Config) {
		c.ServiceName = name
	}
}

// WithServiceVersion sets the service version.
func WithServiceVersion(version string) Option {
	return func(c *Config) {
		c.ServiceVersion = version
	}
}

// WithStdout exports spans to w.
func WithStdout(w io.Writer) Option {
	return func(c *Config) {
		c.Exporter = ExporterStdout
		if w != nil {
			c.Writer = w
		}
	}
}

// WithOTLP exports spans to an OTLP gRPC endpoint.
func WithOTLP(endpoint string, insecure bool) Option {
	return func(c *Config) {
		c.Exporter = ExporterOTLP
		c.Endpoint = endpoint
		c.Insecure = insecure
	}
}

// WithExporter sets the exporter by name, as read from configuration.
func WithExporter(name string) Option {
	return func(c *Config) {
		switch name {
		case "", "none", "noop":
			c.Exporter = ExporterNoop
		default:
			c.Exporter = ExporterType(name)
		}
	}
}

// WithEndpoint sets the OTLP endpoint.
func WithEndpoint(endpoint string, insecure bool) Option {
	return func(c *Config) {
		c.Endpoint = endpoint
		c.Insecure = insecure
	}
}

// WithSampleRate sets the sampling rate.
func WithSampleRate(rate float64) Option {
	return func(c *Config) {
		c.SampleRate = rate
	}
}
