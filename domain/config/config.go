// Package config provides the domain model for server configuration.
package config

import "time"

// Defaults applied when neither file nor environment sets a value.
const (
	DefaultTimeoutMS      = 300000
	DefaultMaxOutputBytes = 10 * 1024 * 1024
	DefaultMaxConcurrent  = 4
	DefaultServerName     = "pdftools-mcp"
	DefaultHTTPAddr       = "127.0.0.1:8765"
)

// Config is the resolved server configuration. It is built once at startup
// and passed explicitly to every component that needs it.
type Config struct {
	// Tools locates the PDF executables.
	Tools ToolsConfig `json:"tools" yaml:"tools"`
	// Limits bounds every subprocess.
	Limits LimitsConfig `json:"limits" yaml:"limits"`
	// Logging configures structured logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
	// Tracing configures OpenTelemetry tracing.
	Tracing TracingConfig `json:"tracing" yaml:"tracing"`
	// Server configures the MCP transport.
	Server ServerConfig `json:"server" yaml:"server"`
	// Audit configures the dispatch audit trail.
	Audit AuditConfig `json:"audit" yaml:"audit"`
}

// ToolsConfig locates the executables.
type ToolsConfig struct {
	// SearchRoot is the directory holding the executables.
	SearchRoot string `json:"search_root,omitempty" yaml:"search_root,omitempty"`
	// Python is the interpreter found during discovery, if any.
	Python string `json:"python,omitempty" yaml:"python,omitempty"`
	// WorkDir is the directory relative tool arguments resolve against.
	// Empty means the server's working directory.
	WorkDir string `json:"work_dir,omitempty" yaml:"work_dir,omitempty"`
}

// LimitsConfig bounds subprocess execution.
type LimitsConfig struct {
	// TimeoutMS is the default per-call timeout in milliseconds.
	TimeoutMS int `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
	// MaxOutputBytes caps each of stdout and stderr.
	MaxOutputBytes int64 `json:"max_output_bytes,omitempty" yaml:"max_output_bytes,omitempty"`
	// MaxConcurrent caps simultaneous subprocesses.
	MaxConcurrent int `json:"max_concurrent,omitempty" yaml:"max_concurrent,omitempty"`
	// SanitizeStderr redacts host paths in execution-failure stderr.
	SanitizeStderr bool `json:"sanitize_stderr,omitempty" yaml:"sanitize_stderr,omitempty"`
	// RateLimit admits at most this many calls per second. Zero disables it.
	RateLimit int `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
	// RateBurst is the token bucket capacity for RateLimit.
	RateBurst int `json:"rate_burst,omitempty" yaml:"rate_burst,omitempty"`
}

// Timeout returns the default timeout as a duration.
func (l LimitsConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutMS) * time.Millisecond
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	// Level is trace, debug, info, warn or error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// Format is json or console.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// TracingConfig configures tracing.
type TracingConfig struct {
	// Exporter is none, stdout or otlp.
	Exporter string `json:"exporter,omitempty" yaml:"exporter,omitempty"`
	// Endpoint is the OTLP collector endpoint.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	// Insecure disables TLS for OTLP.
	Insecure bool `json:"insecure,omitempty" yaml:"insecure,omitempty"`
	// SampleRate is the fraction of traces sampled, 0 to 1.
	SampleRate float64 `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty"`
}

// ServerConfig configures the MCP transport.
type ServerConfig struct {
	// Name is reported to clients during initialization.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Transport is stdio or http.
	Transport string `json:"transport,omitempty" yaml:"transport,omitempty"`
	// Addr is the listen address for the http transport.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// AuditConfig configures the audit trail.
type AuditConfig struct {
	// Enabled turns on audit events for every dispatch.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// Path is the JSON-lines output file; empty writes to stderr.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Default returns a configuration with every default applied and no
// tools location.
func Default() Config {
	return Config{
		Limits: LimitsConfig{
			TimeoutMS:      DefaultTimeoutMS,
			MaxOutputBytes: DefaultMaxOutputBytes,
			MaxConcurrent:  DefaultMaxConcurrent,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Exporter:   "none",
			SampleRate: 1.0,
		},
		Server: ServerConfig{
			Name:      DefaultServerName,
			Transport: "stdio",
			Addr:      DefaultHTTPAddr,
		},
	}
}

// ApplyDefaults fills zero values from Default.
func (c *Config) ApplyDefaults() {
	d := Default()
	if c.Limits.TimeoutMS == 0 {
		c.Limits.TimeoutMS = d.Limits.TimeoutMS
	}
	if c.Limits.MaxOutputBytes == 0 {
		c.Limits.MaxOutputBytes = d.Limits.MaxOutputBytes
	}
	if c.Limits.MaxConcurrent == 0 {
		c.Limits.MaxConcurrent = d.Limits.MaxConcurrent
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = d.Logging.Format
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = d.Tracing.Exporter
	}
	if c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = d.Tracing.SampleRate
	}
	if c.Server.Name == "" {
		c.Server.Name = d.Server.Name
	}
	if c.Server.Transport == "" {
		c.Server.Transport = d.Server.Transport
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
}
