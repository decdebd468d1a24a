package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Path is the dotted path to the invalid field.
	Path string
	// Message describes the validation error.
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e), strings.Join(msgs, "\n  - "))
}

// Unwrap lets errors.Is match ErrValidationFailed.
func (e ValidationErrors) Unwrap() error {
	return ErrValidationFailed
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates server configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(cfg *Config) ValidationErrors {
	v.errors = nil

	v.validateTools(cfg)
	v.validateLimits(cfg)
	v.validateLogging(cfg)
	v.validateTracing(cfg)
	v.validateServer(cfg)

	return v.errors
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}

func (v *Validator) validateTools(cfg *Config) {
	if cfg.Tools.SearchRoot == "" {
		v.addError("tools.search_root", "search_root is required")
	}
}

func (v *Validator) validateLimits(cfg *Config) {
	if cfg.Limits.TimeoutMS <= 0 {
		v.addError("limits.timeout_ms", "timeout_ms must be positive")
	}
	if cfg.Limits.MaxOutputBytes <= 0 {
		v.addError("limits.max_output_bytes", "max_output_bytes must be positive")
	}
	if cfg.Limits.MaxConcurrent <= 0 {
		v.addError("limits.max_concurrent", "max_concurrent must be positive")
	}
	if cfg.Limits.RateLimit < 0 {
		v.addError("limits.rate_limit", "rate_limit must be non-negative")
	}
	if cfg.Limits.RateBurst < 0 {
		v.addError("limits.rate_burst", "rate_burst must be non-negative")
	}
}

func (v *Validator) validateLogging(cfg *Config) {
	switch cfg.Logging.Level {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		v.addError("logging.level", fmt.Sprintf("invalid level: %s", cfg.Logging.Level))
	}
	switch cfg.Logging.Format {
	case "", "json", "console":
	default:
		v.addError("logging.format", fmt.Sprintf("invalid format: %s", cfg.Logging.Format))
	}
}

func (v *Validator) validateTracing(cfg *Config) {
	switch cfg.Tracing.Exporter {
	case "", "none", "stdout":
	case "otlp":
		if cfg.Tracing.Endpoint == "" {
			v.addError("tracing.endpoint", "endpoint is required for otlp exporter")
		}
	default:
		v.addError("tracing.exporter", fmt.Sprintf("invalid exporter: %s", cfg.Tracing.Exporter))
	}
	if cfg.Tracing.SampleRate < 0 || cfg.Tracing.SampleRate > 1 {
		v.addError("tracing.sample_rate", "sample_rate must be between 0 and 1")
	}
}

func (v *Validator) validateServer(cfg *Config) {
	switch cfg.Server.Transport {
	case "", "stdio":
	case "http":
		if cfg.Server.Addr == "" {
			v.addError("server.addr", "addr is required for http transport")
		}
	default:
		v.addError("server.transport", fmt.Sprintf("invalid transport: %s", cfg.Server.Transport))
	}
}
