package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/pdftools-mcp/domain/config"
	"github.com/felixgeelhaar/pdftools-mcp/domain/operation"
)

// Environment variables read during discovery.
const (
	EnvVenv           = "MCP_PDFTOOLS_VENV"
	EnvToolsDir       = "MCP_PDFTOOLS_TOOLS_DIR"
	EnvWorkDir        = "MCP_PDFTOOLS_WORKDIR"
	EnvTimeout        = "MCP_PDFTOOLS_TIMEOUT"
	EnvMaxOutput      = "MCP_PDFTOOLS_MAX_OUTPUT"
	EnvMaxConcurrent  = "MCP_PDFTOOLS_MAX_CONCURRENT"
	EnvSanitizeStderr = "MCP_PDFTOOLS_SANITIZE_STDERR"
	EnvRateLimit      = "MCP_PDFTOOLS_RATE_LIMIT"
	EnvLogLevel       = "MCP_PDFTOOLS_LOG_LEVEL"
	EnvLogFormat      = "MCP_PDFTOOLS_LOG_FORMAT"
	EnvTraceExporter  = "MCP_PDFTOOLS_TRACE_EXPORTER"
	EnvOTLPEndpoint   = "MCP_PDFTOOLS_OTLP_ENDPOINT"
	EnvAuditPath      = "MCP_PDFTOOLS_AUDIT_PATH"
)

// probeExecutable is the executable whose presence marks a tools directory.
var probeExecutable = operation.Merge.Executable()

// Discoverer resolves the server configuration from an optional file, the
// environment and caller overrides, then locates the PDFTools installation.
type Discoverer struct {
	// ConfigFile is an optional YAML or JSON file.
	ConfigFile string
	// Loader reads ConfigFile. NewLoader() when nil.
	Loader *Loader
	// Overrides runs after environment overrides, typically for CLI flags.
	Overrides func(*config.Config)

	Getenv     func(string) string
	Executable func() (string, error)
	Getwd      func() (string, error)
	HomeDir    func() (string, error)
}

// NewDiscoverer creates a discoverer bound to the process environment.
func NewDiscoverer() *Discoverer {
	return &Discoverer{
		Getenv:     os.Getenv,
		Executable: os.Executable,
		Getwd:      os.Getwd,
		HomeDir:    os.UserHomeDir,
	}
}

// Discover resolves a validated configuration using the process environment.
func Discover(configFile string, overrides func(*config.Config)) (*config.Config, error) {
	d := NewDiscoverer()
	d.ConfigFile = configFile
	d.Overrides = overrides
	return d.Discover()
}

// Discover builds the configuration. Precedence is file, then environment,
// then Overrides. The result has defaults applied and is validated.
func (d *Discoverer) Discover() (*config.Config, error) {
	cfg, err := d.base()
	if err != nil {
		return nil, err
	}

	if err := ApplyEnv(cfg, d.getenv); err != nil {
		return nil, err
	}
	if d.Overrides != nil {
		d.Overrides(cfg)
	}

	if err := d.locateTools(cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if errs := config.NewValidator().Validate(cfg); errs.HasErrors() {
		return nil, errs
	}
	return cfg, nil
}

func (d *Discoverer) base() (*config.Config, error) {
	if d.ConfigFile == "" {
		cfg := config.Default()
		return &cfg, nil
	}
	loader := d.Loader
	if loader == nil {
		loader = NewLoader()
	}
	return loader.LoadFile(d.ConfigFile)
}

func (d *Discoverer) getenv(key string) string {
	if d.Getenv == nil {
		return os.Getenv(key)
	}
	return d.Getenv(key)
}

// Candidates returns the interpreter paths tried when no search root is
// configured, in priority order.
func (d *Discoverer) Candidates(cfg *config.Config) []string {
	var out []string
	if cfg.Tools.Python != "" {
		out = append(out, cfg.Tools.Python)
	}
	if d.Executable != nil {
		if exe, err := d.Executable(); err == nil {
			out = append(out, filepath.Join(filepath.Dir(exe), "..", "venv", "bin", "python"))
		}
	}
	if d.HomeDir != nil {
		if home, err := d.HomeDir(); err == nil && home != "" {
			out = append(out, filepath.Join(home, "mcp_pdftools", "venv", "bin", "python"))
		}
	}
	if d.Getwd != nil {
		if wd, err := d.Getwd(); err == nil {
			out = append(out,
				filepath.Join(wd, "venv", "bin", "python"),
				filepath.Join(wd, "..", "venv", "bin", "python"),
			)
		}
	}
	return out
}

func (d *Discoverer) locateTools(cfg *config.Config) error {
	if cfg.Tools.SearchRoot != "" {
		root := filepath.Clean(cfg.Tools.SearchRoot)
		if !isExecutable(filepath.Join(root, probeExecutable)) {
			return fmt.Errorf("%w: %s not found in %s", config.ErrToolsNotFound, probeExecutable, root)
		}
		cfg.Tools.SearchRoot = root
		return nil
	}

	candidates := d.Candidates(cfg)
	for _, python := range candidates {
		python = filepath.Clean(python)
		if !isExecutable(python) {
			continue
		}
		dir := filepath.Dir(python)
		if !isExecutable(filepath.Join(dir, probeExecutable)) {
			continue
		}
		cfg.Tools.Python = python
		cfg.Tools.SearchRoot = dir
		return nil
	}

	return fmt.Errorf("%w. Tried:\n  %s\nSet %s to the venv python or %s to the tools directory",
		config.ErrToolsNotFound, strings.Join(candidates, "\n  "), EnvVenv, EnvToolsDir)
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}

// ApplyEnv overlays MCP_PDFTOOLS_* variables onto cfg. Unset or empty
// variables leave cfg untouched; malformed numbers are an error.
func ApplyEnv(cfg *config.Config, getenv func(string) string) error {
	if v := getenv(EnvVenv); v != "" {
		cfg.Tools.Python = v
	}
	if v := getenv(EnvToolsDir); v != "" {
		cfg.Tools.SearchRoot = v
	}
	if v := getenv(EnvWorkDir); v != "" {
		cfg.Tools.WorkDir = v
	}

	if err := envInt(getenv, EnvTimeout, &cfg.Limits.TimeoutMS); err != nil {
		return err
	}
	if v := getenv(EnvMaxOutput); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return invalidEnv(EnvMaxOutput, v)
		}
		cfg.Limits.MaxOutputBytes = n
	}
	if err := envInt(getenv, EnvMaxConcurrent, &cfg.Limits.MaxConcurrent); err != nil {
		return err
	}
	if err := envInt(getenv, EnvRateLimit, &cfg.Limits.RateLimit); err != nil {
		return err
	}
	if v := getenv(EnvSanitizeStderr); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return invalidEnv(EnvSanitizeStderr, v)
		}
		cfg.Limits.SanitizeStderr = b
	}

	if v := getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := getenv(EnvLogFormat); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := getenv(EnvTraceExporter); v != "" {
		cfg.Tracing.Exporter = strings.ToLower(v)
	}
	if v := getenv(EnvOTLPEndpoint); v != "" {
		cfg.Tracing.Endpoint = v
	}
	if v := getenv(EnvAuditPath); v != "" {
		cfg.Audit.Enabled = true
		cfg.Audit.Path = v
	}
	return nil
}

func envInt(getenv func(string) string, key string, dst *int) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return invalidEnv(key, v)
	}
	*dst = n
	return nil
}

func invalidEnv(key, value string) error {
	return fmt.Errorf("%w: %s=%q", config.ErrInvalidFormat, key, value)
}
