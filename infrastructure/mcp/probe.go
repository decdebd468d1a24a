package mcp

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/felixgeelhaar/pdftools-mcp/domain/operation"
)

// ErrProbeFailed is returned when the probed server cannot be reached.
var ErrProbeFailed = errors.New("mcp probe failed")

const defaultProbeTimeout = 10 * time.Second

// ProbeConfig configures a client round trip against a server.
type ProbeConfig struct {
	// ClientName is reported during initialization.
	ClientName string

	// ClientVersion is reported during initialization.
	ClientVersion string

	// Command starts the server over stdio. Ignored when a transport is
	// passed to ProbeTransport.
	Command []string

	// Timeout bounds the whole round trip.
	Timeout time.Duration
}

// ProbeOption configures a probe.
type ProbeOption func(*ProbeConfig)

// WithClientName sets the client name.
func WithClientName(name string) ProbeOption {
	return func(c *ProbeConfig) {
		c.ClientName = name
	}
}

// WithServerCommand sets the command that starts the server.
func WithServerCommand(cmd ...string) ProbeOption {
	return func(c *ProbeConfig) {
		c.Command = cmd
	}
}

// WithProbeTimeout sets the round trip timeout.
func WithProbeTimeout(d time.Duration) ProbeOption {
	return func(c *ProbeConfig) {
		c.Timeout = d
	}
}

// ProbeReport is the outcome of a round trip.
type ProbeReport struct {
	ServerName    string
	ServerVersion string
	Tools         []string
	Missing       []string
	Duration      time.Duration
}

// Healthy reports whether every operation was advertised.
func (r *ProbeReport) Healthy() bool {
	return len(r.Missing) == 0
}

func newProbeConfig(opts []ProbeOption) ProbeConfig {
	cfg := ProbeConfig{
		ClientName:    "pdftools-mcp-probe",
		ClientVersion: "1.0.0",
		Timeout:       defaultProbeTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Probe starts the server command, initializes a session and lists its
// tools.
func Probe(ctx context.Context, opts ...ProbeOption) (*ProbeReport, error) {
	cfg := newProbeConfig(opts)
	if len(cfg.Command) == 0 {
		return nil, fmt.Errorf("%w: no server command", ErrProbeFailed)
	}
	cmd := exec.Command(cfg.Command[0], cfg.Command[1:]...) // #nosec G204 -- operator-supplied server command
	return probe(ctx, cfg, &mcpsdk.CommandTransport{Command: cmd})
}

// ProbeTransport runs the round trip over an existing transport.
func ProbeTransport(ctx context.Context, transport mcpsdk.Transport, opts ...ProbeOption) (*ProbeReport, error) {
	return probe(ctx, newProbeConfig(opts), transport)
}

func probe(ctx context.Context, cfg ProbeConfig, transport mcpsdk.Transport) (*ProbeReport, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: cfg.ClientName, Version: cfg.ClientVersion}, nil)
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", ErrProbeFailed, err)
	}
	defer session.Close()

	listed, err := session.ListTools(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: list tools: %v", ErrProbeFailed, err)
	}

	report := &ProbeReport{}
	if init := session.InitializeResult(); init != nil && init.ServerInfo != nil {
		report.ServerName = init.ServerInfo.Name
		report.ServerVersion = init.ServerInfo.Version
	}

	seen := make(map[string]bool, len(listed.Tools))
	for _, t := range listed.Tools {
		report.Tools = append(report.Tools, t.Name)
		seen[t.Name] = true
	}
	for _, name := range operation.Names() {
		if !seen[name.String()] {
			report.Missing = append(report.Missing, name.String())
		}
	}
	report.Duration = time.Since(start)
	return report, nil
}
