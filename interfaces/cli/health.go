package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/pdftools-mcp/domain/config"
	"github.com/felixgeelhaar/pdftools-mcp/domain/operation"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/executor"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/mcp"
	"github.com/felixgeelhaar/pdftools-mcp/pack/pdf"
)

// ErrUnhealthy is returned by health when any check fails.
var ErrUnhealthy = errors.New("health check failed")

// healthOptions holds options for the health command.
type healthOptions struct {
	probe        bool
	probeTimeout time.Duration
}

// newHealthCmd creates the health command.
func (a *App) newHealthCmd() *cobra.Command {
	opts := &healthOptions{}

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the PDFTools installation",
		Long: `Resolve the configuration, locate the PDFTools installation and check
that every executable is present and executable.

With --probe the command also starts this binary as an MCP server over stdio,
initializes a client session and checks that every tool is advertised.

Examples:
  pdftools-mcp health
  pdftools-mcp health --probe`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.health(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.probe, "probe", false, "Run an MCP client round trip against a spawned server")
	cmd.Flags().DurationVar(&opts.probeTimeout, "probe-timeout", 10*time.Second, "Timeout for the MCP round trip")

	return cmd
}

// health prints one line per check and fails if any check fails.
func (a *App) health(ctx context.Context, opts *healthOptions) error {
	cfg, err := a.discover(nil)
	if err != nil {
		_, _ = fmt.Fprintf(a.stdout, "Configuration: FAILED\n  %v\n", err)
		return ErrUnhealthy
	}

	_, _ = fmt.Fprintf(a.stdout, "Configuration: ok\n")
	_, _ = fmt.Fprintf(a.stdout, "  search_root:    %s\n", cfg.Tools.SearchRoot)
	if cfg.Tools.Python != "" {
		_, _ = fmt.Fprintf(a.stdout, "  python:         %s\n", cfg.Tools.Python)
	}
	_, _ = fmt.Fprintf(a.stdout, "  timeout:        %s\n", cfg.Limits.Timeout())
	_, _ = fmt.Fprintf(a.stdout, "  max_output:     %d bytes\n", cfg.Limits.MaxOutputBytes)
	_, _ = fmt.Fprintf(a.stdout, "  max_concurrent: %d\n", cfg.Limits.MaxConcurrent)

	healthy := a.checkExecutables(cfg)
	healthy = a.checkSchemas() && healthy

	if opts.probe {
		healthy = a.probeServer(ctx, opts.probeTimeout) && healthy
	}

	if !healthy {
		_, _ = fmt.Fprintf(a.stdout, "\nStatus: unhealthy\n")
		return ErrUnhealthy
	}
	_, _ = fmt.Fprintf(a.stdout, "\nStatus: healthy\n")
	return nil
}

// checkExecutables resolves every operation's executable in the search root.
func (a *App) checkExecutables(cfg *config.Config) bool {
	exec, err := executor.New(executor.Config{SearchRoot: cfg.Tools.SearchRoot})
	if err != nil {
		_, _ = fmt.Fprintf(a.stdout, "\nExecutables: FAILED\n  %v\n", err)
		return false
	}

	healthy := true
	_, _ = fmt.Fprintf(a.stdout, "\nExecutables:\n")
	for _, op := range operation.Names() {
		if _, err := exec.Resolve(op.Executable()); err != nil {
			healthy = false
			reason := err
			var launchErr *executor.LaunchError
			if errors.As(err, &launchErr) {
				reason = launchErr.Err
			}
			_, _ = fmt.Fprintf(a.stdout, "  [FAIL] %-20s %s: %v\n", op, op.Executable(), reason)
			continue
		}
		_, _ = fmt.Fprintf(a.stdout, "  [ok]   %-20s %s\n", op, op.Executable())
	}
	return healthy
}

// checkSchemas compiles the advertised input schemas.
func (a *App) checkSchemas() bool {
	set, err := mcp.CompileSchemas(pdf.New(pdf.PackConfig{}).Tools)
	if err != nil {
		_, _ = fmt.Fprintf(a.stdout, "\nSchemas: FAILED\n  %v\n", err)
		return false
	}
	_, _ = fmt.Fprintf(a.stdout, "\nSchemas: ok (%d)\n", set.Len())
	return true
}

// probeServer spawns this binary in stdio mode and checks its catalog.
func (a *App) probeServer(ctx context.Context, timeout time.Duration) bool {
	self, err := os.Executable()
	if err != nil {
		_, _ = fmt.Fprintf(a.stdout, "\nMCP probe: FAILED\n  %v\n", err)
		return false
	}
	command := []string{self, "serve", "--transport", transportStdio}
	if a.configFile != "" {
		command = append(command, "--config", a.configFile)
	}

	report, err := mcp.Probe(ctx,
		mcp.WithClientName("pdftools-mcp-health"),
		mcp.WithServerCommand(command...),
		mcp.WithProbeTimeout(timeout),
	)
	if err != nil {
		_, _ = fmt.Fprintf(a.stdout, "\nMCP probe: FAILED\n  %v\n", err)
		return false
	}

	_, _ = fmt.Fprintf(a.stdout, "\nMCP probe: %s %s, %d tools in %s\n",
		report.ServerName, report.ServerVersion, len(report.Tools), report.Duration.Round(time.Millisecond))
	if !report.Healthy() {
		_, _ = fmt.Fprintf(a.stdout, "  missing: %s\n", strings.Join(report.Missing, ", "))
		return false
	}
	return true
}
