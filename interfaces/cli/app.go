// Package cli provides the command-line interface for the pdftools-mcp server.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	pdftools "github.com/felixgeelhaar/pdftools-mcp"
	"github.com/felixgeelhaar/pdftools-mcp/domain/config"
	infraconfig "github.com/felixgeelhaar/pdftools-mcp/infrastructure/config"
)

// Version information set at build time.
var (
	Version   = pdftools.Version
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// App represents the CLI application.
type App struct {
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer

	configFile string

	// newDiscoverer builds the configuration discoverer. Tests replace it to
	// control the environment.
	newDiscoverer func() *infraconfig.Discoverer
}

// New creates a new CLI application.
func New() *App {
	app := &App{
		stdout:        os.Stdout,
		stderr:        os.Stderr,
		newDiscoverer: infraconfig.NewDiscoverer,
	}

	app.root = &cobra.Command{
		Use:   "pdftools-mcp",
		Short: "MCP server for the PDFTools command-line utilities",
		Long: `pdftools-mcp exposes the PDFTools command-line utilities (merge, split,
text extraction, OCR, protection, thumbnails and invoice renaming) as MCP
tools.

Every call is checked against a fixed tool whitelist, its paths are validated
before any file is touched, and the underlying executable runs with a timeout
and bounded output.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	app.root.PersistentFlags().StringVarP(&app.configFile, "config", "c", "", "Path to a YAML or JSON configuration file")

	app.root.AddCommand(
		app.newVersionCmd(),
		app.newServeCmd(),
		app.newToolsCmd(),
		app.newCallCmd(),
		app.newHealthCmd(),
		app.newConfigCmd(),
	)

	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// Execute runs the CLI application.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments (useful for testing).
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

// discover resolves the configuration. overrides carries command flags and
// runs after the environment is applied.
func (a *App) discover(overrides func(*config.Config)) (*config.Config, error) {
	d := a.newDiscoverer()
	d.ConfigFile = a.configFile
	d.Overrides = overrides

	cfg, err := d.Discover()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configuration: %w", err)
	}
	return cfg, nil
}

// newVersionCmd creates the version command.
func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(a.stdout, "pdftools-mcp version %s\n", Version)
			_, _ = fmt.Fprintf(a.stdout, "  Git commit: %s\n", GitCommit)
			_, _ = fmt.Fprintf(a.stdout, "  Build date: %s\n", BuildDate)
		},
	}
}
