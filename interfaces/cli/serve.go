package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/pdftools-mcp/domain/config"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/logging"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/mcp"
)

const (
	transportStdio = "stdio"
	transportHTTP  = "http"

	shutdownTimeout = 5 * time.Second

	serverInstructions = `Tools operate on PDF files addressed by relative paths.
Absolute paths and parent directory references are rejected.`
)

// serveOptions holds options for the serve command.
type serveOptions struct {
	transport string
	addr      string
}

// newServeCmd creates the serve command.
func (a *App) newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Long: `Run the MCP server until interrupted.

The PDFTools installation is located from MCP_PDFTOOLS_VENV,
MCP_PDFTOOLS_TOOLS_DIR or the standard virtualenv locations. The server
refuses to start when it cannot be found.

Examples:
  # Serve over stdio (the usual MCP client setup)
  pdftools-mcp serve

  # Serve over HTTP
  pdftools-mcp serve --transport http --addr 127.0.0.1:8765`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.transport, "transport", "t", "", "Transport: stdio or http (overrides config)")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address for the http transport (overrides config)")

	return cmd
}

// serve resolves the configuration, wires the runtime and blocks serving.
func (a *App) serve(ctx context.Context, cmd *cobra.Command, opts *serveOptions) error {
	cfg, err := a.discover(func(c *config.Config) {
		if cmd.Flags().Changed("transport") {
			c.Server.Transport = opts.transport
		}
		if cmd.Flags().Changed("addr") {
			c.Server.Addr = opts.addr
		}
	})
	if err != nil {
		return err
	}

	rt, err := a.buildRuntime(cfg, cfg.Server.Transport)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := rt.close(shutdownCtx); err != nil {
			logging.Warn().
				Add(logging.Component("cli")).
				Add(logging.ErrorField(err)).
				Msg("shutdown incomplete")
		}
	}()

	srv, err := mcp.NewServer(mcp.ServerConfig{
		Name:         cfg.Server.Name,
		Version:      Version,
		Description:  "PDFTools command-line utilities exposed over MCP",
		Instructions: serverInstructions,
		Dispatcher:   rt.dispatcher,
	})
	if err != nil {
		return err
	}

	logging.Info().
		Add(logging.Component("cli")).
		Add(logging.Str("version", Version)).
		Add(logging.Str("search_root", cfg.Tools.SearchRoot)).
		Msg("starting server")

	switch cfg.Server.Transport {
	case transportStdio:
		err = srv.ServeStdio(ctx)
	case transportHTTP:
		err = srv.ServeHTTP(ctx, cfg.Server.Addr)
	default:
		return fmt.Errorf("unknown transport %q", cfg.Server.Transport)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server stopped: %w", err)
	}

	logging.Info().
		Add(logging.Component("cli")).
		Msg("server stopped")
	return nil
}
