package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/mcp"
	"github.com/felixgeelhaar/pdftools-mcp/pack/pdf"
)

// toolsOptions holds options for the tools command.
type toolsOptions struct {
	jsonOutput bool
	verbose    bool
}

// newToolsCmd creates the tools command.
func (a *App) newToolsCmd() *cobra.Command {
	opts := &toolsOptions{}

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools the server exposes",
		Long: `List every tool the server advertises through tools/list.

The catalog does not depend on the PDFTools installation, so this command
works without one.

Examples:
  # Names and descriptions
  pdftools-mcp tools

  # Full catalog with input schemas
  pdftools-mcp tools --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listTools(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print the catalog as JSON with input schemas")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Include parameter summaries")

	return cmd
}

// listTools prints the tool catalog.
func (a *App) listTools(opts *toolsOptions) error {
	tools := pdf.New(pdf.PackConfig{Version: Version}).Tools

	if opts.jsonOutput {
		data, err := json.MarshalIndent(mcp.Catalog(tools), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode catalog: %w", err)
		}
		_, _ = fmt.Fprintln(a.stdout, string(data))
		return nil
	}

	_, _ = fmt.Fprintf(a.stdout, "Tools (%d):\n", len(tools))
	for _, t := range tools {
		if opts.verbose {
			_, _ = fmt.Fprintf(a.stdout, "\n  %s\n    %s\n", t.Name(), indent(mcp.Describe(t), "    "))
			continue
		}
		_, _ = fmt.Fprintf(a.stdout, "  %-20s %s\n", t.Name(), t.Description())
	}
	return nil
}
