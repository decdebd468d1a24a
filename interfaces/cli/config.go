package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configOptions holds options for the config command.
type configOptions struct {
	format string
}

// newConfigCmd creates the config command.
func (a *App) newConfigCmd() *cobra.Command {
	opts := &configOptions{}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
		Long: `Print the configuration the server would run with, after the config
file, environment overrides, installation discovery and defaults.

Examples:
  pdftools-mcp config
  pdftools-mcp config -c pdftools.yaml --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printConfig(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "yaml", "Output format: yaml or json")

	return cmd
}

// printConfig discovers and prints the configuration.
func (a *App) printConfig(opts *configOptions) error {
	cfg, err := a.discover(nil)
	if err != nil {
		return err
	}

	var data []byte
	switch strings.ToLower(opts.format) {
	case "yaml", "yml":
		data, err = yaml.Marshal(cfg)
	case "json":
		data, err = json.MarshalIndent(cfg, "", "  ")
		data = append(data, '\n')
	default:
		return fmt.Errorf("unsupported format %q", opts.format)
	}
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	_, _ = a.stdout.Write(data)
	return nil
}
