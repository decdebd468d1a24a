package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/pdftools-mcp/domain/tool"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/mcp"
)

// ErrToolFailed is returned by call when the tool reports an error result.
// The envelope has already been printed.
var ErrToolFailed = errors.New("tool call failed")

// ErrSchemaViolation is returned by call --strict when the arguments do not
// match the tool's input schema.
var ErrSchemaViolation = errors.New("arguments do not match the input schema")

// callOptions holds options for the call command.
type callOptions struct {
	raw    bool
	strict bool
}

// newCallCmd creates the call command.
func (a *App) newCallCmd() *cobra.Command {
	opts := &callOptions{}

	cmd := &cobra.Command{
		Use:   "call <tool> [arguments]",
		Short: "Dispatch one tool call locally",
		Long: `Dispatch one tool call through the same whitelist, validation and
executor the server uses, and print the response envelope.

Arguments are a JSON object. Pass "-" to read them from stdin; omit them for
an empty object.

Examples:
  # Merge two files
  pdftools-mcp call pdf_merge '{"input_files":["a.pdf","b.pdf"],"output_file":"out.pdf"}'

  # Arguments from stdin, text only
  echo '{"input_file":"a.pdf"}' | pdftools-mcp call pdf_extract_text - --raw`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input string
			if len(args) > 1 {
				input = args[1]
			}
			return a.call(cmd.Context(), cmd.InOrStdin(), args[0], input, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.raw, "raw", false, "Print only the result text")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Reject arguments that do not match the advertised input schema")

	return cmd
}

// call dispatches name with input and prints the envelope.
func (a *App) call(ctx context.Context, stdin io.Reader, name, input string, opts *callOptions) error {
	args, err := readArguments(stdin, input)
	if err != nil {
		return err
	}

	cfg, err := a.discover(nil)
	if err != nil {
		return err
	}
	rt, err := a.buildRuntime(cfg, "cli")
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = rt.close(closeCtx)
	}()

	if opts.strict {
		if err := checkSchema(rt.dispatcher.Tools(), name, args); err != nil {
			return err
		}
	}

	res, err := rt.dispatcher.Dispatch(ctx, name, args)
	if err != nil {
		return err
	}

	if opts.raw {
		_, _ = fmt.Fprintln(a.stdout, res.Text())
	} else {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		_, _ = fmt.Fprintln(a.stdout, string(data))
	}

	if res.IsError {
		return ErrToolFailed
	}
	if res.Duration > 0 {
		_, _ = fmt.Fprintf(a.stderr, "completed in %s\n", res.Duration.Round(time.Millisecond))
	}
	return nil
}

// checkSchema validates args against the input schema of name. Unknown
// names are left to the dispatcher.
func checkSchema(tools []tool.Tool, name string, args json.RawMessage) error {
	set, err := mcp.CompileSchemas(tools)
	if err != nil {
		return err
	}
	violations, err := set.Validate(name, args)
	if errors.Is(err, mcp.ErrUnknownSchema) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(violations) > 0 {
		return fmt.Errorf("%w:\n  %s", ErrSchemaViolation, strings.Join(violations, "\n  "))
	}
	return nil
}

// readArguments returns the call arguments from input, or from stdin when
// input is "-". The arguments must be a JSON object.
func readArguments(stdin io.Reader, input string) (json.RawMessage, error) {
	switch input {
	case "":
		return json.RawMessage("{}"), nil
	case "-":
		if stdin == nil {
			stdin = os.Stdin
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read arguments: %w", err)
		}
		input = string(data)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(input), &obj); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	return json.RawMessage(input), nil
}
