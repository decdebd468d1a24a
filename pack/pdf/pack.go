// Package pdf exposes the PDFTools command-line executables as tools.
//
// Every handler validates its arguments at the boundary before anything is
// executed: required fields first, then path safety for every path-shaped
// field, then existence of inputs, then value checks. Validation failures
// are returned as error results with an "Error: " prefix.
package pdf

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/pdftools-mcp/domain/operation"
	"github.com/felixgeelhaar/pdftools-mcp/domain/pack"
	"github.com/felixgeelhaar/pdftools-mcp/domain/tool"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/executor"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/security/sanitize"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/security/validation"
)

// ErrRunnerNotConfigured is returned when a handler runs without a Runner.
var ErrRunnerNotConfigured = errors.New("pdf runner not configured")

// Runner executes one PDFTools executable.
type Runner interface {
	Execute(ctx context.Context, req executor.Request) (executor.Result, error)
}

// PackConfig configures the PDF pack.
type PackConfig struct {
	// Runner executes the tools. Usually an *executor.Executor.
	Runner Runner

	// Files checks input existence. Its root should match the executor's
	// working directory.
	Files validation.FileChecker

	// Timeout overrides the runner's default per-call timeout when set.
	Timeout time.Duration

	// MaxOutputBytes overrides the runner's default output cap when set.
	MaxOutputBytes int64

	// SanitizeStderr redacts host paths in execution-failure stderr.
	SanitizeStderr bool

	// Version is reported as the pack version.
	Version string
}

// New creates the PDF pack holding one tool per operation, in catalog order.
func New(cfg PackConfig) *pack.Pack {
	version := cfg.Version
	if version == "" {
		version = "1.0.0"
	}
	h := &handlers{cfg: cfg}

	return pack.NewBuilder("pdf").
		WithDescription("PDFTools command-line utilities exposed over MCP").
		WithVersion(version).
		AddTools(
			mergeTool(h),
			splitTool(h),
			extractTextTool(h),
			ocrTool(h),
			protectTool(h),
			thumbnailsTool(h),
			renameInvoiceTool(h),
		).
		Build()
}

type handlers struct {
	cfg PackConfig
}

// decode unmarshals tool arguments. Absent arguments decode as an empty object.
func decode(input json.RawMessage, v any) operation.ValidationResult {
	trimmed := bytes.TrimSpace(input)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return operation.Valid()
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return operation.Invalid(fmt.Sprintf("Invalid arguments: %s must be %s", typeErr.Field, typeErr.Type))
		}
		return operation.Invalid("Invalid arguments: expected a JSON object")
	}
	return operation.Valid()
}

// stage is one step of argument validation.
type stage func() operation.ValidationResult

// validate runs stages in order and stops at the first failure, so later
// stages only see arguments that passed the earlier ones.
func validate(stages ...stage) operation.ValidationResult {
	for _, s := range stages {
		if r := s(); !r.Valid {
			return r
		}
	}
	return operation.Valid()
}

// paths is the path-safety stage.
func paths(ps ...string) stage {
	return func() operation.ValidationResult {
		return validation.ValidatePaths(ps...)
	}
}

// checks is a field-rule stage.
func checks(fields ...validation.FieldCheck) stage {
	return func() operation.ValidationResult {
		return validation.Check(fields...)
	}
}

// exist is the input-existence stage.
func (h *handlers) exist(ps ...string) stage {
	return func() operation.ValidationResult {
		return h.cfg.Files.AllExist(ps...)
	}
}

// rejected renders a validation failure. These messages are user-facing
// and are not sanitized.
func rejected(r operation.ValidationResult) tool.Result {
	return tool.ErrorResult("Error: " + r.Error)
}

// run executes op with args. A launch failure is returned as an error; any
// other outcome is rendered as a result.
func (h *handlers) run(ctx context.Context, op operation.Name, args []string, summary func(stdout string) string) (tool.Result, error) {
	if h.cfg.Runner == nil {
		return tool.Result{}, ErrRunnerNotConfigured
	}

	res, err := h.cfg.Runner.Execute(ctx, executor.Request{
		Executable:     op.Executable(),
		Args:           args,
		Timeout:        h.cfg.Timeout,
		MaxOutputBytes: h.cfg.MaxOutputBytes,
	})
	if err != nil {
		return tool.Result{}, err
	}

	if !res.Success {
		stderr := res.Stderr
		if h.cfg.SanitizeStderr {
			stderr = sanitize.Message(stderr, "")
		}
		text := fmt.Sprintf("Error %s:\n%s\n\nExit code: %d", op.Verb(), stderr, res.ExitCode)
		return tool.ErrorResult(text).WithDuration(res.Duration), nil
	}
	return tool.TextResult(summary(res.Stdout)).WithDuration(res.Duration), nil
}

func allowed(b *bool, def bool) string {
	if b == nil {
		b = &def
	}
	if *b {
		return "Allowed"
	}
	return "Denied"
}
