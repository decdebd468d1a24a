package pdf

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/pdftools-mcp/domain/operation"
	"github.com/felixgeelhaar/pdftools-mcp/domain/tool"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/security/validation"
)

// ProtectParams are the arguments of pdf_protect. Permission flags are
// pointers so an omitted flag is not forwarded.
type ProtectParams struct {
	InputFile         string `json:"input_file"`
	OutputFile        string `json:"output_file"`
	UserPassword      string `json:"user_password"`
	OwnerPassword     string `json:"owner_password,omitempty"`
	AllowPrinting     *bool  `json:"allow_printing,omitempty"`
	AllowModification *bool  `json:"allow_modification,omitempty"`
	AllowCopying      *bool  `json:"allow_copying,omitempty"`
}

// Args builds the pdfprotect command line. It contains the passwords and
// must never be logged.
func (p ProtectParams) Args() []string {
	args := []string{p.InputFile, "-o", p.OutputFile, "--user-password", p.UserPassword}
	if p.OwnerPassword != "" {
		args = append(args, "--owner-password", p.OwnerPassword)
	}
	args = appendFlag(args, p.AllowPrinting, "--allow-printing", "--no-printing")
	args = appendFlag(args, p.AllowModification, "--allow-modification", "--no-modification")
	args = appendFlag(args, p.AllowCopying, "--allow-copying", "--no-copying")
	return args
}

func appendFlag(args []string, b *bool, on, off string) []string {
	switch {
	case b == nil:
		return args
	case *b:
		return append(args, on)
	default:
		return append(args, off)
	}
}

func protectTool(h *handlers) tool.Tool {
	return tool.NewBuilder(operation.Protect.String()).
		WithDescription("Add password protection and permissions to PDF files").
		WithInputSchema(tool.ObjectSchema(
			tool.Property{Name: "input_file", Type: "string", Required: true,
				Description: "Input PDF file"},
			tool.Property{Name: "output_file", Type: "string", Required: true,
				Description: "Output protected PDF file"},
			tool.Property{Name: "user_password", Type: "string", Required: true,
				Description: "Password required to open the PDF"},
			tool.Property{Name: "owner_password", Type: "string",
				Description: "Password required to change permissions (optional)"},
			tool.Property{Name: "allow_printing", Type: "boolean", Default: true,
				Description: "Allow printing"},
			tool.Property{Name: "allow_modification", Type: "boolean", Default: false,
				Description: "Allow content modification"},
			tool.Property{Name: "allow_copying", Type: "boolean", Default: true,
				Description: "Allow text/graphics copying"},
		)).
		WithTags("pdf", "security").
		WithHandler(h.protect).
		MustBuild()
}

func (h *handlers) protect(ctx context.Context, input json.RawMessage) (tool.Result, error) {
	var p ProtectParams
	if r := decode(input, &p); !r.Valid {
		return rejected(r), nil
	}

	r := validate(
		checks(
			validation.Field("input_file", p.InputFile, validation.Required()),
			validation.Field("output_file", p.OutputFile, validation.Required()),
			validation.Field("user_password", p.UserPassword, validation.Required()),
		),
		paths(p.InputFile, p.OutputFile),
		h.exist(p.InputFile),
		checks(
			validation.Field("user_password", p.UserPassword, validation.Password()),
			validation.Field("owner_password", p.OwnerPassword, validation.Password()),
		),
	)
	if !r.Valid {
		return rejected(r), nil
	}

	return h.run(ctx, operation.Protect, p.Args(), func(stdout string) string {
		return fmt.Sprintf("Successfully protected PDF file\nInput: %s\nOutput: %s\n\nPermissions:\n- Printing: %s\n- Modification: %s\n- Copying: %s\n\n%s",
			p.InputFile, p.OutputFile,
			allowed(p.AllowPrinting, true),
			allowed(p.AllowModification, false),
			allowed(p.AllowCopying, true),
			stdout)
	})
}
