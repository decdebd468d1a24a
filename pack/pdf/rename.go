package pdf

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/pdftools-mcp/domain/operation"
	"github.com/felixgeelhaar/pdftools-mcp/domain/tool"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/security/validation"
)

// DefaultRenameTemplate is reported when no template is given.
const DefaultRenameTemplate = "{vendor}_{date}_{amount}.pdf"

// RenameInvoiceParams are the arguments of pdf_rename_invoice.
type RenameInvoiceParams struct {
	Files     []string `json:"files"`
	Template  string   `json:"template,omitempty"`
	Patterns  []string `json:"patterns,omitempty"`
	OutputDir string   `json:"output_dir,omitempty"`
	DryRun    bool     `json:"dry_run,omitempty"`
}

// Args builds the pdfrename command line.
func (p RenameInvoiceParams) Args() []string {
	args := append([]string{"-f"}, p.Files...)
	if p.Template != "" {
		args = append(args, "-t", p.Template)
	}
	if len(p.Patterns) > 0 {
		args = append(args, "-p", strings.Join(p.Patterns, ","))
	}
	if p.OutputDir != "" {
		args = append(args, "-o", p.OutputDir)
	}
	if p.DryRun {
		args = append(args, "-d")
	}
	return args
}

// pathArgs returns every path-shaped argument. The template names output
// files, so it is held to the same rules.
func (p RenameInvoiceParams) pathArgs() []string {
	out := append([]string{}, p.Files...)
	if p.OutputDir != "" {
		out = append(out, p.OutputDir)
	}
	if p.Template != "" {
		out = append(out, p.Template)
	}
	return out
}

func renameInvoiceTool(h *handlers) tool.Tool {
	return tool.NewBuilder(operation.RenameInvoice.String()).
		WithDescription("Intelligently rename invoice PDF files based on content (vendor, date, amount)").
		WithInputSchema(tool.ObjectSchema(
			tool.Property{Name: "files", Type: "array", Items: "string", MinItems: tool.IntPtr(1), Required: true,
				Description: "List of PDF invoice files to rename"},
			tool.Property{Name: "template", Type: "string", Default: DefaultRenameTemplate,
				Description: `Naming template (e.g., "{vendor}_{date}_{amount}.pdf")`},
			tool.Property{Name: "patterns", Type: "array", Items: "string",
				Description: "Custom regex patterns for extraction"},
			tool.Property{Name: "output_dir", Type: "string",
				Description: "Output directory (optional, renames in place if not specified)"},
			tool.Property{Name: "dry_run", Type: "boolean", Default: false,
				Description: "Show what would be renamed without actually renaming"},
		)).
		WithTags("pdf", "invoice", "rename").
		Destructive().
		WithHandler(h.renameInvoice).
		MustBuild()
}

func (h *handlers) renameInvoice(ctx context.Context, input json.RawMessage) (tool.Result, error) {
	var p RenameInvoiceParams
	if r := decode(input, &p); !r.Valid {
		return rejected(r), nil
	}

	r := validate(
		checks(validation.Field("files", p.Files, validation.Required(), validation.MinItems(1))),
		paths(p.pathArgs()...),
		h.exist(p.Files...),
	)
	if !r.Valid {
		return rejected(r), nil
	}

	template := p.Template
	if template == "" {
		template = DefaultRenameTemplate
	}
	action := "Renamed"
	if p.DryRun {
		action = "Would rename"
	}
	return h.run(ctx, operation.RenameInvoice, p.Args(), func(stdout string) string {
		return fmt.Sprintf("%s %d invoice(s)\nTemplate: %s\n\n%s", action, len(p.Files), template, stdout)
	})
}
