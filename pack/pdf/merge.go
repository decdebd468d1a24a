package pdf

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/pdftools-mcp/domain/operation"
	"github.com/felixgeelhaar/pdftools-mcp/domain/tool"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/security/validation"
)

// MergeParams are the arguments of pdf_merge.
type MergeParams struct {
	InputFiles   []string `json:"input_files"`
	OutputFile   string   `json:"output_file"`
	AddBookmarks bool     `json:"add_bookmarks,omitempty"`
}

// Args builds the pdfmerge command line.
func (p MergeParams) Args() []string {
	args := append([]string{}, p.InputFiles...)
	args = append(args, "-o", p.OutputFile)
	if p.AddBookmarks {
		args = append(args, "--add-bookmarks")
	}
	return args
}

func mergeTool(h *handlers) tool.Tool {
	return tool.NewBuilder(operation.Merge.String()).
		WithDescription("Merge multiple PDF files into a single PDF file").
		WithInputSchema(tool.ObjectSchema(
			tool.Property{Name: "input_files", Type: "array", Items: "string", MinItems: tool.IntPtr(2), Required: true,
				Description: "List of PDF files to merge (in order)"},
			tool.Property{Name: "output_file", Type: "string", Required: true,
				Description: "Output PDF file path"},
			tool.Property{Name: "add_bookmarks", Type: "boolean", Default: false,
				Description: "Add bookmarks for each merged file"},
		)).
		WithTags("pdf", "merge").
		WithHandler(h.merge).
		MustBuild()
}

func (h *handlers) merge(ctx context.Context, input json.RawMessage) (tool.Result, error) {
	var p MergeParams
	if r := decode(input, &p); !r.Valid {
		return rejected(r), nil
	}

	inputs := append([]string{}, p.InputFiles...)
	r := validate(
		checks(
			validation.Field("input_files", p.InputFiles, validation.Required()),
			validation.Field("output_file", p.OutputFile, validation.Required()),
		),
		paths(append(inputs, p.OutputFile)...),
		h.exist(p.InputFiles...),
		checks(validation.Field("input_files", p.InputFiles, validation.MinItems(2))),
	)
	if !r.Valid {
		return rejected(r), nil
	}

	return h.run(ctx, operation.Merge, p.Args(), func(stdout string) string {
		return fmt.Sprintf("Successfully merged %d PDF files into %s\n\n%s", len(p.InputFiles), p.OutputFile, stdout)
	})
}
