package pdf

import (
	"context"
	"encoding/json"

	"github.com/felixgeelhaar/pdftools-mcp/domain/operation"
	"github.com/felixgeelhaar/pdftools-mcp/domain/tool"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/security/validation"
)

var extractModes = []string{"simple", "layout", "per_page", "structured"}

// ExtractTextParams are the arguments of pdf_extract_text.
type ExtractTextParams struct {
	InputFile  string `json:"input_file"`
	OutputFile string `json:"output_file,omitempty"`
	Mode       string `json:"mode,omitempty"`
}

// Args builds the pdfgettxt command line.
func (p ExtractTextParams) Args() []string {
	args := []string{"-i", p.InputFile}
	if p.OutputFile != "" {
		args = append(args, "-o", p.OutputFile)
	}
	if p.Mode != "" {
		args = append(args, "-m", p.Mode)
	}
	return args
}

func extractTextTool(h *handlers) tool.Tool {
	return tool.NewBuilder(operation.ExtractText.String()).
		WithDescription("Extract text content from PDF files").
		WithInputSchema(tool.ObjectSchema(
			tool.Property{Name: "input_file", Type: "string", Required: true,
				Description: "Input PDF file"},
			tool.Property{Name: "output_file", Type: "string",
				Description: "Output text file (optional, prints to stdout if not specified)"},
			tool.Property{Name: "mode", Type: "string", Enum: extractModes, Default: "simple",
				Description: "Extraction mode: simple, layout, per_page, or structured"},
		)).
		WithTags("pdf", "text").
		Idempotent().
		WithHandler(h.extractText).
		MustBuild()
}

func (h *handlers) extractText(ctx context.Context, input json.RawMessage) (tool.Result, error) {
	var p ExtractTextParams
	if r := decode(input, &p); !r.Valid {
		return rejected(r), nil
	}

	pathArgs := []string{p.InputFile}
	if p.OutputFile != "" {
		pathArgs = append(pathArgs, p.OutputFile)
	}
	r := validate(
		checks(validation.Field("input_file", p.InputFile, validation.Required())),
		paths(pathArgs...),
		h.exist(p.InputFile),
		checks(validation.Field("mode", p.Mode, validation.AllowedValues(extractModes...))),
	)
	if !r.Valid {
		return rejected(r), nil
	}

	return h.run(ctx, operation.ExtractText, p.Args(), func(stdout string) string {
		if p.OutputFile != "" {
			return "Successfully extracted text to " + p.OutputFile + "\n\n" + stdout
		}
		return "Extracted text:\n\n" + stdout
	})
}
