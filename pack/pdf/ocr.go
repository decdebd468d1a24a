package pdf

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/pdftools-mcp/domain/operation"
	"github.com/felixgeelhaar/pdftools-mcp/domain/tool"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/security/validation"
)

// DefaultOCRLanguage is reported when no language is given.
const DefaultOCRLanguage = "eng"

var ocrOutputModes = []string{"txt", "pdf", "json"}

// OCRParams are the arguments of pdf_ocr.
type OCRParams struct {
	InputFile  string `json:"input_file"`
	OutputFile string `json:"output_file"`
	Language   string `json:"language,omitempty"`
	OutputMode string `json:"output_mode,omitempty"`
}

// Args builds the ocrutil command line.
func (p OCRParams) Args() []string {
	args := []string{"-f", p.InputFile, "-o", p.OutputFile}
	if p.Language != "" {
		args = append(args, "-l", p.Language)
	}
	if p.OutputMode != "" {
		args = append(args, "--output-mode", p.OutputMode)
	}
	return args
}

func ocrTool(h *handlers) tool.Tool {
	return tool.NewBuilder(operation.OCR.String()).
		WithDescription("Extract text from scanned PDFs using OCR (Optical Character Recognition)").
		WithInputSchema(tool.ObjectSchema(
			tool.Property{Name: "input_file", Type: "string", Required: true,
				Description: "Input PDF file (scanned document)"},
			tool.Property{Name: "output_file", Type: "string", Required: true,
				Description: "Output file path"},
			tool.Property{Name: "language", Type: "string", Default: DefaultOCRLanguage,
				Description: `OCR language code (e.g., "eng" for English, "deu" for German)`},
			tool.Property{Name: "output_mode", Type: "string", Enum: ocrOutputModes, Default: "txt",
				Description: "Output format: txt (plain text), pdf (searchable PDF), or json (structured)"},
		)).
		WithTags("pdf", "ocr", "text").
		WithHandler(h.ocr).
		MustBuild()
}

func (h *handlers) ocr(ctx context.Context, input json.RawMessage) (tool.Result, error) {
	var p OCRParams
	if r := decode(input, &p); !r.Valid {
		return rejected(r), nil
	}

	r := validate(
		checks(
			validation.Field("input_file", p.InputFile, validation.Required()),
			validation.Field("output_file", p.OutputFile, validation.Required()),
		),
		paths(p.InputFile, p.OutputFile),
		h.exist(p.InputFile),
		checks(
			validation.Field("language", p.Language,
				validation.Pattern(`^[a-z]{3}(\+[a-z]{3})*$`, `expected ISO 639-2 codes like "eng" or "eng+deu"`)),
			validation.Field("output_mode", p.OutputMode, validation.AllowedValues(ocrOutputModes...)),
		),
	)
	if !r.Valid {
		return rejected(r), nil
	}

	language := p.Language
	if language == "" {
		language = DefaultOCRLanguage
	}
	return h.run(ctx, operation.OCR, p.Args(), func(stdout string) string {
		return fmt.Sprintf("Successfully performed OCR on %s\nOutput: %s\nLanguage: %s\n\n%s", p.InputFile, p.OutputFile, language, stdout)
	})
}
