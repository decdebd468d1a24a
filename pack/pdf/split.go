package pdf

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/pdftools-mcp/domain/operation"
	"github.com/felixgeelhaar/pdftools-mcp/domain/tool"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/security/validation"
)

// Split modes accepted by pdfsplit.
const (
	SplitPages    = "pages"
	SplitRanges   = "ranges"
	SplitParts    = "parts"
	SplitSpecific = "specific"
)

const pageRangePattern = `^\d+(-\d+)?$`

// SplitParams are the arguments of pdf_split. Ranges, NumParts and Pages
// are only consulted for their own mode.
type SplitParams struct {
	InputFile string   `json:"input_file"`
	OutputDir string   `json:"output_dir"`
	Mode      string   `json:"mode"`
	Ranges    []string `json:"ranges,omitempty"`
	NumParts  *int     `json:"num_parts,omitempty"`
	Pages     []int    `json:"pages,omitempty"`
}

// Args builds the pdfsplit command line.
func (p SplitParams) Args() []string {
	args := []string{p.InputFile, "-o", p.OutputDir, "-m", p.Mode}
	switch {
	case p.Mode == SplitRanges && len(p.Ranges) > 0:
		args = append(args, "-r", strings.Join(p.Ranges, ","))
	case p.Mode == SplitParts && p.NumParts != nil:
		args = append(args, "-n", strconv.Itoa(*p.NumParts))
	case p.Mode == SplitSpecific && len(p.Pages) > 0:
		pages := make([]string, len(p.Pages))
		for i, n := range p.Pages {
			pages[i] = strconv.Itoa(n)
		}
		args = append(args, "-p", strings.Join(pages, ","))
	}
	return args
}

// modeChecks validates the mode-specific field, ignoring the others.
func (p SplitParams) modeChecks() operation.ValidationResult {
	switch p.Mode {
	case SplitRanges:
		return validation.Check(validation.Field("ranges", p.Ranges,
			validation.EachPattern(pageRangePattern, `expected page ranges like "1-3"`)))
	case SplitParts:
		return validation.Check(validation.Field("num_parts", p.NumParts, validation.Minimum(2)))
	case SplitSpecific:
		for _, n := range p.Pages {
			if r := validation.Check(validation.Field("pages", n, validation.Minimum(1))); !r.Valid {
				return r
			}
		}
	}
	return operation.Valid()
}

func splitTool(h *handlers) tool.Tool {
	return tool.NewBuilder(operation.Split.String()).
		WithDescription("Split a PDF file into multiple files").
		WithInputSchema(tool.ObjectSchema(
			tool.Property{Name: "input_file", Type: "string", Required: true,
				Description: "Input PDF file to split"},
			tool.Property{Name: "output_dir", Type: "string", Required: true,
				Description: "Output directory for split files"},
			tool.Property{Name: "mode", Type: "string", Required: true, Default: SplitPages,
				Enum:        []string{SplitPages, SplitRanges, SplitParts, SplitSpecific},
				Description: "Split mode: pages (individual pages), ranges (page ranges), parts (N equal parts), or specific (specific pages)"},
			tool.Property{Name: "ranges", Type: "array", Items: "string",
				Description: `Page ranges for "ranges" mode (e.g., ["1-3", "4-6"])`},
			tool.Property{Name: "num_parts", Type: "integer", Minimum: tool.IntPtr(2),
				Description: `Number of parts for "parts" mode`},
			tool.Property{Name: "pages", Type: "array", Items: "integer",
				Description: `Specific page numbers for "specific" mode`},
		)).
		WithTags("pdf", "split").
		WithHandler(h.split).
		MustBuild()
}

func (h *handlers) split(ctx context.Context, input json.RawMessage) (tool.Result, error) {
	var p SplitParams
	if r := decode(input, &p); !r.Valid {
		return rejected(r), nil
	}

	r := validate(
		checks(
			validation.Field("input_file", p.InputFile, validation.Required()),
			validation.Field("output_dir", p.OutputDir, validation.Required()),
			validation.Field("mode", p.Mode, validation.Required()),
		),
		paths(p.InputFile, p.OutputDir),
		h.exist(p.InputFile),
		checks(validation.Field("mode", p.Mode,
			validation.AllowedValues(SplitPages, SplitRanges, SplitParts, SplitSpecific))),
		p.modeChecks,
	)
	if !r.Valid {
		return rejected(r), nil
	}

	return h.run(ctx, operation.Split, p.Args(), func(stdout string) string {
		return fmt.Sprintf("Successfully split PDF using mode %q\nOutput directory: %s\n\n%s", p.Mode, p.OutputDir, stdout)
	})
}
