package pdf

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/felixgeelhaar/pdftools-mcp/domain/operation"
	"github.com/felixgeelhaar/pdftools-mcp/domain/tool"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/security/validation"
)

// Thumbnail bounds and defaults.
const (
	MinThumbnailSize     = 50
	MaxThumbnailSize     = 1000
	DefaultThumbnailSize = 200
	DefaultThumbnailType = "png"
)

var thumbnailFormats = []string{"png", "jpg", "webp"}

// ThumbnailsParams are the arguments of pdf_thumbnails.
type ThumbnailsParams struct {
	InputFile string `json:"input_file"`
	OutputDir string `json:"output_dir"`
	Size      *int   `json:"size,omitempty"`
	Format    string `json:"format,omitempty"`
	Pages     string `json:"pages,omitempty"`
}

// Args builds the pdfthumbnails command line.
func (p ThumbnailsParams) Args() []string {
	args := []string{p.InputFile, "-o", p.OutputDir}
	if p.Size != nil {
		args = append(args, "-s", strconv.Itoa(*p.Size))
	}
	if p.Format != "" {
		args = append(args, "-f", p.Format)
	}
	if p.Pages != "" {
		args = append(args, "-p", p.Pages)
	}
	return args
}

func thumbnailsTool(h *handlers) tool.Tool {
	return tool.NewBuilder(operation.Thumbnails.String()).
		WithDescription("Generate thumbnail images from PDF pages").
		WithInputSchema(tool.ObjectSchema(
			tool.Property{Name: "input_file", Type: "string", Required: true,
				Description: "Input PDF file"},
			tool.Property{Name: "output_dir", Type: "string", Required: true,
				Description: "Output directory for thumbnail images"},
			tool.Property{Name: "size", Type: "integer", Default: DefaultThumbnailSize,
				Minimum: tool.IntPtr(MinThumbnailSize), Maximum: tool.IntPtr(MaxThumbnailSize),
				Description: "Thumbnail size in pixels (width)"},
			tool.Property{Name: "format", Type: "string", Enum: thumbnailFormats, Default: DefaultThumbnailType,
				Description: "Image format: png, jpg, or webp"},
			tool.Property{Name: "pages", Type: "string", Default: "all",
				Description: `Page range (e.g., "1-5", "all")`},
		)).
		WithTags("pdf", "image").
		Idempotent().
		WithHandler(h.thumbnails).
		MustBuild()
}

func (h *handlers) thumbnails(ctx context.Context, input json.RawMessage) (tool.Result, error) {
	var p ThumbnailsParams
	if r := decode(input, &p); !r.Valid {
		return rejected(r), nil
	}

	r := validate(
		checks(
			validation.Field("input_file", p.InputFile, validation.Required()),
			validation.Field("output_dir", p.OutputDir, validation.Required()),
		),
		paths(p.InputFile, p.OutputDir),
		h.exist(p.InputFile),
		checks(
			validation.Field("size", p.Size, validation.Range(MinThumbnailSize, MaxThumbnailSize)),
			validation.Field("format", p.Format, validation.AllowedValues(thumbnailFormats...)),
			validation.Field("pages", p.Pages,
				validation.Pattern(`^(all|\d+(-\d+)?(,\d+(-\d+)?)*)$`, `expected "all" or page ranges like "1-5"`)),
		),
	)
	if !r.Valid {
		return rejected(r), nil
	}

	size := DefaultThumbnailSize
	if p.Size != nil {
		size = *p.Size
	}
	format := p.Format
	if format == "" {
		format = DefaultThumbnailType
	}
	return h.run(ctx, operation.Thumbnails, p.Args(), func(stdout string) string {
		return fmt.Sprintf("Successfully generated thumbnails\nInput: %s\nOutput directory: %s\nSize: %dpx\nFormat: %s\n\n%s",
			p.InputFile, p.OutputDir, size, format, stdout)
	})
}
