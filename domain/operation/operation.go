// Package operation defines the closed set of PDF operations the server
// exposes and the guard that admits only those operations.
package operation

// Name identifies one of the exposed PDF operations.
type Name string

// The seven operations. No other values are valid.
const (
	Merge         Name = "pdf_merge"
	Split         Name = "pdf_split"
	ExtractText   Name = "pdf_extract_text"
	OCR           Name = "pdf_ocr"
	Protect       Name = "pdf_protect"
	Thumbnails    Name = "pdf_thumbnails"
	RenameInvoice Name = "pdf_rename_invoice"
)

var names = []Name{
	Merge,
	Split,
	ExtractText,
	OCR,
	Protect,
	Thumbnails,
	RenameInvoice,
}

var executables = map[Name]string{
	Merge:         "pdfmerge",
	Split:         "pdfsplit",
	ExtractText:   "pdfgettxt",
	OCR:           "ocrutil",
	Protect:       "pdfprotect",
	Thumbnails:    "pdfthumbnails",
	RenameInvoice: "pdfrename",
}

// Names returns every operation in catalog order.
func Names() []Name {
	out := make([]Name, len(names))
	copy(out, names)
	return out
}

// Executables returns the executable names of every operation in catalog order.
func Executables() []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, executables[n])
	}
	return out
}

// String returns the wire name.
func (n Name) String() string {
	return string(n)
}

// Known reports whether n is one of the exposed operations.
func (n Name) Known() bool {
	_, ok := executables[n]
	return ok
}

// Executable returns the executable backing the operation, or "" for an
// unknown name.
func (n Name) Executable() string {
	return executables[n]
}

// Verb returns the gerund used in failure messages ("Error merging PDFs:").
func (n Name) Verb() string {
	switch n {
	case Merge:
		return "merging PDFs"
	case Split:
		return "splitting PDF"
	case ExtractText:
		return "extracting text"
	case OCR:
		return "performing OCR"
	case Protect:
		return "protecting PDF"
	case Thumbnails:
		return "generating thumbnails"
	case RenameInvoice:
		return "renaming PDFs"
	default:
		return "executing tool"
	}
}
