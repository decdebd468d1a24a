package operation_test

import (
	"errors"
	"testing"

	"github.com/felixgeelhaar/pdftools-mcp/domain/operation"
)

func TestValidateName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{name: "merge", input: "pdf_merge", valid: true},
		{name: "split", input: "pdf_split", valid: true},
		{name: "extract text", input: "pdf_extract_text", valid: true},
		{name: "ocr", input: "pdf_ocr", valid: true},
		{name: "protect", input: "pdf_protect", valid: true},
		{name: "thumbnails", input: "pdf_thumbnails", valid: true},
		{name: "rename invoice", input: "pdf_rename_invoice", valid: true},
		{name: "shell", input: "rm", valid: false},
		{name: "empty", input: "", valid: false},
		{name: "case differs", input: "PDF_MERGE", valid: false},
		{name: "trailing space", input: "pdf_merge ", valid: false},
		{name: "executable name", input: "pdfmerge", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := operation.ValidateName(tt.input)
			if got.Valid != tt.valid {
				t.Fatalf("ValidateName(%q).Valid = %v, want %v", tt.input, got.Valid, tt.valid)
			}
			if got.Valid && got.Error != "" {
				t.Errorf("valid result carries error %q", got.Error)
			}
			if !got.Valid && got.Error == "" {
				t.Error("invalid result has empty error")
			}
		})
	}
}

func TestValidateName_DoesNotEchoInput(t *testing.T) {
	t.Parallel()

	got := operation.ValidateName("../../bin/sh")
	if got.Error != operation.UnauthorizedMessage {
		t.Errorf("Error = %q, want %q", got.Error, operation.UnauthorizedMessage)
	}
}

func TestNames(t *testing.T) {
	t.Parallel()

	names := operation.Names()
	if len(names) != 7 {
		t.Fatalf("Names() returned %d entries, want 7", len(names))
	}

	seenExec := make(map[string]bool)
	for _, n := range names {
		if !n.Known() {
			t.Errorf("%s not known", n)
		}
		exec := n.Executable()
		if exec == "" {
			t.Errorf("%s has no executable", n)
		}
		if seenExec[exec] {
			t.Errorf("executable %s mapped twice", exec)
		}
		seenExec[exec] = true
	}

	// Mutating the returned slice must not affect the catalog.
	names[0] = "pdf_evil"
	if operation.Names()[0] != operation.Merge {
		t.Error("Names() exposes internal slice")
	}
}

func TestName_Executable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name operation.Name
		want string
	}{
		{operation.Merge, "pdfmerge"},
		{operation.Split, "pdfsplit"},
		{operation.ExtractText, "pdfgettxt"},
		{operation.OCR, "ocrutil"},
		{operation.Protect, "pdfprotect"},
		{operation.Thumbnails, "pdfthumbnails"},
		{operation.RenameInvoice, "pdfrename"},
		{operation.Name("pdf_unknown"), ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			t.Parallel()
			if got := tt.name.Executable(); got != tt.want {
				t.Errorf("Executable() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationResult_Err(t *testing.T) {
	t.Parallel()

	if err := operation.Valid().Err(); err != nil {
		t.Errorf("Valid().Err() = %v, want nil", err)
	}

	err := operation.Invalid("bad input").Err()
	if !errors.Is(err, operation.ErrValidation) {
		t.Errorf("Invalid().Err() = %v, want ErrValidation", err)
	}
	if err.Error() != "bad input" {
		t.Errorf("Error() = %q, want %q", err.Error(), "bad input")
	}

	if operation.Invalid("").Error == "" {
		t.Error("Invalid(\"\") produced empty error")
	}
}
