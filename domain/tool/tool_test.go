package tool_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/felixgeelhaar/pdftools-mcp/domain/tool"
)

func echoHandler(_ context.Context, input json.RawMessage) (tool.Result, error) {
	return tool.TextResult(string(input)), nil
}

func TestToolBuilder_Basic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		toolName string
		handler  tool.Handler
		wantErr  error
	}{
		{name: "valid tool", toolName: "pdf_merge", handler: echoHandler},
		{name: "empty name fails", toolName: "", handler: echoHandler, wantErr: tool.ErrEmptyName},
		{name: "missing handler fails", toolName: "pdf_merge", wantErr: tool.ErrNoHandler},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := tool.NewBuilder(tt.toolName).WithDescription("desc")
			if tt.handler != nil {
				b = b.WithHandler(tt.handler)
			}
			built, err := b.Build()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Build() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && built.Name() != tt.toolName {
				t.Errorf("Name() = %v, want %v", built.Name(), tt.toolName)
			}
		})
	}
}

func TestToolBuilder_Annotations(t *testing.T) {
	t.Parallel()

	built := tool.NewBuilder("pdf_extract_text").
		ReadOnly().
		Idempotent().
		WithTags("pdf", "text").
		WithHandler(echoHandler).
		MustBuild()

	a := built.Annotations()
	if !a.ReadOnly || !a.Idempotent || a.Destructive {
		t.Errorf("Annotations() = %+v", a)
	}
	if len(a.Tags) != 2 {
		t.Errorf("Tags = %v, want 2 entries", a.Tags)
	}
}

func TestDefinition_Execute(t *testing.T) {
	t.Parallel()

	built := tool.NewBuilder("echo").WithHandler(echoHandler).MustBuild()
	res, err := built.Execute(context.Background(), json.RawMessage(`{"a":1}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Text() != `{"a":1}` {
		t.Errorf("Text() = %q", res.Text())
	}
}

func TestResult_Envelope(t *testing.T) {
	t.Parallel()

	ok := tool.TextResult("done")
	if ok.IsError || len(ok.Content) != 1 || ok.Content[0].Type != tool.ContentTypeText {
		t.Errorf("TextResult() = %+v", ok)
	}

	bad := tool.ErrorResult("Error: nope")
	data, err := json.Marshal(bad)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"content":[{"type":"text","text":"Error: nope"}],"isError":true}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

func TestObjectSchema(t *testing.T) {
	t.Parallel()

	s := tool.ObjectSchema(
		tool.Property{Name: "input_files", Type: "array", Items: "string", MinItems: tool.IntPtr(2), Required: true},
		tool.Property{Name: "size", Type: "number", Minimum: tool.IntPtr(50), Maximum: tool.IntPtr(1000), Default: 200},
		tool.Property{Name: "format", Type: "string", Enum: []string{"png", "jpg"}},
	)

	m, err := s.Map()
	if err != nil {
		t.Fatalf("Map() error = %v", err)
	}
	if m["type"] != "object" {
		t.Errorf("type = %v", m["type"])
	}
	req, ok := m["required"].([]any)
	if !ok || len(req) != 1 || req[0] != "input_files" {
		t.Errorf("required = %v", m["required"])
	}
	props := m["properties"].(map[string]any)
	size := props["size"].(map[string]any)
	if size["minimum"].(float64) != 50 || size["maximum"].(float64) != 1000 {
		t.Errorf("size = %v", size)
	}
}

func TestSchema_EmptyDefaults(t *testing.T) {
	t.Parallel()

	var s tool.Schema
	if !s.IsEmpty() {
		t.Error("zero schema should be empty")
	}
	if string(s.Raw()) != `{"type":"object"}` {
		t.Errorf("Raw() = %s", s.Raw())
	}
}
