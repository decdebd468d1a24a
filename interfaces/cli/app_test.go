package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/pdftools-mcp/domain/config"
	"github.com/felixgeelhaar/pdftools-mcp/domain/operation"
	infraconfig "github.com/felixgeelhaar/pdftools-mcp/infrastructure/config"
)

// install writes one shell script per operation executable into a fresh
// tools directory. scripts overrides the body for individual executables;
// an empty body skips the executable.
func install(t *testing.T, scripts map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for _, exe := range operation.Executables() {
		body, ok := scripts[exe]
		if !ok {
			body = "echo ok"
		}
		if body == "" {
			continue
		}
		path := filepath.Join(dir, exe)
		if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// workspace creates a working directory holding the named files.
func workspace(t *testing.T, files ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("%PDF-1.4\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// newTestApp returns an app whose discovery only sees env.
func newTestApp(env map[string]string) (*App, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)
	app.newDiscoverer = func() *infraconfig.Discoverer {
		return &infraconfig.Discoverer{
			Getenv:     func(k string) string { return env[k] },
			Executable: func() (string, error) { return "", errors.New("no executable") },
			Getwd:      func() (string, error) { return "", errors.New("no working directory") },
			HomeDir:    func() (string, error) { return "", errors.New("no home") },
		}
	}
	return app, &stdout, &stderr
}

func testEnv(toolsDir, workDir string) map[string]string {
	return map[string]string{
		infraconfig.EnvToolsDir: toolsDir,
		infraconfig.EnvWorkDir:  workDir,
		infraconfig.EnvLogLevel: "error",
	}
}

func TestApp_Version(t *testing.T) {
	t.Parallel()

	app, stdout, _ := newTestApp(nil)
	if err := app.ExecuteWithArgs(context.Background(), []string{"version"}); err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "pdftools-mcp version "+Version) {
		t.Errorf("version output = %q", stdout.String())
	}
}

func TestApp_Help(t *testing.T) {
	t.Parallel()

	app, stdout, _ := newTestApp(nil)
	if err := app.ExecuteWithArgs(context.Background(), []string{"--help"}); err != nil {
		t.Fatalf("help command failed: %v", err)
	}

	output := stdout.String()
	for _, want := range []string{"PDFTools", "serve", "tools", "call", "health", "config"} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q", want)
		}
	}
}

func TestApp_Tools(t *testing.T) {
	t.Parallel()

	app, stdout, _ := newTestApp(nil)
	if err := app.ExecuteWithArgs(context.Background(), []string{"tools"}); err != nil {
		t.Fatalf("tools command failed: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "Tools (7)") {
		t.Errorf("tools output missing count, got: %s", output)
	}
	for _, name := range operation.Names() {
		if !strings.Contains(output, name.String()) {
			t.Errorf("tools output missing %s", name)
		}
	}
}

func TestApp_ToolsVerbose(t *testing.T) {
	t.Parallel()

	app, stdout, _ := newTestApp(nil)
	if err := app.ExecuteWithArgs(context.Background(), []string{"tools", "-v"}); err != nil {
		t.Fatalf("tools command failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "Parameters:") {
		t.Errorf("verbose output missing parameter summary, got: %s", stdout.String())
	}
}

func TestApp_ToolsJSON(t *testing.T) {
	t.Parallel()

	app, stdout, _ := newTestApp(nil)
	if err := app.ExecuteWithArgs(context.Background(), []string{"tools", "--json"}); err != nil {
		t.Fatalf("tools command failed: %v", err)
	}

	var catalog []struct {
		Name        string         `json:"name"`
		InputSchema map[string]any `json:"inputSchema"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &catalog); err != nil {
		t.Fatalf("catalog is not JSON: %v", err)
	}
	if len(catalog) != len(operation.Names()) {
		t.Fatalf("catalog has %d tools, want %d", len(catalog), len(operation.Names()))
	}
	for i, name := range operation.Names() {
		if catalog[i].Name != name.String() {
			t.Errorf("catalog[%d] = %s, want %s", i, catalog[i].Name, name)
		}
		if catalog[i].InputSchema["type"] != "object" {
			t.Errorf("%s schema type = %v", name, catalog[i].InputSchema["type"])
		}
	}
}

func TestApp_CallSuccess(t *testing.T) {
	tools := install(t, map[string]string{"pdfmerge": `echo "merged $# args"`})
	work := workspace(t, "a.pdf", "b.pdf")
	app, stdout, _ := newTestApp(testEnv(tools, work))

	err := app.ExecuteWithArgs(context.Background(), []string{
		"call", "pdf_merge", `{"input_files":["a.pdf","b.pdf"],"output_file":"out.pdf"}`,
	})
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}

	var envelope struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &envelope); err != nil {
		t.Fatalf("envelope is not JSON: %v\n%s", err, stdout.String())
	}
	if envelope.IsError || len(envelope.Content) != 1 {
		t.Fatalf("envelope = %+v", envelope)
	}
	text := envelope.Content[0].Text
	if !strings.Contains(text, "Successfully merged 2 PDF files into out.pdf") {
		t.Errorf("text = %q", text)
	}
	if !strings.Contains(text, "merged 4 args") {
		t.Errorf("text missing tool output: %q", text)
	}
}

func TestApp_CallRaw(t *testing.T) {
	tools := install(t, map[string]string{"pdfgettxt": `echo "page text"`})
	work := workspace(t, "doc.pdf")
	app, stdout, _ := newTestApp(testEnv(tools, work))
	app.root.SetIn(strings.NewReader(`{"input_file":"doc.pdf"}`))

	err := app.ExecuteWithArgs(context.Background(), []string{"call", "pdf_extract_text", "-", "--raw"})
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "page text") {
		t.Errorf("stdout = %q", stdout.String())
	}
	if strings.Contains(stdout.String(), `"content"`) {
		t.Errorf("raw output should not be an envelope: %q", stdout.String())
	}
}

func TestApp_CallToolErrors(t *testing.T) {
	tools := install(t, map[string]string{"pdfsplit": `echo "broken page tree" >&2; exit 3`})
	work := workspace(t, "a.pdf", "b.pdf")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "unknown tool",
			args: []string{"call", "pdf_delete", `{}`},
			want: operation.UnauthorizedMessage,
		},
		{
			name: "unsafe path",
			args: []string{"call", "pdf_merge", `{"input_files":["/etc/passwd","b.pdf"],"output_file":"out.pdf"}`},
			want: "Error: ",
		},
		{
			name: "execution failure",
			args: []string{"call", "pdf_split", `{"input_file":"a.pdf","output_dir":"parts","mode":"pages"}`},
			want: "Exit code: 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, stdout, _ := newTestApp(testEnv(tools, work))

			err := app.ExecuteWithArgs(context.Background(), tt.args)
			if !errors.Is(err, ErrToolFailed) {
				t.Fatalf("err = %v, want ErrToolFailed", err)
			}
			if !strings.Contains(stdout.String(), `"isError": true`) {
				t.Errorf("envelope not marked as error: %s", stdout.String())
			}
			if !strings.Contains(stdout.String(), tt.want) {
				t.Errorf("output missing %q: %s", tt.want, stdout.String())
			}
		})
	}
}

func TestApp_CallStrict(t *testing.T) {
	tools := install(t, nil)
	work := workspace(t, "a.pdf")
	app, stdout, _ := newTestApp(testEnv(tools, work))

	err := app.ExecuteWithArgs(context.Background(), []string{
		"call", "pdf_thumbnails", `{"input_file":"a.pdf","output_dir":"thumbs","size":"large"}`, "--strict",
	})
	if !errors.Is(err, ErrSchemaViolation) {
		t.Fatalf("err = %v, want ErrSchemaViolation", err)
	}
	if !strings.Contains(err.Error(), "size") {
		t.Errorf("violation does not name the field: %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("nothing should be dispatched, got: %s", stdout.String())
	}
}

func TestApp_CallInvalidArguments(t *testing.T) {
	t.Parallel()

	app, _, _ := newTestApp(nil)
	err := app.ExecuteWithArgs(context.Background(), []string{"call", "pdf_merge", `["a.pdf"]`})
	if err == nil || !strings.Contains(err.Error(), "JSON object") {
		t.Errorf("err = %v, want JSON object error", err)
	}
}

func TestApp_CallAuditFile(t *testing.T) {
	tools := install(t, nil)
	work := workspace(t, "a.pdf")
	auditPath := filepath.Join(t.TempDir(), "audit.jsonl")
	env := testEnv(tools, work)
	env[infraconfig.EnvAuditPath] = auditPath
	app, _, _ := newTestApp(env)

	err := app.ExecuteWithArgs(context.Background(), []string{"call", "pdf_extract_text", `{"input_file":"a.pdf"}`})
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}

	data, err := os.ReadFile(auditPath)
	if err != nil {
		t.Fatalf("audit log not written: %v", err)
	}
	var event map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &event); err != nil {
		t.Fatalf("audit line is not JSON: %v\n%s", err, data)
	}
	if event["event_type"] != "tool_call" || event["tool_name"] != "pdf_extract_text" || event["transport"] != "cli" {
		t.Errorf("audit event = %v", event)
	}
}

func TestApp_CallDiscoveryFailure(t *testing.T) {
	t.Parallel()

	app, _, _ := newTestApp(map[string]string{})
	err := app.ExecuteWithArgs(context.Background(), []string{"call", "pdf_merge", `{}`})
	if !errors.Is(err, config.ErrToolsNotFound) {
		t.Errorf("err = %v, want ErrToolsNotFound", err)
	}
}

func TestApp_Health(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		scripts map[string]string
		wantErr bool
		want    []string
	}{
		{
			name: "healthy",
			want: []string{"Configuration: ok", "[ok]   pdf_ocr", "Schemas: ok (7)", "Status: healthy"},
		},
		{
			name:    "missing executable",
			scripts: map[string]string{"ocrutil": ""},
			wantErr: true,
			want:    []string{"[FAIL] pdf_ocr", "ocrutil: executable not found", "Status: unhealthy"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tools := install(t, tt.scripts)
			app, stdout, _ := newTestApp(testEnv(tools, ""))

			err := app.ExecuteWithArgs(context.Background(), []string{"health"})
			if tt.wantErr != errors.Is(err, ErrUnhealthy) {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			for _, want := range tt.want {
				if !strings.Contains(stdout.String(), want) {
					t.Errorf("output missing %q:\n%s", want, stdout.String())
				}
			}
		})
	}
}

func TestApp_HealthDiscoveryFailure(t *testing.T) {
	t.Parallel()

	app, stdout, _ := newTestApp(map[string]string{})
	err := app.ExecuteWithArgs(context.Background(), []string{"health"})
	if !errors.Is(err, ErrUnhealthy) {
		t.Fatalf("err = %v, want ErrUnhealthy", err)
	}
	if !strings.Contains(stdout.String(), "Configuration: FAILED") {
		t.Errorf("output = %s", stdout.String())
	}
}

func TestApp_Config(t *testing.T) {
	t.Parallel()

	tools := install(t, nil)
	env := testEnv(tools, "")
	env[infraconfig.EnvTimeout] = "1500"

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()

		app, stdout, _ := newTestApp(env)
		if err := app.ExecuteWithArgs(context.Background(), []string{"config"}); err != nil {
			t.Fatalf("config failed: %v", err)
		}
		for _, want := range []string{"search_root: " + tools, "timeout_ms: 1500", "transport: stdio"} {
			if !strings.Contains(stdout.String(), want) {
				t.Errorf("output missing %q:\n%s", want, stdout.String())
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		app, stdout, _ := newTestApp(env)
		if err := app.ExecuteWithArgs(context.Background(), []string{"config", "--format", "json"}); err != nil {
			t.Fatalf("config failed: %v", err)
		}
		var cfg config.Config
		if err := json.Unmarshal(stdout.Bytes(), &cfg); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if cfg.Tools.SearchRoot != tools || cfg.Limits.TimeoutMS != 1500 {
			t.Errorf("config = %+v", cfg)
		}
	})

	t.Run("unsupported format", func(t *testing.T) {
		t.Parallel()

		app, _, _ := newTestApp(env)
		if err := app.ExecuteWithArgs(context.Background(), []string{"config", "--format", "toml"}); err == nil {
			t.Error("expected error for unsupported format")
		}
	})
}

func TestApp_ConfigFile(t *testing.T) {
	tools := install(t, nil)
	path := filepath.Join(t.TempDir(), "pdftools.yaml")
	content := "tools:\n  search_root: ${TEST_TOOLS}\nlimits:\n  max_concurrent: 2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TEST_TOOLS", tools)

	app, stdout, _ := newTestApp(map[string]string{})
	if err := app.ExecuteWithArgs(context.Background(), []string{"config", "-c", path, "-f", "json"}); err != nil {
		t.Fatalf("config failed: %v", err)
	}
	var cfg config.Config
	if err := json.Unmarshal(stdout.Bytes(), &cfg); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if cfg.Tools.SearchRoot != tools || cfg.Limits.MaxConcurrent != 2 {
		t.Errorf("config = %+v", cfg)
	}
}

func TestApp_ServeRejectsBadTransport(t *testing.T) {
	t.Parallel()

	tools := install(t, nil)
	app, _, _ := newTestApp(testEnv(tools, ""))

	err := app.ExecuteWithArgs(context.Background(), []string{"serve", "--transport", "carrier-pigeon"})
	if err == nil || !strings.Contains(err.Error(), "transport") {
		t.Errorf("err = %v, want transport validation error", err)
	}
}

func TestApp_ServeDiscoveryFailure(t *testing.T) {
	t.Parallel()

	app, _, _ := newTestApp(map[string]string{})
	err := app.ExecuteWithArgs(context.Background(), []string{"serve"})
	if !errors.Is(err, config.ErrToolsNotFound) {
		t.Errorf("err = %v, want ErrToolsNotFound", err)
	}
}
