package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/felixgeelhaar/pdftools-mcp/domain/operation"
	"github.com/felixgeelhaar/pdftools-mcp/domain/tool"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/executor"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/resilience"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/security/audit"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/storage/memory"
)

// Test helpers

// newTestRegistry registers a tool for every operation. Handlers in
// overrides replace the default one, which echoes the tool name.
func newTestRegistry(calls *atomic.Int32, overrides map[operation.Name]tool.Handler) *memory.ToolRegistry {
	registry := memory.NewToolRegistry()
	for _, name := range operation.Names() {
		handler := overrides[name]
		if handler == nil {
			handler = func(context.Context, json.RawMessage) (tool.Result, error) {
				return tool.TextResult("ran " + name.String()), nil
			}
		}
		wrapped := func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			if calls != nil {
				calls.Add(1)
			}
			return handler(ctx, input)
		}
		_ = registry.Register(tool.NewBuilder(name.String()).WithHandler(wrapped).MustBuild())
	}
	return registry
}

func newTestDispatcher(t *testing.T, opts ...Option) (*Dispatcher, *audit.MemoryLogger) {
	t.Helper()
	auditLog := audit.NewMemoryLogger()
	opts = append([]Option{WithRegistry(newTestRegistry(nil, nil)), WithAudit(auditLog)}, opts...)
	d, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return d, auditLog
}

func TestNewDispatcher(t *testing.T) {
	t.Parallel()

	t.Run("requires registry", func(t *testing.T) {
		t.Parallel()
		if _, err := NewDispatcher(DispatcherConfig{}); !errors.Is(err, ErrRegistryRequired) {
			t.Errorf("NewDispatcher() error = %v, want ErrRegistryRequired", err)
		}
	})

	t.Run("rejects missing operation", func(t *testing.T) {
		t.Parallel()
		registry := memory.NewToolRegistry()
		_ = registry.Register(tool.NewBuilder(operation.Merge.String()).
			WithHandler(func(context.Context, json.RawMessage) (tool.Result, error) { return tool.Result{}, nil }).
			MustBuild())

		_, err := NewDispatcher(DispatcherConfig{Registry: registry})
		if !errors.Is(err, ErrMissingRoute) {
			t.Fatalf("NewDispatcher() error = %v, want ErrMissingRoute", err)
		}
		if !strings.Contains(err.Error(), operation.Split.String()) {
			t.Errorf("error should name the missing operation: %v", err)
		}
	})
}

func TestDispatcher_EveryOperationRoutes(t *testing.T) {
	t.Parallel()

	d, _ := newTestDispatcher(t)
	for _, name := range operation.Names() {
		if _, ok := d.route(name); !ok {
			t.Errorf("operation %s has no route", name)
		}
		res, err := d.Dispatch(context.Background(), name.String(), nil)
		if err != nil {
			t.Fatalf("Dispatch(%s) error = %v", name, err)
		}
		if res.IsError || res.Text() != "ran "+name.String() {
			t.Errorf("Dispatch(%s) = %+v", name, res)
		}
	}

	tools := d.Tools()
	if len(tools) != len(operation.Names()) {
		t.Fatalf("Tools() len = %d", len(tools))
	}
	for i, name := range operation.Names() {
		if tools[i].Name() != name.String() {
			t.Errorf("Tools()[%d] = %s, want %s", i, tools[i].Name(), name)
		}
	}
}

func TestDispatcher_RejectsUnknownTools(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	auditLog := audit.NewMemoryLogger()
	d, err := NewDispatcher(DispatcherConfig{Registry: newTestRegistry(&calls, nil), Audit: auditLog})
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"", "rm", "PDF_MERGE", "pdf_merge ", "pdf_merge;rm -rf /", "../pdfmerge"} {
		res, err := d.Dispatch(context.Background(), name, json.RawMessage(`{}`))
		if err != nil {
			t.Fatalf("Dispatch(%q) error = %v", name, err)
		}
		if !res.IsError {
			t.Errorf("Dispatch(%q) IsError = false", name)
		}
		if res.Text() != operation.UnauthorizedMessage {
			t.Errorf("Dispatch(%q) text = %q", name, res.Text())
		}
		if name != "" && strings.Contains(res.Text(), name) {
			t.Errorf("rejection echoes the name %q", name)
		}
	}

	if n := calls.Load(); n != 0 {
		t.Errorf("handlers invoked %d times for rejected names", n)
	}
	events, _ := auditLog.Query(context.Background(), audit.Filter{EventTypes: []audit.EventType{audit.EventToolRejection}})
	if len(events) != 6 {
		t.Errorf("rejection events = %d, want 6", len(events))
	}
}

// gapRegistry reports a nil tool for one operation, as a registry with a
// half-registered entry would.
type gapRegistry struct {
	tool.Registry
	gap operation.Name
}

func (r gapRegistry) Get(name string) (tool.Tool, bool) {
	if name == r.gap.String() {
		return nil, true
	}
	return r.Registry.Get(name)
}

func TestDispatcher_UnroutedOperation(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	auditLog := audit.NewMemoryLogger()
	d, err := NewDispatcher(DispatcherConfig{
		Registry: gapRegistry{Registry: newTestRegistry(&calls, nil), gap: operation.OCR},
		Audit:    auditLog,
	})
	if err != nil {
		t.Fatalf("NewDispatcher() error = %v", err)
	}

	res, err := d.Dispatch(context.Background(), operation.OCR.String(), json.RawMessage(`{"input_file":"a.pdf"}`))
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if !res.IsError || res.Text() != MsgUnknownTool {
		t.Errorf("Dispatch() = %+v, want %q", res, MsgUnknownTool)
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("handlers invoked %d times", n)
	}

	events, _ := auditLog.Query(context.Background(), audit.Filter{EventTypes: []audit.EventType{audit.EventToolRejection}})
	if len(events) != 1 || events[0].ToolName != operation.OCR.String() {
		t.Errorf("rejection events = %+v", events)
	}

	if res, _ := d.Dispatch(context.Background(), operation.Merge.String(), nil); res.IsError {
		t.Errorf("routed operation failed: %s", res.Text())
	}
}

func TestDispatcher_HandlerOutcomes(t *testing.T) {
	t.Parallel()

	launch := &executor.LaunchError{Executable: "pdfsplit", Err: executor.ErrNotFound}

	tests := []struct {
		name      string
		handler   tool.Handler
		wantErr   bool
		wantError bool
		wantText  string
		notText   string
		wantEvent audit.EventType
	}{
		{
			name: "validation failure passes unchanged",
			handler: func(context.Context, json.RawMessage) (tool.Result, error) {
				return tool.ErrorResult("Error: Required parameter missing: input_file"), nil
			},
			wantError: true,
			wantText:  "Error: Required parameter missing: input_file",
			wantEvent: audit.EventValidationFailure,
		},
		{
			name: "execution failure passes unchanged",
			handler: func(context.Context, json.RawMessage) (tool.Result, error) {
				return tool.ErrorResult("Error splitting PDF:\nbad page\n\nExit code: 3").WithDuration(1), nil
			},
			wantError: true,
			wantText:  "Error splitting PDF:\nbad page\n\nExit code: 3",
			wantEvent: audit.EventExecutionFailure,
		},
		{
			name: "unexpected error is sanitized",
			handler: func(context.Context, json.RawMessage) (tool.Result, error) {
				return tool.Result{}, errors.New("open /home/bob/secret.pdf: permission denied")
			},
			wantError: true,
			wantText:  HintExecution + ": ",
			notText:   "bob",
			wantEvent: audit.EventExecutionFailure,
		},
		{
			name: "panic is recovered and sanitized",
			handler: func(context.Context, json.RawMessage) (tool.Result, error) {
				panic("boom in /etc/pdftools/config")
			},
			wantError: true,
			wantText:  HintExecution + ": panic: boom in",
			notText:   "/etc/pdftools",
			wantEvent: audit.EventExecutionFailure,
		},
		{
			name: "launch failure is a configuration error",
			handler: func(context.Context, json.RawMessage) (tool.Result, error) {
				return tool.Result{}, launch
			},
			wantErr:   true,
			wantEvent: audit.EventLaunchFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			auditLog := audit.NewMemoryLogger()
			registry := newTestRegistry(nil, map[operation.Name]tool.Handler{operation.Split: tt.handler})
			d, err := NewDispatcher(DispatcherConfig{Registry: registry, Audit: auditLog, Transport: "stdio"})
			if err != nil {
				t.Fatal(err)
			}

			res, err := d.Dispatch(context.Background(), operation.Split.String(), json.RawMessage(`{}`))
			if tt.wantErr {
				var cfgErr *ConfigurationError
				if !errors.As(err, &cfgErr) {
					t.Fatalf("Dispatch() error = %v, want *ConfigurationError", err)
				}
				if !errors.Is(err, executor.ErrLaunchFailed) {
					t.Errorf("ConfigurationError should wrap ErrLaunchFailed")
				}
				if cfgErr.Tool != operation.Split.String() {
					t.Errorf("Tool = %q", cfgErr.Tool)
				}
			} else if err != nil {
				t.Fatalf("Dispatch() error = %v", err)
			}

			if !tt.wantErr {
				if res.IsError != tt.wantError {
					t.Errorf("IsError = %v, want %v", res.IsError, tt.wantError)
				}
				if !strings.HasPrefix(res.Text(), tt.wantText) {
					t.Errorf("text = %q, want prefix %q", res.Text(), tt.wantText)
				}
				if tt.notText != "" && strings.Contains(res.Text(), tt.notText) {
					t.Errorf("text %q leaks %q", res.Text(), tt.notText)
				}
			}

			events := auditLog.Events()
			if len(events) != 1 {
				t.Fatalf("audit events = %d, want 1", len(events))
			}
			if events[0].EventType != tt.wantEvent {
				t.Errorf("event type = %s, want %s", events[0].EventType, tt.wantEvent)
			}
			if events[0].InvocationID == "" || events[0].Transport != "stdio" {
				t.Errorf("event = %+v", events[0])
			}
		})
	}
}

func TestDispatcher_RateLimit(t *testing.T) {
	t.Parallel()

	d, auditLog := newTestDispatcher(t, WithRateLimiter(resilience.NewRateLimiter(resilience.Config{Rate: 1, Burst: 1})))

	first, _ := d.Dispatch(context.Background(), operation.Merge.String(), nil)
	if first.IsError {
		t.Fatalf("first call rejected: %s", first.Text())
	}
	second, _ := d.Dispatch(context.Background(), operation.Merge.String(), nil)
	if !second.IsError || second.Text() != MsgRateLimited {
		t.Errorf("second call = %+v, want rate limited", second)
	}

	events, _ := auditLog.Query(context.Background(), audit.Filter{EventTypes: []audit.EventType{audit.EventRateLimited}})
	if len(events) != 1 {
		t.Errorf("rate limited events = %d, want 1", len(events))
	}
}

func TestDispatcher_RejectsBeforeRateLimit(t *testing.T) {
	t.Parallel()

	d, auditLog := newTestDispatcher(t, WithRateLimiter(resilience.NewRateLimiter(resilience.Config{Rate: 1, Burst: 1})))

	for i := 0; i < 3; i++ {
		res, _ := d.Dispatch(context.Background(), "pdf_unknown", nil)
		if res.Text() != operation.UnauthorizedMessage {
			t.Fatalf("unknown name = %q, want the whitelist rejection", res.Text())
		}
	}

	res, _ := d.Dispatch(context.Background(), operation.Merge.String(), nil)
	if res.IsError {
		t.Errorf("known call after rejections = %q, want a free token", res.Text())
	}

	events, _ := auditLog.Query(context.Background(), audit.Filter{EventTypes: []audit.EventType{audit.EventRateLimited}})
	if len(events) != 0 {
		t.Errorf("rate limited events = %d, want 0", len(events))
	}
}

func TestRejectedName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		wantMax int
	}{
		{"short", "pdf_unknown", len("pdf_unknown")},
		{"long", strings.Repeat("x", 500), maxLoggedName + len("...")},
		{"long path", "/home/alice/" + strings.Repeat("y", 300), maxLoggedName + len("...")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := rejectedName(tt.in)
			if len(got) > tt.wantMax {
				t.Errorf("rejectedName() len = %d, want <= %d", len(got), tt.wantMax)
			}
			if strings.Contains(got, "/home/alice") {
				t.Errorf("rejectedName() = %q leaks the path", got)
			}
		})
	}

	if got := rejectedName(strings.Repeat("z", 100)); !strings.HasSuffix(got, "...") {
		t.Errorf("capped name = %q, want ... suffix", got)
	}
}

func TestDispatcher_Span(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	d, _ := newTestDispatcher(t, WithTracer(tp.Tracer("test")))

	if _, err := d.Dispatch(context.Background(), operation.OCR.String(), nil); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Dispatch(context.Background(), "rm", nil); err != nil {
		t.Fatal(err)
	}

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("spans = %d, want 2", len(spans))
	}

	attrs := func(i int) map[string]string {
		out := map[string]string{}
		for _, kv := range spans[i].Attributes() {
			out[string(kv.Key)] = kv.Value.Emit()
		}
		return out
	}
	ok := attrs(0)
	if ok["tool.name"] != operation.OCR.String() || ok["dispatch.outcome"] != "success" {
		t.Errorf("success span attributes = %v", ok)
	}
	rejected := attrs(1)
	if _, has := rejected["tool.name"]; has {
		t.Errorf("rejected span should not carry the tool name: %v", rejected)
	}
	if rejected["dispatch.outcome"] != "rejected" {
		t.Errorf("rejected span outcome = %q", rejected["dispatch.outcome"])
	}
}

func TestDispatcher_Duration(t *testing.T) {
	t.Parallel()

	d, _ := newTestDispatcher(t)
	res, err := d.Dispatch(context.Background(), operation.Protect.String(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Duration <= 0 {
		t.Errorf("Duration = %v, want > 0", res.Duration)
	}
}
