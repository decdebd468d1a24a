// Package application routes tool calls through the boundary checks to the
// PDF tool handlers.
package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/felixgeelhaar/pdftools-mcp/domain/operation"
	"github.com/felixgeelhaar/pdftools-mcp/domain/tool"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/executor"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/logging"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/resilience"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/security/audit"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/security/sanitize"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/telemetry"
)

// Client-facing messages produced by the dispatcher itself.
const (
	MsgUnknownTool = "Unknown tool"
	MsgRateLimited = "Rate limit exceeded, retry later"
	HintExecution  = "Tool execution failed"
)

const (
	rateLimitKey = "dispatch"
	tracerName   = "github.com/felixgeelhaar/pdftools-mcp/application"
)

// DispatcherConfig contains configuration for the dispatcher.
type DispatcherConfig struct {
	Registry    tool.Registry
	RateLimiter *resilience.RateLimiter
	Audit       audit.Logger
	Metrics     telemetry.Recorder
	Tracer      trace.Tracer
	Transport   string
}

// Dispatcher is the single entry point for tool calls. It re-checks the
// whitelist on every call regardless of what the transport advertised.
type Dispatcher struct {
	routes    map[operation.Name]tool.Tool
	limiter   *resilience.RateLimiter
	audit     audit.Logger
	metrics   telemetry.Recorder
	tracer    trace.Tracer
	transport string
}

// NewDispatcher creates a dispatcher. Every operation must have a tool in
// the registry; a gap is a construction error, not a runtime one.
func NewDispatcher(config DispatcherConfig) (*Dispatcher, error) {
	if config.Registry == nil {
		return nil, ErrRegistryRequired
	}

	routes := make(map[operation.Name]tool.Tool, len(operation.Names()))
	for _, name := range operation.Names() {
		t, ok := config.Registry.Get(name.String())
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingRoute, name)
		}
		routes[name] = t
	}

	d := &Dispatcher{
		routes:    routes,
		limiter:   config.RateLimiter,
		audit:     config.Audit,
		metrics:   config.Metrics,
		tracer:    config.Tracer,
		transport: config.Transport,
	}
	if d.audit == nil {
		d.audit = audit.NopLogger{}
	}
	if d.metrics == nil {
		d.metrics = telemetry.NoopMetricsProvider{}
	}
	if d.tracer == nil {
		d.tracer = noop.NewTracerProvider().Tracer(tracerName)
	}
	return d, nil
}

// Tools returns the routed tools in catalog order.
func (d *Dispatcher) Tools() []tool.Tool {
	out := make([]tool.Tool, 0, len(d.routes))
	for _, name := range operation.Names() {
		out = append(out, d.routes[name])
	}
	return out
}

// route maps an operation to its tool. The switch is exhaustive over the
// closed operation set.
func (d *Dispatcher) route(name operation.Name) (tool.Tool, bool) {
	switch name {
	case operation.Merge,
		operation.Split,
		operation.ExtractText,
		operation.OCR,
		operation.Protect,
		operation.Thumbnails,
		operation.RenameInvoice:
		t, ok := d.routes[name]
		return t, ok && t != nil
	default:
		return nil, false
	}
}

// Dispatch runs one tool call. Every outcome except a launch failure is
// returned as a result envelope; a launch failure is a *ConfigurationError.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args json.RawMessage) (tool.Result, error) {
	start := time.Now()
	call := &dispatchCall{
		id:        uuid.NewString(),
		name:      name,
		transport: d.transport,
	}

	ctx, span := d.tracer.Start(ctx, "dispatch",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("invocation.id", call.id)),
	)
	defer span.End()

	res, err := d.dispatch(ctx, call, args)

	elapsed := time.Since(start)
	res = res.WithDuration(elapsed)
	call.duration = elapsed
	d.finish(ctx, span, call, res, err)
	return res, err
}

// dispatchCall carries per-call bookkeeping to finish.
type dispatchCall struct {
	id        string
	name      string
	transport string
	known     bool
	outcome   string
	event     audit.EventType
	errText   string
	duration  time.Duration
}

func (d *Dispatcher) dispatch(ctx context.Context, call *dispatchCall, args json.RawMessage) (tool.Result, error) {
	if r := operation.ValidateName(call.name); !r.Valid {
		call.outcome, call.event, call.errText = telemetry.OutcomeRejected, audit.EventToolRejection, r.Error
		return tool.ErrorResult(r.Error), nil
	}
	call.known = true

	if err := d.limiter.Allow(ctx, rateLimitKey); err != nil {
		call.outcome, call.event, call.errText = telemetry.OutcomeRateLimited, audit.EventRateLimited, err.Error()
		return tool.ErrorResult(MsgRateLimited), nil
	}

	t, ok := d.route(operation.Name(call.name))
	if !ok {
		call.outcome, call.event, call.errText = telemetry.OutcomeRejected, audit.EventToolRejection, MsgUnknownTool
		return tool.ErrorResult(MsgUnknownTool), nil
	}

	res, err := invoke(ctx, t, args)
	switch {
	case err == nil && !res.IsError:
		call.outcome, call.event = telemetry.OutcomeSuccess, audit.EventToolCall
		return res, nil
	case err == nil:
		// Handlers only attach a duration once the executable ran.
		call.outcome, call.errText = telemetry.OutcomeToolError, res.Text()
		call.event = audit.EventValidationFailure
		if res.Duration > 0 {
			call.event = audit.EventExecutionFailure
		}
		return res, nil
	case errors.Is(err, executor.ErrLaunchFailed):
		msg := sanitize.Error(err, "")
		call.outcome, call.event, call.errText = telemetry.OutcomeLaunchError, audit.EventLaunchFailure, msg
		return tool.Result{}, &ConfigurationError{Tool: call.name, Message: msg, Err: err}
	default:
		msg := sanitize.Error(err, HintExecution)
		call.outcome, call.event, call.errText = telemetry.OutcomeInternal, audit.EventExecutionFailure, msg
		return tool.ErrorResult(msg), nil
	}
}

// invoke runs the tool, converting a panic into an error.
func invoke(ctx context.Context, t tool.Tool, args json.RawMessage) (res tool.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = tool.Result{}
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return t.Execute(ctx, args)
}

func (d *Dispatcher) finish(ctx context.Context, span trace.Span, call *dispatchCall, res tool.Result, err error) {
	loggedName := call.name
	if !call.known {
		loggedName = rejectedName(call.name)
	}

	span.SetAttributes(
		attribute.String("dispatch.outcome", call.outcome),
		attribute.Bool("dispatch.is_error", res.IsError || err != nil),
	)
	if call.known {
		span.SetAttributes(attribute.String("tool.name", call.name))
	}
	if call.outcome != telemetry.OutcomeSuccess {
		span.SetStatus(codes.Error, call.outcome)
	} else {
		span.SetStatus(codes.Ok, "")
	}

	metricName := call.name
	if !call.known {
		metricName = "unknown"
	}
	d.metrics.RecordDispatch(ctx, metricName, call.outcome, call.duration)

	event := audit.Event{
		EventType:    call.event,
		InvocationID: call.id,
		ToolName:     loggedName,
		Success:      call.outcome == telemetry.OutcomeSuccess,
		Error:        call.errText,
		Duration:     call.duration,
		Transport:    call.transport,
	}
	if auditErr := d.audit.Log(ctx, event); auditErr != nil {
		logging.Warn().
			Add(logging.Component("dispatcher")).
			Add(logging.ErrorField(auditErr)).
			Msg("audit log failed")
	}

	var log *logging.LogEvent
	switch call.outcome {
	case telemetry.OutcomeSuccess, telemetry.OutcomeToolError:
		log = logging.Info()
	case telemetry.OutcomeRejected, telemetry.OutcomeRateLimited:
		log = logging.Debug()
	default:
		log = logging.Error()
	}
	log = log.
		Add(logging.Component("dispatcher")).
		Add(logging.InvocationID(call.id)).
		Add(logging.ToolName(loggedName)).
		Add(logging.Str("outcome", call.outcome)).
		Add(logging.Duration(call.duration))
	if err != nil {
		log = log.Add(logging.ErrorField(err))
	}
	log.Msg("tool dispatched")
}

// maxLoggedName caps the length of rejected names in logs and audit events.
const maxLoggedName = 64

// rejectedName sanitizes and caps a name that failed the whitelist, so it
// is never echoed verbatim.
func rejectedName(name string) string {
	name = sanitize.Message(name, "")
	if len(name) > maxLoggedName {
		name = name[:maxLoggedName] + "..."
	}
	return name
}
