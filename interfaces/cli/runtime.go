package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/felixgeelhaar/pdftools-mcp/application"
	"github.com/felixgeelhaar/pdftools-mcp/domain/config"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/executor"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/logging"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/observability"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/resilience"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/security/audit"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/security/validation"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/storage/memory"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/telemetry"
	"github.com/felixgeelhaar/pdftools-mcp/pack/pdf"
)

const tracerName = "github.com/felixgeelhaar/pdftools-mcp/dispatcher"

// runtime is the wired server stack for one resolved configuration.
type runtime struct {
	config     *config.Config
	dispatcher *application.Dispatcher
	executor   *executor.Executor
	tracing    *observability.Provider
	closers    []func(context.Context) error
}

// buildRuntime wires logging, tracing, metrics, the executor, the PDF pack
// and the dispatcher. transport labels audit events.
func (a *App) buildRuntime(cfg *config.Config, transport string) (*runtime, error) {
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: a.stderr,
	})

	tracing, err := observability.New(
		observability.WithServiceName(cfg.Server.Name),
		observability.WithServiceVersion(Version),
		observability.WithExporter(cfg.Tracing.Exporter),
		observability.WithEndpoint(cfg.Tracing.Endpoint, cfg.Tracing.Insecure),
		observability.WithSampleRate(cfg.Tracing.SampleRate),
		observability.WithStdout(a.stderr),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	rt := &runtime{
		config:  cfg,
		tracing: tracing,
		closers: []func(context.Context) error{tracing.Shutdown},
	}

	metrics := telemetry.NewMetricsProvider(telemetry.DefaultMetricsConfig())
	if err := metrics.Error(); err != nil {
		logging.Warn().
			Add(logging.Component("telemetry")).
			Add(logging.ErrorField(err)).
			Msg("metrics instruments unavailable")
	}

	rt.executor, err = executor.New(executor.Config{
		SearchRoot:     cfg.Tools.SearchRoot,
		WorkDir:        cfg.Tools.WorkDir,
		Timeout:        cfg.Limits.Timeout(),
		MaxOutputBytes: cfg.Limits.MaxOutputBytes,
		MaxConcurrent:  cfg.Limits.MaxConcurrent,
	}, executor.WithRecorder(metrics))
	if err != nil {
		return nil, rt.fail(err)
	}

	registry := memory.NewToolRegistry()
	pk := pdf.New(pdf.PackConfig{
		Runner:         rt.executor,
		Files:          validation.NewFileChecker(cfg.Tools.WorkDir),
		SanitizeStderr: cfg.Limits.SanitizeStderr,
		Version:        Version,
	})
	if err := pk.Install(registry); err != nil {
		return nil, rt.fail(err)
	}

	auditLogger, err := a.auditLogger(cfg.Audit)
	if err != nil {
		return nil, rt.fail(err)
	}
	rt.closers = append(rt.closers, func(context.Context) error { return auditLogger.Close() })

	rt.dispatcher, err = application.New(
		application.WithRegistry(registry),
		application.WithRateLimiter(resilience.NewRateLimiter(resilience.Config{
			Rate:  cfg.Limits.RateLimit,
			Burst: cfg.Limits.RateBurst,
		})),
		application.WithAudit(auditLogger),
		application.WithMetrics(metrics),
		application.WithTracer(tracing.Tracer(tracerName)),
		application.WithTransport(transport),
	)
	if err != nil {
		return nil, rt.fail(err)
	}

	logging.Debug().
		Add(logging.Component("cli")).
		Add(logging.Str("search_root", cfg.Tools.SearchRoot)).
		Add(logging.Int("max_concurrent", cfg.Limits.MaxConcurrent)).
		Add(logging.Bool("tracing", tracing.Enabled())).
		Msg("runtime ready")
	return rt, nil
}

// auditLogger opens the configured audit trail. A disabled trail discards
// events; an enabled one without a path writes to stderr.
func (a *App) auditLogger(cfg config.AuditConfig) (audit.Logger, error) {
	if !cfg.Enabled {
		return audit.NopLogger{}, nil
	}
	if cfg.Path == "" {
		// Not closed: stderr outlives the runtime.
		return audit.NewJSONLogger(nopCloser{a.stderr}), nil
	}
	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600) // #nosec G304 -- operator-configured audit path
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	return audit.NewJSONLogger(f), nil
}

// fail releases what was built so far and returns err.
func (rt *runtime) fail(err error) error {
	if cerr := rt.close(context.Background()); cerr != nil {
		return errors.Join(err, cerr)
	}
	return err
}

// close releases the runtime in reverse construction order.
func (rt *runtime) close(ctx context.Context) error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
