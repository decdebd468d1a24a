// Package telemetry provides OpenTelemetry metrics for tool dispatch and
// subprocess execution.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/executor"
)

// Dispatch outcomes used as the "outcome" attribute.
const (
	OutcomeSuccess     = "success"
	OutcomeToolError   = "tool_error"
	OutcomeRejected    = "rejected"
	OutcomeInternal    = "internal_error"
	OutcomeLaunchError = "launch_error"
	OutcomeRateLimited = "rate_limited"
)

// MetricsProvider provides access to metrics instruments.
type MetricsProvider struct {
	meter metric.Meter

	dispatchCalls    metric.Int64Counter
	dispatchDuration metric.Float64Histogram
	execRuns         metric.Int64Counter
	execDuration     metric.Float64Histogram
	execTimeouts     metric.Int64Counter
	execOverflows    metric.Int64Counter

	initErr error
}

// MetricsConfig configures the metrics provider.
type MetricsConfig struct {
	// MeterName is the name of the meter.
	MeterName string
	// MeterVersion is the version of the meter.
	MeterVersion string
	// Provider overrides the global meter provider.
	Provider metric.MeterProvider
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    "github.com/felixgeelhaar/pdftools-mcp",
		MeterVersion: "1.0.0",
	}
}

// NewMetricsProvider creates a new metrics provider.
func NewMetricsProvider(config MetricsConfig) *MetricsProvider {
	if config.MeterName == "" {
		config.MeterName = DefaultMetricsConfig().MeterName
	}
	provider := config.Provider
	if provider == nil {
		provider = otel.GetMeterProvider()
	}

	mp := &MetricsProvider{
		meter: provider.Meter(
			config.MeterName,
			metric.WithInstrumentationVersion(config.MeterVersion),
		),
	}
	mp.initErr = mp.initInstruments()
	return mp
}

func (mp *MetricsProvider) initInstruments() error {
	var err error

	mp.dispatchCalls, err = mp.meter.Int64Counter(
		"pdftools.dispatch.calls",
		metric.WithDescription("Number of tool calls by outcome"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return err
	}

	mp.dispatchDuration, err = mp.meter.Float64Histogram(
		"pdftools.dispatch.duration",
		metric.WithDescription("Duration of tool calls"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.execRuns, err = mp.meter.Int64Counter(
		"pdftools.exec.runs",
		metric.WithDescription("Number of subprocess executions"),
		metric.WithUnit("{execution}"),
	)
	if err != nil {
		return err
	}

	mp.execDuration, err = mp.meter.Float64Histogram(
		"pdftools.exec.duration",
		metric.WithDescription("Duration of subprocess executions"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.execTimeouts, err = mp.meter.Int64Counter(
		"pdftools.exec.timeouts",
		metric.WithDescription("Number of subprocesses killed for exceeding the timeout"),
		metric.WithUnit("{execution}"),
	)
	if err != nil {
		return err
	}

	mp.execOverflows, err = mp.meter.Int64Counter(
		"pdftools.exec.overflows",
		metric.WithDescription("Number of subprocesses killed for exceeding the output cap"),
		metric.WithUnit("{execution}"),
	)
	return err
}

// Error returns any initialization error.
func (mp *MetricsProvider) Error() error {
	return mp.initErr
}

// RecordDispatch records one tool call.
func (mp *MetricsProvider) RecordDispatch(ctx context.Context, toolName, outcome string, duration time.Duration) {
	if mp.initErr != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("tool.name", toolName),
		attribute.String("outcome", outcome),
	)
	mp.dispatchCalls.Add(ctx, 1, attrs)
	mp.dispatchDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordExecution records one subprocess run. It satisfies executor.Recorder.
func (mp *MetricsProvider) RecordExecution(ctx context.Context, executable string, res executor.Result) {
	if mp.initErr != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("executable", executable),
		attribute.Bool("success", res.Success),
	)
	mp.execRuns.Add(ctx, 1, attrs)
	mp.execDuration.Record(ctx, float64(res.Duration.Milliseconds()), attrs)

	exe := metric.WithAttributes(attribute.String("executable", executable))
	if res.TimedOut {
		mp.execTimeouts.Add(ctx, 1, exe)
	}
	if res.Truncated {
		mp.execOverflows.Add(ctx, 1, exe)
	}
}

// Recorder is the subset of MetricsProvider the dispatcher uses.
type Recorder interface {
	RecordDispatch(ctx context.Context, toolName, outcome string, duration time.Duration)
}

// NoopMetricsProvider is a no-op provider for when metrics are disabled.
type NoopMetricsProvider struct{}

// RecordDispatch is a no-op.
func (NoopMetricsProvider) RecordDispatch(context.Context, string, string, time.Duration) {}

// RecordExecution is a no-op.
func (NoopMetricsProvider) RecordExecution(context.Context, string, executor.Result) {}

var (
	_ Recorder          = (*MetricsProvider)(nil)
	_ executor.Recorder = (*MetricsProvider)(nil)
	_ Recorder          = NoopMetricsProvider{}
	_ executor.Recorder = NoopMetricsProvider{}
)
