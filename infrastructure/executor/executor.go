// Package executor runs the PDF command-line tools as bounded subprocesses.
//
// Every invocation gets a timeout and a per-stream output cap. Either limit
// kills the whole process group. A call only returns an error when the
// executable could not be launched; every other outcome is a Result.
package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/logging"
	"github.com/felixgeelhaar/pdftools-mcp/infrastructure/resilience"
)

// Defaults used when neither Config nor Request sets a value.
const (
	DefaultTimeout        = 300 * time.Second
	DefaultMaxOutputBytes = 10 * 1024 * 1024
)

// waitDelay bounds how long Wait blocks on pipes held open by orphaned
// grandchildren after the process itself is gone.
const waitDelay = 2 * time.Second

// Request describes one subprocess invocation.
type Request struct {
	// Executable is a bare file name inside the search root.
	Executable string

	// Args are passed verbatim; no shell is involved.
	Args []string

	// Timeout overrides the configured timeout when positive.
	Timeout time.Duration

	// MaxOutputBytes overrides the configured per-stream cap when positive.
	MaxOutputBytes int64
}

// Result is the outcome of a subprocess that was started.
type Result struct {
	// Success is true only for exit code 0 with no timeout, overflow or cancellation.
	Success bool `json:"success"`

	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`

	// ExitCode is -1 when the process was killed.
	ExitCode int `json:"exit_code"`

	TimedOut  bool `json:"timed_out,omitempty"`
	Truncated bool `json:"truncated,omitempty"`
	Cancelled bool `json:"cancelled,omitempty"`

	Duration time.Duration `json:"duration"`
}

// Recorder observes completed executions.
type Recorder interface {
	RecordExecution(ctx context.Context, executable string, res Result)
}

// Config configures the executor.
type Config struct {
	// SearchRoot is the directory holding the executables.
	SearchRoot string

	// WorkDir is the child's working directory. Empty inherits ours.
	WorkDir string

	// Timeout is the default per-call timeout.
	Timeout time.Duration

	// MaxOutputBytes is the default per-stream output cap.
	MaxOutputBytes int64

	// MaxConcurrent limits simultaneous subprocesses.
	MaxConcurrent int

	// Environment is added to the inherited environment.
	Environment map[string]string
}

// Executor runs subprocesses. It is safe for concurrent use.
type Executor struct {
	config   Config
	limiter  *resilience.Limiter[Result]
	recorder Recorder
	tracer   trace.Tracer
}

// Option configures an Executor.
type Option func(*Executor)

// WithRecorder sets the execution recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Executor) {
		e.recorder = r
	}
}

// New creates an executor.
func New(config Config, opts ...Option) (*Executor, error) {
	if config.SearchRoot == "" {
		return nil, ErrNoSearchRoot
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.MaxOutputBytes <= 0 {
		config.MaxOutputBytes = DefaultMaxOutputBytes
	}

	e := &Executor{
		config:  config,
		limiter: resilience.NewLimiter[Result](config.MaxConcurrent),
		tracer:  otel.Tracer("github.com/felixgeelhaar/pdftools-mcp/executor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the executor configuration.
func (e *Executor) Config() Config {
	return e.config
}

// Resolve returns the absolute path of an executable inside the search
// root, or a LaunchError if it is missing or not executable.
func (e *Executor) Resolve(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", &LaunchError{Executable: name, Err: ErrInvalidExecutable}
	}
	path := filepath.Join(e.config.SearchRoot, name)
	info, err := os.Stat(path)
	if err != nil {
		return "", &LaunchError{Executable: name, Err: ErrNotFound}
	}
	if info.IsDir() || info.Mode().Perm()&0o111 == 0 {
		return "", &LaunchError{Executable: name, Err: ErrNotExecutable}
	}
	return path, nil
}

// Execute runs req and waits for it to finish, time out, overflow or be
// cancelled through ctx.
func (e *Executor) Execute(ctx context.Context, req Request) (Result, error) {
	path, err := e.Resolve(req.Executable)
	if err != nil {
		logging.Error().
			Add(logging.Component("executor")).
			Add(logging.Executable(req.Executable)).
			Add(logging.ErrorField(err)).
			Msg("executable unavailable")
		return Result{}, err
	}

	ctx, span := e.tracer.Start(ctx, "executor.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("executable", req.Executable),
			attribute.Int("arg_count", len(req.Args)),
		),
	)
	defer span.End()

	res, err := e.limiter.Execute(ctx, func(ctx context.Context) (Result, error) {
		return e.run(ctx, path, req)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var launchErr *LaunchError
		if errors.As(err, &launchErr) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: %v", ErrBusy, err)
	}

	span.SetAttributes(
		attribute.Int("exit_code", res.ExitCode),
		attribute.Bool("timed_out", res.TimedOut),
		attribute.Bool("truncated", res.Truncated),
	)
	if !res.Success {
		span.SetStatus(codes.Error, "execution failed")
	}
	if e.recorder != nil {
		e.recorder.RecordExecution(ctx, req.Executable, res)
	}
	return res, nil
}

func (e *Executor) run(ctx context.Context, path string, req Request) (Result, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = e.config.Timeout
	}
	limit := req.MaxOutputBytes
	if limit <= 0 {
		limit = e.config.MaxOutputBytes
	}

	cmd := exec.Command(path, req.Args...) // #nosec G204 -- path resolved inside search root, no shell
	cmd.Dir = e.config.WorkDir
	cmd.Env = e.environ()
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)

	proc := &process{cmd: cmd}
	stdout := newBoundedBuffer(limit, proc.kill)
	stderr := newBoundedBuffer(limit, proc.kill)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{}, &LaunchError{Executable: req.Executable, Err: err}
	}

	logging.Debug().
		Add(logging.Component("executor")).
		Add(logging.Executable(req.Executable)).
		Add(logging.Int("pid", cmd.Process.Pid)).
		Add(logging.Int("arg_count", len(req.Args))).
		Msg("process started")

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var (
		waitErr   error
		timedOut  bool
		cancelled bool
	)
	select {
	case waitErr = <-done:
		// A timer that already fired means the deadline passed first.
		timedOut = !timer.Stop()
		// Reap anything the child left running in its group.
		proc.kill()
	case <-timer.C:
		timedOut = true
		proc.kill()
		waitErr = <-done
	case <-ctx.Done():
		cancelled = true
		proc.kill()
		waitErr = <-done
	}

	res := Result{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		ExitCode:  exitCode(cmd, waitErr),
		TimedOut:  timedOut,
		Cancelled: cancelled && !timedOut,
		Truncated: stdout.Overflowed() || stderr.Overflowed(),
		Duration:  time.Since(start),
	}

	if errors.Is(waitErr, exec.ErrWaitDelay) {
		logging.Debug().
			Add(logging.Component("executor")).
			Add(logging.Executable(req.Executable)).
			Msg("output pipes held open after exit")
	}
	if res.Truncated {
		res.Stderr += fmt.Sprintf("\nOutput size limit exceeded (%d bytes)", limit)
	}
	switch {
	case res.TimedOut:
		res.ExitCode = -1
		res.Stderr = fmt.Sprintf("Tool execution timed out after %dms\n", timeout.Milliseconds()) + res.Stderr
	case res.Cancelled:
		res.ExitCode = -1
		res.Stderr = "Tool execution cancelled\n" + res.Stderr
	}
	res.Success = res.ExitCode == 0 && !res.TimedOut && !res.Truncated && !res.Cancelled

	e.logResult(req.Executable, res)
	return res, nil
}

func (e *Executor) environ() []string {
	env := append(os.Environ(), "PYTHONUNBUFFERED=1")
	for k, v := range e.config.Environment {
		env = append(env, k+"="+v)
	}
	return env
}

func (e *Executor) logResult(executable string, res Result) {
	var ev *logging.LogEvent
	switch {
	case res.TimedOut:
		ev = logging.Warn().Add(logging.Reason("timeout"))
	case res.Truncated:
		ev = logging.Warn().Add(logging.Reason("output_limit"))
	case res.Cancelled:
		ev = logging.Warn().Add(logging.Reason("cancelled"))
	default:
		ev = logging.Debug()
	}
	ev.Add(logging.Component("executor")).
		Add(logging.Executable(executable)).
		Add(logging.ExitCode(res.ExitCode)).
		Add(logging.Bool("success", res.Success)).
		Add(logging.Bytes("stdout_bytes", int64(len(res.Stdout)))).
		Add(logging.Bytes("stderr_bytes", int64(len(res.Stderr)))).
		Add(logging.Duration(res.Duration)).
		Msg("process finished")
}

// exitCode prefers the process state, so an exit status survives pipe
// errors such as exec.ErrWaitDelay.
func exitCode(cmd *exec.Cmd, err error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
