package executor

import "errors"

var (
	// ErrLaunchFailed is matched by every LaunchError.
	ErrLaunchFailed = errors.New("failed to launch executable")

	// ErrNoSearchRoot indicates the executor was configured without a tools directory.
	ErrNoSearchRoot = errors.New("executor: search root is required")

	// ErrNotFound indicates the executable does not exist in the search root.
	ErrNotFound = errors.New("executable not found")

	// ErrNotExecutable indicates the file exists but cannot be executed.
	ErrNotExecutable = errors.New("file is not executable")

	// ErrInvalidExecutable indicates the executable name is not a bare file name.
	ErrInvalidExecutable = errors.New("invalid executable name")

	// ErrBusy indicates the concurrency limiter refused or aborted the call.
	ErrBusy = errors.New("executor unavailable")
)

// LaunchError reports that a subprocess could not be started. It signals a
// configuration problem rather than a tool failure.
type LaunchError struct {
	Executable string
	Err        error
}

func (e *LaunchError) Error() string {
	return "Failed to execute " + e.Executable + ": " + e.Err.Error()
}

func (e *LaunchError) Unwrap() []error {
	return []error{ErrLaunchFailed, e.Err}
}
