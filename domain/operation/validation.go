package operation

// ValidationResult is the outcome of a boundary check.
// Error is non-empty exactly when Valid is false.
type ValidationResult struct {
	Valid bool
	Error string
}

// Valid returns a passing result.
func Valid() ValidationResult {
	return ValidationResult{Valid: true}
}

// Invalid returns a failing result carrying msg.
func Invalid(msg string) ValidationResult {
	if msg == "" {
		msg = "validation failed"
	}
	return ValidationResult{Valid: false, Error: msg}
}

// Err converts a failing result into an error.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Message: r.Error}
}

// ValidationError carries a user-facing validation message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
