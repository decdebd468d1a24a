package pack

import "errors"

// Domain errors for pack operations.
var (
	// ErrInvalidPack is returned when a pack cannot be installed.
	ErrInvalidPack = errors.New("invalid pack")

	// ErrDuplicateTool is returned when a pack lists the same tool twice.
	ErrDuplicateTool = errors.New("duplicate tool in pack")
)
