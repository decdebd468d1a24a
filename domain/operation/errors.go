package operation

import "errors"

// ErrValidation indicates operation input failed a boundary check.
var ErrValidation = errors.New("validation failed")

// UnauthorizedMessage is returned for every rejected name. The rejected
// name is never echoed.
const UnauthorizedMessage = "Unknown or unauthorized tool"
