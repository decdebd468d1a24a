// Package validation provides boundary checks for tool arguments: path
// safety, required fields, ranges, enumerations and file existence.
package validation

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/felixgeelhaar/pdftools-mcp/domain/operation"
)

// Path rejection messages. Checks run in this order and the first match wins.
const (
	MsgTraversal = "Directory traversal (..) is not allowed for security reasons"
	MsgAbsolute  = "Absolute paths are not allowed. Use relative paths only."
	MsgNullByte  = "Null bytes in paths are not allowed"
)

var drivePrefix = regexp.MustCompile(`^[a-zA-Z]:`)

// ValidateSafePath rejects traversal, absolute and NUL-bearing paths.
// It never touches the filesystem. Percent-encoded and symlink escapes are
// not detected.
func ValidateSafePath(path string) operation.ValidationResult {
	if strings.Contains(path, "..") {
		return operation.Invalid(MsgTraversal)
	}
	if strings.HasPrefix(path, "/") {
		return operation.Invalid(MsgAbsolute)
	}
	if drivePrefix.MatchString(path) {
		return operation.Invalid(MsgAbsolute)
	}
	if strings.ContainsRune(path, 0) {
		return operation.Invalid(MsgNullByte)
	}
	return operation.Valid()
}

// ValidatePaths checks every path in order and returns the first failure.
func ValidatePaths(paths ...string) operation.ValidationResult {
	for _, p := range paths {
		if r := ValidateSafePath(p); !r.Valid {
			return r
		}
	}
	return operation.Valid()
}

// FileChecker resolves relative paths against a working directory and
// checks that inputs exist. Only paths that already passed
// ValidateSafePath may be given to it.
type FileChecker struct {
	// Root is the directory relative paths resolve against. Empty means the
	// process working directory.
	Root string
}

// NewFileChecker creates a checker rooted at root.
func NewFileChecker(root string) FileChecker {
	return FileChecker{Root: root}
}

// Resolve returns the host path for a relative argument.
func (c FileChecker) Resolve(path string) string {
	if c.Root == "" {
		return path
	}
	return filepath.Join(c.Root, path)
}

// Exists reports a failure unless path is an existing readable file or
// directory.
func (c FileChecker) Exists(path string) operation.ValidationResult {
	f, err := os.Open(c.Resolve(path))
	if err != nil {
		return operation.Invalid("File not found or not readable: " + path)
	}
	_ = f.Close()
	return operation.Valid()
}

// AllExist checks every path in order and returns the first failure.
func (c FileChecker) AllExist(paths ...string) operation.ValidationResult {
	for _, p := range paths {
		if r := c.Exists(p); !r.Valid {
			return r
		}
	}
	return operation.Valid()
}
