package cli

import (
	"io"
	"strings"
)

// nopCloser hides any Close method of the wrapped writer.
type nopCloser struct {
	io.Writer
}

// indent prefixes every line after the first with prefix.
func indent(s, prefix string) string {
	return strings.ReplaceAll(s, "\n", "\n"+prefix)
}
