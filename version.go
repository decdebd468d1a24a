// Package pdftools provides the version information for pdftools-mcp.
package pdftools

// Version is the current version of pdftools-mcp.
const Version = "1.0.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
