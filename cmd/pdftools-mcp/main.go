// Package main provides the entry point for the pdftools-mcp server.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/felixgeelhaar/pdftools-mcp/interfaces/cli"
)

func main() {
	app := cli.New()

	if err := app.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
