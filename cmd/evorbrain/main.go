// Package main provides the entry point for the evorbrain CLI.
package main

import (
	"os"

	"github.com/nhle/evorbrain/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
