// Package main provides the sheetquery command.
package main

import (
	"os"

	"github.com/nao1215/sheetquery/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
