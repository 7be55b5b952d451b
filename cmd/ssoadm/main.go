// Package main is the entry point for the ssoadm binary.
package main

import (
	"os"

	"github.com/isometry/ssoadmin/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
