// Command riwaq renders, validates and runs SQL request documents.
package main

import (
	"os"

	"github.com/riwaq/riwaq-go/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
