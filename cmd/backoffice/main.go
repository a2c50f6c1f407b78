// Package main is the entry point of the backoffice command.
package main

import (
	"os"

	"github.com/leapstack-labs/backoffice/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
