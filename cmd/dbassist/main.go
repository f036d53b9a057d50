// Package main is the entry point of the dbassist CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/dbassist/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
