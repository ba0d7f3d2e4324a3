// Package main is the entry point for cardwatch.
package main

import (
	"os"

	"github.com/cardwatch/cardwatch/cmd/cardwatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
