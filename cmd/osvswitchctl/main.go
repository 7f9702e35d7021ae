// Package main is the entry point for the osvswitchctl binary.
package main

import (
	"os"

	"github.com/veesix-networks/osvswitch/cmd/osvswitchctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
