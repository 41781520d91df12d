// Copyright (c) 2026 Visamaster Team
// Visamaster - VISA instrument inventory and address toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for Visamaster.
//
// Usage:
//
//	go run . [flags]
//	./visamaster [flags]
//
// This launches the Visamaster CLI. See --help for options.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/instrhub/visamaster/ui/cli"
)

// version is set at build time using -ldflags, e.g.:
// go build -ldflags "-X main.version=1.2.3"
var version = "dev"

// main is the entrypoint for the Visamaster CLI.
func main() {
	if os.Getenv("VISAMASTER_SHOW_VERSION") == "1" {
		fmt.Fprintf(os.Stderr, "Visamaster version: %s\n", version)
	}

	if err := cli.Execute(); err != nil {
		log.Printf("Visamaster CLI error: %v", err)
		os.Exit(1)
	}
}
