// Package main provides the entry point for the fusemcp CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/fusemcp/cmd/fusemcp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
