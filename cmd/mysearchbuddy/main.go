// Package main provides the entry point for the my-search-buddy CLI.
package main

import (
	"fmt"
	"os"

	"github.com/DrDavidL/my-search-buddy/cmd/mysearchbuddy/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
