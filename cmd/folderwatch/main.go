// Package main is the entry point for the folderwatch CLI.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "folderwatch: %v\n", err)
		os.Exit(1)
	}
}
