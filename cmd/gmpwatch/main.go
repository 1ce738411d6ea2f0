package main

import (
	"os"

	"gmpwatch/cmd/gmpwatch/commands"
)

// main is the entry point for the gmpwatch CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
