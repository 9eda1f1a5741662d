package main

import (
	"os"

	"github.com/wonny/movers/cmd/movers/commands"
)

// main is the entry point for the movers CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
