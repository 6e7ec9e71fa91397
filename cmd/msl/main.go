package main

import (
	"os"

	"msl/cmd/msl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
