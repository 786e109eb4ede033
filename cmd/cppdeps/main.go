package main

import (
	"os"

	"github.com/garagon/cppdeps/cmd/cppdeps/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(2)
	}
}
