package main

import (
	"os"

	"github.com/grabtune/grabtune/cmd/grabtune/commands"
)

func main() {
	if err := commands.NewCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
