package main

import (
	"os"

	"github.com/temblorlabs/temblor/cmd/temblor/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
