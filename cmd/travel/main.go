package main

import (
	"os"

	"github.com/travelrag/travel-cli/cmd/cli"
)

func main() {
	if err := cli.GetCommandOptions().Execute(); err != nil {
		cli.PrintError(err)
		os.Exit(1)
	}
}
