package main

import (
	"os"

	"github.com/fieldops/dispatch/cli"
)

func main() {
	if err := cli.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
