package main

import (
	"os"

	"github.com/pyspur-dev/workflow-engine/cli"
)

func main() {
	if err := cli.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
