// Command tplcheck validates the arguments of parameterized circuit templates.
package main

import (
	"os"

	"github.com/roach88/tplcheck/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
