// Command scenekit synthesizes, reconciles and describes diagram scenes.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/scenekit/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
