// Command edition renders numbered generative editions.
package main

import (
	"fmt"
	"os"

	"github.com/phanxgames/edition/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
