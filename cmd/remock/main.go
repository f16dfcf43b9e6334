// Command remock inspects and maintains record/replay fixture stores.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/remock/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
