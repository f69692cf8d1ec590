// Command driftbench serves the demo shop, drifts its locators, and runs
// the end-to-end suite against it.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/driftbench/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}

	// Commands report their own errors; anything else is a usage error
	// raised by cobra before a command ran.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCommandError)
	}
	os.Exit(exitErr.Code)
}
