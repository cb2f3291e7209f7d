package main

import (
	"fmt"
	"os"

	"github.com/rony4d/go-ismp-bsc/cmd/relayer/launcher"
)

func main() {
	// Gather the full list of command-line arguments and hand them to the launcher
	if err := launcher.Launch(os.Args); err != nil {
		// Report the issue to stderr so the user sees it
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
