// Command farsdash serves the alcohol-impaired traffic fatality dashboard and
// carries a few operator tools around it.
package main

import (
	"fmt"
	"os"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "farsdash:", err)
		os.Exit(1)
	}
}
