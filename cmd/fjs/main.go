package main

import (
	"fmt"
	"os"
)

// Version information set at build time.
var version = "dev"

func main() {
	root, opts := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, colorize(useColor(opts), "\033[0;31m", "Error: "+err.Error()))
		os.Exit(1)
	}
}
