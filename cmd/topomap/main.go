// Command topomap lays out, renders and explores infrastructure topology
// graphs.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		printErr(os.Stderr, "topomap: %v", err)
		os.Exit(1)
	}
}
