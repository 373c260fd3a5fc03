// The main package for the visasq-watch executable.
package main

import (
	"github.com/ymgch/visasq-watch/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
