// The main package for the puzzlearchive executable.
package main

import (
	"github.com/JakeFAU/puzzle-archive/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
