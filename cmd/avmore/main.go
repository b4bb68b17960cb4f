// Command avmore is the development harness for the avmore-go interpreter:
// a thin Cobra CLI wrapping internal/vm, built the way the teacher's
// runtime/cli package builds its own command tree. Out of scope for core
// compliance (SPEC_FULL.md "MODULE: CLI") but the reference host-adapter
// wiring an embedder would otherwise have to write itself.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
