package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/vvka-141/graphload/internal/cli"
	"github.com/vvka-141/graphload/pkg/graphload"
)

func main() {
	// Recover from panics to ensure graceful exits with stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(graphload.ExitPanic)
		}
	}()

	if err := cli.Execute(); err != nil {
		os.Exit(graphload.ExitCodeForError(err))
	}
}
