package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/claudeck/claudeck/internal/cmd"
	"github.com/claudeck/claudeck/internal/tui"
)

// Exit codes: 0 normal quit, 2 unusable CLI arguments, 3 fatal watcher
// failure, 1 anything else.
func main() {
	err := cmd.Execute()
	if err == nil {
		return
	}

	fmt.Fprintf(os.Stderr, "claudeck: %v\n", err)
	switch {
	case errors.Is(err, cmd.ErrUsage):
		os.Exit(2)
	case errors.Is(err, tui.ErrWatcherFatal):
		os.Exit(3)
	default:
		os.Exit(1)
	}
}
