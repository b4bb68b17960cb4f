package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// rootFlags holds the persistent flags shared by every subcommand,
// mirroring the harness.go pattern of a struct of bound flag values
// threaded into each RunE closure.
type rootFlags struct {
	debug bool
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:   "avmore",
		Short: "Run and inspect AVM1 byte-code scripts",
	}
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug-level internal logging")

	root.AddCommand(newRunCommand(flags))
	root.AddCommand(newFixtureTestCommand(flags))
	return root
}

// newLogger builds the slog logger internal diagnostics use, matching the
// teacher's lexer.go handler: no timestamp/level attrs in the default
// (non-debug) mode, stderr destination always.
func newLogger(flags *rootFlags) *slog.Logger {
	level := slog.LevelInfo
	if flags.debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if !flags.debug && (a.Key == slog.TimeKey || a.Key == slog.LevelKey) {
				return slog.Attr{}
			}
			return a
		},
	}))
}
