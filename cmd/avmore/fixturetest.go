package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/open-flash/avmore-go/internal/host"
	"github.com/open-flash/avmore-go/internal/vm"
)

type fixtureTestFlags struct {
	swfVersion uint8
	actionCap  int
}

func newFixtureTestCommand(root *rootFlags) *cobra.Command {
	flags := &fixtureTestFlags{}
	cmd := &cobra.Command{
		Use:   "fixture-test DIR",
		Short: "Run every main.avm1/main.log pair under DIR and report mismatches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFixtures(args[0], root, flags)
		},
	}
	cmd.Flags().Uint8Var(&flags.swfVersion, "swf-version", 6, "declared SWF container version")
	cmd.Flags().IntVar(&flags.actionCap, "action-cap", 0, "max actions per run (0 = interpreter default)")
	return cmd
}

// runFixtures implements the spec.md §6 "Test fixture format" convention:
// one directory per test holding main.avm1 (raw byte-code) and main.log
// (expected trace/warning lines), run with a LoggingHost and compared
// byte-for-byte.
func runFixtures(root string, rootCmdFlags *rootFlags, flags *fixtureTestFlags) error {
	dirs, err := fixtureDirs(root)
	if err != nil {
		return err
	}
	if len(dirs) == 0 {
		return fmt.Errorf("avmore: no main.avm1/main.log pairs found under %s", root)
	}

	logger := newLogger(rootCmdFlags)
	failures := 0
	for _, dir := range dirs {
		ok, detail, err := runFixture(dir, flags, logger)
		if err != nil {
			return fmt.Errorf("avmore: %s: %w", dir, err)
		}
		if ok {
			fmt.Printf("ok   %s\n", dir)
			continue
		}
		failures++
		fmt.Printf("FAIL %s\n%s\n", dir, detail)
	}
	if failures > 0 {
		return fmt.Errorf("avmore: %d fixture(s) failed", failures)
	}
	return nil
}

func fixtureDirs(root string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if d.Name() != "main.avm1" {
			return nil
		}
		dirs = append(dirs, filepath.Dir(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("avmore: walk %s: %w", root, err)
	}
	sort.Strings(dirs)
	return dirs, nil
}

func runFixture(dir string, flags *fixtureTestFlags, logger *slog.Logger) (ok bool, detail string, err error) {
	code, err := os.ReadFile(filepath.Join(dir, "main.avm1"))
	if err != nil {
		return false, "", fmt.Errorf("read main.avm1: %w", err)
	}
	wantBytes, err := os.ReadFile(filepath.Join(dir, "main.log"))
	if err != nil {
		return false, "", fmt.Errorf("read main.log: %w", err)
	}

	loggingHost := host.NewLoggingHost()
	machine, err := vm.New(loggingHost, flags.swfVersion, flags.actionCap, logger)
	if err != nil {
		return false, "", fmt.Errorf("create vm: %w", err)
	}
	id := machine.CreateScript(code, dir, "")
	if _, _, err := machine.RunToCompletion(id); err != nil {
		return false, "", fmt.Errorf("run: %w", err)
	}

	got := loggingHost.Joined()
	want := string(wantBytes)
	if got == want {
		return true, "", nil
	}
	return false, fmt.Sprintf("--- want ---\n%s--- got ---\n%s", want, got), nil
}
