package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/open-flash/avmore-go/internal/host"
	"github.com/open-flash/avmore-go/internal/vm"
)

type runFlags struct {
	swfVersion uint8
	actionCap  int
	watch      bool
	dumpState  string
	config     string
}

func newRunCommand(root *rootFlags) *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run FILE.avm1",
		Short: "Load and run an AVM1 byte-code file to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(args[0], root, flags)
		},
	}
	cmd.Flags().Uint8Var(&flags.swfVersion, "swf-version", 6, "declared SWF container version")
	cmd.Flags().IntVar(&flags.actionCap, "action-cap", 0, "max actions per run (0 = interpreter default)")
	cmd.Flags().BoolVar(&flags.watch, "watch", false, "re-run FILE each time it changes on disk")
	cmd.Flags().StringVar(&flags.dumpState, "dump-state", "", "write a CBOR state snapshot to this path after running")
	cmd.Flags().StringVar(&flags.config, "config", "", "load SWF version/action cap/debug from a vm.json file")
	return cmd
}

func runOnce(path string, root *rootFlags, flags *runFlags) error {
	swfVersion := flags.swfVersion
	actionCap := flags.actionCap
	if flags.config != "" {
		cfg, err := vm.LoadConfig(flags.config)
		if err != nil {
			return err
		}
		swfVersion = cfg.SWFVersion
		actionCap = cfg.ActionCap
		if cfg.Debug {
			root.debug = true
		}
	}

	code, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("avmore: read %s: %w", path, err)
	}

	hostAdapter := host.NewNativeHost(
		func(msg string) { fmt.Println(msg) },
		func(msg string) { fmt.Fprintln(os.Stderr, msg) },
	)
	machine, err := vm.New(hostAdapter, swfVersion, actionCap, newLogger(root))
	if err != nil {
		return fmt.Errorf("avmore: create vm: %w", err)
	}
	id := machine.CreateScript(code, path, "")
	if _, _, err := machine.RunToCompletion(id); err != nil {
		return fmt.Errorf("avmore: run %s: %w", path, err)
	}

	if flags.dumpState != "" {
		if err := writeDumpState(machine, flags.dumpState); err != nil {
			return err
		}
	}

	if flags.watch {
		return watchAndRerun(path, root, flags)
	}
	return nil
}

func writeDumpState(machine *vm.VM, path string) error {
	data, err := vm.MarshalState(machine.Snapshot())
	if err != nil {
		return fmt.Errorf("avmore: marshal state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("avmore: write %s: %w", path, err)
	}
	return nil
}

// watchAndRerun re-registers and re-runs path every time fsnotify reports
// it changed, per SPEC_FULL.md's `avmore run --watch FILE` entry. Blocks
// until the watcher errors or the process is interrupted.
func watchAndRerun(path string, root *rootFlags, flags *runFlags) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("avmore: create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("avmore: watch %s: %w", dir, err)
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			rerunFlags := *flags
			rerunFlags.watch = false
			if err := runOnce(path, root, &rerunFlags); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("avmore: watcher error: %w", err)
		}
	}
}
