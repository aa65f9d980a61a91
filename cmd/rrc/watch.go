package main

import (
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
)

// watchAndRun runs compile once, then recompiles synchronously each time
// the input file is written, until the process is interrupted. Each
// recompilation is an ordinary, complete run of the pipeline: the
// compiler stays single-threaded and synchronous per spec §5, watch mode
// is only a driver loop around it.
func watchAndRun(path string, run func() error) error {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "watching %s for changes\n", path)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := run(); err != nil {
				fmt.Fprintf(os.Stderr, "%s\n", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watch error: %s\n", err)
		}
	}
}
