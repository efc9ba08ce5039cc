package main

import (
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// watchCmd re-runs the regression on every save under a watched
// directory, the same fsnotify.Write/fsnotify.Create event loop the
// teacher's Daemon runs against its queue directory, aimed here at a
// testbench source tree instead of a task queue.
var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Re-run the regression whenever a file under <dir> changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().String("results", "", "path to write results.msgpack (optional)")
	watchCmd.Flags().String("metrics-addr", "", "address to serve /metrics on, e.g. :9090 (optional)")
	watchCmd.Flags().String("log-level", "info", "debug|info|warn|error")
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "cocoro watch: create fsnotify watcher")
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return errors.Wrapf(err, "cocoro watch: watch %s", dir)
	}

	fmt.Fprintf(os.Stdout, "cocoro watch: watching %s, running once now\n", dir)
	if _, err := doRun(cmd); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			fmt.Fprintf(os.Stdout, "cocoro watch: %s changed, re-running\n", event.Name)
			if _, err := doRun(cmd); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "cocoro watch: fsnotify error: %v\n", err)
		}
	}
}
