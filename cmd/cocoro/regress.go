package main

import "github.com/spf13/cobra"

// regressCmd is a teacher-echoing alias: maestro exposes one verb per
// subcommand (`maestro queue`, `maestro status`, ...) and cocotb's own
// regression runner is conventionally invoked as "regress" rather than
// "run" in CI scripts. Both names run exactly the same thing.
var regressCmd = &cobra.Command{
	Use:   "regress",
	Short: "Alias for \"run\"",
	RunE:  runRegression,
}

func init() {
	regressCmd.Flags().String("results", "", "path to write results.msgpack (optional)")
	regressCmd.Flags().String("metrics-addr", "", "address to serve /metrics on, e.g. :9090 (optional)")
	regressCmd.Flags().String("log-level", "info", "debug|info|warn|error")
}
