// Command cocoro runs a regression of registered coroutine testbenches
// against the fake in-process GPI backend, the way `surge` and `maestro`
// each expose their own tool as a single root cobra command. A profile
// naming any backend other than "fake" is rejected: this build has no
// cgo-linked simulator backend.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "cocoro",
	Short: "A cooperative coroutine scheduler for HDL testbenches",
	Long:  `cocoro drives GPI-style HDL testbenches written as Go coroutines through a single-threaded, phase-aware scheduler.`,
}

func main() {
	rootCmd.Version = version
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(regressCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("profile", "", "path to a simulator profile TOML file")
	rootCmd.PersistentFlags().String("regression", "", "path to a regression config YAML file")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
