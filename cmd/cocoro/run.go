package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/benchsim/cocoro/internal/config"
	"github.com/benchsim/cocoro/internal/gpi"
	"github.com/benchsim/cocoro/internal/gpi/simhost"
	"github.com/benchsim/cocoro/internal/handle"
	"github.com/benchsim/cocoro/internal/logger"
	"github.com/benchsim/cocoro/internal/metrics"
	"github.com/benchsim/cocoro/internal/runner"
	"github.com/benchsim/cocoro/internal/scheduler"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a regression against a simulator profile",
	RunE:  runRegression,
}

func init() {
	runCmd.Flags().String("results", "", "path to write results.msgpack (optional)")
	runCmd.Flags().String("metrics-addr", "", "address to serve /metrics on, e.g. :9090 (optional)")
	runCmd.Flags().String("log-level", "info", "debug|info|warn|error")
}

func runRegression(cmd *cobra.Command, args []string) error {
	exitCode, err := doRun(cmd)
	if err != nil {
		return err
	}
	os.Exit(exitCode)
	return nil
}

// doRun executes one full regression and returns the process exit code
// §6 requires (zero only if every test passed), without terminating the
// process itself — cocoro watch calls this directly, once per detected
// change, and must survive a failing run to watch for the next one.
func doRun(cmd *cobra.Command) (int, error) {
	profilePath, _ := cmd.Flags().GetString("profile")
	regressionPath, _ := cmd.Flags().GetString("regression")
	if profilePath == "" {
		return 1, errors.New("cocoro run: --profile is required")
	}
	if regressionPath == "" {
		return 1, errors.New("cocoro run: --regression is required")
	}

	profile, err := config.LoadSimulatorProfile(profilePath)
	if err != nil {
		return 1, errors.Wrap(err, "cocoro run: loading simulator profile")
	}
	regression, err := config.LoadRegressionConfig(regressionPath)
	if err != nil {
		return 1, errors.Wrap(err, "cocoro run: loading regression config")
	}

	if profile.Backend != "fake" {
		return 1, errors.Errorf("cocoro run: backend %q has no cgo-linked implementation in this build; use backend \"fake\"", profile.Backend)
	}

	adapter := simhost.New(gpi.NS)
	for _, entry := range regression.Tests {
		fixture, ok := fakeFixtures[entry.Name]
		if !ok {
			return 1, errors.Errorf("cocoro run: no fake fixture registered for test %q", entry.Name)
		}
		fixture(adapter)
	}
	adapter.AddSignal("dut", 0)
	if err := adapter.Start(); err != nil {
		return 1, errors.Wrap(err, "cocoro run: starting simulator")
	}
	defer adapter.End()

	sched := scheduler.New(adapter, nil)
	dut, err := resolveToplevel(adapter, sched, profile)
	if err != nil {
		return 1, err
	}

	log := logger.New(os.Stdout, "runner", logger.ParseLevel(mustFlagString(cmd, "log-level")), adapter, gpi.NS)
	m := metrics.New()

	if addr := mustFlagString(cmd, "metrics-addr"); addr != "" {
		go func() {
			http.Handle("/metrics", m.Handler())
			_ = http.ListenAndServe(addr, nil)
		}()
	}

	r := runner.New(sched, adapter, log, m)
	for _, entry := range regression.Tests {
		factory, ok := builtinTests[entry.Name]
		if !ok {
			return 1, errors.Errorf("cocoro run: no test registered under the name %q", entry.Name)
		}
		r.Register(entry.Name, factory(sched, dut))
	}

	results := r.RunAll()
	fmt.Println(runner.Summary(results))

	if resultsPath := mustFlagString(cmd, "results"); resultsPath != "" {
		if err := runner.Persist(resultsPath, results); err != nil {
			return 1, errors.Wrap(err, "cocoro run: persisting results")
		}
	}

	return r.ExitCode(), nil
}

// resolveToplevel implements §12's TOPLEVEL fallback: try the profile's
// configured toplevel name first, and only fall back to the TOPLEVEL
// environment variable if that lookup fails. Startup aborts if both do.
func resolveToplevel(adapter *simhost.Adapter, sched *scheduler.Scheduler, profile *config.SimulatorProfile) (*handle.Handle, error) {
	dut, err := handle.Root(adapter, sched, profile.Toplevel)
	if err == nil {
		return dut, nil
	}
	if env := os.Getenv("TOPLEVEL"); env != "" {
		if dut, envErr := handle.Root(adapter, sched, env); envErr == nil {
			return dut, nil
		}
	}
	return nil, errors.Wrap(err, "cocoro run: could not resolve toplevel handle (profile and TOPLEVEL both failed)")
}

func mustFlagString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}
