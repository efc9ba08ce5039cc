// Package runner implements the test registry and serial execution loop
// described in spec.md §4.5: an ordered list of registered tests, run
// one at a time with wall-clock timing, each followed by bulk
// cancellation of any leftover tasks (a spawned-and-never-joined Clock
// generator, for instance) before the next test starts.
package runner

import (
	"fmt"
	"time"

	"github.com/benchsim/cocoro/internal/gpi"
	"github.com/benchsim/cocoro/internal/logger"
	"github.com/benchsim/cocoro/internal/metrics"
	"github.com/benchsim/cocoro/internal/scheduler"
	"github.com/benchsim/cocoro/internal/task"
)

// TestResult records one test's outcome for the summary banner and for
// results.msgpack (§4.5, §6).
type TestResult struct {
	Name    string        `msgpack:"name"`
	Passed  bool          `msgpack:"passed"`
	Err     string        `msgpack:"error,omitempty"`
	Elapsed time.Duration `msgpack:"elapsed"`
}

type registeredTest struct {
	name string
	body func(*task.Task) error
}

// Runnable is implemented by a GPI adapter that can drive simulated time
// forward on its own, such as internal/gpi/simhost.Adapter. A real
// cgo-linked backend doesn't implement it — the HDL simulator itself
// drives time, and cocoro's process just responds to its callbacks — so
// RunAll only calls it when present.
type Runnable interface {
	RunUntil(done func() bool)
}

// TestRunner runs an ordered set of tests against one scheduler/adapter
// pair, the Go-native analogue of cocotb's TestRunner (§4.5).
type TestRunner struct {
	sched   *scheduler.Scheduler
	adapter gpi.Adapter
	log     *logger.Logger
	metrics *metrics.Registry

	tests   []registeredTest
	results []TestResult
}

// New constructs a TestRunner. log and m may both be nil.
func New(sched *scheduler.Scheduler, adapter gpi.Adapter, log *logger.Logger, m *metrics.Registry) *TestRunner {
	return &TestRunner{sched: sched, adapter: adapter, log: log, metrics: m}
}

// Register appends a test to the run order. Tests execute strictly in
// registration order (§4.5) — there is no parallelism across tests, only
// within one test's spawned tasks.
func (r *TestRunner) Register(name string, body func(*task.Task) error) {
	r.tests = append(r.tests, registeredTest{name: name, body: body})
}

// RunAll executes every registered test serially and returns their
// results in registration order.
func (r *TestRunner) RunAll() []TestResult {
	r.results = nil
	for _, rt := range r.tests {
		r.results = append(r.results, r.runOne(rt))
	}
	return r.results
}

// Results returns the results collected by the most recent RunAll.
func (r *TestRunner) Results() []TestResult { return r.results }

// ExitCode is the process exit code spec.md §6 requires: zero only if
// every test passed.
func (r *TestRunner) ExitCode() int {
	for _, res := range r.results {
		if !res.Passed {
			return 1
		}
	}
	return 0
}

func (r *TestRunner) runOne(rt registeredTest) TestResult {
	if r.log != nil {
		r.log.Infof("running %s", rt.name)
	}
	r.sched.SetTestCompletionHandler(func(t *task.Task) {
		if r.log != nil {
			r.log.Debugf("%s: test task completed", rt.name)
		}
	})

	start := time.Now()
	t := r.sched.StartTest(rt.body)
	if r.metrics != nil {
		r.metrics.TasksSpawned.Inc()
	}

	r.sched.Drain(true)
	if runnable, ok := r.adapter.(Runnable); ok && !t.Done() {
		runnable.RunUntil(t.Done)
	}
	elapsed := time.Since(start)

	// End-of-test cleanup (§5): cancel and drain every leftover task —
	// e.g. a Clock generator spawned detached and never joined.
	r.sched.CancelAllExcept(nil)
	r.sched.Drain(true)

	res := TestResult{Name: rt.name, Elapsed: elapsed}
	if err := t.Err(); err != nil {
		res.Passed = false
		res.Err = err.Error()
	} else {
		res.Passed = true
	}

	if r.metrics != nil {
		r.metrics.TasksCompleted.Inc()
		if res.Passed {
			r.metrics.TestsPassed.Inc()
		} else {
			r.metrics.TestsFailed.Inc()
		}
		r.metrics.ReadyQueueLen.Set(float64(r.sched.ReadyLen()))
	}

	if r.log != nil {
		if res.Passed {
			r.log.Pass(res.Name, elapsed.Seconds())
		} else {
			r.log.Fail(res.Name, elapsed.Seconds(), fmt.Errorf("%s", res.Err))
		}
	}
	return res
}
