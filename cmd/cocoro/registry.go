package main

import (
	"github.com/benchsim/cocoro/examples/axilsoak"
	"github.com/benchsim/cocoro/examples/dff"
	"github.com/benchsim/cocoro/internal/gpi"
	"github.com/benchsim/cocoro/internal/gpi/simhost"
	"github.com/benchsim/cocoro/internal/handle"
	"github.com/benchsim/cocoro/internal/scheduler"
	"github.com/benchsim/cocoro/internal/task"
)

// testFactory builds a test body given the scheduler and toplevel handle
// a run resolved.
type testFactory func(sched *scheduler.Scheduler, dut *handle.Handle) func(*task.Task) error

// fakeFixture wires the fake toplevel signals and behavioral stub a
// bundled example needs before its test body runs. cocoro has no
// dynamic module loader (§1's "no FFI/dynamic loading" non-goal), so
// its two bundled examples are wired in directly here instead of
// discovered at runtime, the same way a real simulator's toplevel would
// already have these signals when `--profile` names a real backend.
type fakeFixture func(adapter *simhost.Adapter)

var builtinTests = map[string]testFactory{
	"test_dff_sample": dff.SampleTest,
	"test_axil_soak":  axilsoak.SoakTest,
}

var fakeFixtures = map[string]fakeFixture{
	"test_dff_sample": func(adapter *simhost.Adapter) {
		clk := adapter.AddSignal("dut.clk", 0)
		d := adapter.AddSignal("dut.d", 0)
		q := adapter.AddSignal("dut.q", 0)
		dff.WireRegister(adapter, clk, d, q)
	},
	"test_axil_soak": func(adapter *simhost.Adapter) {
		names := []string{
			"clk",
			"awvalid", "awready", "awaddr",
			"wvalid", "wready", "wdata", "wstrb",
			"bvalid", "bready", "bresp",
			"arvalid", "arready", "araddr",
			"rvalid", "rready", "rdata", "rresp",
		}
		sig := make(map[string]gpi.Handle, len(names))
		for _, name := range names {
			sig[name] = adapter.AddSignal("dut."+name, 0)
		}
		axilsoak.WireSlave(adapter, sig["clk"], sig)
	},
}
