package axil_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benchsim/cocoro/internal/bfm/axil"
	"github.com/benchsim/cocoro/internal/gpi"
	"github.com/benchsim/cocoro/internal/gpi/simhost"
	"github.com/benchsim/cocoro/internal/handle"
	"github.com/benchsim/cocoro/internal/scheduler"
	"github.com/benchsim/cocoro/internal/task"
	"github.com/benchsim/cocoro/internal/trigger"
)

var axilSignals = []string{
	"clk",
	"awvalid", "awready", "awaddr",
	"wvalid", "wready", "wdata", "wstrb",
	"bvalid", "bready", "bresp",
	"arvalid", "arready", "araddr",
	"rvalid", "rready", "rdata", "rresp",
}

// wireFakeSlave is a minimal single-transaction slave: always ready,
// one word of memory per address, response held high for a full extra
// edge so a driver registering its wait after the slave's own watcher
// never misses it.
func wireFakeSlave(adapter *simhost.Adapter, sig map[string]gpi.Handle) {
	mem := make(map[int64]int64)
	set := func(name string, v int32) { adapter.SetSignalValueInt(sig[name], v, gpi.Deposit) }
	get := func(name string) int64 { return adapter.GetSignalValueLong(sig[name]) }

	set("awready", 1)
	set("wready", 1)
	set("arready", 1)

	var bLive, bArm, rLive, rArm bool
	var onEdge func()
	onEdge = func() {
		if bLive {
			set("bvalid", 0)
			bLive = false
		}
		if bArm {
			bLive = true
			bArm = false
		}
		if rLive {
			set("rvalid", 0)
			rLive = false
		}
		if rArm {
			rLive = true
			rArm = false
		}
		if get("awvalid") != 0 && get("wvalid") != 0 {
			mem[get("awaddr")] = get("wdata")
			set("bvalid", 1)
			set("bresp", 0)
			bArm = true
		}
		if get("arvalid") != 0 {
			set("rdata", int32(mem[get("araddr")]))
			set("rresp", 0)
			set("rvalid", 1)
			rArm = true
		}
		adapter.RegisterValueChangeCallback(onEdge, sig["clk"], gpi.EdgeRising)
	}
	adapter.RegisterValueChangeCallback(onEdge, sig["clk"], gpi.EdgeRising)
}

func newFixture(t *testing.T) (*simhost.Adapter, *scheduler.Scheduler, *handle.Handle, map[string]gpi.Handle) {
	t.Helper()
	adapter := simhost.New(gpi.NS)
	adapter.AddSignal("dut", 0)
	sig := make(map[string]gpi.Handle, len(axilSignals))
	for _, name := range axilSignals {
		sig[name] = adapter.AddSignal("dut."+name, 0)
	}
	wireFakeSlave(adapter, sig)

	sched := scheduler.New(adapter, nil)
	dut, err := handle.Root(adapter, sched, "dut")
	require.NoError(t, err)
	return adapter, sched, dut, sig
}

func TestNewFailsWhenASignalIsMissing(t *testing.T) {
	adapter := simhost.New(gpi.NS)
	adapter.AddSignal("dut", 0)
	adapter.AddSignal("dut.clk", 0) // only clk present, every other channel missing
	sched := scheduler.New(adapter, nil)
	dut, err := handle.Root(adapter, sched, "dut")
	require.NoError(t, err)

	_, err = axil.New(dut)
	require.Error(t, err)
}

func TestWriteThenReadRoundTrips(t *testing.T) {
	adapter, sched, dut, sig := newFixture(t)

	sched.Spawn(func(ct *task.Task) error {
		clk := sig["clk"]
		for {
			if err := ct.Await(trigger.Timer{Delay: 5, Unit: gpi.NS}); err != nil {
				return err
			}
			cur := adapter.GetSignalValueLong(clk)
			sched.QueueWrite(clk, int32(1-cur), gpi.Deposit)
		}
	})

	var got uint32
	tsk := sched.StartTest(func(t *task.Task) error {
		drv, err := axil.New(dut)
		if err != nil {
			return err
		}
		if err := drv.Reset(t); err != nil {
			return err
		}
		if err := drv.Write(t, 0x10, 0xCAFEBABE, 0); err != nil {
			return err
		}
		v, err := drv.Read(t, 0x10)
		if err != nil {
			return err
		}
		got = v
		return nil
	})
	sched.Drain(true)
	adapter.RunUntil(tsk.Done)

	require.NoError(t, tsk.Err())
	require.Equal(t, uint32(0xCAFEBABE), got)
}

// wireErrorSlave always responds to a write with a non-zero (SLVERR)
// bresp, to exercise Write's error path.
func wireErrorSlave(adapter *simhost.Adapter, sig map[string]gpi.Handle) {
	set := func(name string, v int32) { adapter.SetSignalValueInt(sig[name], v, gpi.Deposit) }
	get := func(name string) int64 { return adapter.GetSignalValueLong(sig[name]) }
	set("awready", 1)
	set("wready", 1)

	var bLive, bArm bool
	var onEdge func()
	onEdge = func() {
		if bLive {
			set("bvalid", 0)
			bLive = false
		}
		if bArm {
			bLive = true
			bArm = false
		}
		if get("awvalid") != 0 && get("wvalid") != 0 {
			set("bvalid", 1)
			set("bresp", 2) // SLVERR
			bArm = true
		}
		adapter.RegisterValueChangeCallback(onEdge, sig["clk"], gpi.EdgeRising)
	}
	adapter.RegisterValueChangeCallback(onEdge, sig["clk"], gpi.EdgeRising)
}

func TestWriteReturnsErrorOnNonZeroResponse(t *testing.T) {
	adapter := simhost.New(gpi.NS)
	adapter.AddSignal("dut", 0)
	sig := make(map[string]gpi.Handle, len(axilSignals))
	for _, name := range axilSignals {
		sig[name] = adapter.AddSignal("dut."+name, 0)
	}
	wireErrorSlave(adapter, sig)

	sched := scheduler.New(adapter, nil)
	dut, err := handle.Root(adapter, sched, "dut")
	require.NoError(t, err)

	sched.Spawn(func(ct *task.Task) error {
		clk := sig["clk"]
		for {
			if err := ct.Await(trigger.Timer{Delay: 5, Unit: gpi.NS}); err != nil {
				return err
			}
			cur := adapter.GetSignalValueLong(clk)
			sched.QueueWrite(clk, int32(1-cur), gpi.Deposit)
		}
	})

	tsk := sched.StartTest(func(t *task.Task) error {
		drv, err := axil.New(dut)
		if err != nil {
			return err
		}
		if err := drv.Reset(t); err != nil {
			return err
		}
		return drv.Write(t, 0x0, 0x1, 0)
	})
	sched.Drain(true)
	adapter.RunUntil(tsk.Done)

	require.Error(t, tsk.Err())
}
