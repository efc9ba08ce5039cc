package handle_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benchsim/cocoro/internal/gpi"
	"github.com/benchsim/cocoro/internal/handle"
)

type fakeAdapter struct {
	gpi.Adapter
	roots    map[string]gpi.Handle
	children map[string]map[string]gpi.Handle
	values   map[gpi.Handle]int64
	lookups  int
}

func (a *fakeAdapter) GetRootHandle(name string) (gpi.Handle, bool) {
	h, ok := a.roots[name]
	return h, ok
}

func (a *fakeAdapter) GetHandleByName(parent gpi.Handle, name string) (gpi.Handle, bool) {
	a.lookups++
	kids, ok := a.children[parent.(string)]
	if !ok {
		return nil, false
	}
	h, ok := kids[name]
	return h, ok
}

func (a *fakeAdapter) GetSignalValueLong(h gpi.Handle) int64 { return a.values[h] }
func (a *fakeAdapter) GetSignalValueReal(h gpi.Handle) float64 { return float64(a.values[h]) }

type fakeWriter struct {
	writes []struct {
		h     gpi.Handle
		value int32
	}
}

func (w *fakeWriter) QueueWrite(h gpi.Handle, value int32, mode gpi.DepositMode) {
	w.writes = append(w.writes, struct {
		h     gpi.Handle
		value int32
	}{h, value})
}

func newFixture() (*fakeAdapter, *fakeWriter) {
	a := &fakeAdapter{
		roots: map[string]gpi.Handle{"dut": "dut"},
		children: map[string]map[string]gpi.Handle{
			"dut": {"clk": "dut.clk"},
		},
		values: map[gpi.Handle]int64{"dut.clk": 1},
	}
	return a, &fakeWriter{}
}

func TestRootLooksUpByName(t *testing.T) {
	a, w := newFixture()
	h, err := handle.Root(a, w, "dut")
	require.NoError(t, err)
	require.Equal(t, "dut", h.Name())
	require.Equal(t, gpi.Handle("dut"), h.Raw())
}

func TestRootMissingNameErrors(t *testing.T) {
	a, w := newFixture()
	_, err := handle.Root(a, w, "nope")
	require.Error(t, err)
}

func TestChildMemoizesHitsAndMisses(t *testing.T) {
	a, w := newFixture()
	dut, err := handle.Root(a, w, "dut")
	require.NoError(t, err)

	clk, err := dut.Child("clk")
	require.NoError(t, err)
	require.Equal(t, "clk", clk.Name())

	_, err = dut.Child("clk")
	require.NoError(t, err)
	require.Equal(t, 1, a.lookups, "a repeated hit must not call the adapter again")

	_, err = dut.Child("missing")
	require.Error(t, err)
	_, err = dut.Child("missing")
	require.Error(t, err)
	require.Equal(t, 2, a.lookups, "a repeated miss must not call the adapter again")
}

func TestValueReadsReflectAdapterState(t *testing.T) {
	a, w := newFixture()
	dut, err := handle.Root(a, w, "dut")
	require.NoError(t, err)
	clk, err := dut.Child("clk")
	require.NoError(t, err)

	require.True(t, clk.Value().Bool())
	require.Equal(t, int32(1), clk.Value().Int32())
}

func TestValueWritesQueueThroughWriterNotApplied(t *testing.T) {
	a, w := newFixture()
	dut, err := handle.Root(a, w, "dut")
	require.NoError(t, err)
	clk, err := dut.Child("clk")
	require.NoError(t, err)

	clk.Value().SetBool(false)
	require.Len(t, w.writes, 1)
	require.Equal(t, int32(0), w.writes[0].value)
	require.True(t, clk.Value().Bool(), "a queued write must not be visible until the scheduler flushes it")
}
