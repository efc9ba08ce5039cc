// Package simhost implements gpi.Adapter without linking to a real HDL
// simulator: an in-process virtual-time engine driving a flat signal
// table. It exists because this module has no real simulator available
// to test against (SPEC_FULL.md §10) — every scheduler, trigger, and
// example test in this repo runs against simhost instead of cgo.
//
// Time advances only when the timed-callback heap is popped; readwrite
// and readonly callbacks drain to a fixed point at the current simulated
// instant before time is allowed to move, and next-time-step callbacks
// run when it does move, ahead of the timed callbacks due at the new
// instant, mirroring the phase ordering a real simulator kernel enforces.
package simhost

import (
	"container/heap"
	"fmt"

	"github.com/benchsim/cocoro/internal/gpi"
)

type signal struct {
	path    string
	value   int64
	real    float64
	watchers []watcher
}

type watcher struct {
	fn   func()
	edge gpi.EdgeKind
}

type timedEntry struct {
	at uint64
	fn func()
	seq int
}

type timedHeap []timedEntry

func (h timedHeap) Len() int { return len(h) }
func (h timedHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}
func (h timedHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *timedHeap) Push(x any)         { *h = append(*h, x.(timedEntry)) }
func (h *timedHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Adapter is a fake gpi.Adapter suitable for unit tests and the
// bundled examples. Construct with New, register signals with
// AddSignal, then hand it to scheduler.New and drive it with Run.
type Adapter struct {
	precision gpi.Unit
	now       uint64
	seq       int

	signals map[string]*signal

	timed   timedHeap
	rwQ     []func()
	roQ     []func()
	ntsQ    []func()

	startOfSim []func() error
	endOfSim   []func() error

	registered bool
}

// New constructs an Adapter reporting precision as its simulator
// precision (matching GetSimPrecision).
func New(precision gpi.Unit) *Adapter {
	return &Adapter{
		precision: precision,
		signals:   make(map[string]*signal),
	}
}

// AddSignal registers a named signal (a dotted path, e.g. "dut.clk")
// with an initial integer value, returning its gpi.Handle.
func (a *Adapter) AddSignal(path string, initial int32) gpi.Handle {
	s := &signal{path: path, value: int64(initial)}
	a.signals[path] = s
	return s
}

func (a *Adapter) sig(h gpi.Handle) *signal {
	s, ok := h.(*signal)
	if !ok {
		panic(fmt.Sprintf("simhost: not a signal handle: %#v", h))
	}
	return s
}

// --- gpi.Adapter ---

func (a *Adapter) GetRootHandle(name string) (gpi.Handle, bool) {
	s, ok := a.signals[name]
	return s, ok
}

func (a *Adapter) GetHandleByName(parent gpi.Handle, name string) (gpi.Handle, bool) {
	p := a.sig(parent)
	s, ok := a.signals[p.path+"."+name]
	return s, ok
}

func (a *Adapter) GetSignalValueLong(h gpi.Handle) int64 { return a.sig(h).value }

func (a *Adapter) GetSignalValueReal(h gpi.Handle) float64 { return a.sig(h).real }

func (a *Adapter) GetSimTime() uint64 { return a.now }

func (a *Adapter) GetSimPrecision() gpi.Unit { return a.precision }

func (a *Adapter) HasRegisteredImpl() bool { return a.registered }

func (a *Adapter) SetSignalValueInt(h gpi.Handle, value int32, _ gpi.DepositMode) {
	s := a.sig(h)
	old := s.value
	s.value = int64(value)
	a.fireEdges(s, old, s.value)
}

func (a *Adapter) fireEdges(s *signal, old, new int64) {
	if old == new {
		return
	}
	var remaining []watcher
	fired := s.watchers
	s.watchers = nil
	for _, w := range fired {
		matched := false
		switch w.edge {
		case gpi.EdgeRising:
			matched = old == 0 && new != 0
		case gpi.EdgeFalling:
			matched = old != 0 && new == 0
		case gpi.EdgeValueChange:
			matched = true
		}
		if matched {
			w.fn()
		} else {
			remaining = append(remaining, w)
		}
	}
	// Keep watchers registered by the fired callbacks themselves.
	s.watchers = append(remaining, s.watchers...)
}

func (a *Adapter) RegisterTimedCallback(fn func(), delayTicks uint64) gpi.CallbackHandle {
	a.seq++
	heap.Push(&a.timed, timedEntry{at: a.now + delayTicks, fn: fn, seq: a.seq})
	return &timedEntry{} // non-nil: registration never rejected in simhost
}

func (a *Adapter) RegisterValueChangeCallback(fn func(), sig gpi.Handle, edge gpi.EdgeKind) gpi.CallbackHandle {
	s := a.sig(sig)
	s.watchers = append(s.watchers, watcher{fn: fn, edge: edge})
	return &watcher{}
}

func (a *Adapter) RegisterReadWriteCallback(fn func()) gpi.CallbackHandle {
	a.rwQ = append(a.rwQ, fn)
	return &struct{}{}
}

func (a *Adapter) RegisterReadOnlyCallback(fn func()) gpi.CallbackHandle {
	a.roQ = append(a.roQ, fn)
	return &struct{}{}
}

func (a *Adapter) RegisterNextTimeStepCallback(fn func()) gpi.CallbackHandle {
	a.ntsQ = append(a.ntsQ, fn)
	return &struct{}{}
}

func (a *Adapter) RegisterStartOfSimCallback(fn func()) error {
	a.startOfSim = append(a.startOfSim, func() error { fn(); return nil })
	return nil
}

func (a *Adapter) RegisterEndOfSimCallback(fn func()) error {
	a.endOfSim = append(a.endOfSim, func() error { fn(); return nil })
	return nil
}

func (a *Adapter) Finish() {}

// --- driving loop ---

// Start fires the start-of-sim callbacks and marks the adapter as having
// a registered implementation, mirroring on_sim_start.
func (a *Adapter) Start() error {
	a.registered = true
	for _, fn := range a.startOfSim {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

// End fires the end-of-sim callbacks, mirroring on_sim_end.
func (a *Adapter) End() error {
	for _, fn := range a.endOfSim {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

// Run drives simulated time forward, draining the readwrite/readonly
// queues to a fixed point at each instant before advancing, until no
// timed callback is left (§4.4's drain-to-quiescence, generalized to the
// whole fake simulator rather than one scheduler pass). Next-time-step
// callbacks run only as part of an advance.
func (a *Adapter) Run() {
	a.RunUntil(func() bool { return false })
}

// RunUntil drives simulated time forward exactly like Run, but stops as
// soon as done reports true — checked between phases, not just between
// time steps, so a detached task that loops forever (a Clock generator
// never joined by its test) can't prevent the runner from reclaiming
// control once the test itself has completed.
func (a *Adapter) RunUntil(done func() bool) {
	for {
		if done() {
			return
		}
		if a.drainAtCurrentTime() {
			continue
		}
		if done() {
			return
		}
		if a.timed.Len() == 0 {
			return
		}
		a.advance()
	}
}

func (a *Adapter) drainAtCurrentTime() bool {
	did := false
	for len(a.rwQ) > 0 {
		fn := a.rwQ[0]
		a.rwQ = a.rwQ[1:]
		fn()
		did = true
	}
	for len(a.roQ) > 0 {
		fn := a.roQ[0]
		a.roQ = a.roQ[1:]
		fn()
		did = true
	}
	return did
}

func (a *Adapter) advance() {
	first := heap.Pop(&a.timed).(timedEntry)
	a.now = first.at
	due := []func(){first.fn}
	for a.timed.Len() > 0 && a.timed[0].at == a.now {
		due = append(due, heap.Pop(&a.timed).(timedEntry).fn)
	}
	nts := a.ntsQ
	a.ntsQ = nil
	for _, fn := range nts {
		fn()
	}
	for _, fn := range due {
		fn()
	}
}
