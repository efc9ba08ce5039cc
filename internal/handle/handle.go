// Package handle implements the name-indexed signal accessor described
// in spec.md §4.6: a Handle memoizes child lookups (including memoizing
// a failed lookup as permanently absent), and Value gives a typed
// read/write view over a signal, where reads call the adapter directly
// and writes queue through the scheduler.
package handle

import (
	"fmt"

	"github.com/benchsim/cocoro/internal/gpi"
)

// Writer is the scheduler surface Value needs to queue a write (§4.3).
// Declared narrowly here, rather than importing package scheduler
// directly, purely to keep this package testable against a fake without
// constructing a whole Scheduler; *scheduler.Scheduler satisfies it.
type Writer interface {
	QueueWrite(h gpi.Handle, value int32, mode gpi.DepositMode)
}

// Handle wraps a simulator handle with memoized name-indexed children.
// A failed lookup is cached as absent so a repeated miss (e.g. probing
// for an optional signal on every test) costs one adapter call, not one
// per access.
type Handle struct {
	adapter  gpi.Adapter
	writer   Writer
	raw      gpi.Handle
	name     string
	children map[string]*Handle
	missing  map[string]bool
}

// Root looks up name as a root-level handle (§4.6, §12's TOPLEVEL
// fallback lives in the caller, not here).
func Root(adapter gpi.Adapter, writer Writer, name string) (*Handle, error) {
	raw, ok := adapter.GetRootHandle(name)
	if !ok {
		return nil, fmt.Errorf("handle: no root handle named %q", name)
	}
	return wrap(adapter, writer, raw, name), nil
}

func wrap(adapter gpi.Adapter, writer Writer, raw gpi.Handle, name string) *Handle {
	return &Handle{
		adapter:  adapter,
		writer:   writer,
		raw:      raw,
		name:     name,
		children: make(map[string]*Handle),
		missing:  make(map[string]bool),
	}
}

// Name returns the handle's own name, as looked up.
func (h *Handle) Name() string { return h.name }

// Raw returns the underlying opaque gpi.Handle, for passing to a trigger
// such as trigger.RisingEdge.
func (h *Handle) Raw() gpi.Handle { return h.raw }

// Child looks up a named child, memoizing both success and failure.
func (h *Handle) Child(name string) (*Handle, error) {
	if c, ok := h.children[name]; ok {
		return c, nil
	}
	if h.missing[name] {
		return nil, fmt.Errorf("handle: %s has no child named %q", h.name, name)
	}
	raw, ok := h.adapter.GetHandleByName(h.raw, name)
	if !ok {
		h.missing[name] = true
		return nil, fmt.Errorf("handle: %s has no child named %q", h.name, name)
	}
	c := wrap(h.adapter, h.writer, raw, name)
	h.children[name] = c
	return c, nil
}

// Value returns the typed read/write view over this handle's signal.
func (h *Handle) Value() Value { return Value{h: h} }

// Value is a typed accessor over a signal's current value (§4.6). Reads
// call the adapter directly and see the simulator's current state;
// writes queue through the scheduler and are not visible until the next
// readwrite-phase flush (§4.3) — Value never performs its own read-after-
// write; that ordering discipline belongs to the scheduler, not here.
type Value struct {
	h *Handle
}

func (v Value) Int32() int32 { return int32(v.h.adapter.GetSignalValueLong(v.h.raw)) }

func (v Value) Uint32() uint32 { return uint32(v.h.adapter.GetSignalValueLong(v.h.raw)) }

func (v Value) Bool() bool { return v.h.adapter.GetSignalValueLong(v.h.raw) != 0 }

func (v Value) Real() float64 { return v.h.adapter.GetSignalValueReal(v.h.raw) }

// SetInt queues a deposit-mode write of value (§4.3). The write is
// applied by the scheduler's next readwrite-phase flush, never
// synchronously.
func (v Value) SetInt(value int32) {
	v.h.writer.QueueWrite(v.h.raw, value, gpi.Deposit)
}

func (v Value) SetBool(value bool) {
	i := int32(0)
	if value {
		i = 1
	}
	v.SetInt(i)
}
