// Package gpi defines the Generic Programmer Interface surface the
// scheduler consumes: simulator time and precision queries, signal handle
// lookup and I/O, and the callback registrations that drive the
// scheduler forward. It does not implement a simulator; Adapter is
// satisfied by a real cgo-linked backend or, for tests, by
// internal/gpi/simhost.
package gpi

import "math"

// Unit is a time unit expressed the way the simulator reports precision:
// a power-of-ten exponent. Step means "the simulator's own precision, no
// conversion."
type Unit int32

const (
	FS   Unit = -15
	PS   Unit = -12
	NS   Unit = -9
	US   Unit = -6
	MS   Unit = -3
	Sec  Unit = 1
	Step Unit = 0
)

func (u Unit) String() string {
	switch u {
	case FS:
		return "fs"
	case PS:
		return "ps"
	case NS:
		return "ns"
	case US:
		return "us"
	case MS:
		return "ms"
	case Sec:
		return "sec"
	case Step:
		return "step"
	default:
		return "unknown"
	}
}

// TicksForDelay converts a delay expressed in fromUnit into the
// simulator's precision ticks, given the simulator's reported precision.
// Ported from cocotb.h's Timer::await_suspend: factor = 10^-precision /
// 10^-fromUnit, delay_ticks = round(delay * factor).
func TicksForDelay(delay uint64, fromUnit, precision Unit) uint64 {
	if fromUnit == Step {
		return delay
	}
	precisionPower := math.Pow(10, -float64(precision))
	unitPower := math.Pow(10, -float64(fromUnit))
	factor := precisionPower / unitPower
	return uint64(math.Round(float64(delay) * factor))
}

// TicksToFloat converts a duration expressed in precision ticks into a
// float in the given display unit, for logging (cocotb.h's Logger::log
// time formatting, which always displays in the simulator's own
// precision unit).
func TicksToFloat(ticks uint64, precision, displayUnit Unit) float64 {
	if displayUnit == Step {
		return float64(ticks)
	}
	factor := math.Pow(10, float64(precision)-float64(displayUnit))
	return float64(ticks) * factor
}

// EdgeKind identifies the value-change edge a callback should fire on.
type EdgeKind int

const (
	EdgeRising EdgeKind = iota
	EdgeFalling
	EdgeValueChange
)

// DepositMode mirrors GPI's signal-write force mode. DEPOSIT is the only
// mode the scheduler ever issues (§4.3).
type DepositMode int

const (
	Deposit DepositMode = iota
)

// Handle is an opaque simulator handle. Adapters define their own
// concrete representation; the scheduler and handle accessor never
// inspect it.
type Handle any

// CallbackHandle is returned by a registration call. A nil CallbackHandle
// means the adapter rejected the registration (§4.4 edge case): the
// caller must treat this as "already fired" and enqueue immediately.
type CallbackHandle any

// Adapter is the GPI surface consumed by the scheduler, task, trigger,
// and handle packages (§6). Registration methods invoke fn exactly once
// when the corresponding simulator phase/event occurs, then the adapter
// discards the registration (cocotb callbacks are one-shot).
type Adapter interface {
	GetRootHandle(name string) (Handle, bool)
	GetHandleByName(parent Handle, name string) (Handle, bool)
	GetSignalValueLong(h Handle) int64
	GetSignalValueReal(h Handle) float64
	GetSimTime() uint64
	GetSimPrecision() Unit
	HasRegisteredImpl() bool

	SetSignalValueInt(h Handle, value int32, mode DepositMode)

	RegisterTimedCallback(fn func(), delayTicks uint64) CallbackHandle
	RegisterValueChangeCallback(fn func(), signal Handle, edge EdgeKind) CallbackHandle
	RegisterReadWriteCallback(fn func()) CallbackHandle
	RegisterReadOnlyCallback(fn func()) CallbackHandle
	RegisterNextTimeStepCallback(fn func()) CallbackHandle
	RegisterStartOfSimCallback(fn func()) error
	RegisterEndOfSimCallback(fn func()) error

	Finish()
}
