// Package task implements the suspendable-routine abstraction described in
// spec.md §3/§4.1: a Task carries a resumption handle, a completion flag,
// a cancellation flag, a detachment flag, an optional stored exception,
// and at most one continuation (join waiter) awaiting its completion.
//
// Go has no stackless coroutines with a co_await customization point, so
// a Task's body runs on its own goroutine. Suspension is modeled as a
// synchronous channel handoff: the scheduler's Resume call blocks until
// the task either suspends again (calls Await) or returns, which
// reproduces the "at most one task frame executing" invariant (§5) even
// though the body technically lives on a different OS thread.
package task

import (
	"errors"
	"fmt"

	"github.com/benchsim/cocoro/internal/gpi"
)

// ErrCancelled is returned from Await when the task was cancelled while
// suspended on a trigger (§4.4, §5 "Cancellation").
var ErrCancelled = errors.New("task: cancelled")

// State mirrors the lifecycle in spec.md §3.
type State int

const (
	Pending State = iota
	Running
	Awaiting
	Completed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Awaiting:
		return "awaiting"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Host is the scheduler-facing surface a Trigger needs to arm itself and
// a Task needs to schedule itself or a joined task. Declared here (not
// in package trigger) so that task never has to import trigger — trigger
// imports task instead, keeping the dependency graph acyclic.
// *scheduler.Scheduler implements Host.
type Host interface {
	Precision() gpi.Unit
	ScheduleAfterTime(waiter *Task, ticks uint64)
	ScheduleOnEdge(waiter *Task, signal gpi.Handle, edge gpi.EdgeKind)
	ScheduleTask(t *Task)
	EnqueueReadWrite(t *Task)
}

// Trigger is anything a Task can Await. Implementations live in package
// trigger. Arm registers the trigger with host so that waiter is resumed
// when it fires.
type Trigger interface {
	Arm(host Host, waiter *Task)
}

// ReadyChecker lets a trigger short-circuit suspension entirely, per the
// Timer(0) boundary case (§4.2, §8): "delay == 0 is immediate-ready (do
// not suspend)."
type ReadyChecker interface {
	Ready() bool
}

// Resumer lets a trigger post-process a resumption before Await returns,
// e.g. Join re-raising the target's stored error (§4.1).
type Resumer interface {
	Resume() error
}

type resumeSignal struct {
	cancel bool
}

// Task is a suspendable routine. The zero value is not usable; construct
// with New or Spawn.
type Task struct {
	id        string
	host      Host
	body      func(*Task) error
	state     State
	detached  bool
	cancelled bool
	started   bool
	launched  bool
	err       error
	joinSet   bool
	joinTo    *Task

	resumeCh chan resumeSignal
	yieldCh  chan struct{}
}

// New creates a Task in the Pending state (created suspended, per §3;
// does not execute until the scheduler resumes it).
func New(host Host, body func(*Task) error) *Task {
	return &Task{
		id:       newID(),
		host:     host,
		body:     body,
		state:    Pending,
		resumeCh: make(chan resumeSignal),
		yieldCh:  make(chan struct{}),
	}
}

// Spawn creates a detached task and immediately schedules it to run soon
// (cocotb's start_soon: mark detached, push to the ready queue). It
// returns a SpawnHandle; if the caller never joins it, the underlying
// task is cleaned up by end-of-test bulk cancellation (§5) unless the
// caller calls Cancel explicitly — Go has no destructors, so the
// C++ "dropped handle cancels" behavior must be requested, not implied.
func Spawn(host Host, body func(*Task) error) *SpawnHandle {
	t := New(host, body)
	t.detached = true
	host.ScheduleTask(t)
	t.started = true
	return &SpawnHandle{task: t}
}

// SpawnHandle is the caller-facing handle to a spawned detached task.
type SpawnHandle struct {
	task   *Task
	joined bool
}

// Task returns the underlying Task, for building a trigger.Join.
func (h *SpawnHandle) Task() *Task { return h.task }

// Cancel requests cancellation of the underlying task. The task is
// destroyed (never resumed again) the next time the scheduler visits it,
// per §4.4's cancellation edge cases.
func (h *SpawnHandle) Cancel() {
	if h.joined {
		return
	}
	h.task.Cancel()
}

// MarkJoined records that this handle's task will be awaited, so Cancel
// is a no-op after Join is armed (mirrors JoinHandle::joined_ in the
// reference implementation).
func (h *SpawnHandle) MarkJoined() { h.joined = true }

func (h *SpawnHandle) Joined() bool { return h.joined }

// ID returns a debug-only identifier; tasks are otherwise referenced by
// pointer, matching §3's "opaque resumption handle."
func (t *Task) ID() string { return t.id }

func (t *Task) State() State { return t.state }

// Done reports whether the task's body has returned (normally or via a
// stored error).
func (t *Task) Done() bool { return t.state == Completed }

// Err returns the exception stored by the task body, if any (§3, §4.1).
func (t *Task) Err() error { return t.err }

func (t *Task) Detached() bool { return t.detached }

// MarkDetached marks the task as self-managed (§4.1's task.detach()).
func (t *Task) MarkDetached() { t.detached = true }

func (t *Task) Started() bool { return t.started }

func (t *Task) Cancelled() bool { return t.cancelled }

// Cancel requests that the scheduler destroy this task without further
// resumption the next time it visits it (§4.4).
func (t *Task) Cancel() { t.cancelled = true }

// SetJoinWaiter records waiter as the sole continuation awaiting this
// task's completion. The invariant in §3 is that this slot is written at
// most once.
func (t *Task) SetJoinWaiter(waiter *Task) error {
	if t.joinSet {
		return fmt.Errorf("task %s: join_waiter already set", t.id)
	}
	t.joinSet = true
	t.joinTo = waiter
	return nil
}

// JoinWaiter returns the task's continuation, or nil.
func (t *Task) JoinWaiter() *Task {
	if !t.joinSet {
		return nil
	}
	return t.joinTo
}

// Await suspends the calling task's body on trig, returning either
// ErrCancelled (if the task was cancelled while suspended), trig's
// post-resume error (via Resumer), or nil.
func (t *Task) Await(trig Trigger) error {
	if t.cancelled {
		return ErrCancelled
	}
	if rc, ok := trig.(ReadyChecker); ok && rc.Ready() {
		return nil
	}
	trig.Arm(t.host, t)
	t.setState(Awaiting)
	t.yieldCh <- struct{}{}
	sig := <-t.resumeCh
	t.setState(Running)
	if sig.cancel {
		return ErrCancelled
	}
	if r, ok := trig.(Resumer); ok {
		return r.Resume()
	}
	return nil
}

// deliverResume is called only by the scheduler, on its own goroutine,
// while draining. It launches the task's goroutine lazily on first call
// (mirroring the coroutine's initial suspension point) and blocks until
// the task either suspends again or completes, preserving the
// single-frame-executing invariant.
func (t *Task) deliverResume(cancel bool) {
	if !t.launched {
		t.launched = true
		go t.run()
	}
	t.resumeCh <- resumeSignal{cancel: cancel}
	<-t.yieldCh
}

// Resume is the scheduler's entry point for running one task from the
// ready queue (§4.4 step 2's "resume it"). A task cancelled before it was
// ever resumed once is destroyed without its body ever executing (§4.4
// edge case) — no goroutine is launched for it at all.
func (t *Task) Resume() {
	if t.cancelled && !t.launched {
		t.setState(Completed)
		return
	}
	t.deliverResume(t.cancelled)
}

func (t *Task) run() {
	sig := <-t.resumeCh
	t.setState(Running)
	var err error
	if sig.cancel {
		err = ErrCancelled
	} else {
		err = t.body(t)
	}
	t.finish(err)
}

func (t *Task) finish(err error) {
	if err != nil && t.err == nil {
		t.err = err
	}
	t.setState(Completed)
	t.yieldCh <- struct{}{}
}

// setState enforces the transition table in state.go. An invalid
// transition is a scheduler bug, not a user error, so it panics rather
// than returning an error a caller could plausibly ignore.
func (t *Task) setState(to State) {
	if !validTransitions[t.state][to] {
		panic(fmt.Sprintf("task %s: invalid state transition %s -> %s", t.id, t.state, to))
	}
	t.state = to
}
