// Package scheduler implements the cooperative drain loop described in
// spec.md §4.4: a FIFO ready queue, a FIFO pending write queue flushed
// only during the readwrite phase, an active task set for bulk
// cancellation, and the phase state machine that keeps readwrite
// callback registration idempotent and safe across the readonly phase.
//
// Scheduler implements task.Host, so triggers (package trigger) never
// touch the GPI adapter directly — they call back into Scheduler through
// that narrow interface.
package scheduler

import (
	"github.com/benchsim/cocoro/internal/gpi"
	"github.com/benchsim/cocoro/internal/logger"
	"github.com/benchsim/cocoro/internal/task"
)

type pendingWrite struct {
	handle gpi.Handle
	value  int32
	mode   gpi.DepositMode
}

// Scheduler owns the ready queue, the pending write queue, and the
// readwrite/readonly phase flags (§3's "Data model"). There is exactly
// one Scheduler per simulation process (§9's "global singleton
// scheduler"); callers construct it once in on_sim_start and reuse it
// for every registered test.
type Scheduler struct {
	adapter gpi.Adapter
	log     *logger.Logger

	ready   []*task.Task
	active  map[*task.Task]struct{}
	writes  []pendingWrite

	rwCallbackPending          bool
	inReadonly                 bool
	needReadwriteAfterReadonly bool

	currentTestTask *task.Task
	onTestComplete  func(t *task.Task)
}

var _ task.Host = (*Scheduler)(nil)

// New wires a Scheduler to adapter. log may be nil (logging is then a
// no-op), matching the teacher's tolerance for a nil *log.Logger in
// tests that don't care about output.
func New(adapter gpi.Adapter, log *logger.Logger) *Scheduler {
	return &Scheduler{
		adapter: adapter,
		log:     log,
		active:  make(map[*task.Task]struct{}),
	}
}

// Precision implements task.Host.
func (s *Scheduler) Precision() gpi.Unit { return s.adapter.GetSimPrecision() }

// SetCurrentTestTask records which task is the one currently running as
// the active test body (§4.4's "otherwise, if it is the current test
// task" branch), so its completion is routed to the test runner instead
// of silently dropped as an unjoined detached task.
func (s *Scheduler) SetCurrentTestTask(t *task.Task) { s.currentTestTask = t }

// SetTestCompletionHandler registers the callback invoked when the
// current test task completes. The test runner sets this; Scheduler
// never imports package runner, to keep the dependency graph acyclic.
func (s *Scheduler) SetTestCompletionHandler(fn func(t *task.Task)) {
	s.onTestComplete = fn
}

// Spawn starts body as a new detached task, the scheduler-aware
// convenience wrapper around task.Spawn.
func (s *Scheduler) Spawn(body func(*task.Task) error) *task.SpawnHandle {
	return task.Spawn(s, body)
}

// StartTest creates t's task from body, marks it detached (§4.1's
// task.detach(), matching run_next_test: the current test owns itself —
// nothing ever joins it), registers it as the current test task, and
// schedules it to run on the next Drain.
func (s *Scheduler) StartTest(body func(*task.Task) error) *task.Task {
	t := task.New(s, body)
	t.MarkDetached()
	s.SetCurrentTestTask(t)
	s.ScheduleTask(t)
	return t
}

// --- task.Host ---

// ScheduleTask pushes t onto the ready queue without requesting a
// readwrite callback (cocotb's schedule_handle: starting a task is not
// itself a write, so there is nothing to flush yet).
func (s *Scheduler) ScheduleTask(t *task.Task) {
	s.readyEnqueue(t)
}

// EnqueueReadWrite defers t to a later scheduler pass, used when t joins
// an already-complete (or nil) target. It goes through the same
// zero-delay timed callback as the join handoff, so t is not resumed by
// the Drain pass that is running now but by the readwrite pass that
// callback requests.
func (s *Scheduler) EnqueueReadWrite(t *task.Task) {
	s.scheduleJoinHandoff(t)
}

// ScheduleAfterTime registers ticks-delayed resumption of waiter. A nil
// CallbackHandle from the adapter means the registration was rejected;
// per §4.4's edge case this is treated as already-fired.
func (s *Scheduler) ScheduleAfterTime(waiter *task.Task, ticks uint64) {
	cb := s.adapter.RegisterTimedCallback(func() { s.timerFired(waiter) }, ticks)
	if cb == nil {
		s.enqueueAndRequestReadWrite(waiter)
	}
}

// ScheduleOnEdge registers resumption of waiter on signal's next edge.
func (s *Scheduler) ScheduleOnEdge(waiter *task.Task, signal gpi.Handle, edge gpi.EdgeKind) {
	cb := s.adapter.RegisterValueChangeCallback(func() { s.edgeFired(waiter) }, signal, edge)
	if cb == nil {
		s.enqueueAndRequestReadWrite(waiter)
	}
}

// --- internal enqueue helpers ---

func (s *Scheduler) readyEnqueue(t *task.Task) {
	s.ready = append(s.ready, t)
	s.active[t] = struct{}{}
}

func (s *Scheduler) enqueueAndRequestReadWrite(t *task.Task) {
	s.readyEnqueue(t)
	s.requestReadWriteCallback()
}

func (s *Scheduler) enqueueAndDrainNow(t *task.Task) {
	s.readyEnqueue(t)
	s.Drain(false)
}

// timerFired is the trampoline a registered timed callback invokes.
// Timer firing always goes through the readwrite path (§4.4), never
// drain-now — even the zero-delay join handoff reuses this.
func (s *Scheduler) timerFired(waiter *task.Task) {
	s.enqueueAndRequestReadWrite(waiter)
}

// edgeFired is the trampoline a registered value-change callback
// invokes. RisingEdge firing drains immediately (§4.4's
// EnqueueAndDrainNow), unlike Timer.
func (s *Scheduler) edgeFired(waiter *task.Task) {
	s.enqueueAndDrainNow(waiter)
}

// scheduleJoinHandoff inserts exactly one delta cycle before resuming
// waiter, by registering a zero-delay *timed* callback rather than a
// readwrite callback. A zero-tick timed callback still passes through
// the simulator's event queue, unlike the Timer(0) awaiter shortcut in
// package trigger, which never suspends at all — see SPEC_FULL.md §1.
func (s *Scheduler) scheduleJoinHandoff(waiter *task.Task) {
	cb := s.adapter.RegisterTimedCallback(func() { s.timerFired(waiter) }, 0)
	if cb == nil {
		s.enqueueAndRequestReadWrite(waiter)
	}
}

// --- phase state machine ---

func (s *Scheduler) requestReadWriteCallback() {
	if s.inReadonly {
		if !s.needReadwriteAfterReadonly {
			s.needReadwriteAfterReadonly = true
			s.adapter.RegisterNextTimeStepCallback(s.onNextTimeStep)
		}
		return
	}
	if s.rwCallbackPending {
		return
	}
	s.rwCallbackPending = true
	s.adapter.RegisterReadWriteCallback(s.onReadWrite)
}

func (s *Scheduler) onReadWrite() {
	s.rwCallbackPending = false
	s.Drain(true)
	s.adapter.RegisterReadOnlyCallback(s.onReadOnly)
}

func (s *Scheduler) onReadOnly() {
	s.inReadonly = true
	s.Drain(false)
	s.inReadonly = false
}

func (s *Scheduler) onNextTimeStep() {
	s.inReadonly = false
	s.needReadwriteAfterReadonly = false
	s.requestReadWriteCallback()
}

// --- pending write queue (§4.3) ---

// QueueWrite records a deferred signal write; it is applied the next
// time the scheduler flushes during a readwrite phase. Writes are never
// applied immediately, even if called from within a readwrite callback,
// so write ordering across a Join handoff (§8) stays deterministic.
func (s *Scheduler) QueueWrite(h gpi.Handle, value int32, mode gpi.DepositMode) {
	s.writes = append(s.writes, pendingWrite{handle: h, value: value, mode: mode})
	s.requestReadWriteCallback()
}

func (s *Scheduler) flushWrites() {
	if len(s.writes) == 0 {
		return
	}
	pending := s.writes
	s.writes = nil
	for _, w := range pending {
		s.adapter.SetSignalValueInt(w.handle, w.value, w.mode)
	}
}

// --- drain loop ---

// Drain resumes every ready task to quiescence (§4.4). flushWrites is
// true when Drain is entered from the readwrite callback, meaning any
// writes already pending are applied before Drain resumes any ready
// task, matching run_ready's flush-then-loop order. A task that is
// already complete when it reaches the head of the queue (re-enqueued by
// a stale callback after cancellation) is dropped without resuming.
func (s *Scheduler) Drain(flushWrites bool) {
	if flushWrites {
		s.flushWrites()
	}
	for len(s.ready) > 0 {
		t := s.ready[0]
		s.ready = s.ready[1:]

		if t.Done() {
			delete(s.active, t)
			continue
		}
		t.Resume()

		if !t.Done() {
			continue
		}
		delete(s.active, t)

		if jw := t.JoinWaiter(); jw != nil {
			if flushWrites && len(s.writes) > 0 {
				// The joinee queued writes before completing: flush them
				// now, before handing off, so the joiner's first
				// instruction after resuming always observes them.
				s.flushWrites()
				s.scheduleJoinHandoff(jw)
			} else {
				s.enqueueAndRequestReadWrite(jw)
			}
			continue
		}
		if t == s.currentTestTask {
			if s.onTestComplete != nil {
				s.onTestComplete(t)
			}
			continue
		}
		// Detached with no joiner: nothing further to do. Go's allocator
		// reclaims the task once nothing references it.
	}
}

// CancelAllExcept marks every still-active task other than keep as
// cancelled (§5's end-of-test cleanup: leftover detached tasks, e.g. an
// un-joined Clock generator, are destroyed rather than left running into
// the next test). It does not itself drain; call Drain after to let the
// cancellations actually unwind the task goroutines.
func (s *Scheduler) CancelAllExcept(keep *task.Task) {
	for t := range s.active {
		if t == keep {
			continue
		}
		t.Cancel()
		s.ready = append(s.ready, t)
	}
}

// ActiveCount reports the number of tasks currently tracked as active,
// for tests and for internal/metrics gauges.
func (s *Scheduler) ActiveCount() int { return len(s.active) }

// ReadyLen reports the current ready queue depth, for internal/metrics.
func (s *Scheduler) ReadyLen() int { return len(s.ready) }
