package task_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benchsim/cocoro/internal/gpi"
	"github.com/benchsim/cocoro/internal/task"
)

// fakeHost is a minimal task.Host for exercising Task/trigger wiring
// without a full scheduler: ScheduleAfterTime and ScheduleOnEdge just
// record the call, since no test here needs them to ever fire.
type fakeHost struct {
	precision    gpi.Unit
	scheduled    []*task.Task
	readwrites   []*task.Task
}

func (h *fakeHost) Precision() gpi.Unit { return h.precision }
func (h *fakeHost) ScheduleAfterTime(waiter *task.Task, ticks uint64) {}
func (h *fakeHost) ScheduleOnEdge(waiter *task.Task, signal gpi.Handle, edge gpi.EdgeKind) {}
func (h *fakeHost) ScheduleTask(t *task.Task)     { h.scheduled = append(h.scheduled, t) }
func (h *fakeHost) EnqueueReadWrite(t *task.Task) { h.readwrites = append(h.readwrites, t) }

type fakeTrigger struct{ armed *bool }

func (f fakeTrigger) Arm(host task.Host, waiter *task.Task) { *f.armed = true }

func TestCompletesSynchronouslyWithoutAwait(t *testing.T) {
	h := &fakeHost{}
	tsk := task.New(h, func(t *task.Task) error { return nil })
	require.Equal(t, task.Pending, tsk.State())
	tsk.Resume()
	require.True(t, tsk.Done())
	require.NoError(t, tsk.Err())
}

func TestBodyErrorIsStored(t *testing.T) {
	h := &fakeHost{}
	want := errors.New("boom")
	tsk := task.New(h, func(t *task.Task) error { return want })
	tsk.Resume()
	require.True(t, tsk.Done())
	require.Equal(t, want, tsk.Err())
}

func TestAwaitSuspendsAndResumes(t *testing.T) {
	h := &fakeHost{}
	armed := false
	reached := false
	tsk := task.New(h, func(t *task.Task) error {
		if err := t.Await(fakeTrigger{armed: &armed}); err != nil {
			return err
		}
		reached = true
		return nil
	})

	tsk.Resume()
	require.True(t, armed)
	require.False(t, tsk.Done(), "task should still be suspended awaiting the trigger")
	require.Equal(t, task.Awaiting, tsk.State())

	tsk.Resume()
	require.True(t, tsk.Done())
	require.True(t, reached)
	require.NoError(t, tsk.Err())
}

func TestCancelBeforeFirstResumeNeverRunsBody(t *testing.T) {
	h := &fakeHost{}
	ran := false
	tsk := task.New(h, func(t *task.Task) error {
		ran = true
		return nil
	})
	tsk.Cancel()
	tsk.Resume()
	require.True(t, tsk.Done())
	require.False(t, ran, "a task cancelled before its first resume must never execute its body")
}

func TestCancelWhileAwaitingReturnsErrCancelled(t *testing.T) {
	h := &fakeHost{}
	armed := false
	var gotErr error
	tsk := task.New(h, func(t *task.Task) error {
		gotErr = t.Await(fakeTrigger{armed: &armed})
		return gotErr
	})
	tsk.Resume()
	require.False(t, tsk.Done())

	tsk.Cancel()
	tsk.Resume()
	require.True(t, tsk.Done())
	require.ErrorIs(t, gotErr, task.ErrCancelled)
	require.ErrorIs(t, tsk.Err(), task.ErrCancelled)
}

func TestSpawnMarksDetachedAndSchedulesImmediately(t *testing.T) {
	h := &fakeHost{}
	handle := task.Spawn(h, func(t *task.Task) error { return nil })
	require.True(t, handle.Task().Detached())
	require.True(t, handle.Task().Started())
	require.Len(t, h.scheduled, 1)
	require.Same(t, handle.Task(), h.scheduled[0])
}

func TestSetJoinWaiterOnlyOnce(t *testing.T) {
	h := &fakeHost{}
	target := task.New(h, func(t *task.Task) error { return nil })
	waiter1 := task.New(h, func(t *task.Task) error { return nil })
	waiter2 := task.New(h, func(t *task.Task) error { return nil })

	require.NoError(t, target.SetJoinWaiter(waiter1))
	require.Error(t, target.SetJoinWaiter(waiter2))
	require.Same(t, waiter1, target.JoinWaiter())
}
