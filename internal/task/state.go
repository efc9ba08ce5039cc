package task

// validTransitions mirrors the teacher's status transition table
// (internal/model/status.go's map[Status]map[Status]bool) generalized to
// the five-state Task lifecycle in spec.md §3. Cancellation is tracked as
// an overlay flag (Task.cancelled) rather than a fifth kept state: a cancelled
// task still occupies Pending/Running/Awaiting/Completed exactly as an
// uncancelled one would, it just resolves to ErrCancelled the next time
// the scheduler or Await touches it. Folding cancellation into the state
// enum would double every transition below for no added information.
var validTransitions = map[State]map[State]bool{
	Pending:   {Running: true, Completed: true}, // Completed: cancel-before-first-resume fast path
	Running:   {Awaiting: true, Completed: true},
	Awaiting:  {Running: true},
	Completed: {},
}

// IsTerminal reports whether s has no further valid transitions.
func IsTerminal(s State) bool {
	return len(validTransitions[s]) == 0
}
