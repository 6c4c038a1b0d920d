package game

// Task is a deferred action scheduled on the tick clock
type Task struct {
	due      uint64
	fn       func()
	fired    bool
	canceled bool
}

// Cancel prevents a pending task from running. Canceling a fired or
// already-canceled task does nothing. Returns true only for the call that
// actually canceled the task.
func (t *Task) Cancel() bool {
	if t == nil || t.fired || t.canceled {
		return false
	}
	t.canceled = true
	return true
}

// Pending reports whether the task is still waiting to fire
func (t *Task) Pending() bool {
	return t != nil && !t.fired && !t.canceled
}

// TickScheduler runs deferred tasks on the same tick loop as the simulation.
// There is no goroutine: tasks fire from Advance.
type TickScheduler struct {
	now   uint64
	tasks []*Task
}

// NewTickScheduler creates an empty scheduler
func NewTickScheduler() *TickScheduler {
	return &TickScheduler{tasks: make([]*Task, 0, 4)}
}

// After schedules fn to run once after the given number of ticks.
// A delay below one tick fires on the next Advance.
func (s *TickScheduler) After(ticks int, fn func()) *Task {
	if ticks < 1 {
		ticks = 1
	}
	t := &Task{due: s.now + uint64(ticks), fn: fn}
	s.tasks = append(s.tasks, t)
	return t
}

// Advance moves the clock one tick and runs due tasks in scheduling order.
// Tasks scheduled while running are kept for later ticks.
func (s *TickScheduler) Advance() {
	s.now++

	due := make([]*Task, 0, len(s.tasks))
	n := 0
	for _, t := range s.tasks {
		if t.canceled {
			continue
		}
		if t.due <= s.now {
			due = append(due, t)
			continue
		}
		s.tasks[n] = t
		n++
	}
	s.tasks = s.tasks[:n]

	for _, t := range due {
		if t.canceled {
			continue
		}
		t.fired = true
		t.fn()
	}
}

// Now returns the current tick
func (s *TickScheduler) Now() uint64 {
	return s.now
}

// PendingCount returns the number of tasks waiting to fire
func (s *TickScheduler) PendingCount() int {
	n := 0
	for _, t := range s.tasks {
		if t.Pending() {
			n++
		}
	}
	return n
}

// Clear cancels every pending task
func (s *TickScheduler) Clear() {
	for _, t := range s.tasks {
		t.Cancel()
	}
	s.tasks = s.tasks[:0]
}
