package tasks

import (
	"sync"
)

// Store is a concurrency-safe, in-memory registry of task records.
//
// All operations serialize on a single mutex, so two concurrent writers to
// the same ID observe a total order and readers never see partial writes.
// The store owns its records: Get/ListAll/ListByStatus return clones, and
// Set stores a clone, so no caller ever holds a reference into the map.
type Store struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

// NewStore creates an empty task store.
func NewStore() *Store {
	return &Store{
		tasks: make(map[string]*Task),
	}
}

// Get returns a copy of the task, or false if absent.
func (s *Store) Get(id string) (*Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, false
	}
	return task.Clone(), true
}

// Set inserts or overwrites the task under the given ID.
func (s *Store) Set(id string, task *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks[id] = task.Clone()
}

// Delete removes a task. Returns true if a record was removed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return false
	}
	delete(s.tasks, id)
	return true
}

// ListAll returns a snapshot of every task. No ordering is guaranteed.
func (s *Store) ListAll() []*Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		out = append(out, task.Clone())
	}
	return out
}

// ListByStatus returns a snapshot of tasks with the given status.
func (s *Store) ListByStatus(status Status) []*Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Task
	for _, task := range s.tasks {
		if task.Status == status {
			out = append(out, task.Clone())
		}
	}
	return out
}

// UpdateStatus atomically mutates the status (and result, if non-nil) of an
// existing record. Returns false if the task is absent, leaving the store
// unchanged.
func (s *Store) UpdateStatus(id string, status Status, result *Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return false
	}
	task.Status = status
	if result != nil {
		task.Result = result.Clone()
	}
	return true
}

// Len returns the number of stored tasks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// beginExecution claims a task for execution. Under one lock acquisition it
// checks the task is PENDING or RETRYING and flips it to RUNNING, which is
// what makes execution at-most-once-in-flight: a second concurrent caller
// sees RUNNING and gets started=false.
func (s *Store) beginExecution(id string) (task *Task, started, found bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, false, false
	}
	if t.Status != StatusPending && t.Status != StatusRetrying {
		return t.Clone(), false, true
	}
	t.Status = StatusRunning
	return t.Clone(), true, true
}

// recordFailure stores the attempt's error and increments the retry counter.
// Returns the new counter value.
func (s *Store) recordFailure(id, errMsg string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return 0
	}
	task.LastError = errMsg
	task.RetryCount++
	return task.RetryCount
}

// setActiveStatus flips the status of a task that is still active.
// Returns false if the task is absent or already terminal, so a record
// cancelled during a backoff sleep stays cancelled.
func (s *Store) setActiveStatus(id string, status Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok || task.Status.IsTerminal() {
		return false
	}
	task.Status = status
	return true
}

// finish writes the terminal outcome of an execution, but only if the task
// is still active. A CANCELLED record is never resurrected by a
// late-arriving COMPLETED/FAILED write. On success the last error is
// cleared. Returns whether the write happened.
func (s *Store) finish(id string, status Status, result *Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok || task.Status.IsTerminal() {
		return false
	}
	task.Status = status
	task.Result = result.Clone()
	if status == StatusCompleted {
		task.LastError = ""
	}
	return true
}

// cancelActive moves every non-terminal task to CANCELLED with the given
// failure result. Returns the IDs of the tasks it cancelled.
func (s *Store) cancelActive(result *Result) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cancelled []string
	for id, task := range s.tasks {
		if task.Status.IsTerminal() {
			continue
		}
		task.Status = StatusCancelled
		task.Result = result.Clone()
		cancelled = append(cancelled, id)
	}
	return cancelled
}
