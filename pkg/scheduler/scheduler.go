// Package scheduler runs one-shot deferred tasks keyed by id.
package scheduler

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrStopped is returned by Schedule after Stop.
var ErrStopped = errors.New("scheduler stopped")

// Scheduler holds pending timers. A task only runs if alive reports true
// when it comes due.
type Scheduler struct {
	mu      sync.Mutex
	timers  map[string]*time.Timer
	alive   func() bool
	stopped bool
	wg      sync.WaitGroup
}

// New returns a scheduler gated by alive. A nil alive always fires.
func New(alive func() bool) *Scheduler {
	if alive == nil {
		alive = func() bool { return true }
	}
	return &Scheduler{timers: make(map[string]*time.Timer), alive: alive}
}

// Schedule runs fn once after delay and returns the task id.
func (s *Scheduler) Schedule(delay time.Duration, fn func()) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return "", ErrStopped
	}

	id := uuid.NewString()
	s.wg.Add(1)
	s.timers[id] = time.AfterFunc(delay, func() {
		defer s.wg.Done()
		if !s.take(id) {
			return
		}
		if !s.alive() {
			return
		}
		fn()
	})
	return id, nil
}

// take removes id from the pending set, reporting whether it was still there.
func (s *Scheduler) take(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.timers[id]; !ok {
		return false
	}
	delete(s.timers, id)
	return true
}

// Cancel stops a pending task. It reports whether the task was pending.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.timers[id]
	if !ok {
		return false
	}
	delete(s.timers, id)
	if t.Stop() {
		s.wg.Done()
	}
	return true
}

// Pending returns the ids of tasks not yet run.
func (s *Scheduler) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.timers))
	for id := range s.timers {
		ids = append(ids, id)
	}
	return ids
}

// Stop cancels every pending task, refuses new ones and waits for tasks
// already running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for id, t := range s.timers {
		delete(s.timers, id)
		if t.Stop() {
			s.wg.Done()
		}
	}
	s.mu.Unlock()
	s.wg.Wait()
}
