package service

import (
	"sync"

	"github.com/google/uuid"
)

// sessionLocks serializes mutating operations per session id. Answer
// submission, run-start, run-pause, and finalize all read-then-write the
// same session row; without this lock two concurrent calls race and lose
// updates to the clock or the grade. Entries are reference-counted so the
// map does not grow with every session ever seen.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[uuid.UUID]*sessionLock)}
}

// Lock acquires the lock for a session id and returns the unlock function.
func (l *sessionLocks) Lock(id uuid.UUID) func() {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &sessionLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
