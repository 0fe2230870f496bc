package engine

import "sync"

// userLocks is a keyed lock table giving each user id its own mutex, so
// evaluation is serialized per user while different users proceed in
// parallel. Entries are reference counted and removed once released to
// keep the table bounded by the number of in-flight evaluations.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*userLock)}
}

// Lock acquires the exclusive lock for a user id
func (l *userLocks) Lock(userID string) {
	l.mu.Lock()
	entry, ok := l.locks[userID]
	if !ok {
		entry = &userLock{}
		l.locks[userID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
}

// Unlock releases the lock for a user id
func (l *userLocks) Unlock(userID string) {
	l.mu.Lock()
	entry, ok := l.locks[userID]
	if !ok {
		l.mu.Unlock()
		return
	}
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, userID)
	}
	l.mu.Unlock()

	entry.mu.Unlock()
}
