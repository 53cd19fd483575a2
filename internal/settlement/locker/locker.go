// Package locker provides in-process mutual exclusion keyed by account id.
// It serializes settlement attempts against the same account while letting
// attempts on distinct accounts proceed concurrently.
package locker

import "sync"

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// AccountLocker maps account ids to mutexes. Entries are reference-counted
// and removed when the last holder releases, so the registry stays bounded
// by the number of accounts currently being settled rather than growing
// with the historical account population.
type AccountLocker struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

// New creates an empty AccountLocker.
func New() *AccountLocker {
	return &AccountLocker{
		locks: make(map[string]*lockEntry),
	}
}

// Lock acquires the mutex for the given account id, blocking until any
// other holder releases it.
func (l *AccountLocker) Lock(accountID string) {
	l.mu.Lock()
	entry, ok := l.locks[accountID]
	if !ok {
		entry = &lockEntry{}
		l.locks[accountID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
}

// Unlock releases the mutex for the given account id. The registry entry is
// dropped once no goroutine holds or waits on it. Unlocking an id that was
// never locked panics, same as sync.Mutex.
func (l *AccountLocker) Unlock(accountID string) {
	l.mu.Lock()
	entry, ok := l.locks[accountID]
	if !ok {
		l.mu.Unlock()
		panic("locker: unlock of unheld account lock: " + accountID)
	}
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, accountID)
	}
	l.mu.Unlock()

	entry.mu.Unlock()
}

// Len reports the number of account ids currently tracked. Used by tests to
// verify the registry does not leak.
func (l *AccountLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
