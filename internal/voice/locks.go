package voice

import "sync"

// profileLocks serializes lifecycle decisions per profile. Two concurrent
// slot uploads must not both observe a full slot set and both create a remote
// voice. No pack library offers an in-process keyed lock, and a distributed
// lock would put remote availability in the correctness path.
type profileLocks struct {
	mu sync.Mutex
	m  map[string]*profileLock
}

type profileLock struct {
	mu   sync.Mutex
	refs int
}

func newProfileLocks() *profileLocks {
	return &profileLocks{m: make(map[string]*profileLock)}
}

// lock acquires the lock for a profile and returns its release func. Entries
// are refcounted so the map does not grow with dead profiles.
func (l *profileLocks) lock(profileID string) func() {
	l.mu.Lock()
	pl, ok := l.m[profileID]
	if !ok {
		pl = &profileLock{}
		l.m[profileID] = pl
	}
	pl.refs++
	l.mu.Unlock()

	pl.mu.Lock()
	return func() {
		pl.mu.Unlock()
		l.mu.Lock()
		pl.refs--
		if pl.refs == 0 {
			delete(l.m, profileID)
		}
		l.mu.Unlock()
	}
}
