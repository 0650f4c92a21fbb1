package service

import "sync"

// saleLocks serializes mutations of the same sale within this process.
// Entries are reference counted and dropped once no caller holds or waits on them.
type saleLocks struct {
	mu    sync.Mutex
	locks map[uint]*saleLock
}

type saleLock struct {
	sync.Mutex
	refs int
}

func newSaleLocks() *saleLocks {
	return &saleLocks{locks: make(map[uint]*saleLock)}
}

// lock blocks until saleID is free and returns the matching unlock func.
func (l *saleLocks) lock(saleID uint) func() {
	l.mu.Lock()
	sl, ok := l.locks[saleID]
	if !ok {
		sl = &saleLock{}
		l.locks[saleID] = sl
	}
	sl.refs++
	l.mu.Unlock()

	sl.Lock()
	return func() {
		sl.Unlock()
		l.mu.Lock()
		sl.refs--
		if sl.refs == 0 {
			delete(l.locks, saleID)
		}
		l.mu.Unlock()
	}
}
