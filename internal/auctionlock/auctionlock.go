// Package auctionlock serializes work on a single auction across the bid
// ledger and the lifecycle manager while leaving other auctions unblocked.
package auctionlock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Locks is a set of per-auction mutexes. The zero value is not usable; call New.
type Locks struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New creates an empty lock set
func New() *Locks {
	return &Locks{entries: make(map[string]*entry)}
}

// Lock blocks until the caller holds the lock for auctionID and returns the
// function that releases it.
func (l *Locks) Lock(auctionID string) (unlock func()) {
	l.mu.Lock()
	e, ok := l.entries[auctionID]
	if !ok {
		e = &entry{}
		l.entries[auctionID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()

			l.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(l.entries, auctionID)
			}
			l.mu.Unlock()
		})
	}
}

// Held returns the number of auctions with a holder or waiter.
func (l *Locks) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
