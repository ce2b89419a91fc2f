package assets

import "sync"

// prefixLocks hands out one mutex per tag prefix and forgets it when idle.
type prefixLocks struct {
	mu    sync.Mutex
	locks map[string]*prefixLock
}

type prefixLock struct {
	sync.Mutex
	refs int
}

func newPrefixLocks() *prefixLocks {
	return &prefixLocks{locks: make(map[string]*prefixLock)}
}

// Lock blocks until prefix is free and returns the matching unlock func.
func (p *prefixLocks) Lock(prefix string) func() {
	p.mu.Lock()
	l, ok := p.locks[prefix]
	if !ok {
		l = &prefixLock{}
		p.locks[prefix] = l
	}
	l.refs++
	p.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, prefix)
		}
		p.mu.Unlock()
	}
}
