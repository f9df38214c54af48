package keylock

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v4"
)

// Locker hands out one mutex per key. Mutexes are never evicted; keys are
// league ids, a bounded set for the life of the process.
type Locker struct {
	locks *xsync.Map[string, *sync.Mutex]
}

func New() *Locker {
	return &Locker{locks: xsync.NewMap[string, *sync.Mutex]()}
}

// Lock blocks until key is free and returns its unlock func.
func (l *Locker) Lock(key string) func() {
	mu, _ := l.locks.LoadOrStore(key, &sync.Mutex{})
	mu.Lock()
	return mu.Unlock
}

// Size reports how many keys have been seen.
func (l *Locker) Size() int {
	return l.locks.Size()
}
