// Package lock provides the named locks guarding filter runs.
package lock

import (
	"context"
	"sync"

	"github.com/trezcool/rollcall/core"
)

// Local hands out locks that are only visible to the current process.
type Local struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocal() *Local {
	return &Local{locks: make(map[string]*sync.Mutex)}
}

func (l *Local) TryLock(_ context.Context, name string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[name]
	if !ok {
		m = new(sync.Mutex)
		l.locks[name] = m
	}
	l.mu.Unlock()

	if !m.TryLock() {
		return nil, core.ErrRunInProgress
	}
	var once sync.Once
	return func() { once.Do(m.Unlock) }, nil
}
