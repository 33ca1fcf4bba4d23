package fiber

import (
	"sync"

	"github.com/petermattis/goid"
)

// reentrantMutex is a mutex that the owning goroutine may acquire again.
// Render functions and effects run with the root locked and are allowed
// to dispatch updates to the same root.
type reentrantMutex struct {
	mu    sync.Mutex
	guard sync.Mutex
	owner int64
	depth int
}

func (m *reentrantMutex) Lock() {
	id := goid.Get()
	m.guard.Lock()
	if m.depth > 0 && m.owner == id {
		m.depth++
		m.guard.Unlock()
		return
	}
	m.guard.Unlock()

	m.mu.Lock()

	m.guard.Lock()
	m.owner = id
	m.depth = 1
	m.guard.Unlock()
}

func (m *reentrantMutex) Unlock() {
	m.guard.Lock()
	m.depth--
	if m.depth > 0 {
		m.guard.Unlock()
		return
	}
	m.owner = 0
	m.guard.Unlock()
	m.mu.Unlock()
}
