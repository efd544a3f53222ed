// Package input provides the thin contract for the one genuinely external
// collaborator spec.md §6 calls out by name: a window-system input pump
// signaling that its window should close. The actual GLFW/window-system
// pump is out of scope (spec.md §1 non-goal); only the quit-signaling shape
// is implemented here.
package input

import "sync"

// Loop wraps a condition-variable-guarded "window should close" flag. A
// window-system input pump (out of scope) calls RequestClose when its
// native window receives a close event; the scheduler's input subsystem
// polls or waits on ShouldClose to translate that into a shutdown request.
type Loop struct {
	mu      sync.Mutex
	cond    *sync.Cond
	closing bool
}

// NewLoop constructs a ready-to-use Loop.
func NewLoop() *Loop {
	l := &Loop{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// RequestClose marks the window as closing and wakes any goroutine blocked
// in Wait. Idempotent.
func (l *Loop) RequestClose() {
	l.mu.Lock()
	l.closing = true
	l.mu.Unlock()
	l.cond.Broadcast()
}

// ShouldClose reports whether RequestClose has been called.
func (l *Loop) ShouldClose() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closing
}

// Wait blocks until RequestClose is called. Safe to call from multiple
// goroutines; all are woken together.
func (l *Loop) Wait() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for !l.closing {
		l.cond.Wait()
	}
}
