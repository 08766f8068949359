// Package lifetime ties the release of native resources to the scope which
// created them.
//
// Every creation step pushes the matching destroy call onto a Stack. When the
// scope ends, successfully or on an error path, Release runs the destroy
// calls in reverse order of creation:
//
//	var res lifetime.Stack
//	defer res.Release()
//
//	buf, err := createBuffer()
//	if err != nil {
//		return err
//	}
//	res.Defer(buf.Destroy)
//
// Ownership can be moved out of a scope with Take, so a constructor can clean
// up after itself on failure and hand everything to its caller on success.
package lifetime

import (
	"sync"
)

// Stack is a LIFO list of release functions. The zero value is ready to use.
// A Stack is not safe for concurrent use apart from Release which may be
// called more than once.
type Stack struct {
	mu    sync.Mutex
	funcs []func()
}

// Defer registers f to be run by Release. Nil functions are ignored.
func (s *Stack) Defer(f func()) {
	if f == nil {
		return
	}

	s.mu.Lock()
	s.funcs = append(s.funcs, f)
	s.mu.Unlock()
}

// Len returns the number of pending release functions.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.funcs)
}

// Release runs all registered functions, most recent first, and empties the
// stack. Calling Release on an empty stack does nothing.
func (s *Stack) Release() {
	s.mu.Lock()
	funcs := s.funcs
	s.funcs = nil
	s.mu.Unlock()

	for i := len(funcs) - 1; i >= 0; i-- {
		funcs[i]()
	}
}

// Take moves every pending function into a new Stack and leaves s empty. The
// usual pattern is to return res.Take() at the end of a constructor whose
// deferred res.Release() then has nothing left to do.
func (s *Stack) Take() *Stack {
	s.mu.Lock()
	defer s.mu.Unlock()

	taken := &Stack{funcs: s.funcs}
	s.funcs = nil
	return taken
}

// Adopt moves all functions of other on top of s. They will be released
// before anything s already held.
func (s *Stack) Adopt(other *Stack) {
	if other == nil || other == s {
		return
	}

	other.mu.Lock()
	funcs := other.funcs
	other.funcs = nil
	other.mu.Unlock()

	s.mu.Lock()
	s.funcs = append(s.funcs, funcs...)
	s.mu.Unlock()
}
