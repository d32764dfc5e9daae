package ext

import (
	"reflect"
	"sync"
)

// OpState is a bag of values keyed by their type, shared by all ops of a
// runtime.
type OpState struct {
	mu     sync.RWMutex
	values map[reflect.Type]any
}

func NewOpState() *OpState {
	return &OpState{values: make(map[reflect.Type]any)}
}

// Put stores v under its dynamic type, replacing any previous value of
// that type. Nil is ignored.
func (s *OpState) Put(v any) {
	if v == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[reflect.TypeOf(v)] = v
}

// Borrow returns the value stored for T.
func Borrow[T any](s *OpState) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[reflect.TypeFor[T]()].(T)
	return v, ok
}
