package runtime

import (
	"context"
	"sync/atomic"
)

// Store is the host side of one instance: user data, the single active call
// guard and the fatal host failure latch. A Store belongs to the goroutine
// that created it and holds at most one Instance.
type Store struct {
	// Data is host state visible to host functions through HostCall.Store.
	Data any

	runtime  *Runtime
	instance atomic.Pointer[Instance]
	fault    atomic.Pointer[HostFault]

	// hostErr is the last declared failure of a fallible host function
	// during the active call. Only touched by the call holding the guard.
	hostErr *failResult

	entries atomic.Uint64
	claimed atomic.Bool
	active  atomic.Bool
}

// NewStore creates a Store carrying data.
func (r *Runtime) NewStore(data any) *Store {
	return &Store{Data: data, runtime: r}
}

// Instance returns the instance bound to the store, or nil.
func (s *Store) Instance() *Instance {
	return s.instance.Load()
}

// Discarded reports whether a fatal host failure happened in this store.
// A discarded store refuses calls and instantiation.
func (s *Store) Discarded() bool {
	return s.fault.Load() != nil
}

// Fault returns the fatal host failure that discarded the store, or nil.
func (s *Store) Fault() *HostFault {
	return s.fault.Load()
}

// Entries counts how many times guest code was entered through this store.
func (s *Store) Entries() uint64 {
	return s.entries.Load()
}

// enter takes the single active call guard.
func (s *Store) enter() bool {
	return s.active.CompareAndSwap(false, true)
}

func (s *Store) exit() {
	s.active.Store(false)
}

// claim reserves the store for one instance.
func (s *Store) claim() bool {
	return s.claimed.CompareAndSwap(false, true)
}

func (s *Store) release() {
	s.claimed.Store(false)
}

// latch records the first fatal host failure.
func (s *Store) latch(f *HostFault) {
	s.fault.CompareAndSwap(nil, f)
}

type storeKey struct{}

func withStore(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, storeKey{}, s)
}

func storeFrom(ctx context.Context) *Store {
	s, _ := ctx.Value(storeKey{}).(*Store)
	return s
}
