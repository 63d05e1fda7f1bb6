package runtime

import (
	"context"
	"sort"
	"sync/atomic"

	"github.com/tetratelabs/wazero/api"
)

// Instance is a guest module instance bound to exactly one Store.
type Instance struct {
	runtime *Runtime
	linked  *LinkedModule
	store   *Store
	module  api.Module
	exports map[string]*export

	// poisonCode is the trap that poisoned the instance. Written once by the
	// call that won the liveness transition.
	poisonCode atomic.Value
	live       liveness
	closed     atomic.Bool
}

type export struct {
	fn       api.Function
	params   []api.ValueType
	results  []api.ValueType
	fallible bool
}

// Liveness returns the instance state.
func (i *Instance) Liveness() Liveness {
	return i.live.load()
}

// Store returns the store the instance is bound to.
func (i *Instance) Store() *Store {
	return i.store
}

// Module returns the linked module the instance was created from.
func (i *Instance) Module() *LinkedModule {
	return i.linked
}

// Memory returns the instance's exported memory, or nil.
func (i *Instance) Memory() api.Memory {
	return i.module.Memory()
}

// ExportNames lists exported functions sorted by name.
func (i *Instance) ExportNames() []string {
	names := make([]string, 0, len(i.exports))
	for name := range i.exports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close releases the guest module instance. Later calls fail with a closed error.
func (i *Instance) Close(ctx context.Context) error {
	if !i.closed.CompareAndSwap(false, true) {
		return nil
	}
	return i.module.Close(ctx)
}

func (i *Instance) poisonedBy() TrapCode {
	if code, ok := i.poisonCode.Load().(TrapCode); ok {
		return code
	}
	return TrapUnknown
}
