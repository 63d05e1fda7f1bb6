package runtime

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-bridge/engine"
	"github.com/wippyai/wasm-bridge/errors"
)

// Contract is the failure contract of a host function.
type Contract uint8

const (
	// ContractPure functions always return Ok. Returning Fail is a contract
	// violation and is escalated as a host fault.
	ContractPure Contract = iota
	// ContractFallible functions return Ok or Fail. The guest sees one extra
	// trailing i32 result: 0 on success, the failure code otherwise.
	ContractFallible
)

func (c Contract) String() string {
	switch c {
	case ContractPure:
		return "pure"
	case ContractFallible:
		return "fallible"
	default:
		return "unknown"
	}
}

// HostFunc is a function the guest may import.
// Panicking inside Impl, directly or through Abort, is a fatal host failure.
type HostFunc struct {
	Impl     func(*HostCall) HostResult
	Name     string
	Params   []api.ValueType
	Results  []api.ValueType
	Contract Contract
}

// GuestResults returns the result types the guest observes.
func (f *HostFunc) GuestResults() []api.ValueType {
	if f.Contract != ContractFallible {
		return f.Results
	}
	out := make([]api.ValueType, 0, len(f.Results)+1)
	out = append(out, f.Results...)
	return append(out, api.ValueTypeI32)
}

// HostResult is the value returned by a host function: Ok or Fail.
type HostResult interface {
	hostResult()
}

type okResult struct {
	values []uint64
}

type failResult struct {
	message string
	code    uint32
}

func (okResult) hostResult()   {}
func (failResult) hostResult() {}

// Ok is a successful host result carrying the declared result values.
func Ok(values ...uint64) HostResult {
	return okResult{values: values}
}

// Fail is a declared failure. Code must be non-zero; the guest receives it as
// the trailing status and the message is kept on the Store.
func Fail(code uint32, message string) HostResult {
	return failResult{code: code, message: message}
}

// HostTable is an immutable set of host functions under one namespace.
// It is safe to share between runtimes and instances.
type HostTable struct {
	funcs     map[string]*HostFunc
	namespace string
	names     []string
}

// NewHostTable builds a table. Empty or duplicate names and missing
// implementations are registration errors.
func NewHostTable(namespace string, funcs ...HostFunc) (*HostTable, error) {
	if namespace == "" {
		return nil, errors.InvalidInput(errors.PhaseHost, "namespace cannot be empty")
	}

	t := &HostTable{
		namespace: namespace,
		funcs:     make(map[string]*HostFunc, len(funcs)),
		names:     make([]string, 0, len(funcs)),
	}
	for i := range funcs {
		fn := funcs[i]
		switch {
		case fn.Name == "":
			return nil, errors.Registration(namespace, fmt.Sprintf("#%d", i), fmt.Errorf("function name cannot be empty"))
		case fn.Impl == nil:
			return nil, errors.Registration(namespace, fn.Name, fmt.Errorf("missing implementation"))
		case fn.Contract > ContractFallible:
			return nil, errors.Registration(namespace, fn.Name, fmt.Errorf("unknown contract %d", fn.Contract))
		}
		if _, exists := t.funcs[fn.Name]; exists {
			return nil, errors.Registration(namespace, fn.Name, fmt.Errorf("duplicate function"))
		}
		t.funcs[fn.Name] = &fn
		t.names = append(t.names, fn.Name)
	}
	return t, nil
}

// Namespace returns the import module name the table satisfies.
func (t *HostTable) Namespace() string {
	return t.namespace
}

// Lookup returns the function registered under name.
func (t *HostTable) Lookup(name string) (*HostFunc, bool) {
	fn, ok := t.funcs[name]
	return fn, ok
}

// Names returns function names in registration order.
func (t *HostTable) Names() []string {
	return append([]string(nil), t.names...)
}

// HostCall is the view of a running host function on its call.
type HostCall struct {
	ctx    context.Context
	store  *Store
	fn     *HostFunc
	caller api.Module
	args   []uint64
}

// Context returns the context of the guest call that reached this function.
func (c *HostCall) Context() context.Context {
	return c.ctx
}

// Store returns the Store of the calling instance.
func (c *HostCall) Store() *Store {
	return c.store
}

// Instance returns the calling instance.
func (c *HostCall) Instance() *Instance {
	return c.store.Instance()
}

// Args returns the raw parameters. Only valid during the call.
func (c *HostCall) Args() []uint64 {
	return c.args
}

// Memory returns the caller's exported memory, or nil if it has none.
func (c *HostCall) Memory() api.Memory {
	return c.caller.Memory()
}

// Name returns the function name.
func (c *HostCall) Name() string {
	return c.fn.Name
}

// bindings builds the engine host module for the table. Each function goes
// through the same trampoline.
func (t *HostTable) bindings(r *Runtime) []engine.HostBinding {
	out := make([]engine.HostBinding, 0, len(t.names))
	for _, name := range t.names {
		fn := t.funcs[name]
		out = append(out, engine.HostBinding{
			Name:    fn.Name,
			Params:  fn.Params,
			Results: fn.GuestResults(),
			Fn:      r.trampoline(t.namespace, fn),
		})
	}
	return out
}
