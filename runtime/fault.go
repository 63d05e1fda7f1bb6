package runtime

import (
	"fmt"
	"runtime/debug"
)

// HostFault is the panic value of a fatal host failure. It is raised from the
// host function, crosses the guest and the dispatcher unchanged, and reaches
// the goroutine that called Instance.Call. The Store it happened in is
// discarded.
type HostFault struct {
	// Value is the original panic value or the reason passed to Abort.
	Value any
	// Func is the failing host function as "namespace#name".
	Func  string
	Stack []byte
}

func (f *HostFault) Error() string {
	if f.Func == "" {
		return fmt.Sprintf("host fault: %v", f.Value)
	}
	return fmt.Sprintf("host fault in %s: %v", f.Func, f.Value)
}

// Unwrap returns the panic value when it is an error.
func (f *HostFault) Unwrap() error {
	if err, ok := f.Value.(error); ok {
		return err
	}
	return nil
}

// Abort fails the current host function fatally. It does not return.
func Abort(reason string) {
	panic(&HostFault{Value: reason, Stack: debug.Stack()})
}

// Abortf is Abort with formatting.
func Abortf(format string, args ...any) {
	panic(&HostFault{Value: fmt.Sprintf(format, args...), Stack: debug.Stack()})
}

// asHostFault wraps any recovered panic value into a *HostFault attributed to fn.
func asHostFault(recovered any, fn string) *HostFault {
	if f, ok := recovered.(*HostFault); ok {
		if f.Func == "" {
			f.Func = fn
		}
		return f
	}
	return &HostFault{Value: recovered, Func: fn, Stack: debug.Stack()}
}

// RecoverHostFault runs fn and returns the *HostFault it panicked with, or
// nil if fn returned normally. Other panics are not recovered.
//
// It is meant for supervisors at the top of a task, never around a single
// call in order to keep using the same Store.
func RecoverHostFault(fn func()) (fault *HostFault) {
	defer func() {
		if r := recover(); r != nil {
			f, ok := r.(*HostFault)
			if !ok {
				panic(r)
			}
			fault = f
		}
	}()
	fn()
	return nil
}
