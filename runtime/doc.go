// Package runtime is the host/guest call bridge.
//
// # Quick Start
//
//	ctx := context.Background()
//	rt, err := runtime.New(ctx, runtime.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	table, err := runtime.NewHostTable("host",
//	    runtime.HostFunc{Name: "return_ok", Impl: func(*runtime.HostCall) runtime.HostResult {
//	        return runtime.Ok()
//	    }},
//	)
//
//	mod, err := rt.CompileWithWIT(ctx, wasmBytes, witText)
//	linked, err := rt.Link(ctx, mod, table)
//
//	store := rt.NewStore(nil)
//	inst, err := rt.Instantiate(ctx, linked, store)
//
//	out, err := inst.Call(ctx, "return_ok")
//
// # Outcomes
//
// Instance.Call returns an error only for misuse. What the guest did is an
// Outcome value:
//
//	Success{Values}          normal return, instance stays Healthy
//	GuestError{Code, Msg}    fallible export returned a non-zero status
//	Trap{TrapGuestFault}     guest faulted in this call, instance now Poisoned
//	Trap{TrapCannotEnter}    instance already Poisoned, no guest code ran
//
// Poisoned is terminal. The transition happens exactly once per instance.
//
// # Host Functions
//
// Every host function has a contract:
//
//	ContractPure      returns Ok; returning Fail is treated as a host fault
//	ContractFallible  returns Ok or Fail(code, msg); the guest sees a trailing
//	                  i32 status and can branch on it without trapping
//
// A panic in host code, or a call to Abort, is a fatal host failure. It is
// not contained in the instance: the store is discarded and Instance.Call
// re-panics with the *HostFault on the caller's goroutine. Supervisors that
// want a report instead of a crash wrap the whole task:
//
//	if fault := runtime.RecoverHostFault(task); fault != nil {
//	    // start over with a new Store and Instance
//	}
//
// # Stores
//
// A Store holds host data for one instance and admits one call at a time.
// Concurrent or reentrant use fails fast with errors.ErrReentrancy.
//
// # WIT
//
// CompileWithWIT accepts a WIT subset of primitive types:
//
//	export add: func(a: u32, b: u32) -> u32;
//	export return_err: func() -> result;
//
// Exports returning result are fallible. HostFuncFromWIT declares host
// functions from the same syntax.
package runtime
