// Package wasmbridge runs sandboxed WebAssembly guests behind a typed call
// boundary with an explicit failure model.
//
// # Architecture Overview
//
//	wasmbridge/
//	├── runtime/   Compile, link, instantiate and call; stores, host tables, outcomes
//	├── engine/    wazero integration, trap classification, module inspection
//	├── errors/    Structured error types for debugging
//	├── wasm/      Core wasm binary encoder and instruction builder
//	├── guest/     Reference guest module and the host table it imports
//	└── cmd/run/   Demo driver, module listing and interactive console
//
// # Quick Start
//
//	rt, err := runtime.New(ctx, runtime.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	table, _ := guest.NewHostTable(logger)
//	mod, err := rt.CompileWithWIT(ctx, guest.Module(), guest.WIT)
//	linked, err := rt.Link(ctx, mod, table)
//	inst, err := rt.Instantiate(ctx, linked, rt.NewStore(&guest.HostState{}))
//
//	out, err := inst.Call(ctx, "add", 2, 3)
//
// # Failure Model
//
// A call either returns an Outcome or misuse error, or panics.
//
//   - runtime.Success and runtime.GuestError leave the instance Healthy.
//   - runtime.Trap with TrapGuestFault means guest code faulted. The instance is
//     Poisoned and every later call returns TrapCannotEnter without running guest code.
//   - A host function that panics or calls runtime.Abort raises a *runtime.HostFault.
//     It unwinds through the guest to the caller of Instance.Call and discards the
//     Store. Supervisors may use runtime.RecoverHostFault at the top of a task.
//
// Calls into one Store are serialized by the caller. A second call entering a
// Store with a call in flight fails with errors.ErrReentrancy.
package wasmbridge
