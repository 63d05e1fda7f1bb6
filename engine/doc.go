// Package engine wraps wazero for the bridge.
//
// The engine owns compilation, host module binding and instantiation. It knows
// nothing about call contracts or instance liveness; those live in the runtime
// package on top of it.
//
// # Flow
//
//  1. WazeroEngine.Compile validates and compiles core module bytes
//  2. WazeroEngine.BindHost instantiates one host module per namespace
//  3. WazeroEngine.Instantiate creates an anonymous module instance whose
//     imports resolve against the bound host modules
//
// # Traps
//
// wazero recovers every panic raised during a call, guest traps and host
// function panics alike, and returns it as an error. ClassifyTrap maps those
// errors onto TrapCode values:
//
//	wazero message                  TrapCode
//	─────────────────────────────────────────────────────
//	unreachable                     TrapUnreachable
//	integer divide by zero          TrapIntegerDivideByZero
//	integer overflow                TrapIntegerOverflow
//	out of bounds memory access     TrapMemoryOutOfBounds
//	stack overflow                  TrapStackOverflow
//	indirect call type mismatch     TrapIndirectCall
//	invalid conversion to integer   TrapInvalidConversion
//	context canceled / deadline     TrapInterrupted
//
// Runtimes are created with WithCloseOnContextDone, so a call whose context is
// done is interrupted and its module instance closed.
//
// # Inspection
//
// Inspect decodes the import and export sections of a module with wabin
// without compiling it, for listings and diagnostics.
package engine
