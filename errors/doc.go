// Package errors provides structured error types for the wasm bridge.
//
// Errors are categorized by Phase (where in the lifecycle the error occurred) and
// Kind (error category). Setup failures map onto phases: a CompileError is
// PhaseCompile, a LinkError is PhaseLink, an InstantiationError is PhaseInstantiate.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseLink, errors.KindSignatureMismatch).
//		Function("host", "return_err").
//		Detail("guest expects () -> (i32)").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Reentrancy("return_ok")
//	err := errors.Compile(cause)
//
// All errors implement the standard error interface and support errors.Is/As.
// Is matches on Phase and Kind, so the exported sentinels work as targets:
//
//	if errors.Is(err, bridgeerrors.ErrReentrancy) { ... }
//
// Guest traps and declared guest errors are not errors in this sense: they are
// call outcomes and live in the runtime package.
package errors
