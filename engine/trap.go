package engine

import (
	"errors"
	"strings"

	"github.com/tetratelabs/wazero/sys"
)

// TrapCode names the condition that stopped guest execution.
type TrapCode string

const (
	TrapUnreachable         TrapCode = "unreachable"
	TrapIntegerDivideByZero TrapCode = "integer_divide_by_zero"
	TrapIntegerOverflow     TrapCode = "integer_overflow"
	TrapMemoryOutOfBounds   TrapCode = "memory_out_of_bounds"
	TrapStackOverflow       TrapCode = "stack_overflow"
	TrapIndirectCall        TrapCode = "indirect_call"
	TrapInvalidConversion   TrapCode = "invalid_conversion"
	TrapInterrupted         TrapCode = "interrupted"
	TrapUnknown             TrapCode = "unknown"
)

const wasmErrorPrefix = "wasm error: "

// wazero reports runtime traps as "wasm error: <message>".
var trapMessages = []struct {
	message string
	code    TrapCode
}{
	{"unreachable", TrapUnreachable},
	{"integer divide by zero", TrapIntegerDivideByZero},
	{"integer overflow", TrapIntegerOverflow},
	{"out of bounds memory access", TrapMemoryOutOfBounds},
	{"stack overflow", TrapStackOverflow},
	{"invalid table access", TrapIndirectCall},
	{"indirect call type mismatch", TrapIndirectCall},
	{"invalid conversion to integer", TrapInvalidConversion},
}

// ClassifyTrap maps an error returned by a guest call to a TrapCode.
// Calls closed because their context was done classify as TrapInterrupted.
func ClassifyTrap(err error) TrapCode {
	if err == nil {
		return TrapUnknown
	}

	var exitErr *sys.ExitError
	if errors.As(err, &exitErr) {
		switch exitErr.ExitCode() {
		case sys.ExitCodeContextCanceled, sys.ExitCodeDeadlineExceeded:
			return TrapInterrupted
		}
		return TrapUnknown
	}

	msg := err.Error()
	idx := strings.Index(msg, wasmErrorPrefix)
	if idx < 0 {
		return TrapUnknown
	}
	msg = msg[idx+len(wasmErrorPrefix):]
	for _, t := range trapMessages {
		if strings.HasPrefix(msg, t.message) {
			return t.code
		}
	}
	return TrapUnknown
}

// IsClosed reports whether err means the module was closed under the call
// rather than trapped or interrupted.
func IsClosed(err error) bool {
	var exitErr *sys.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	switch exitErr.ExitCode() {
	case sys.ExitCodeContextCanceled, sys.ExitCodeDeadlineExceeded:
		return false
	}
	return true
}
