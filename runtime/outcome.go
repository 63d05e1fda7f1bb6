package runtime

import (
	"fmt"

	"github.com/wippyai/wasm-bridge/engine"
)

// Outcome is the result of a guest call: Success, GuestError or Trap.
// A fatal host failure is never an Outcome; it arrives as a *HostFault panic.
type Outcome interface {
	fmt.Stringer
	outcome()
}

// Success is a normal return with the export's core result values.
type Success struct {
	Values []uint64
}

// GuestError is a declared failure of a fallible export. The instance stays Healthy.
type GuestError struct {
	Message string
	Code    uint32
}

// Trap is a guest fault. Kind tells whether this call caused it or the
// instance was already poisoned.
type Trap struct {
	Cause error
	Kind  TrapKind
	Code  TrapCode
}

func (Success) outcome()    {}
func (GuestError) outcome() {}
func (Trap) outcome()       {}

func (s Success) String() string {
	return fmt.Sprintf("success %v", s.Values)
}

func (e GuestError) String() string {
	return fmt.Sprintf("guest error %d: %s", e.Code, e.Message)
}

func (t Trap) String() string {
	return fmt.Sprintf("trap %s (%s)", t.Kind, t.Code)
}

// TrapKind separates the call that poisoned an instance from calls refused afterwards.
type TrapKind uint8

const (
	// TrapGuestFault: guest code faulted during this call and poisoned the instance.
	TrapGuestFault TrapKind = iota
	// TrapCannotEnter: the instance was already poisoned; no guest code ran.
	TrapCannotEnter
)

func (k TrapKind) String() string {
	switch k {
	case TrapGuestFault:
		return "guest_fault"
	case TrapCannotEnter:
		return "cannot_enter"
	default:
		return "unknown"
	}
}

// TrapCode names the fault condition.
type TrapCode = engine.TrapCode

const (
	TrapUnreachable         = engine.TrapUnreachable
	TrapIntegerDivideByZero = engine.TrapIntegerDivideByZero
	TrapIntegerOverflow     = engine.TrapIntegerOverflow
	TrapMemoryOutOfBounds   = engine.TrapMemoryOutOfBounds
	TrapStackOverflow       = engine.TrapStackOverflow
	TrapIndirectCall        = engine.TrapIndirectCall
	TrapInvalidConversion   = engine.TrapInvalidConversion
	TrapInterrupted         = engine.TrapInterrupted
	TrapUnknown             = engine.TrapUnknown
)

func outcomeLabel(o Outcome) string {
	switch o := o.(type) {
	case Success:
		return "success"
	case GuestError:
		return "guest_error"
	case Trap:
		return o.Kind.String()
	default:
		return "unknown"
	}
}
