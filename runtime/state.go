package runtime

import "sync/atomic"

// Liveness is the usability state of an instance.
type Liveness uint32

const (
	// Healthy instances accept calls.
	Healthy Liveness = iota
	// Poisoned instances trapped once and refuse every later call. Terminal.
	Poisoned
)

func (l Liveness) String() string {
	switch l {
	case Healthy:
		return "healthy"
	case Poisoned:
		return "poisoned"
	default:
		return "unknown"
	}
}

// liveness is the per-instance state flag. Healthy to Poisoned is the only
// transition.
type liveness struct {
	v atomic.Uint32
}

func (l *liveness) load() Liveness {
	return Liveness(l.v.Load())
}

// poison moves the flag to Poisoned and reports whether this call made the
// transition. Exactly one caller observes true.
func (l *liveness) poison() bool {
	return l.v.CompareAndSwap(uint32(Healthy), uint32(Poisoned))
}
