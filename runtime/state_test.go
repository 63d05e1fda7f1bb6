package runtime

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLiveness_PoisonOnce(t *testing.T) {
	var l liveness
	assert.Equal(t, Healthy, l.load())

	assert.True(t, l.poison())
	assert.Equal(t, Poisoned, l.load())

	assert.False(t, l.poison())
	assert.Equal(t, Poisoned, l.load())
}

func TestLiveness_ConcurrentPoison(t *testing.T) {
	var l liveness
	var winners atomic.Int32
	var wg sync.WaitGroup

	for range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.poison() {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
	assert.Equal(t, Poisoned, l.load())
}

func TestStringers(t *testing.T) {
	assert.Equal(t, "healthy", Healthy.String())
	assert.Equal(t, "poisoned", Poisoned.String())
	assert.Equal(t, "unknown", Liveness(5).String())

	assert.Equal(t, "guest_fault", TrapGuestFault.String())
	assert.Equal(t, "cannot_enter", TrapCannotEnter.String())

	assert.Equal(t, "success [5]", Success{Values: []uint64{5}}.String())
	assert.Equal(t, "guest error 1: host error", GuestError{Code: 1, Message: "host error"}.String())
	assert.Equal(t, "trap guest_fault (unreachable)", Trap{Kind: TrapGuestFault, Code: TrapUnreachable}.String())
}

func TestStoreGuards(t *testing.T) {
	s := &Store{}

	assert.True(t, s.enter())
	assert.False(t, s.enter())
	s.exit()
	assert.True(t, s.enter())
	s.exit()

	assert.True(t, s.claim())
	assert.False(t, s.claim())
	s.release()
	assert.True(t, s.claim())

	assert.False(t, s.Discarded())
	first := &HostFault{Value: "first"}
	s.latch(first)
	s.latch(&HostFault{Value: "second"})
	assert.True(t, s.Discarded())
	assert.Same(t, first, s.Fault())
}
