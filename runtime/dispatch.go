package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-bridge/engine"
	"github.com/wippyai/wasm-bridge/errors"
)

// Call invokes the guest export name.
//
// The returned error reports misuse only: unknown export, wrong argument
// count, closed instance or runtime, discarded store or a call entering a store that
// already has one in flight (errors.ErrReentrancy). Everything the guest does
// is an Outcome:
//
//   - Success on normal return
//   - GuestError when a fallible export returns a non-zero status
//   - Trap{TrapGuestFault} when guest code faults; the instance is poisoned
//   - Trap{TrapCannotEnter} on a poisoned instance, without running guest code
//
// A fatal host failure during the call is not returned. Call panics with the
// *HostFault after discarding the store.
func (i *Instance) Call(ctx context.Context, name string, args ...uint64) (Outcome, error) {
	if i.closed.Load() || i.module.IsClosed() {
		return nil, errors.Closed(name)
	}
	exp, ok := i.exports[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseCall, "export", name)
	}
	if len(args) != len(exp.params) {
		return nil, errors.Arity(name, len(exp.params), len(args))
	}

	s := i.store
	if s.Discarded() {
		return nil, errors.StoreDiscarded(name)
	}
	if !s.enter() {
		return nil, errors.Reentrancy(name)
	}
	defer s.exit()

	r := i.runtime
	start := time.Now()

	if i.live.load() == Poisoned {
		out := Trap{Kind: TrapCannotEnter, Code: i.poisonedBy()}
		r.metrics.observeCall(name, out, time.Since(start))
		r.logger.Debug("call refused",
			zap.String("export", name),
			zap.Stringer("outcome", out))
		return out, nil
	}

	callCtx := withStore(ctx, s)
	if r.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, r.cfg.CallTimeout)
		defer cancel()
	}

	s.hostErr = nil
	s.entries.Add(1)
	results, err := exp.fn.Call(callCtx, args...)
	elapsed := time.Since(start)

	if err != nil {
		if fault := s.Fault(); fault != nil {
			r.metrics.observeHostFault(name)
			r.logger.Error("host fault escalated",
				zap.String("export", name),
				zap.String("func", fault.Func),
				zap.Any("reason", fault.Value),
				zap.Duration("elapsed", elapsed))
			panic(fault)
		}
		if engine.IsClosed(err) {
			closed := errors.Closed(name)
			closed.Cause = err
			return nil, closed
		}
		return i.trap(name, err, elapsed), nil
	}

	var out Outcome = Success{Values: results}
	if exp.fallible && len(results) > 0 {
		if status := uint32(results[len(results)-1]); status != 0 {
			out = GuestError{Code: status, Message: guestErrorMessage(s, status)}
		} else {
			out = Success{Values: results[:len(results)-1]}
		}
	}

	r.metrics.observeCall(name, out, elapsed)
	r.logger.Debug("call finished",
		zap.String("export", name),
		zap.Stringer("outcome", out),
		zap.Duration("elapsed", elapsed))
	return out, nil
}

// trap classifies an engine error and poisons the instance.
func (i *Instance) trap(name string, err error, elapsed time.Duration) Outcome {
	r := i.runtime
	code := engine.ClassifyTrap(err)

	out := Trap{Kind: TrapCannotEnter, Code: code, Cause: err}
	if i.live.poison() {
		i.poisonCode.Store(code)
		out.Kind = TrapGuestFault
		r.metrics.observePoison()
		r.logger.Warn("instance poisoned",
			zap.String("export", name),
			zap.String("trap", string(code)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
	}

	r.metrics.observeCall(name, out, elapsed)
	return out
}

func guestErrorMessage(s *Store, status uint32) string {
	if s.hostErr != nil && s.hostErr.code == status {
		return s.hostErr.message
	}
	return fmt.Sprintf("guest error %d", status)
}

// trampoline adapts fn to the engine. It applies the contract of fn and turns
// every panic into a *HostFault latched on the active store before letting it
// unwind through the guest.
func (r *Runtime) trampoline(namespace string, fn *HostFunc) api.GoModuleFunc {
	qualified := namespace + "#" + fn.Name
	nParams := len(fn.Params)

	return func(ctx context.Context, caller api.Module, stack []uint64) {
		s := storeFrom(ctx)
		defer func() {
			if rec := recover(); rec != nil {
				fault := asHostFault(rec, qualified)
				if s != nil {
					s.latch(fault)
				}
				panic(fault)
			}
		}()

		if s == nil || !s.active.Load() {
			Abortf("%s called outside a bridge call", qualified)
		}

		if ce := r.logger.Check(zap.DebugLevel, "host call"); ce != nil {
			ce.Write(zap.String("func", qualified), zap.Uint64s("args", stack[:nParams]))
		}

		call := &HostCall{
			ctx:    ctx,
			store:  s,
			fn:     fn,
			caller: caller,
			args:   stack[:nParams:nParams],
		}
		res := fn.Impl(call)
		r.applyContract(s, qualified, fn, res, stack)
	}
}

// applyContract writes res onto the guest stack. Contract violations abort.
func (r *Runtime) applyContract(s *Store, qualified string, fn *HostFunc, res HostResult, stack []uint64) {
	switch res := res.(type) {
	case okResult:
		if len(res.values) != len(fn.Results) {
			Abortf("%s returned %d value(s), declared %d", qualified, len(res.values), len(fn.Results))
		}
		copy(stack, res.values)
		if fn.Contract == ContractFallible {
			stack[len(fn.Results)] = 0
		}
	case failResult:
		if fn.Contract != ContractFallible {
			Abortf("pure host function %s failed: %s (code %d)", qualified, res.message, res.code)
		}
		if res.code == 0 {
			Abortf("%s failed with status 0", qualified)
		}
		for idx := range fn.Results {
			stack[idx] = 0
		}
		stack[len(fn.Results)] = uint64(res.code)
		s.hostErr = &res
		r.metrics.observeHostFailure(qualified)
	default:
		Abortf("%s returned no result", qualified)
	}
}
