package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-bridge/guest"
	"github.com/wippyai/wasm-bridge/runtime"
)

type demo struct {
	rt     *runtime.Runtime
	linked *runtime.LinkedModule
	logger *zap.Logger
}

// runDemo drives the fixed sequence: a task killed by a host panic, a task
// that poisons its instance, and a fresh store that still works.
func runDemo(ctx context.Context, logger *zap.Logger, data []byte, opts []runtime.Option) (err error) {
	rt, err := runtime.New(ctx, opts...)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, rt.Close(ctx))
	}()

	table, err := guest.NewHostTable(logger)
	if err != nil {
		return err
	}
	mod, err := rt.CompileWithWIT(ctx, data, guest.WIT)
	if err != nil {
		return err
	}
	linked, err := rt.Link(ctx, mod, table)
	if err != nil {
		return err
	}

	d := &demo{rt: rt, linked: linked, logger: logger}
	if err := d.hostPanicTask(ctx); err != nil {
		return err
	}
	if err := d.regularTask(ctx); err != nil {
		return err
	}
	return d.freshStore(ctx)
}

func micros(d time.Duration) zap.Field {
	return zap.Int64("µs", d.Microseconds())
}

func (d *demo) instantiate(ctx context.Context, label string) (*runtime.Instance, error) {
	start := time.Now()
	inst, err := d.rt.Instantiate(ctx, d.linked, d.rt.NewStore(&guest.HostState{}))
	if err != nil {
		return nil, err
	}
	d.logger.Info(label+" finished", micros(time.Since(start)))
	return inst, nil
}

// hostPanicTask never returns normally. Its supervisor only observes the
// abnormal termination.
func (d *demo) hostPanicTask(ctx context.Context) error {
	type report struct {
		fault *runtime.HostFault
		err   error
	}

	done := make(chan report, 1)
	go func() {
		var r report
		r.fault = runtime.RecoverHostFault(func() {
			inst, err := d.instantiate(ctx, "instantiation")
			if err != nil {
				r.err = err
				return
			}
			out, err := inst.Call(ctx, "panic", 1)
			r.err = fmt.Errorf("host panic returned normally: %v, %v", out, err)
		})
		done <- r
	}()

	r := <-done
	if r.err != nil {
		return r.err
	}
	if r.fault == nil {
		return fmt.Errorf("host panic task finished without a fault")
	}
	d.logger.Info("host panic task terminated",
		zap.String("func", r.fault.Func),
		zap.Any("reason", r.fault.Value))
	return nil
}

func (d *demo) regularTask(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- d.regular(ctx)
	}()
	return <-done
}

func (d *demo) regular(ctx context.Context) (err error) {
	inst, err := d.instantiate(ctx, "instantiation2")
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, inst.Close(ctx))
	}()

	start := time.Now()
	if err := expectSuccess(inst.Call(ctx, "return_ok")); err != nil {
		return err
	}
	d.logger.Info("return_ok finished", micros(time.Since(start)))

	start = time.Now()
	if err := expectTrap(runtime.TrapGuestFault)(inst.Call(ctx, "panic", 0)); err != nil {
		return err
	}
	d.logger.Info("guest panic finished", micros(time.Since(start)))

	// every call after a guest fault is refused
	start = time.Now()
	if err := expectTrap(runtime.TrapCannotEnter)(inst.Call(ctx, "return_ok")); err != nil {
		return err
	}
	d.logger.Info("cannot enter finished", micros(time.Since(start)))
	return nil
}

func (d *demo) freshStore(ctx context.Context) (err error) {
	inst, err := d.instantiate(ctx, "instantiation3")
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, inst.Close(ctx))
	}()

	start := time.Now()
	if err := expectSuccess(inst.Call(ctx, "return_ok")); err != nil {
		return err
	}
	d.logger.Info("return_ok finished", micros(time.Since(start)))
	return nil
}

func expectSuccess(out runtime.Outcome, err error) error {
	if err != nil {
		return err
	}
	if _, ok := out.(runtime.Success); !ok {
		return fmt.Errorf("expected success, got %s", out)
	}
	return nil
}

func expectTrap(kind runtime.TrapKind) func(runtime.Outcome, error) error {
	return func(out runtime.Outcome, err error) error {
		if err != nil {
			return err
		}
		trap, ok := out.(runtime.Trap)
		if !ok || trap.Kind != kind || trap.Code != runtime.TrapUnreachable {
			return fmt.Errorf("expected trap %s (unreachable), got %s", kind, out)
		}
		return nil
	}
}
