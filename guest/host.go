package guest

import (
	"go.uber.org/zap"

	"github.com/wippyai/wasm-bridge/runtime"
)

// HostErrorCode and HostErrorMessage are what return_err fails with.
const (
	HostErrorCode    uint32 = 1
	HostErrorMessage        = "host error"
)

// HostState is optional Store data counting host function invocations.
type HostState struct {
	Calls int
}

func count(call *runtime.HostCall) {
	if st, ok := call.Store().Data.(*HostState); ok {
		st.Calls++
	}
}

// HostFuncs returns the host functions the guest imports:
// return_ok succeeds, return_err fails with "host error" and panic aborts.
func HostFuncs(logger *zap.Logger) ([]runtime.HostFunc, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	decls := []struct {
		impl func(*runtime.HostCall) runtime.HostResult
		sig  string
	}{
		{
			sig: "return_ok: func()",
			impl: func(call *runtime.HostCall) runtime.HostResult {
				count(call)
				return runtime.Ok()
			},
		},
		{
			sig: "return_err: func() -> result",
			impl: func(call *runtime.HostCall) runtime.HostResult {
				count(call)
				return runtime.Fail(HostErrorCode, HostErrorMessage)
			},
		},
		{
			sig: "panic: func(host: bool)",
			impl: func(call *runtime.HostCall) runtime.HostResult {
				count(call)
				host := call.Args()[0] != 0
				logger.Info("host panicking", zap.Bool("host", host))
				runtime.Abort("host panicking")
				return nil
			},
		},
	}

	funcs := make([]runtime.HostFunc, 0, len(decls))
	for _, d := range decls {
		fn, err := runtime.HostFuncFromWIT(d.sig, d.impl)
		if err != nil {
			return nil, err
		}
		funcs = append(funcs, fn)
	}
	return funcs, nil
}

// NewHostTable returns the table the guest links against.
func NewHostTable(logger *zap.Logger) (*runtime.HostTable, error) {
	funcs, err := HostFuncs(logger)
	if err != nil {
		return nil, err
	}
	return runtime.NewHostTable(Namespace, funcs...)
}
