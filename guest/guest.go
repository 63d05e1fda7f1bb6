// Package guest provides the reference guest module and the host table it
// imports.
//
// The guest forwards return_ok, return_err and panic to the host functions of
// the same name, and adds a few exports to exercise guest faults and declared
// errors directly. Every export except call_count bumps a guest-side counter.
package guest

import (
	"sync"

	"github.com/wippyai/wasm-bridge/wasm"
)

// Namespace is the import module of the host functions.
const Namespace = "host"

// WIT declares the guest's imports and exports.
const WIT = `package bridge:guest;

world guest {
    import return_ok: func();
    import return_err: func() -> result;
    import panic: func(host: bool);

    export return_ok: func();
    export return_err: func() -> result;
    export panic: func(host: bool);
    export trigger_guest_fault: func();
    export divide: func(a: s32, b: s32) -> s32;
    export recover_err: func() -> u32;
    export call_count: func() -> u32;
    export add: func(a: u32, b: u32) -> u32;
}
`

var (
	voidType    = wasm.FuncType{}
	statusType  = wasm.FuncType{Results: []wasm.ValType{wasm.ValI32}}
	boolArgType = wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}}
	binaryType  = wasm.FuncType{
		Params:  []wasm.ValType{wasm.ValI32, wasm.ValI32},
		Results: []wasm.ValType{wasm.ValI32},
	}
)

var buildOnce = sync.OnceValue(build)

// Module returns the encoded guest module. The slice is shared; do not modify it.
func Module() []byte {
	return buildOnce()
}

func build() []byte {
	m := &wasm.Module{
		Memories: []wasm.MemoryType{{Limits: wasm.Limits{Min: 1}}},
		Globals: []wasm.Global{{
			Type: wasm.GlobalType{ValType: wasm.ValI32, Mutable: true},
			Init: wasm.NewExpr().I32Const(0).End(),
		}},
		Exports: []wasm.Export{{Name: "memory", Kind: wasm.KindMemory, Idx: 0}},
	}

	hostReturnOk := m.AddImport(Namespace, "return_ok", voidType)
	hostReturnErr := m.AddImport(Namespace, "return_err", statusType)
	hostPanic := m.AddImport(Namespace, "panic", boolArgType)

	const counter = 0
	bump := func() *wasm.Expr {
		return wasm.NewExpr().
			GlobalGet(counter).
			I32Const(1).
			Op(wasm.OpI32Add).
			GlobalSet(counter)
	}

	m.ExportFunc("return_ok", m.AddFunc(voidType,
		bump().Call(hostReturnOk).Body()))

	// status of the host call is the export's status
	m.ExportFunc("return_err", m.AddFunc(statusType,
		bump().Call(hostReturnErr).Body()))

	// host=true forwards to the host panic, host=false traps in the guest
	m.ExportFunc("panic", m.AddFunc(boolArgType,
		bump().
			LocalGet(0).
			If().
			LocalGet(0).
			Call(hostPanic).
			Else().
			Unreachable().
			Op(wasm.OpEnd).
			Body()))

	m.ExportFunc("trigger_guest_fault", m.AddFunc(voidType,
		bump().Unreachable().Body()))

	m.ExportFunc("divide", m.AddFunc(binaryType,
		bump().LocalGet(0).LocalGet(1).Op(wasm.OpI32DivS).Body()))

	// 1 when the host reported an error, which the guest absorbs
	m.ExportFunc("recover_err", m.AddFunc(statusType,
		bump().Call(hostReturnErr).I32Const(0).Op(wasm.OpI32Ne).Body()))

	m.ExportFunc("call_count", m.AddFunc(statusType,
		wasm.NewExpr().GlobalGet(counter).Body()))

	m.ExportFunc("add", m.AddFunc(binaryType,
		bump().LocalGet(0).LocalGet(1).Op(wasm.OpI32Add).Body()))

	return m.Encode()
}
