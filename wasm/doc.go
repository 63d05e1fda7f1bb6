// Package wasm encodes core WebAssembly modules.
//
// It covers the subset needed to produce small guest modules by hand:
// function types, function imports, defined functions, linear memories,
// globals and exports. Instruction bodies are assembled with Expr.
//
//	m := &wasm.Module{}
//	add := m.AddFunc(
//		wasm.FuncType{Params: []wasm.ValType{wasm.ValI32, wasm.ValI32}, Results: []wasm.ValType{wasm.ValI32}},
//		wasm.NewExpr().LocalGet(0).LocalGet(1).Op(wasm.OpI32Add).Body(),
//	)
//	m.ExportFunc("add", add)
//	bin := m.Encode()
//
// Validation is left to the engine that compiles the output.
package wasm
