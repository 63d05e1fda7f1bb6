package engine

import (
	"testing"

	"github.com/tetratelabs/wazero/api"
)

func TestInspect(t *testing.T) {
	info, err := Inspect(testModule())
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}

	if len(info.Imports) != 1 {
		t.Fatalf("got %d imports, want 1", len(info.Imports))
	}
	imp := info.Imports[0]
	if imp.Module != "env" || imp.Name != "ping" {
		t.Errorf("unexpected import %s.%s", imp.Module, imp.Name)
	}
	if len(imp.Sig.Params) != 0 || len(imp.Sig.Results) != 0 {
		t.Errorf("ping signature = %s, want () -> ()", imp.Sig)
	}

	names := make(map[string]FuncSig)
	for _, exp := range info.Exports {
		names[exp.Name] = exp.Sig
	}
	for _, want := range []string{"add", "ping", "unreachable", "div_zero", "spin"} {
		if _, ok := names[want]; !ok {
			t.Errorf("missing export %q", want)
		}
	}
	if _, ok := names["memory"]; ok {
		t.Error("memory export should not be listed as a function")
	}
	if !info.Memory {
		t.Error("module defines a memory")
	}

	add := names["add"]
	if len(add.Params) != 2 || add.Params[0] != api.ValueTypeI32 || len(add.Results) != 1 {
		t.Errorf("add signature = %s", add)
	}
}

func TestInspect_Invalid(t *testing.T) {
	if _, err := Inspect([]byte{0x00, 0x61, 0x73}); err == nil {
		t.Error("expected error for truncated module")
	}
}

func TestFuncSigString(t *testing.T) {
	sig := FuncSig{
		Params:  []api.ValueType{api.ValueTypeI32, api.ValueTypeI64},
		Results: []api.ValueType{api.ValueTypeI32},
	}
	if got, want := sig.String(), "(i32, i64) -> (i32)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got, want := (FuncSig{}).String(), "() -> ()"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
