package wasm_test

import (
	"bytes"
	"testing"

	"github.com/wippyai/wasm-bridge/wasm"
)

func TestEncodeEmptyModule(t *testing.T) {
	m := &wasm.Module{}
	data := m.Encode()

	if len(data) != 8 {
		t.Errorf("expected 8 bytes for empty module, got %d", len(data))
	}
	if !bytes.Equal(data[:4], []byte{0x00, 0x61, 0x73, 0x6D}) {
		t.Error("invalid magic number")
	}
	if !bytes.Equal(data[4:8], []byte{0x01, 0x00, 0x00, 0x00}) {
		t.Error("invalid version")
	}
}

func TestEncodeAddModule(t *testing.T) {
	m := &wasm.Module{}
	sig := wasm.FuncType{
		Params:  []wasm.ValType{wasm.ValI32, wasm.ValI32},
		Results: []wasm.ValType{wasm.ValI32},
	}
	idx := m.AddFunc(sig, wasm.NewExpr().LocalGet(0).LocalGet(1).Op(wasm.OpI32Add).Body())
	m.ExportFunc("add", idx)

	want := []byte{
		0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00,
		// type section
		0x01, 0x07, 0x01, 0x60, 0x02, 0x7F, 0x7F, 0x01, 0x7F,
		// function section
		0x03, 0x02, 0x01, 0x00,
		// export section
		0x07, 0x07, 0x01, 0x03, 'a', 'd', 'd', 0x00, 0x00,
		// code section
		0x0A, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6A, 0x0B,
	}

	if got := m.Encode(); !bytes.Equal(got, want) {
		t.Errorf("Encode() =\n% x\nwant\n% x", got, want)
	}
}

func TestAddTypeDeduplicates(t *testing.T) {
	m := &wasm.Module{}
	void := wasm.FuncType{}
	i32 := wasm.FuncType{Results: []wasm.ValType{wasm.ValI32}}

	if idx := m.AddType(void); idx != 0 {
		t.Errorf("first type index = %d, want 0", idx)
	}
	if idx := m.AddType(i32); idx != 1 {
		t.Errorf("second type index = %d, want 1", idx)
	}
	if idx := m.AddType(wasm.FuncType{}); idx != 0 {
		t.Errorf("duplicate type index = %d, want 0", idx)
	}
	if len(m.Types) != 2 {
		t.Errorf("got %d types, want 2", len(m.Types))
	}
}

func TestFunctionIndexSpace(t *testing.T) {
	m := &wasm.Module{}
	void := wasm.FuncType{}

	if idx := m.AddImport("host", "a", void); idx != 0 {
		t.Errorf("import a = %d, want 0", idx)
	}
	if idx := m.AddImport("host", "b", void); idx != 1 {
		t.Errorf("import b = %d, want 1", idx)
	}
	if idx := m.AddFunc(void, wasm.NewExpr().Body()); idx != 2 {
		t.Errorf("first defined func = %d, want 2", idx)
	}
}

func TestEncodeImportMemoryGlobal(t *testing.T) {
	m := &wasm.Module{
		Memories: []wasm.MemoryType{{Limits: wasm.Limits{Min: 1}}},
		Globals: []wasm.Global{{
			Type: wasm.GlobalType{ValType: wasm.ValI32, Mutable: true},
			Init: wasm.NewExpr().I32Const(0).End(),
		}},
	}
	m.AddImport("host", "f", wasm.FuncType{})
	m.Exports = append(m.Exports, wasm.Export{Name: "memory", Kind: wasm.KindMemory, Idx: 0})

	data := m.Encode()
	for _, section := range [][]byte{
		// import section: host.f func type 0
		{0x02, 0x0A, 0x01, 0x04, 'h', 'o', 's', 't', 0x01, 'f', 0x00, 0x00},
		// memory section: min 1, no max
		{0x05, 0x03, 0x01, 0x00, 0x01},
		// global section: mut i32 = 0
		{0x06, 0x06, 0x01, 0x7F, 0x01, 0x41, 0x00, 0x0B},
		// export section: memory 0
		{0x07, 0x0A, 0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00},
	} {
		if !bytes.Contains(data, section) {
			t.Errorf("encoded module missing section % x", section)
		}
	}
}

func TestValTypeString(t *testing.T) {
	tests := []struct {
		v    wasm.ValType
		want string
	}{
		{wasm.ValI32, "i32"},
		{wasm.ValI64, "i64"},
		{wasm.ValF32, "f32"},
		{wasm.ValF64, "f64"},
		{wasm.ValType(0), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("ValType(%#x).String() = %q, want %q", byte(tt.v), got, tt.want)
		}
	}
}
