package wasm

// Module is a core WebAssembly module ready to be encoded.
// Function indices count imports first, then Funcs in order.
type Module struct {
	Types    []FuncType
	Imports  []Import
	Funcs    []uint32 // type indices for declared functions
	Memories []MemoryType
	Globals  []Global
	Exports  []Export
	Code     []FuncBody
}

// FuncType represents a WebAssembly function signature with parameter and result types.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// Equal reports whether two function types have identical params and results.
func (f FuncType) Equal(other FuncType) bool {
	if len(f.Params) != len(other.Params) || len(f.Results) != len(other.Results) {
		return false
	}
	for i := range f.Params {
		if f.Params[i] != other.Params[i] {
			return false
		}
	}
	for i := range f.Results {
		if f.Results[i] != other.Results[i] {
			return false
		}
	}
	return true
}

// ValType is a core value type
type ValType byte

const (
	ValI32 ValType = 0x7F
	ValI64 ValType = 0x7E
	ValF32 ValType = 0x7D
	ValF64 ValType = 0x7C
)

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	default:
		return "unknown"
	}
}

// Import is a function import. Only function imports are supported.
type Import struct {
	Module  string
	Name    string
	TypeIdx uint32
}

// Export names a function, memory or global of the module.
type Export struct {
	Name string
	Kind byte
	Idx  uint32
}

// Limits for memories
type Limits struct {
	Max *uint32
	Min uint32
}

// MemoryType describes a linear memory
type MemoryType struct {
	Limits Limits
}

// GlobalType describes a global's value type and mutability
type GlobalType struct {
	ValType ValType
	Mutable bool
}

// Global is a global with its constant init expression (terminated by end)
type Global struct {
	Init []byte
	Type GlobalType
}

// LocalEntry declares Count locals of one type
type LocalEntry struct {
	Count   uint32
	ValType ValType
}

// FuncBody is a function's locals and instruction bytes (terminated by end)
type FuncBody struct {
	Locals []LocalEntry
	Code   []byte
}

// AddType returns the index of t, appending it to the type section if absent.
func (m *Module) AddType(t FuncType) uint32 {
	for i, existing := range m.Types {
		if existing.Equal(t) {
			return uint32(i)
		}
	}
	m.Types = append(m.Types, t)
	return uint32(len(m.Types) - 1)
}

// AddImport appends a function import and returns its function index.
// Imports must be added before any defined function.
func (m *Module) AddImport(module, name string, t FuncType) uint32 {
	m.Imports = append(m.Imports, Import{Module: module, Name: name, TypeIdx: m.AddType(t)})
	return uint32(len(m.Imports) - 1)
}

// AddFunc appends a defined function and returns its function index.
func (m *Module) AddFunc(t FuncType, body FuncBody) uint32 {
	m.Funcs = append(m.Funcs, m.AddType(t))
	m.Code = append(m.Code, body)
	return uint32(len(m.Imports) + len(m.Funcs) - 1)
}

// ExportFunc exports a function under name.
func (m *Module) ExportFunc(name string, funcIdx uint32) {
	m.Exports = append(m.Exports, Export{Name: name, Kind: KindFunc, Idx: funcIdx})
}
