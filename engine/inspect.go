package engine

import (
	"fmt"
	"strings"

	"github.com/tetratelabs/wabin/binary"
	wabin "github.com/tetratelabs/wabin/wasm"
	"github.com/tetratelabs/wazero/api"
)

// FuncSig is a core function signature.
type FuncSig struct {
	Params  []api.ValueType
	Results []api.ValueType
}

func (s FuncSig) String() string {
	return "(" + valueTypeNames(s.Params) + ") -> (" + valueTypeNames(s.Results) + ")"
}

func valueTypeNames(types []api.ValueType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = api.ValueTypeName(t)
	}
	return strings.Join(names, ", ")
}

// ImportInfo describes a function import.
type ImportInfo struct {
	Module string
	Name   string
	Sig    FuncSig
}

// ExportInfo describes a function export.
type ExportInfo struct {
	Name string
	Sig  FuncSig
}

// ModuleInfo lists the function imports and exports of a module.
type ModuleInfo struct {
	Imports []ImportInfo
	Exports []ExportInfo
	Memory  bool
}

// Inspect decodes the import and export sections of a core module without
// compiling it.
func Inspect(wasmBytes []byte) (*ModuleInfo, error) {
	mod, err := binary.DecodeModule(wasmBytes, wabin.CoreFeaturesV2)
	if err != nil {
		return nil, fmt.Errorf("decode module: %w", err)
	}

	sigOf := func(typeIdx uint32) FuncSig {
		if int(typeIdx) >= len(mod.TypeSection) {
			return FuncSig{}
		}
		ft := mod.TypeSection[typeIdx]
		return FuncSig{Params: toAPITypes(ft.Params), Results: toAPITypes(ft.Results)}
	}

	info := &ModuleInfo{Memory: mod.MemorySection != nil}

	// function index space: imported functions first
	var funcTypes []uint32
	for _, imp := range mod.ImportSection {
		switch imp.Type {
		case wabin.ExternTypeFunc:
			funcTypes = append(funcTypes, uint32(imp.DescFunc))
			info.Imports = append(info.Imports, ImportInfo{
				Module: imp.Module,
				Name:   imp.Name,
				Sig:    sigOf(uint32(imp.DescFunc)),
			})
		case wabin.ExternTypeMemory:
			info.Memory = true
		}
	}
	for _, typeIdx := range mod.FunctionSection {
		funcTypes = append(funcTypes, uint32(typeIdx))
	}

	for _, exp := range mod.ExportSection {
		if exp.Type != wabin.ExternTypeFunc {
			continue
		}
		var sig FuncSig
		if int(exp.Index) < len(funcTypes) {
			sig = sigOf(funcTypes[exp.Index])
		}
		info.Exports = append(info.Exports, ExportInfo{Name: exp.Name, Sig: sig})
	}

	return info, nil
}

func toAPITypes(types []wabin.ValueType) []api.ValueType {
	if len(types) == 0 {
		return nil
	}
	out := make([]api.ValueType, len(types))
	for i, t := range types {
		out[i] = api.ValueType(t)
	}
	return out
}
