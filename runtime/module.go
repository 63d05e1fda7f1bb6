package runtime

import (
	"sort"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// Module is a compiled guest module. It is immutable and shared by every
// instantiation.
type Module struct {
	runtime  *Runtime
	compiled wazero.CompiledModule
	iface    *Interface
}

// Interface returns the WIT declarations the module was compiled with, or nil.
func (m *Module) Interface() *Interface {
	return m.iface
}

// Export describes an exported guest function.
type Export struct {
	Name     string
	Params   []api.ValueType
	Results  []api.ValueType
	Fallible bool
}

// Exports lists exported functions sorted by name.
func (m *Module) Exports() []Export {
	defs := m.compiled.ExportedFunctions()
	exports := make([]Export, 0, len(defs))
	for name, def := range defs {
		exports = append(exports, Export{
			Name:     name,
			Params:   def.ParamTypes(),
			Results:  def.ResultTypes(),
			Fallible: m.fallible(name),
		})
	}
	sort.Slice(exports, func(i, j int) bool { return exports[i].Name < exports[j].Name })
	return exports
}

// Import is a function the module expects from a host table.
type Import struct {
	Namespace string
	Name      string
	Params    []api.ValueType
	Results   []api.ValueType
}

// Imports lists imported functions in declaration order.
func (m *Module) Imports() []Import {
	defs := m.compiled.ImportedFunctions()
	imports := make([]Import, 0, len(defs))
	for _, def := range defs {
		ns, name, _ := def.Import()
		imports = append(imports, Import{
			Namespace: ns,
			Name:      name,
			Params:    def.ParamTypes(),
			Results:   def.ResultTypes(),
		})
	}
	return imports
}

func (m *Module) fallible(export string) bool {
	if m.iface == nil {
		return false
	}
	decl, ok := m.iface.Exports[export]
	return ok && decl.Fallible
}

// LinkedModule is a Module whose imports resolved against a HostTable.
type LinkedModule struct {
	module *Module
	table  *HostTable
}

// Module returns the underlying compiled module.
func (l *LinkedModule) Module() *Module {
	return l.module
}

// Table returns the host table the module is linked against, or nil for
// modules without imports.
func (l *LinkedModule) Table() *HostTable {
	return l.table
}
