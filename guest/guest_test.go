package guest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-bridge/engine"
	"github.com/wippyai/wasm-bridge/runtime"
)

func TestModuleLayout(t *testing.T) {
	info, err := engine.Inspect(Module())
	require.NoError(t, err)

	var imports []string
	for _, imp := range info.Imports {
		assert.Equal(t, Namespace, imp.Module)
		imports = append(imports, imp.Name)
	}
	assert.Equal(t, []string{"return_ok", "return_err", "panic"}, imports)

	sigs := make(map[string]string)
	for _, exp := range info.Exports {
		sigs[exp.Name] = exp.Sig.String()
	}
	assert.Equal(t, map[string]string{
		"return_ok":           "() -> ()",
		"return_err":          "() -> (i32)",
		"panic":               "(i32) -> ()",
		"trigger_guest_fault": "() -> ()",
		"divide":              "(i32, i32) -> (i32)",
		"recover_err":         "() -> (i32)",
		"call_count":          "() -> (i32)",
		"add":                 "(i32, i32) -> (i32)",
	}, sigs)
	assert.True(t, info.Memory)
}

func TestModuleIsCached(t *testing.T) {
	a, b := Module(), Module()
	require.NotEmpty(t, a)
	assert.Same(t, &a[0], &b[0])
}

func TestWITMatchesModule(t *testing.T) {
	iface, err := runtime.ParseInterface(WIT)
	require.NoError(t, err)

	assert.Len(t, iface.Imports, 3)
	assert.Len(t, iface.Exports, 8)
	assert.True(t, iface.Imports["return_err"].Fallible)
	assert.True(t, iface.Exports["return_err"].Fallible)
	assert.False(t, iface.Exports["recover_err"].Fallible)
}

func TestHostTable(t *testing.T) {
	table, err := NewHostTable(nil)
	require.NoError(t, err)

	assert.Equal(t, Namespace, table.Namespace())
	assert.Equal(t, []string{"return_ok", "return_err", "panic"}, table.Names())

	tests := []struct {
		name     string
		contract runtime.Contract
		params   []api.ValueType
		results  []api.ValueType
	}{
		{"return_ok", runtime.ContractPure, nil, nil},
		{"return_err", runtime.ContractFallible, nil, []api.ValueType{api.ValueTypeI32}},
		{"panic", runtime.ContractPure, []api.ValueType{api.ValueTypeI32}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, ok := table.Lookup(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.contract, fn.Contract)
			assert.Equal(t, tt.params, fn.Params)
			assert.Equal(t, tt.results, fn.GuestResults())
		})
	}
}
