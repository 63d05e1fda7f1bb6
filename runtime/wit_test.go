package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	bridgeerrors "github.com/wippyai/wasm-bridge/errors"
)

func TestParseInterface(t *testing.T) {
	iface, err := ParseInterface(`
world demo {
    import log: func(level: u8, code: u32);
    import fetch: func(id: u64) -> result<u32, string>;
    export run: func() -> result;
    export area: func(w: f32, h: f32) -> f32;
    export ticks: func() -> s64;
    export pair: func() -> (u32, f64);
    legacy: func(c: char) -> bool;
}`)
	require.NoError(t, err)

	require.Len(t, iface.Imports, 2)
	require.Len(t, iface.Exports, 5)

	log := iface.Imports["log"]
	require.NotNil(t, log)
	assert.Equal(t, []wit.Type{wit.U8{}, wit.U32{}}, log.Params)
	assert.False(t, log.Fallible)

	fetch := iface.Imports["fetch"]
	require.NotNil(t, fetch)
	assert.True(t, fetch.Fallible)
	assert.Equal(t, []wit.Type{wit.U32{}}, fetch.Results)

	run := iface.Exports["run"]
	require.NotNil(t, run)
	assert.True(t, run.Fallible)
	assert.Empty(t, run.Results)

	pair := iface.Exports["pair"]
	require.NotNil(t, pair)
	assert.Equal(t, []wit.Type{wit.U32{}, wit.F64{}}, pair.Results)

	// declarations without a direction default to exports
	assert.Contains(t, iface.Exports, "legacy")
}

func TestParseInterface_NoFunctions(t *testing.T) {
	_, err := ParseInterface("world empty {}")
	require.Error(t, err)

	var bridgeErr *bridgeerrors.Error
	require.ErrorAs(t, err, &bridgeErr)
	assert.Equal(t, bridgeerrors.PhaseParse, bridgeErr.Phase)
}

func TestResultTypes(t *testing.T) {
	tests := []struct {
		decl     string
		results  []api.ValueType
		fallible bool
	}{
		{"f: func()", nil, false},
		{"f: func() -> u32", []api.ValueType{api.ValueTypeI32}, false},
		{"f: func() -> result", []api.ValueType{api.ValueTypeI32}, true},
		{"f: func() -> result<_, string>", []api.ValueType{api.ValueTypeI32}, true},
		{"f: func() -> result<u64>", []api.ValueType{api.ValueTypeI64, api.ValueTypeI32}, true},
		{"f: func() -> result<f64, u32>", []api.ValueType{api.ValueTypeF64, api.ValueTypeI32}, true},
	}

	for _, tt := range tests {
		t.Run(tt.decl, func(t *testing.T) {
			decl, err := ParseFuncDecl(tt.decl)
			require.NoError(t, err)
			assert.Equal(t, tt.fallible, decl.Fallible)

			results, err := decl.CoreResults()
			require.NoError(t, err)
			assert.Equal(t, tt.results, results)
		})
	}
}

func TestCoreParams(t *testing.T) {
	decl, err := ParseFuncDecl("f: func(a: bool, b: s16, c: u64, d: f32, e: f64, g: char)")
	require.NoError(t, err)

	params, err := decl.CoreParams()
	require.NoError(t, err)
	assert.Equal(t, []api.ValueType{
		api.ValueTypeI32,
		api.ValueTypeI32,
		api.ValueTypeI64,
		api.ValueTypeF32,
		api.ValueTypeF64,
		api.ValueTypeI32,
	}, params)
}

func TestCoreParams_Unsupported(t *testing.T) {
	decl, err := ParseFuncDecl("greet: func(name: string)")
	require.NoError(t, err)

	_, err = decl.CoreParams()
	require.Error(t, err)
	assert.ErrorIs(t, err, &bridgeerrors.Error{Phase: bridgeerrors.PhaseParse, Kind: bridgeerrors.KindUnsupported})
}

func TestParseFuncDecl_Invalid(t *testing.T) {
	_, err := ParseFuncDecl("not a function")
	require.Error(t, err)
}

func TestParseFuncDecl_UnknownType(t *testing.T) {
	for _, decl := range []string{
		"f: func(a: widget)",
		"f: func() -> widget",
		"f: func() -> (u32, widget)",
		"f: func() -> result<widget, u32>",
	} {
		_, err := ParseFuncDecl(decl)
		var bridgeErr *bridgeerrors.Error
		require.ErrorAs(t, err, &bridgeErr, decl)
		assert.Equal(t, bridgeerrors.PhaseParse, bridgeErr.Phase, decl)
		assert.Equal(t, bridgeerrors.KindInvalidInput, bridgeErr.Kind, decl)
		assert.Contains(t, bridgeErr.Detail, "widget", decl)
		assert.ErrorContains(t, err, "unknown primitive type", decl)
	}
}

func TestHostFuncFromWIT(t *testing.T) {
	impl := func(*HostCall) HostResult { return Ok() }

	fn, err := HostFuncFromWIT("add: func(a: u32, b: u32) -> u32", impl)
	require.NoError(t, err)
	assert.Equal(t, "add", fn.Name)
	assert.Equal(t, ContractPure, fn.Contract)
	assert.Equal(t, []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, fn.Params)
	assert.Equal(t, []api.ValueType{api.ValueTypeI32}, fn.GuestResults())

	fn, err = HostFuncFromWIT("lookup: func(key: u64) -> result<u64>", impl)
	require.NoError(t, err)
	assert.Equal(t, ContractFallible, fn.Contract)
	assert.Equal(t, []api.ValueType{api.ValueTypeI64}, fn.Results)
	assert.Equal(t, []api.ValueType{api.ValueTypeI64, api.ValueTypeI32}, fn.GuestResults())

	_, err = HostFuncFromWIT("bad: func(s: string)", impl)
	assert.Error(t, err)
}
