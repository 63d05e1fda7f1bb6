package runtime

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasm-bridge/wasm"
)

func metricsModule() []byte {
	void := wasm.FuncType{}
	status := wasm.FuncType{Results: []wasm.ValType{wasm.ValI32}}

	m := &wasm.Module{}
	fail := m.AddImport("h", "fail", status)
	abort := m.AddImport("h", "abort", void)

	m.ExportFunc("run", m.AddFunc(status, wasm.NewExpr().Call(fail).Body()))
	m.ExportFunc("crash", m.AddFunc(void, wasm.NewExpr().Call(abort).Body()))
	m.ExportFunc("ok", m.AddFunc(void, wasm.NewExpr().Body()))
	m.ExportFunc("trap", m.AddFunc(void, wasm.NewExpr().Unreachable().Body()))
	return m.Encode()
}

func TestMetricsRecordOutcomes(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	rt, err := New(ctx, WithMetrics(m))
	require.NoError(t, err)
	defer rt.Close(ctx)

	table, err := NewHostTable("h",
		HostFunc{
			Name:     "fail",
			Contract: ContractFallible,
			Impl:     func(*HostCall) HostResult { return Fail(3, "boom") },
		},
		HostFunc{
			Name: "abort",
			Impl: func(*HostCall) HostResult {
				Abort("stop")
				return nil
			},
		},
	)
	require.NoError(t, err)

	mod, err := rt.CompileWithWIT(ctx, metricsModule(), "export run: func() -> result;")
	require.NoError(t, err)
	linked, err := rt.Link(ctx, mod, table)
	require.NoError(t, err)

	inst, err := rt.Instantiate(ctx, linked, rt.NewStore(nil))
	require.NoError(t, err)

	for _, name := range []string{"ok", "ok", "run", "trap", "ok"} {
		_, err := inst.Call(ctx, name)
		require.NoError(t, err)
	}

	crashing, err := rt.Instantiate(ctx, linked, rt.NewStore(nil))
	require.NoError(t, err)
	fault := RecoverHostFault(func() {
		_, _ = crashing.Call(ctx, "crash")
	})
	require.NotNil(t, fault)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.calls.WithLabelValues("ok", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("run", "guest_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("trap", "guest_fault")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("ok", "cannot_enter")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("crash", "host_fault")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.poisoned))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.hostFaults))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.hostFailures.WithLabelValues("h#fail")))

	families, err := reg.Gather()
	require.NoError(t, err)
	phases := make(map[string]uint64)
	for _, mf := range families {
		if mf.GetName() != "wasm_bridge_setup_duration_seconds" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				phases[label.GetValue()] = metric.GetHistogram().GetSampleCount()
			}
		}
	}
	assert.Equal(t, map[string]uint64{"compile": 1, "link": 1, "instantiate": 2}, phases)
}

func TestMetricsDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)

	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.observeCall("x", Success{}, 0)
		m.observePoison()
		m.observeHostFault("x")
		m.observeHostFailure("h#f")
		m.observeSetup("compile", 0)
	})
}
