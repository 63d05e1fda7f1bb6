package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-bridge/engine"
	"github.com/wippyai/wasm-bridge/errors"
)

// Runtime compiles guest modules, links them against host tables and
// instantiates them into Stores. It is safe for concurrent use.
type Runtime struct {
	engine  *engine.WazeroEngine
	logger  *zap.Logger
	metrics *Metrics
	tables  map[string]*HostTable
	cfg     Config
	mu      sync.Mutex
}

// New creates a runtime. Invalid options fail with a config error.
func New(ctx context.Context, opts ...Option) (*Runtime, error) {
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}

	eng, err := engine.NewWazeroEngineWithConfig(ctx, &engine.Config{
		MemoryLimitPages: cfg.MemoryLimitPages,
		CacheDir:         cfg.CacheDir,
	})
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidConfig, err, "create engine")
	}

	return &Runtime{
		engine:  eng,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		tables:  make(map[string]*HostTable),
		cfg:     cfg,
	}, nil
}

// Close releases all runtime resources, closing every instance created by it.
func (r *Runtime) Close(ctx context.Context) error {
	return r.engine.Close(ctx)
}

// Logger returns the runtime's logger.
func (r *Runtime) Logger() *zap.Logger {
	return r.logger
}

// Compile validates and compiles a core module.
func (r *Runtime) Compile(ctx context.Context, wasm []byte) (*Module, error) {
	start := time.Now()
	compiled, err := r.engine.Compile(ctx, wasm)
	if err != nil {
		return nil, errors.Compile(err)
	}
	r.metrics.observeSetup("compile", time.Since(start))
	return &Module{runtime: r, compiled: compiled}, nil
}

// CompileWithWIT compiles a core module and checks it against WIT text.
// Every WIT export must exist with the matching core signature; exports
// returning result are treated as fallible by Instance.Call.
func (r *Runtime) CompileWithWIT(ctx context.Context, wasm []byte, witText string) (*Module, error) {
	iface, err := ParseInterface(witText)
	if err != nil {
		return nil, err
	}

	m, err := r.Compile(ctx, wasm)
	if err != nil {
		return nil, err
	}

	defs := m.compiled.ExportedFunctions()
	for name, decl := range iface.Exports {
		def, ok := defs[name]
		if !ok {
			return nil, errors.NotFound(errors.PhaseCompile, "export", name)
		}
		params, err := decl.CoreParams()
		if err != nil {
			return nil, err
		}
		results, err := decl.CoreResults()
		if err != nil {
			return nil, err
		}
		if !sameTypes(params, def.ParamTypes()) || !sameTypes(results, def.ResultTypes()) {
			return nil, errors.New(errors.PhaseCompile, errors.KindSignatureMismatch).
				Function("", name).
				Detail("WIT declares %s, module exports %s",
					engine.FuncSig{Params: params, Results: results},
					engine.FuncSig{Params: def.ParamTypes(), Results: def.ResultTypes()}).
				Build()
		}
	}

	m.iface = iface
	return m, nil
}

// Link resolves the module's imports against table. Imports outside the
// table's namespace or missing from it are reported together; a signature
// mismatch is reported per function.
func (r *Runtime) Link(ctx context.Context, m *Module, table *HostTable) (*LinkedModule, error) {
	start := time.Now()
	imports := m.compiled.ImportedFunctions()
	if len(imports) == 0 {
		return &LinkedModule{module: m}, nil
	}
	if table == nil {
		table = &HostTable{}
	}

	var missing []string
	for _, def := range imports {
		ns, name, _ := def.Import()
		if ns != table.namespace {
			missing = append(missing, ns+"#"+name)
			continue
		}
		fn, ok := table.Lookup(name)
		if !ok {
			missing = append(missing, ns+"#"+name)
			continue
		}
		if !sameTypes(def.ParamTypes(), fn.Params) || !sameTypes(def.ResultTypes(), fn.GuestResults()) {
			return nil, errors.SignatureMismatch(ns, name,
				engine.FuncSig{Params: def.ParamTypes(), Results: def.ResultTypes()}.String(),
				engine.FuncSig{Params: fn.Params, Results: fn.GuestResults()}.String())
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewMissingImportsError(missing)
	}

	if err := r.bindTable(ctx, table); err != nil {
		return nil, err
	}

	r.metrics.observeSetup("link", time.Since(start))
	return &LinkedModule{module: m, table: table}, nil
}

// bindTable instantiates the host module for table once. A namespace stays
// bound to the first table linked under it.
func (r *Runtime) bindTable(ctx context.Context, table *HostTable) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if bound, ok := r.tables[table.namespace]; ok {
		if bound != table {
			return errors.New(errors.PhaseLink, errors.KindRegistration).
				Detail("namespace %q is already bound to another host table", table.namespace).
				Build()
		}
		return nil
	}

	if _, err := r.engine.BindHost(ctx, table.namespace, table.bindings(r)); err != nil {
		return errors.New(errors.PhaseLink, errors.KindRegistration).
			Detail("bind host table %q", table.namespace).
			Cause(err).
			Build()
	}
	r.tables[table.namespace] = table
	return nil
}

// Instantiate creates an instance of lm bound to store. The store must come
// from this runtime, must not own an instance yet and must not be discarded.
func (r *Runtime) Instantiate(ctx context.Context, lm *LinkedModule, store *Store) (*Instance, error) {
	start := time.Now()

	switch {
	case store == nil:
		return nil, errors.Instantiation("store is nil", nil)
	case store.runtime != r:
		return nil, errors.Instantiation("store belongs to another runtime", nil)
	case store.Discarded():
		return nil, errors.Instantiation("store was discarded after a fatal host failure", store.Fault())
	}
	if !store.claim() {
		return nil, errors.Instantiation("store already owns an instance", nil)
	}

	mod, err := r.engine.Instantiate(ctx, lm.module.compiled)
	if err != nil {
		store.release()
		return nil, errors.Instantiation("instantiate module", err)
	}

	inst := &Instance{
		runtime: r,
		linked:  lm,
		store:   store,
		module:  mod,
		exports: make(map[string]*export),
	}
	for name, def := range lm.module.compiled.ExportedFunctions() {
		inst.exports[name] = &export{
			fn:       mod.ExportedFunction(name),
			params:   def.ParamTypes(),
			results:  def.ResultTypes(),
			fallible: lm.module.fallible(name),
		}
	}
	store.instance.Store(inst)

	elapsed := time.Since(start)
	r.metrics.observeSetup("instantiate", elapsed)
	r.logger.Debug("instance created",
		zap.Int("exports", len(inst.exports)),
		zap.Duration("elapsed", elapsed))
	return inst, nil
}

func sameTypes(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
