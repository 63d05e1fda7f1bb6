package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// WazeroEngine compiles, links and instantiates core modules on a wazero runtime.
type WazeroEngine struct {
	runtime wazero.Runtime
	cache   wazero.CompilationCache
	hosts   map[string]api.Module
	hostsMu sync.Mutex
}

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	// 256 = 16MB, 1024 = 64MB, 4096 = 256MB
	MemoryLimitPages uint32

	// CacheDir enables a compilation cache persisted in this directory.
	CacheDir string
}

// HostBinding is one Go function exported by a host module.
type HostBinding struct {
	Fn      api.GoModuleFunc
	Name    string
	Params  []api.ValueType
	Results []api.ValueType
}

// NewWazeroEngine creates a new wazero-based engine
func NewWazeroEngine(ctx context.Context) (*WazeroEngine, error) {
	return NewWazeroEngineWithConfig(ctx, nil)
}

// NewWazeroEngineWithConfig creates a new engine with custom configuration.
// Instances are closed when the context of an in-flight call is done, so
// deadlines and cancellation interrupt guest code.
func NewWazeroEngineWithConfig(ctx context.Context, cfg *Config) (*WazeroEngine, error) {
	runtimeCfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)

	e := &WazeroEngine{hosts: make(map[string]api.Module)}

	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.CacheDir != "" {
			cache, err := wazero.NewCompilationCacheWithDir(cfg.CacheDir)
			if err != nil {
				return nil, fmt.Errorf("open compilation cache: %w", err)
			}
			e.cache = cache
			runtimeCfg = runtimeCfg.WithCompilationCache(cache)
		}
	}

	e.runtime = wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	return e, nil
}

// Compile validates and compiles a core module.
func (e *WazeroEngine) Compile(ctx context.Context, wasmBytes []byte) (wazero.CompiledModule, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("compile failed: %w", err)
	}
	Logger().Debug("module compiled",
		zap.Int("bytes", len(wasmBytes)),
		zap.Int("imports", len(compiled.ImportedFunctions())),
		zap.Int("exports", len(compiled.ExportedFunctions())))
	return compiled, nil
}

// BindHost instantiates a host module named namespace exporting bindings.
// A namespace can be bound once per engine; later instantiations resolve
// their imports against it.
func (e *WazeroEngine) BindHost(ctx context.Context, namespace string, bindings []HostBinding) (api.Module, error) {
	e.hostsMu.Lock()
	defer e.hostsMu.Unlock()

	if _, exists := e.hosts[namespace]; exists {
		return nil, fmt.Errorf("host module %q already bound", namespace)
	}

	builder := e.runtime.NewHostModuleBuilder(namespace)
	for _, b := range bindings {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(b.Fn, b.Params, b.Results).
			WithName(b.Name).
			Export(b.Name)
	}

	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, fmt.Errorf("instantiate host module %q: %w", namespace, err)
	}
	e.hosts[namespace] = mod

	Logger().Debug("host module bound",
		zap.String("namespace", namespace),
		zap.Int("functions", len(bindings)))
	return mod, nil
}

// HostModule returns the host module bound under namespace, or nil.
func (e *WazeroEngine) HostModule(namespace string) api.Module {
	e.hostsMu.Lock()
	defer e.hostsMu.Unlock()
	return e.hosts[namespace]
}

// Instantiate creates an anonymous instance of compiled. Start functions
// are not run.
func (e *WazeroEngine) Instantiate(ctx context.Context, compiled wazero.CompiledModule) (api.Module, error) {
	// anonymous for parallel instantiation
	modConfig := wazero.NewModuleConfig().WithName("").WithStartFunctions()

	instance, err := e.runtime.InstantiateModule(ctx, compiled, modConfig)
	if err != nil {
		return nil, fmt.Errorf("instantiate failed: %w", err)
	}
	return instance, nil
}

// Close releases the runtime, every module it created and the compilation cache.
func (e *WazeroEngine) Close(ctx context.Context) error {
	err := e.runtime.Close(ctx)
	if e.cache != nil {
		err = multierr.Append(err, e.cache.Close(ctx))
	}
	return err
}
