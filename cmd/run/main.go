package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/wasm-bridge/engine"
	bridgeerrors "github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/guest"
	"github.com/wippyai/wasm-bridge/runtime"
)

const defaultModule = "guest.wasm"

func main() {
	var (
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		list        = flag.Bool("list", false, "List imports and exports and exit")
		emit        = flag.String("emit", "", "Write the built-in guest module to `file` and exit")
		verbose     = flag.Bool("v", false, "Debug logging")
		timeout     = flag.Duration("timeout", 0, "Per-call timeout, 0 disables")
		cacheDir    = flag.String("cache", "", "Compilation cache `dir`")
	)
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: run [flags] [module.wasm]")
		fmt.Fprintf(os.Stderr, "       without a path %s is used, or the built-in guest if it does not exist\n\n", defaultModule)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *emit != "" {
		if err := os.WriteFile(*emit, guest.Module(), 0o644); err != nil {
			fatal(err)
		}
		fmt.Printf("wrote %s (%d bytes)\n", *emit, len(guest.Module()))
		return
	}

	path := defaultModule
	if flag.NArg() > 0 {
		path = flag.Arg(0)
	}
	data, source, err := loadModule(path, flag.NArg() == 0)
	if err != nil {
		fatal(err)
	}

	if *list {
		if err := listModule(os.Stdout, source, data); err != nil {
			fatal(err)
		}
		return
	}

	opts := []runtime.Option{
		runtime.WithCallTimeout(*timeout),
		runtime.WithCacheDir(*cacheDir),
	}

	if *interactive {
		if err := runInteractive(source, data, opts); err != nil {
			fatal(err)
		}
		return
	}

	logger := newLogger(*verbose)
	defer func() { _ = logger.Sync() }()
	engine.SetLogger(logger)

	logger.Info("loading module", zap.String("source", source), zap.Int("bytes", len(data)))
	if err := runDemo(context.Background(), logger, data, append(opts, runtime.WithLogger(logger))); err != nil {
		logger.Error("demo failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

// loadModule reads path. A missing default path falls back to the built-in guest.
func loadModule(path string, isDefault bool) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return data, path, nil
	}
	if isDefault && os.IsNotExist(err) {
		return guest.Module(), "built-in guest", nil
	}
	return nil, "", bridgeerrors.Load("read "+path, err)
}

func listModule(w io.Writer, source string, data []byte) error {
	info, err := engine.Inspect(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Module: %s\n", source)
	fmt.Fprintf(w, "Memory: %t\n", info.Memory)

	fmt.Fprintf(w, "\nImports (%d):\n", len(info.Imports))
	for _, imp := range info.Imports {
		fmt.Fprintf(w, "  %s#%s %s\n", imp.Module, imp.Name, imp.Sig)
	}

	fmt.Fprintf(w, "\nExports (%d):\n", len(info.Exports))
	for _, exp := range info.Exports {
		fmt.Fprintf(w, "  %s %s\n", exp.Name, exp.Sig)
	}
	return nil
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func fatal(err error) {
	msg := err.Error()
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	fmt.Fprintf(os.Stderr, "Error: %s", msg)
	os.Exit(1)
}
