package runtime

import (
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-bridge/errors"
)

// validate is a package-level singleton; building a validator is expensive.
var validate = validator.New()

// Config holds runtime configuration. Build it with Options.
type Config struct {
	Logger  *zap.Logger `validate:"-"`
	Metrics *Metrics    `validate:"-"`

	// CacheDir persists compiled modules across runtimes when set.
	CacheDir string

	// CallTimeout bounds every guest call. Zero disables the limit.
	// A call that runs out of time is trapped and poisons its instance.
	CallTimeout time.Duration `validate:"gte=0"`

	// MemoryLimitPages caps linear memory per instance in 64KB pages.
	// Zero keeps the engine default.
	MemoryLimitPages uint32 `validate:"lte=65536"`
}

// Option configures a Runtime.
type Option func(*Config)

// WithLogger sets the logger used for call, poison and host fault events.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithMetrics records call outcomes and latencies into m.
func WithMetrics(m *Metrics) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

// WithCacheDir enables the on-disk compilation cache.
func WithCacheDir(dir string) Option {
	return func(c *Config) {
		c.CacheDir = dir
	}
}

// WithCallTimeout bounds the duration of each guest call.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.CallTimeout = d
	}
}

// WithMemoryLimitPages caps linear memory per instance.
func WithMemoryLimitPages(pages uint32) Option {
	return func(c *Config) {
		c.MemoryLimitPages = pages
	}
}

func buildConfig(opts []Option) (Config, error) {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := validate.Struct(&cfg); err != nil {
		return Config{}, errors.InvalidConfig(err)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return cfg, nil
}
