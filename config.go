package compio

import (
	"go.uber.org/zap"

	"github.com/scigolib/compio/internal/codec"
)

// Default configuration values, per the build-time constants and
// configuration defaults.
const (
	DefaultBTreeDegree = 16
	DefaultBlockSize   = 4096
)

// Config holds the tunables every archive is opened with. The zero value
// is not directly usable; construct one with NewConfig, which fills in
// every default.
type Config struct {
	Codec              codec.Codec
	BTreeDegree        uint32
	BlockSize          uint64
	FillHolesWithZeros bool
	Logger             *zap.SugaredLogger
}

// NewConfig returns a Config with every default applied: identity codec,
// degree 16, 4096-byte blocks, zero-fill-on-free enabled, and a no-op
// logger. Options override individual fields.
func NewConfig(opts ...Option) Config {
	cfg := Config{
		Codec:              codec.NewIdentity(),
		BTreeDegree:        DefaultBTreeDegree,
		BlockSize:          DefaultBlockSize,
		FillHolesWithZeros: true,
		Logger:             zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Option mutates a Config under construction.
type Option func(*Config)

// WithCodec selects the compressor pair new blocks are written through.
func WithCodec(c codec.Codec) Option {
	return func(cfg *Config) { cfg.Codec = c }
}

// WithBTreeDegree sets the B-Tree minimum-degree parameter. Values below
// 2 are rejected at Open time with invalid-argument.
func WithBTreeDegree(d uint32) Option {
	return func(cfg *Config) { cfg.BTreeDegree = d }
}

// WithBlockSize sets the write pipeline's target re-chunking size.
func WithBlockSize(size uint64) Option {
	return func(cfg *Config) { cfg.BlockSize = size }
}

// WithFillHolesWithZeros toggles zero-fill-on-free.
func WithFillHolesWithZeros(enabled bool) Option {
	return func(cfg *Config) { cfg.FillHolesWithZeros = enabled }
}

// WithLogger attaches a structured logger. A nil logger is replaced with
// a no-op one.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(cfg *Config) {
		if l == nil {
			l = zap.NewNop().Sugar()
		}
		cfg.Logger = l
	}
}
