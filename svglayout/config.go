// Package svglayout resolves semantic layouts (named regions, anchors,
// offsets, sizes and repetition patterns) into absolute canvas
// coordinates, and applies them to paths.
package svglayout

import (
	"errors"
	"runtime"
	"time"
)

// Strictness controls what happens on configuration errors,
// such as an unknown region name.
type Strictness uint8

const (
	// Lenient falls back to a default value and reports a warning.
	Lenient Strictness = iota
	// Strict returns an error.
	Strict
)

func (s Strictness) String() string {
	if s == Strict {
		return "strict"
	}
	return "lenient"
}

// Configuration errors.
var (
	ErrUnknownRegion         = errors.New("unknown region")
	ErrUnknownAnchor         = errors.New("unknown anchor")
	ErrUnsupportedRepetition = errors.New("unsupported repetition type")
	ErrInvalidCount          = errors.New("invalid repetition count")
	ErrInvalidSize           = errors.New("invalid size")
	ErrTooManyInstances      = errors.New("too many instances")
	ErrInvalidBounds         = errors.New("invalid region bounds")
	ErrNameCollision         = errors.New("region name collides with a built-in region")
)

// ErrDegenerateBounds is returned when scaling a path whose bounding
// box has a zero width or height.
var ErrDegenerateBounds = errors.New("degenerate bounding box")

// Default configuration values.
const (
	DefaultCacheSize       = 256
	DefaultCacheTTL        = 5 * time.Minute
	DefaultMaxInstances    = 10000
	DefaultBatchThreshold  = 400
	DefaultSoftClampMargin = 0.1
)

// Config holds the options of a Resolver.
// Zero fields are replaced by their default in NewResolver.
type Config struct {
	Strictness Strictness

	// CacheSize is the maximum number of resolved positions kept.
	// A negative value disables the cache.
	CacheSize int
	// CacheTTL is the lifetime of a cached position.
	CacheTTL time.Duration
	// Cache, when not nil, is used instead of a new cache, and
	// CacheSize and CacheTTL are ignored. Resolvers sharing a cache
	// must have the same custom regions.
	Cache *PositionCache

	// MaxInstances bounds the number of instances of one repetition.
	MaxInstances int
	// BatchThreshold is the instance count above which instances
	// are transformed in parallel.
	BatchThreshold int
	// Parallelism bounds the goroutines used for batches.
	// It defaults to GOMAXPROCS.
	Parallelism int

	// SoftClampMargin is the overflow allowed by ScaleToFit,
	// as a fraction of the canvas size.
	SoftClampMargin float64
}

// DefaultConfig returns the lenient configuration.
func DefaultConfig() Config {
	return Config{}.withDefaults()
}

// NewCache returns the position cache described by c,
// or nil when caching is disabled.
func (c Config) NewCache() *PositionCache {
	c = c.withDefaults()
	if c.Cache != nil {
		return c.Cache
	}
	if c.CacheSize <= 0 {
		return nil
	}
	return NewPositionCache(c.CacheSize, c.CacheTTL)
}

func (c Config) withDefaults() Config {
	if c.CacheSize == 0 {
		c.CacheSize = DefaultCacheSize
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.MaxInstances <= 0 {
		c.MaxInstances = DefaultMaxInstances
	}
	if c.BatchThreshold <= 0 {
		c.BatchThreshold = DefaultBatchThreshold
	}
	if c.Parallelism <= 0 {
		c.Parallelism = runtime.GOMAXPROCS(0)
	}
	if c.SoftClampMargin <= 0 {
		c.SoftClampMargin = DefaultSoftClampMargin
	}
	return c
}
