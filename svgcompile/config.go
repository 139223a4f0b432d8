package svgcompile

import (
	"log/slog"

	"github.com/benoitkugler/svglayout/internal/logging"
	"github.com/benoitkugler/svglayout/svglayout"
	"github.com/benoitkugler/svglayout/svgpath"
)

// Config holds the options of a Compiler.
type Config struct {
	// Layout configures the resolvers.
	Layout svglayout.Config
	// Precision is the number of decimals written in the output.
	Precision int
	// Debug adds data-* layout attributes to the layer groups.
	Debug bool
	// SortByZIndex renders layers by increasing zIndex (stable),
	// instead of the array order.
	SortByZIndex bool
}

// DefaultConfig returns a lenient configuration with two decimals.
func DefaultConfig() Config {
	return Config{
		Layout:    svglayout.DefaultConfig(),
		Precision: svgpath.DefaultPrecision,
	}
}

// Option configures a Compiler during creation.
//
// Example:
//
//	c := svgcompile.New(svgcompile.WithStrictness(svglayout.Strict), svgcompile.WithDebugAttributes(true))
type Option func(*Config)

// WithStrictness sets the policy for unknown names and invalid layouts.
func WithStrictness(s svglayout.Strictness) Option {
	return func(c *Config) {
		c.Layout.Strictness = s
	}
}

// WithDebugAttributes toggles the data-* attributes on layer groups.
func WithDebugAttributes(debug bool) Option {
	return func(c *Config) {
		c.Debug = debug
	}
}

// WithZIndexSort toggles the zIndex ordering of layers.
func WithZIndexSort(sort bool) Option {
	return func(c *Config) {
		c.SortByZIndex = sort
	}
}

// WithLayoutConfig replaces the resolver configuration.
// Zero fields take their default value.
func WithLayoutConfig(cfg svglayout.Config) Option {
	return func(c *Config) {
		c.Layout = cfg
	}
}

// WithPrecision sets the number of decimals of the output coordinates.
func WithPrecision(p int) Option {
	return func(c *Config) {
		if p >= 0 {
			c.Precision = p
		}
	}
}

// SetLogger configures the logger used by the compiler and the
// layout packages. By default nothing is logged; pass nil to restore
// this behavior.
//
// Recovered per-element failures and lenient fallbacks are logged at
// [slog.LevelWarn], cache activity at [slog.LevelDebug].
func SetLogger(l *slog.Logger) { logging.SetLogger(l) }
