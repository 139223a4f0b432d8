package svglayout

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benoitkugler/svglayout/internal/logging"
	"github.com/benoitkugler/svglayout/svgdoc"
	"github.com/benoitkugler/svglayout/svgpath"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Point is a position on the canvas, in pixels.
type Point struct {
	X, Y float64
}

// Position is a resolved layout.
type Position struct {
	X, Y   float64
	Region Region // pixel bounds of the region
	Anchor Anchor
	Size   *Dimensions // nil when the layout has no size
}

// Point returns the anchor point.
func (p Position) Point() Point { return Point{p.X, p.Y} }

type cachedPosition struct {
	pos      Position
	warnings []string
}

// PositionCache is a bounded, expiring cache of resolved positions.
// Entries are keyed by canvas, so that one cache may be shared by
// resolvers working on different canvases.
type PositionCache struct {
	lru *expirable.LRU[string, cachedPosition]
}

// NewPositionCache returns a cache of at most size entries, each
// living ttl. The expiration goroutine of a cache runs until the
// program exits: create caches once and share them.
func NewPositionCache(size int, ttl time.Duration) *PositionCache {
	return &PositionCache{lru: expirable.NewLRU[string, cachedPosition](size, nil, ttl)}
}

// Len returns the number of cached positions.
func (c *PositionCache) Len() int { return c.lru.Len() }

// Purge removes every entry.
func (c *PositionCache) Purge() { c.lru.Purge() }

// Resolver resolves layouts on one canvas. Resolved positions are
// kept in a bounded cache, which other resolvers may share.
// A Resolver is safe for concurrent use.
type Resolver struct {
	cfg      Config
	expander *Expander

	mu    sync.RWMutex // guards table and cache coherence
	table *RegionTable
	cache *PositionCache // nil when disabled

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewResolver returns a resolver for canvas. Zero fields of cfg
// are replaced by their defaults.
func NewResolver(canvas svgdoc.Canvas, cfg Config) (*Resolver, error) {
	if err := canvas.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	r := &Resolver{
		cfg:      cfg,
		expander: NewExpander(cfg.MaxInstances),
		table:    NewRegionTable(canvas),
	}
	r.cache = cfg.NewCache()
	return r, nil
}

// Config returns the effective configuration.
func (r *Resolver) Config() Config { return r.cfg }

// Regions returns the region table currently in use.
func (r *Resolver) Regions() *RegionTable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.table
}

// Canvas returns the current canvas.
func (r *Resolver) Canvas() svgdoc.Canvas { return r.Regions().Canvas() }

// SetCanvas switches to a new canvas. When the dimensions or the
// aspect tag change, the region table is rebuilt (custom regions are
// kept). Cached positions are keyed by canvas and need no purge.
func (r *Resolver) SetCanvas(canvas svgdoc.Canvas) error {
	if err := canvas.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.table
	if old.canvas == canvas {
		return nil
	}
	table := NewRegionTable(canvas)
	old.mu.RLock()
	for name, c := range old.custom {
		table.custom[name] = c
	}
	old.mu.RUnlock()
	r.table = table
	return nil
}

// AddCustomRegion registers a custom region and purges the cache,
// since a name may have been resolved by fallback before.
func (r *Resolver) AddCustomRegion(name string, bounds svgdoc.RegionBounds) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.table.AddCustomRegion(name, bounds); err != nil {
		return err
	}
	if r.cache != nil {
		r.cache.Purge()
	}
	return nil
}

// CacheStats returns the number of cache hits and misses.
func (r *Resolver) CacheStats() (hits, misses uint64) {
	return r.hits.Load(), r.misses.Load()
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// signature normalizes the canvas and the position relevant fields
// of a layout.
func signature(canvas svgdoc.Canvas, layout svgdoc.LayoutSpec) string {
	var sb strings.Builder
	sb.WriteString(formatFloat(canvas.Width))
	sb.WriteByte('x')
	sb.WriteString(formatFloat(canvas.Height))
	sb.WriteByte(':')
	sb.WriteString(canvas.AspectRatio)
	sb.WriteByte('|')
	sb.WriteString(layout.RegionName())
	sb.WriteByte('|')
	sb.WriteString(layout.AnchorName())
	dx, dy := layout.OffsetValue()
	sb.WriteByte('|')
	sb.WriteString(formatFloat(dx))
	sb.WriteByte(',')
	sb.WriteString(formatFloat(dy))
	if s := layout.Size; s != nil {
		if s.Absolute != nil {
			fmt.Fprintf(&sb, "|abs:%s,%s", formatFloat(s.Absolute.Width), formatFloat(s.Absolute.Height))
		}
		if s.Relative != nil {
			fmt.Fprintf(&sb, "|rel:%s", formatFloat(*s.Relative))
		}
		if s.AspectConstrained != nil {
			fmt.Fprintf(&sb, "|asp:%s,%s", formatFloat(s.AspectConstrained.Width), formatFloat(s.AspectConstrained.Aspect))
		}
		if s.Absolute == nil && s.Relative == nil && s.AspectConstrained == nil {
			sb.WriteString("|size:none")
		}
	}
	return sb.String()
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func warn(warnings []string) {
	for _, w := range warnings {
		logging.Logger().Warn("svglayout: " + w)
	}
}

// ResolvePosition returns the anchor point of layout:
// the region origin, plus the region size times the anchor offset,
// plus the region size times the layout offset, clamped to the canvas.
// The returned warnings report Lenient fallbacks.
func (r *Resolver) ResolvePosition(layout svgdoc.LayoutSpec) (Position, []string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := signature(r.table.canvas, layout)
	if r.cache != nil {
		if c, ok := r.cache.lru.Get(key); ok {
			r.hits.Add(1)
			logging.Logger().Debug("svglayout: position cache hit", "key", key)
			return c.pos, append([]string(nil), c.warnings...), nil
		}
		r.misses.Add(1)
	}

	pos, warnings, err := r.resolve(layout)
	if err != nil {
		return Position{}, warnings, err
	}
	warn(warnings)
	if r.cache != nil {
		r.cache.lru.Add(key, cachedPosition{pos: pos, warnings: append([]string(nil), warnings...)})
	}
	return pos, warnings, nil
}

// resolve must be called with the read lock held.
func (r *Resolver) resolve(layout svgdoc.LayoutSpec) (Position, []string, error) {
	var warnings []string
	mode := r.cfg.Strictness

	region, w, err := r.table.Lookup(layout.RegionName(), mode)
	if err != nil {
		return Position{}, nil, err
	}
	if w != "" {
		warnings = append(warnings, w)
	}
	anchor, w, err := ParseAnchor(layout.AnchorName(), mode)
	if err != nil {
		return Position{}, warnings, err
	}
	if w != "" {
		warnings = append(warnings, w)
	}

	canvas := r.table.canvas
	px := region.scale(canvas.Width, canvas.Height)
	ax, ay := anchor.Offset()
	dx, dy := layout.OffsetValue()
	if math.IsNaN(dx) || math.IsNaN(dy) {
		return Position{}, warnings, fmt.Errorf("%w: offset is not a number", ErrInvalidBounds)
	}
	pos := Position{
		X:      clamp(px.X+px.Width*ax+dx*px.Width, 0, canvas.Width),
		Y:      clamp(px.Y+px.Height*ay+dy*px.Height, 0, canvas.Height),
		Region: px,
		Anchor: anchor,
	}

	size, w, err := ParseSize(layout.Size, mode)
	if err != nil {
		return Position{}, warnings, err
	}
	if w != "" {
		warnings = append(warnings, w)
	}
	if size != nil {
		d := ResolveSize(size, px)
		pos.Size = &d
	}
	return pos, warnings, nil
}

// Transform translates every coordinate pair of path by p, and clamps
// the result to the canvas. Close commands are unchanged.
// The input is not modified.
func (r *Resolver) Transform(path svgpath.Path, p Point) svgpath.Path {
	canvas := r.Canvas()
	return translateClamped(path, p, canvas.Width, canvas.Height)
}

func translateClamped(path svgpath.Path, p Point, width, height float64) svgpath.Path {
	out := path.Copy()
	for _, c := range out {
		if c.Tag == svgpath.Close {
			continue
		}
		for i := 0; i+1 < len(c.Coords); i += 2 {
			c.Coords[i] = clamp(c.Coords[i]+p.X, 0, width)
			c.Coords[i+1] = clamp(c.Coords[i+1]+p.Y, 0, height)
		}
	}
	return out
}
