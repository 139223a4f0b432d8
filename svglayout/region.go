package svglayout

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/benoitkugler/svglayout/svgdoc"
)

const boundsEpsilon = 1e-9

// Region is a named rectangle. Depending on the context,
// the values are normalized to [0,1] or expressed in pixels.
type Region struct {
	Name                string
	X, Y, Width, Height float64
}

// Contains reports whether the point is inside r, borders included.
func (r Region) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

func (r Region) area() float64 { return r.Width * r.Height }

func (r Region) scale(sx, sy float64) Region {
	return Region{Name: r.Name, X: r.X * sx, Y: r.Y * sy, Width: r.Width * sx, Height: r.Height * sy}
}

// validate checks the invariants of a normalized region.
func (r Region) validate() error {
	for _, v := range [...]float64{r.X, r.Y, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %q has non finite values", ErrInvalidBounds, r.Name)
		}
	}
	switch {
	case r.X < 0 || r.X > 1 || r.Y < 0 || r.Y > 1:
		return fmt.Errorf("%w: %q origin (%g, %g) outside [0,1]", ErrInvalidBounds, r.Name, r.X, r.Y)
	case r.Width <= 0 || r.Width > 1 || r.Height <= 0 || r.Height > 1:
		return fmt.Errorf("%w: %q size (%g, %g) outside (0,1]", ErrInvalidBounds, r.Name, r.Width, r.Height)
	case r.X+r.Width > 1+boundsEpsilon || r.Y+r.Height > 1+boundsEpsilon:
		return fmt.Errorf("%w: %q overflows the canvas", ErrInvalidBounds, r.Name)
	}
	return nil
}

// builtinRegions is the table for a square canvas, in lookup order.
// The 3x3 grid splits each axis at 0.33 and 0.67.
var builtinRegions = [...]Region{
	{Name: "center", X: 0.33, Y: 0.33, Width: 0.34, Height: 0.34},
	{Name: "top_left", X: 0, Y: 0, Width: 0.33, Height: 0.33},
	{Name: "top_center", X: 0.33, Y: 0, Width: 0.34, Height: 0.33},
	{Name: "top_right", X: 0.67, Y: 0, Width: 0.33, Height: 0.33},
	{Name: "middle_left", X: 0, Y: 0.33, Width: 0.33, Height: 0.34},
	{Name: "middle_right", X: 0.67, Y: 0.33, Width: 0.33, Height: 0.34},
	{Name: "bottom_left", X: 0, Y: 0.67, Width: 0.33, Height: 0.33},
	{Name: "bottom_center", X: 0.33, Y: 0.67, Width: 0.34, Height: 0.33},
	{Name: "bottom_right", X: 0.67, Y: 0.67, Width: 0.33, Height: 0.33},

	{Name: "full_canvas", X: 0, Y: 0, Width: 1, Height: 1},
	{Name: "top_half", X: 0, Y: 0, Width: 1, Height: 0.5},
	{Name: "bottom_half", X: 0, Y: 0.5, Width: 1, Height: 0.5},
	{Name: "left_half", X: 0, Y: 0, Width: 0.5, Height: 1},
	{Name: "right_half", X: 0.5, Y: 0, Width: 0.5, Height: 1},
	{Name: "upper_third", X: 0, Y: 0, Width: 1, Height: 0.33},
	{Name: "middle_band", X: 0, Y: 0.33, Width: 1, Height: 0.34},
	{Name: "lower_third", X: 0, Y: 0.67, Width: 1, Height: 0.33},
	{Name: "safe_area", X: 0.1, Y: 0.1, Width: 0.8, Height: 0.8},
}

// RegionTable maps region names to normalized rectangles of a canvas.
// Built-in regions are immutable; custom regions may be added.
// A RegionTable is safe for concurrent use.
type RegionTable struct {
	canvas   svgdoc.Canvas
	builtins []Region
	index    map[string]int

	mu     sync.RWMutex
	custom map[string]Region
}

// NewRegionTable builds the built-in regions for the canvas. For non
// square aspect tags, the built-ins are compressed into the visible
// view box.
func NewRegionTable(canvas svgdoc.Canvas) *RegionTable {
	_, _, vw, vh := canvas.ViewBox()
	sx, sy := vw/canvas.Width, vh/canvas.Height
	t := &RegionTable{
		canvas:   canvas,
		builtins: make([]Region, len(builtinRegions)),
		index:    make(map[string]int, len(builtinRegions)),
		custom:   make(map[string]Region),
	}
	for i, r := range builtinRegions {
		if sx != 1 || sy != 1 {
			r = r.scale(sx, sy)
		}
		t.builtins[i] = r
		t.index[r.Name] = i
	}
	return t
}

// Canvas returns the canvas the table was built for.
func (t *RegionTable) Canvas() svgdoc.Canvas { return t.canvas }

// IsBuiltin reports whether name is a built-in region.
func (t *RegionTable) IsBuiltin(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Bounds returns the normalized region, or ErrUnknownRegion.
func (t *RegionTable) Bounds(name string) (Region, error) {
	if i, ok := t.index[name]; ok {
		return t.builtins[i], nil
	}
	t.mu.RLock()
	r, ok := t.custom[name]
	t.mu.RUnlock()
	if ok {
		return r, nil
	}
	return Region{}, fmt.Errorf("%w: %q", ErrUnknownRegion, name)
}

// PixelBounds returns the region scaled by the canvas size.
func (t *RegionTable) PixelBounds(name string) (Region, error) {
	r, err := t.Bounds(name)
	if err != nil {
		return Region{}, err
	}
	return r.scale(t.canvas.Width, t.canvas.Height), nil
}

// Lookup returns the normalized region for name. Unknown names fail in
// Strict mode; in Lenient mode they resolve to "center" and a warning
// is returned.
func (t *RegionTable) Lookup(name string, mode Strictness) (Region, string, error) {
	r, err := t.Bounds(name)
	if err == nil {
		return r, "", nil
	}
	if mode == Strict {
		return Region{}, "", err
	}
	return t.builtins[t.index[svgdoc.DefaultRegion]], fmt.Sprintf("unknown region %q, using %q", name, svgdoc.DefaultRegion), nil
}

// AddCustomRegion registers a normalized region. It fails with
// ErrInvalidBounds if the rectangle is not inside the unit square and
// with ErrNameCollision if name is a built-in region.
// Adding an existing custom name replaces it.
func (t *RegionTable) AddCustomRegion(name string, bounds svgdoc.RegionBounds) error {
	if t.IsBuiltin(name) {
		return fmt.Errorf("%w: %q", ErrNameCollision, name)
	}
	r := Region{Name: name, X: bounds.X, Y: bounds.Y, Width: bounds.Width, Height: bounds.Height}
	if err := r.validate(); err != nil {
		return err
	}
	t.mu.Lock()
	t.custom[name] = r
	t.mu.Unlock()
	return nil
}

// FindRegionAt returns the region containing the normalized point.
// Custom regions are checked before built-ins; among each group the
// smallest containing region wins, ties broken by order.
func (t *RegionTable) FindRegionAt(nx, ny float64) (Region, bool) {
	t.mu.RLock()
	customs := t.sortedCustoms()
	t.mu.RUnlock()
	if r, ok := smallestContaining(customs, nx, ny); ok {
		return r, true
	}
	return smallestContaining(t.builtins, nx, ny)
}

func smallestContaining(regions []Region, nx, ny float64) (Region, bool) {
	var (
		best  Region
		found bool
	)
	for _, r := range regions {
		if !r.Contains(nx, ny) {
			continue
		}
		if !found || r.area() < best.area() {
			best, found = r, true
		}
	}
	return best, found
}

// sortedCustoms must be called with the lock held.
func (t *RegionTable) sortedCustoms() []Region {
	out := make([]Region, 0, len(t.custom))
	for _, r := range t.custom {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the built-in names in table order, followed by
// the custom names, sorted.
func (t *RegionTable) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.builtins)+len(t.custom))
	for _, r := range t.builtins {
		out = append(out, r.Name)
	}
	for _, r := range t.sortedCustoms() {
		out = append(out, r.Name)
	}
	return out
}
