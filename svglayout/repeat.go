package svglayout

import (
	"fmt"
	"math"

	"github.com/benoitkugler/svglayout/internal/logging"
	"github.com/benoitkugler/svglayout/svgdoc"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// DefaultRadius is the radial radius, as a fraction of the
	// smallest side of the region.
	DefaultRadius = 0.3

	// TrigTableThreshold is the radial count above which cos/sin
	// tables are precomputed and shared.
	TrigTableThreshold = 64

	trigCacheSize = 32
)

// Instance is one position of a repetition, in pixels.
// Rotation is in degrees, and is always 0 for grids.
type Instance struct {
	X, Y     float64
	Rotation float64
}

type trigTable struct {
	cos, sin []float64
}

func newTrigTable(n int) *trigTable {
	t := &trigTable{cos: make([]float64, n), sin: make([]float64, n)}
	step := 2 * math.Pi / float64(n)
	for i := range t.cos {
		t.sin[i], t.cos[i] = math.Sincos(float64(i) * step)
	}
	return t
}

// Expander turns repetition specs into instance lists.
// It is safe for concurrent use.
type Expander struct {
	maxInstances int
	tables       *lru.Cache[int, *trigTable]
}

// NewExpander returns an expander rejecting repetitions with more than
// maxInstances instances (DefaultMaxInstances if maxInstances <= 0).
func NewExpander(maxInstances int) *Expander {
	if maxInstances <= 0 {
		maxInstances = DefaultMaxInstances
	}
	tables, _ := lru.New[int, *trigTable](trigCacheSize) // only fails for a non positive size
	return &Expander{maxInstances: maxInstances, tables: tables}
}

// Expand returns the instances of spec around base, for a region given
// in pixels. A count <= 0 returns an empty list.
func (e *Expander) Expand(spec svgdoc.RepetitionSpec, base Point, regionPx Region) ([]Instance, error) {
	switch spec.Type {
	case svgdoc.RepeatGrid:
		cols, rows, err := gridCount(spec.Count)
		if err != nil {
			return nil, err
		}
		return e.Grid(cols, rows, spec.Spacing, base, regionPx)
	case svgdoc.RepeatRadial:
		if len(spec.Count) != 1 {
			return nil, fmt.Errorf("%w: radial count must be a single number", ErrInvalidCount)
		}
		n, err := toInt(spec.Count[0])
		if err != nil {
			return nil, err
		}
		radius := DefaultRadius
		if spec.Radius != nil {
			radius = *spec.Radius
		}
		return e.Radial(n, radius, base, regionPx)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedRepetition, spec.Type)
	}
}

func toInt(v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, fmt.Errorf("%w: %g is not an integer", ErrInvalidCount, v)
	}
	if v > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %g", ErrTooManyInstances, v)
	}
	return int(v), nil
}

// gridCount accepts n (square grid) or [cols, rows].
func gridCount(c svgdoc.Count) (cols, rows int, err error) {
	switch len(c) {
	case 1:
		cols, err = toInt(c[0])
		return cols, cols, err
	case 2:
		if cols, err = toInt(c[0]); err != nil {
			return 0, 0, err
		}
		rows, err = toInt(c[1])
		return cols, rows, err
	default:
		return 0, 0, fmt.Errorf("%w: grid count must be n or [cols, rows]", ErrInvalidCount)
	}
}

func (e *Expander) checkTotal(n ...int) error {
	total := 1
	for _, v := range n {
		if v > e.maxInstances {
			return fmt.Errorf("%w: %d above %d", ErrTooManyInstances, v, e.maxInstances)
		}
		total *= v
	}
	if total > e.maxInstances {
		return fmt.Errorf("%w: %d above %d", ErrTooManyInstances, total, e.maxInstances)
	}
	return nil
}

// Grid returns cols x rows instances centered on base, row by row.
// Spacing is the distance between the centers of two neighbour
// instances, as a fraction of the region span on each axis, not the
// gap between them. A nil spacing defaults to 1/cols (resp. 1/rows),
// which tiles the region.
// An axis with a single instance has a null step.
func (e *Expander) Grid(cols, rows int, spacing *float64, base Point, regionPx Region) ([]Instance, error) {
	if cols <= 0 || rows <= 0 {
		return nil, nil
	}
	if err := e.checkTotal(cols, rows); err != nil {
		return nil, err
	}
	fx, fy := 1/float64(cols), 1/float64(rows)
	if spacing != nil {
		if !(*spacing >= 0) || math.IsInf(*spacing, 0) {
			return nil, fmt.Errorf("%w: grid spacing %g", ErrInvalidSize, *spacing)
		}
		fx, fy = *spacing, *spacing
	}
	var stepX, stepY float64
	if cols > 1 {
		stepX = fx * regionPx.Width
	}
	if rows > 1 {
		stepY = fy * regionPx.Height
	}
	startX := base.X - stepX*float64(cols-1)/2
	startY := base.Y - stepY*float64(rows-1)/2

	out := make([]Instance, 0, cols*rows)
	for r := 0; r < rows; r++ {
		y := startY + float64(r)*stepY
		for c := 0; c < cols; c++ {
			out = append(out, Instance{X: startX + float64(c)*stepX, Y: y})
		}
	}
	return out, nil
}

// Radial returns n instances on the circle of center base, at angles
// i*2π/n, and at distance radius * min(region width, region height).
func (e *Expander) Radial(n int, radius float64, base Point, regionPx Region) ([]Instance, error) {
	if n <= 0 {
		return nil, nil
	}
	if err := e.checkTotal(n); err != nil {
		return nil, err
	}
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius < 0 {
		return nil, fmt.Errorf("%w: radial radius %g", ErrInvalidSize, radius)
	}
	r := radius * math.Min(regionPx.Width, regionPx.Height)
	step := 2 * math.Pi / float64(n)

	out := make([]Instance, n)
	if n > TrigTableThreshold {
		t := e.table(n)
		for i := range out {
			out[i] = Instance{
				X:        base.X + r*t.cos[i],
				Y:        base.Y + r*t.sin[i],
				Rotation: float64(i) * step * 180 / math.Pi,
			}
		}
		return out, nil
	}
	for i := range out {
		angle := float64(i) * step
		sin, cos := math.Sincos(angle)
		out[i] = Instance{X: base.X + r*cos, Y: base.Y + r*sin, Rotation: angle * 180 / math.Pi}
	}
	return out, nil
}

func (e *Expander) table(n int) *trigTable {
	if t, ok := e.tables.Get(n); ok {
		return t
	}
	logging.Logger().Debug("svglayout: building trig table", "count", n)
	t := newTrigTable(n)
	e.tables.Add(n, t)
	return t
}
