// Package svgshapes generates the path commands of simple geometric
// shapes from closed form parametric formulas.
//
// Shapes are emitted in local coordinates, closed by a Z command unless
// the emitter is Open, and rounded to the emitter precision.
package svgshapes

import (
	"errors"
	"fmt"
	"math"

	"github.com/benoitkugler/svglayout/svgpath"
)

// Kappa is the control point distance, relative to the radius,
// of the cubic Bezier approximating a quarter circle.
const Kappa = 0.5522847498307936

// DefaultTension is the smoothing factor of SmoothCurve.
const DefaultTension = 0.3

// DefaultStartAngle points the first vertex of polygons and stars up, in degrees.
const DefaultStartAngle = -90.

// MaxVertices bounds the vertex count of polygons, stars and curves.
const MaxVertices = 10000

var ErrInvalidGeometry = errors.New("invalid geometry")

// Emitter generates shapes.
type Emitter struct {
	// Precision is the number of decimals kept. A negative value
	// disables rounding.
	Precision int
	// Open disables the final Z command.
	Open bool
}

// NewEmitter returns an emitter with the default precision,
// emitting closed shapes.
func NewEmitter() Emitter { return Emitter{Precision: svgpath.DefaultPrecision} }

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidGeometry, fmt.Sprintf(format, args...))
}

func positive(vs ...float64) bool {
	for _, v := range vs {
		if !(v > 0) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// finish closes, validates and rounds p.
func (e Emitter) finish(p svgpath.Path) (svgpath.Path, error) {
	if !e.Open {
		p.Stop(true)
	}
	if err := p.Validate(); err != nil {
		return nil, invalid("%s", err)
	}
	if e.Precision >= 0 {
		p.Round(e.Precision)
	}
	return p, nil
}

// Rectangle returns the rectangle of top left corner (x, y),
// drawn clockwise with four lines.
func (e Emitter) Rectangle(x, y, width, height float64) (svgpath.Path, error) {
	if !positive(width, height) {
		return nil, invalid("rectangle of size %gx%g", width, height)
	}
	var p svgpath.Path
	p.Start(x, y)
	p.Line(x+width, y)
	p.Line(x+width, y+height)
	p.Line(x, y+height)
	p.Line(x, y)
	return e.finish(p)
}

// RoundedRectangle returns a rectangle whose corners are quarter
// circles of radius r, reduced to half the smallest side if needed.
// A null radius gives a plain rectangle.
func (e Emitter) RoundedRectangle(x, y, width, height, r float64) (svgpath.Path, error) {
	if !positive(width, height) {
		return nil, invalid("rectangle of size %gx%g", width, height)
	}
	if r < 0 || math.IsNaN(r) {
		return nil, invalid("corner radius %g", r)
	}
	r = math.Min(r, math.Min(width, height)/2)
	if r == 0 {
		return e.Rectangle(x, y, width, height)
	}
	k := r * Kappa
	right, bottom := x+width, y+height
	var p svgpath.Path
	p.Start(x+r, y)
	p.Line(right-r, y)
	p.CubeBezier(right-r+k, y, right, y+r-k, right, y+r)
	p.Line(right, bottom-r)
	p.CubeBezier(right, bottom-r+k, right-r+k, bottom, right-r, bottom)
	p.Line(x+r, bottom)
	p.CubeBezier(x+r-k, bottom, x, bottom-r+k, x, bottom-r)
	p.Line(x, y+r)
	p.CubeBezier(x, y+r-k, x+r-k, y, x+r, y)
	return e.finish(p)
}

// Circle returns the circle of center (cx, cy) and radius r.
func (e Emitter) Circle(cx, cy, r float64) (svgpath.Path, error) {
	return e.Ellipse(cx, cy, r, r)
}

// Ellipse returns four cubic quadrants, starting at the rightmost
// point and turning clockwise (y axis pointing down).
func (e Emitter) Ellipse(cx, cy, rx, ry float64) (svgpath.Path, error) {
	if !positive(rx, ry) {
		return nil, invalid("ellipse radii %g, %g", rx, ry)
	}
	kx, ky := rx*Kappa, ry*Kappa
	var p svgpath.Path
	p.Start(cx+rx, cy)
	p.CubeBezier(cx+rx, cy+ky, cx+kx, cy+ry, cx, cy+ry)
	p.CubeBezier(cx-kx, cy+ry, cx-rx, cy+ky, cx-rx, cy)
	p.CubeBezier(cx-rx, cy-ky, cx-kx, cy-ry, cx, cy-ry)
	p.CubeBezier(cx+kx, cy-ry, cx+rx, cy-ky, cx+rx, cy)
	return e.finish(p)
}

// Polygon returns the regular polygon inscribed in the circle of
// center (cx, cy) and radius r, with vertices at
// startAngle + i * 360 / sides degrees.
func (e Emitter) Polygon(cx, cy, r float64, sides int, startAngle float64) (svgpath.Path, error) {
	if sides < 3 || sides > MaxVertices {
		return nil, invalid("polygon with %d sides", sides)
	}
	if !positive(r) {
		return nil, invalid("polygon radius %g", r)
	}
	start := startAngle * math.Pi / 180
	step := 2 * math.Pi / float64(sides)
	var p svgpath.Path
	for i := 0; i < sides; i++ {
		sin, cos := math.Sincos(start + float64(i)*step)
		if i == 0 {
			p.Start(cx+r*cos, cy+r*sin)
		} else {
			p.Line(cx+r*cos, cy+r*sin)
		}
	}
	return e.finish(p)
}

// Star returns a star with `points` branches: 2 * points vertices
// alternating between the outer and inner radius, at
// startAngle + i * 180 / points degrees.
func (e Emitter) Star(cx, cy, outer, inner float64, points int, startAngle float64) (svgpath.Path, error) {
	if points < 3 || 2*points > MaxVertices {
		return nil, invalid("star with %d points", points)
	}
	if !positive(outer, inner) || inner >= outer {
		return nil, invalid("star radii %g, %g", outer, inner)
	}
	start := startAngle * math.Pi / 180
	step := math.Pi / float64(points)
	var p svgpath.Path
	for i := 0; i < 2*points; i++ {
		r := outer
		if i%2 == 1 {
			r = inner
		}
		sin, cos := math.Sincos(start + float64(i)*step)
		if i == 0 {
			p.Start(cx+r*cos, cy+r*sin)
		} else {
			p.Line(cx+r*cos, cy+r*sin)
		}
	}
	return e.finish(p)
}

// SmoothCurve returns a curve through every point, using
// Catmull-Rom like control points p ± tension * (next - prev).
// Two points give a straight line.
func (e Emitter) SmoothCurve(points [][2]float64, tension float64) (svgpath.Path, error) {
	n := len(points)
	if n < 2 || n > MaxVertices {
		return nil, invalid("curve with %d points", n)
	}
	var p svgpath.Path
	p.Start(points[0][0], points[0][1])
	if n == 2 {
		p.Line(points[1][0], points[1][1])
		return e.finish(p)
	}
	for i := 0; i < n-1; i++ {
		p0, p1 := points[max(i-1, 0)], points[i]
		p2, p3 := points[i+1], points[min(i+2, n-1)]
		p.CubeBezier(
			p1[0]+tension*(p2[0]-p0[0]), p1[1]+tension*(p2[1]-p0[1]),
			p2[0]-tension*(p3[0]-p1[0]), p2[1]-tension*(p3[1]-p1[1]),
			p2[0], p2[1],
		)
	}
	return e.finish(p)
}

// QuadraticCurve returns the quadratic Bezier from start to end.
func (e Emitter) QuadraticCurve(start, control, end [2]float64) (svgpath.Path, error) {
	var p svgpath.Path
	p.Start(start[0], start[1])
	p.QuadBezier(control[0], control[1], end[0], end[1])
	return e.finish(p)
}

// Arc returns the circular arc of center (cx, cy) and radius r going
// from startAngle to endAngle, in degrees. The arc is split in chunks
// of at most 90 degrees, each approximated by a cubic Bezier whose
// control points are at alpha = sin(Δ)(√(4+3tan²(Δ/2))−1)/3 times the
// tangent. Sweeps beyond a full turn are clamped to 360 degrees.
func (e Emitter) Arc(cx, cy, r, startAngle, endAngle float64) (svgpath.Path, error) {
	if !positive(r) {
		return nil, invalid("arc radius %g", r)
	}
	sweep := (endAngle - startAngle) * math.Pi / 180
	if sweep == 0 || math.IsNaN(sweep) || math.IsInf(sweep, 0) {
		return nil, invalid("arc from %g to %g", startAngle, endAngle)
	}
	sweep = math.Max(-2*math.Pi, math.Min(2*math.Pi, sweep))
	segs := int(math.Ceil(math.Abs(sweep)/(math.Pi/2) - 1e-9))
	delta := sweep / float64(segs)
	t := math.Tan(delta / 2)
	alpha := math.Sin(delta) * (math.Sqrt(4+3*t*t) - 1) / 3

	theta := startAngle * math.Pi / 180
	sin, cos := math.Sincos(theta)
	var p svgpath.Path
	p.Start(cx+r*cos, cy+r*sin)
	for i := 1; i <= segs; i++ {
		next := theta + delta
		nsin, ncos := math.Sincos(next)
		// the tangent of the unit circle at θ is (-sin θ, cos θ)
		p.CubeBezier(
			cx+r*(cos-alpha*sin), cy+r*(sin+alpha*cos),
			cx+r*(ncos+alpha*nsin), cy+r*(nsin-alpha*ncos),
			cx+r*ncos, cy+r*nsin,
		)
		theta, sin, cos = next, nsin, ncos
	}
	return e.finish(p)
}
