package svgpath

import (
	"math"
)

// Rect is an axis aligned box, in pixels.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// EmptyRect returns an inverted box, neutral for Union.
func EmptyRect() Rect {
	return Rect{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
}

// IsEmpty is true for the neutral box.
func (r Rect) IsEmpty() bool { return r.MinX > r.MaxX || r.MinY > r.MaxY }

func (r Rect) Width() float64  { return r.MaxX - r.MinX }
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Union returns the smallest box containing r and o.
func (r Rect) Union(o Rect) Rect {
	if o.IsEmpty() {
		return r
	}
	if r.IsEmpty() {
		return o
	}
	return Rect{
		MinX: math.Min(r.MinX, o.MinX), MinY: math.Min(r.MinY, o.MinY),
		MaxX: math.Max(r.MaxX, o.MaxX), MaxY: math.Max(r.MaxY, o.MaxY),
	}
}

func (r Rect) addPoint(x, y float64) Rect {
	return Rect{
		MinX: math.Min(r.MinX, x), MinY: math.Min(r.MinY, y),
		MaxX: math.Max(r.MaxX, x), MaxY: math.Max(r.MaxY, y),
	}
}

// Bounds returns the box of every coordinate pair, control points included.
// This is the box used to scale a path.
func (p Path) Bounds() Rect {
	r := EmptyRect()
	for _, c := range p {
		for i := 0; i+1 < len(c.Coords); i += 2 {
			r = r.addPoint(c.Coords[i], c.Coords[i+1])
		}
	}
	return r
}

// TightBounds returns the exact box of the drawn curve, using the
// extrema of each Bezier segment instead of its control points.
func (p Path) TightBounds() Rect {
	r := EmptyRect()
	var curX, curY, startX, startY float64
	for _, c := range p {
		switch c.Tag {
		case MoveTo:
			curX, curY = c.Coords[0], c.Coords[1]
			startX, startY = curX, curY
			r = r.addPoint(curX, curY)
		case LineTo:
			curX, curY = c.Coords[0], c.Coords[1]
			r = r.addPoint(curX, curY)
		case QuadTo:
			r = r.Union(computeBoundingBox(quadBezier{curX, curY, c.Coords[0], c.Coords[1], c.Coords[2], c.Coords[3]}))
			curX, curY = c.Coords[2], c.Coords[3]
		case CubicTo:
			r = r.Union(computeBoundingBox(cubicBezier{curX, curY, c.Coords[0], c.Coords[1],
				c.Coords[2], c.Coords[3], c.Coords[4], c.Coords[5]}))
			curX, curY = c.Coords[4], c.Coords[5]
		case Close:
			curX, curY = startX, startY
		}
	}
	return r
}

// x0, y0, cx, cy, x1, y1
type quadBezier [6]float64

// quadratic polinomial
// x = At^2 + Bt + C
// where
// A = p0 + p2 - 2p1
// B = 2(p1 - p0)
// C = p0
func bezierQuad(p0, p1, p2, t float64) float64 {
	return (p0+p2-2*p1)*t*t + 2*(p1-p0)*t + p0
}

// derivative as at + b where a,b :
func quadraticDerivative(p0, p1, p2 float64) (a, b float64) {
	return 2 * (p2 - p1 - (p1 - p0)), 2 * (p1 - p0)
}

// handle the case where a = 0
func linearRoots(a, b float64) []float64 {
	if a == 0 {
		return nil
	}
	return []float64{-b / a}
}

func (cu quadBezier) criticalPoints() (tX, tY []float64) {
	aX, bX := quadraticDerivative(cu[0], cu[2], cu[4])
	aY, bY := quadraticDerivative(cu[1], cu[3], cu[5])
	return linearRoots(aX, bX), linearRoots(aY, bY)
}

func (cu quadBezier) evaluateCurve(t float64) (x, y float64) {
	return bezierQuad(cu[0], cu[2], cu[4], t), bezierQuad(cu[1], cu[3], cu[5], t)
}

// x0, y0, c1x, c1y, c2x, c2y, x1, y1
type cubicBezier [8]float64

// cubic polinomial
// x = At^3 + Bt^2 + Ct + D
// where A,B,C,D:
// A = p3 -3 * p2 + 3 * p1 - p0
// B = 3 * p2 - 6 * p1 +3 * p0
// C = 3 * p1 - 3 * p0
// D = p0
func bezierSpline(p0, p1, p2, p3, t float64) float64 {
	return (p3-3*p2+3*p1-p0)*t*t*t +
		(3*p2-6*p1+3*p0)*t*t +
		(3*p1-3*p0)*t +
		(p0)
}

// X' = (3*p3-9*p2+9*p1-3*p0)t^2 + (6*p2-12*p1+6*p0)t + (3*p1-3*p0)
// taken as aX^2 + bX + c
func cubicDerivative(p0, p1, p2, p3 float64) (a, b, c float64) {
	return 3*p3 - 9*p2 + 9*p1 - 3*p0, 6*p2 - 12*p1 + 6*p0, 3*p1 - 3*p0
}

func quadraticRoots(a, b, c float64) []float64 {
	if a == 0 {
		if b == 0 {
			return nil
		}
		return []float64{-c / b}
	}
	d := b*b - 4*a*c
	if d < 0 {
		return nil
	}
	if d == 0 {
		return []float64{-b / (2 * a)}
	}
	sq := math.Sqrt(d)
	return []float64{(-b + sq) / (2 * a), (-b - sq) / (2 * a)}
}

func (cu cubicBezier) criticalPoints() (tX, tY []float64) {
	aX, bX, cX := cubicDerivative(cu[0], cu[2], cu[4], cu[6])
	aY, bY, cY := cubicDerivative(cu[1], cu[3], cu[5], cu[7])
	return quadraticRoots(aX, bX, cX), quadraticRoots(aY, bY, cY)
}

func (cu cubicBezier) evaluateCurve(t float64) (x, y float64) {
	return bezierSpline(cu[0], cu[2], cu[4], cu[6], t), bezierSpline(cu[1], cu[3], cu[5], cu[7], t)
}

type bezier interface {
	// compute the t zeroing the derivative
	criticalPoints() (tX, tY []float64)
	// compute the point a time t
	evaluateCurve(t float64) (x, y float64)
}

func computeBoundingBox(curve bezier) Rect {
	resX, resY := curve.criticalPoints()
	r := EmptyRect()
	// add begin and end point
	for _, t := range append(append(resX, 0, 1), resY...) {
		// filter invalid value
		if !(0 <= t && t <= 1) {
			continue
		}
		r = r.addPoint(curve.evaluateCurve(t))
	}
	return r
}
