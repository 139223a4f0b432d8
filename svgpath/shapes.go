package svgpath

import (
	"math"
)

// This file implements the transformation from
// elliptical arcs to their cubic path equivalent

// maxArcSpan is the largest angle, in radians, covered by one cubic
// of an arc approximation.
const maxArcSpan = math.Pi / 8

// ellipticalArc is an arc in center parameterization.
type ellipticalArc struct {
	cx, cy     float64
	rx, ry     float64
	sin, cos   float64 // of the x axis rotation
	start, end float64 // parametric angles; end - start is signed
}

// point returns the point of parameter eta.
func (a ellipticalArc) point(eta float64) (x, y float64) {
	s, c := math.Sincos(eta)
	ex, ey := a.rx*c, a.ry*s
	return a.cx + ex*a.cos - ey*a.sin, a.cy + ex*a.sin + ey*a.cos
}

// tangent returns the derivative at parameter eta.
func (a ellipticalArc) tangent(eta float64) (dx, dy float64) {
	s, c := math.Sincos(eta)
	ex, ey := -a.rx*s, a.ry*c
	return ex*a.cos - ey*a.sin, ex*a.sin + ey*a.cos
}

// centerArc converts the endpoint parameterization used by the SVG
// A command. Radii too small to join the end points are scaled up.
func centerArc(x1, y1, rx, ry, rotDeg float64, largeArc, sweep bool, x2, y2 float64) ellipticalArc {
	sin, cos := math.Sincos(rotDeg * math.Pi / 180)
	hx, hy := (x1-x2)/2, (y1-y2)/2
	// start point in the rotated frame, relative to the chord middle
	px, py := cos*hx+sin*hy, -sin*hx+cos*hy

	if l := px*px/(rx*rx) + py*py/(ry*ry); l > 1 {
		l = math.Sqrt(l)
		rx, ry = rx*l, ry*l
	}
	rx2, ry2 := rx*rx, ry*ry
	num := rx2*ry2 - rx2*py*py - ry2*px*px
	den := rx2*py*py + ry2*px*px
	k := math.Sqrt(math.Max(0, num/den))
	if largeArc == sweep {
		k = -k
	}
	ccx, ccy := k*rx*py/ry, -k*ry*px/rx

	arc := ellipticalArc{
		cx: cos*ccx - sin*ccy + (x1+x2)/2,
		cy: sin*ccx + cos*ccy + (y1+y2)/2,
		rx: rx, ry: ry,
		sin: sin, cos: cos,
	}
	arc.start = math.Atan2((py-ccy)/ry, (px-ccx)/rx)
	delta := math.Atan2((-py-ccy)/ry, (-px-ccx)/rx) - arc.start
	if sweep && delta < 0 {
		delta += 2 * math.Pi
	} else if !sweep && delta > 0 {
		delta -= 2 * math.Pi
	}
	arc.end = arc.start + delta
	return arc
}

// arcTo adds the SVG arc going from the current point (px, py) to (x, y),
// with radii ra, rb, x axis rotation rotX in degrees, and the usual flags.
func (p *Path) arcTo(px, py, ra, rb, rotX float64, largeArc, sweep bool, x, y float64) {
	if px == x && py == y {
		return
	}
	ra, rb = math.Abs(ra), math.Abs(rb)
	if ra == 0 || rb == 0 {
		p.Line(x, y)
		return
	}
	arc := centerArc(px, py, ra, rb, rotX, largeArc, sweep, x, y)

	// L. Maisonobe, "Drawing an elliptical arc using polylines,
	// quadratic or cubic Bezier curves", 2003
	n := int(math.Abs(arc.end-arc.start)/maxArcSpan) + 1
	step := (arc.end - arc.start) / float64(n)
	t := math.Tan(step / 2)
	alpha := math.Sin(step) * (math.Sqrt(4+3*t*t) - 1) / 3

	fromX, fromY := px, py
	fromDx, fromDy := arc.tangent(arc.start)
	for i := 1; i <= n; i++ {
		eta := arc.start + step*float64(i)
		toX, toY := x, y // exact end point
		if i < n {
			toX, toY = arc.point(eta)
		}
		toDx, toDy := arc.tangent(eta)
		p.CubeBezier(fromX+alpha*fromDx, fromY+alpha*fromDy, toX-alpha*toDx, toY-alpha*toDy, toX, toY)
		fromX, fromY, fromDx, fromDy = toX, toY, toDx, toDy
	}
}
