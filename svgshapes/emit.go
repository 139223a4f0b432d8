package svgshapes

import (
	"github.com/benoitkugler/svglayout/svgdoc"
	"github.com/benoitkugler/svglayout/svgpath"
)

// Emit generates the shape described by spec. The spec Open flag
// overrides the emitter one.
func (e Emitter) Emit(spec svgdoc.PrimitiveSpec) (svgpath.Path, error) {
	e.Open = e.Open || spec.Open
	start := DefaultStartAngle
	if spec.StartAngle != nil {
		start = *spec.StartAngle
	}
	switch spec.Type {
	case svgdoc.ShapeRectangle:
		return e.Rectangle(spec.X, spec.Y, spec.Width, spec.Height)
	case svgdoc.ShapeRoundedRectangle:
		return e.RoundedRectangle(spec.X, spec.Y, spec.Width, spec.Height, spec.CornerRadius)
	case svgdoc.ShapeCircle:
		return e.Circle(spec.X, spec.Y, spec.Radius)
	case svgdoc.ShapeEllipse:
		rx, ry := spec.RadiusX, spec.RadiusY
		if rx == 0 && ry == 0 {
			rx, ry = spec.Width/2, spec.Height/2
		}
		return e.Ellipse(spec.X, spec.Y, rx, ry)
	case svgdoc.ShapePolygon:
		return e.Polygon(spec.X, spec.Y, spec.Radius, spec.Sides, start)
	case svgdoc.ShapeStar:
		inner := spec.InnerRadius
		if inner == 0 {
			inner = spec.Radius / 2
		}
		return e.Star(spec.X, spec.Y, spec.Radius, inner, spec.Points, start)
	case svgdoc.ShapeCurve:
		tension := DefaultTension
		if spec.Tension != nil {
			tension = *spec.Tension
		}
		return e.SmoothCurve(spec.Vertices, tension)
	case svgdoc.ShapeQuadratic:
		if len(spec.Vertices) != 3 {
			return nil, invalid("quadratic curve needs start, control and end points, got %d", len(spec.Vertices))
		}
		return e.QuadraticCurve(spec.Vertices[0], spec.Vertices[1], spec.Vertices[2])
	case svgdoc.ShapeArc:
		arcStart := 0.
		if spec.StartAngle != nil {
			arcStart = *spec.StartAngle
		}
		return e.Arc(spec.X, spec.Y, spec.Radius, arcStart, spec.EndAngle)
	default:
		return nil, invalid("unknown primitive %q", spec.Type)
	}
}
