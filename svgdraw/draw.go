// Given a compiled layout, implements how to
// draw it with something else than SVG markup.
// This requires a driver implementing the actual draw operations,
// such as a rasterizer to output .png images or a pdf writer.
package svgdraw

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/benoitkugler/svglayout/svgcompile"
	"github.com/benoitkugler/svglayout/svgdoc"
	"github.com/benoitkugler/svglayout/svgpath"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"
)

// Drawer knows how to do the actual draw operations
// but doesn't need any layout knowledge.
// In particular, the target transform is already applied to the points
// before sending them to the Drawer.
type Drawer interface {
	// Clear must reset the internal state (used before starting a new path painting)
	Clear()

	// Start starts a new path at the given point.
	Start(a fixed.Point26_6)

	// Line adds a line from the current point to `b`
	Line(b fixed.Point26_6)

	// QuadBezier adds a quadratic bezier curve to the path
	QuadBezier(b, c fixed.Point26_6)

	// CubeBezier adds a cubic bezier curve to the path
	CubeBezier(b, c, d fixed.Point26_6)

	// Stop closes the path to the start point if `closeLoop` is true
	Stop(closeLoop bool)

	// SetColor sets the color for the current path
	SetColor(c color.Color, opacity float64)

	// Draw fills or strokes the accumulated path using the current settings
	Draw()
}

type Filler interface {
	Drawer

	// SetWinding selects the NonZero (true) or EvenOdd fill rule for the current path
	SetWinding(useNonZeroWinding bool)
}

type Stroker interface {
	Drawer

	// SetStrokeOptions parametrizes the stroking style for the current path
	SetStrokeOptions(options StrokeOptions)
}

type Driver interface {
	// SetupDrawers returns the backend painters, and
	// will be called at the beginning of every path.
	// If the `willXXX` boolean is false, the returned drawer should be nil
	// to avoid useless operations.
	// When both booleans are true, the exact same draw operations
	// are performed on the Filler first and then on the Stroker.
	SetupDrawers(willFill, willStroke bool) (Filler, Stroker)
}

// JoinMode type to specify how segments join.
type JoinMode uint8

const (
	Miter JoinMode = iota
	Round
	Bevel
)

func (j JoinMode) String() string {
	switch j {
	case Miter:
		return "Miter"
	case Round:
		return "Round"
	case Bevel:
		return "Bevel"
	default:
		return "<unknown JoinMode>"
	}
}

// CapMode defines how to draw caps on the ends of lines
type CapMode uint8

const (
	ButtCap CapMode = iota
	RoundCap
	SquareCap
)

func (c CapMode) String() string {
	switch c {
	case ButtCap:
		return "ButtCap"
	case RoundCap:
		return "RoundCap"
	case SquareCap:
		return "SquareCap"
	default:
		return "<unknown CapMode>"
	}
}

type StrokeOptions struct {
	LineWidth  fixed.Int26_6 // already scaled by the target transform
	MiterLimit fixed.Int26_6
	Join       JoinMode
	Cap        CapMode
}

// PathStyle is the paint of a rendered path, with colors resolved.
type PathStyle struct {
	FillColor, StrokeColor     color.Color // nil disables the operation
	FillOpacity, StrokeOpacity float64
	LineWidth, MiterLimit      float64 // user units
	Join                       JoinMode
	Cap                        CapMode
	UseNonZeroWinding          bool
}

// DefaultStyle is the SVG initial paint: black fill with
// the nonzero rule, no stroke, 1 unit miter joined butt lines.
var DefaultStyle = PathStyle{
	FillColor:         color.NRGBA{A: 0xff},
	FillOpacity:       1,
	StrokeOpacity:     1,
	LineWidth:         1,
	MiterLimit:        4,
	Join:              Miter,
	Cap:               ButtCap,
	UseNonZeroWinding: true,
}

// ResolveStyle reads the paint attributes of s on top of DefaultStyle.
// Unknown cap, join and rule keywords keep the default.
func ResolveStyle(s svgdoc.Style) (PathStyle, error) {
	out := DefaultStyle
	var err error
	if s.Fill != "" {
		if out.FillColor, err = ParseColor(s.Fill); err != nil {
			return out, fmt.Errorf("fill: %w", err)
		}
	}
	out.StrokeColor = nil
	if s.Stroke != "" {
		if out.StrokeColor, err = ParseColor(s.Stroke); err != nil {
			return out, fmt.Errorf("stroke: %w", err)
		}
	}
	if s.StrokeWidth != nil {
		out.LineWidth = *s.StrokeWidth
	}
	if s.FillOpacity != nil {
		out.FillOpacity = *s.FillOpacity
	}
	if s.StrokeOpacity != nil {
		out.StrokeOpacity = *s.StrokeOpacity
	}
	if s.Opacity != nil {
		out.FillOpacity *= *s.Opacity
		out.StrokeOpacity *= *s.Opacity
	}
	switch s.StrokeLinecap {
	case "round":
		out.Cap = RoundCap
	case "square":
		out.Cap = SquareCap
	case "butt":
		out.Cap = ButtCap
	}
	switch s.StrokeLinejoin {
	case "round":
		out.Join = Round
	case "bevel":
		out.Join = Bevel
	case "miter":
		out.Join = Miter
	}
	if s.FillRule == "evenodd" {
		out.UseNonZeroWinding = false
	}
	return out, nil
}

// Target returns the transform mapping viewBox onto a w x h surface
// with its origin at the top left corner.
func Target(viewBox svgpath.Rect, w, h float64) rasterx.Matrix2D {
	return rasterx.Identity.
		Scale(w/viewBox.Width(), h/viewBox.Height()).
		Translate(-viewBox.MinX, -viewBox.MinY)
}

// DrawResult draws every rendered path of res into a w x h surface.
func DrawResult(res *svgcompile.Result, d Driver, w, h float64) error {
	return Draw(res.Rendered, d, 1, Target(res.ViewBox, w, h))
}

// Draw paints the layers into the driver, in order, after applying m.
// A path whose style cannot be resolved is skipped, and its error
// is part of the returned one.
func Draw(layers []svgcompile.RenderedLayer, d Driver, opacity float64, m rasterx.Matrix2D) error {
	var errs []error
	for _, layer := range layers {
		for _, rp := range layer.Paths {
			style, err := ResolveStyle(rp.Style)
			if err != nil {
				errs = append(errs, fmt.Errorf("path %q: %w", rp.ID, err))
				continue
			}
			for _, inst := range rp.Instances {
				DrawPath(inst, style, d, opacity, m)
			}
		}
	}
	return errors.Join(errs...)
}

// DrawPath draws one path into the driver, filling first.
func DrawPath(p svgpath.Path, style PathStyle, d Driver, opacity float64, m rasterx.Matrix2D) {
	filler, stroker := d.SetupDrawers(style.FillColor != nil, style.StrokeColor != nil)
	if filler != nil {
		filler.Clear()
		filler.SetWinding(style.UseNonZeroWinding)
		walk(p, filler, m)
		filler.Stop(false)
		filler.SetColor(style.FillColor, style.FillOpacity*opacity)
		filler.Draw()
		filler.SetWinding(true) // default is true
	}
	if stroker != nil {
		stroker.Clear()
		// a uniform scale factor for the line width
		scale := math.Sqrt(math.Abs(m.A*m.D - m.B*m.C))
		stroker.SetStrokeOptions(StrokeOptions{
			LineWidth:  toFixed(style.LineWidth * scale),
			MiterLimit: toFixed(style.MiterLimit),
			Join:       style.Join,
			Cap:        style.Cap,
		})
		walk(p, stroker, m)
		stroker.Stop(false)
		stroker.SetColor(style.StrokeColor, style.StrokeOpacity*opacity)
		stroker.Draw()
	}
}

func toFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}

func point(m rasterx.Matrix2D, x, y float64) fixed.Point26_6 {
	x, y = m.Transform(x, y)
	return fixed.Point26_6{X: toFixed(x), Y: toFixed(y)}
}

func walk(p svgpath.Path, d Drawer, m rasterx.Matrix2D) {
	for _, c := range p {
		switch c.Tag {
		case svgpath.MoveTo:
			d.Stop(false) // implicit close if currently in path.
			d.Start(point(m, c.Coords[0], c.Coords[1]))
		case svgpath.LineTo:
			d.Line(point(m, c.Coords[0], c.Coords[1]))
		case svgpath.QuadTo:
			d.QuadBezier(point(m, c.Coords[0], c.Coords[1]), point(m, c.Coords[2], c.Coords[3]))
		case svgpath.CubicTo:
			d.CubeBezier(point(m, c.Coords[0], c.Coords[1]), point(m, c.Coords[2], c.Coords[3]),
				point(m, c.Coords[4], c.Coords[5]))
		case svgpath.Close:
			d.Stop(true)
		}
	}
}
