// Implements a raster backend to preview compiled layouts,
// by wrapping rasterx.
package svgraster

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/benoitkugler/svglayout/svgcompile"
	"github.com/benoitkugler/svglayout/svgdraw"
	"github.com/srwiley/rasterx"
)

var _ svgdraw.Driver = (*Renderer)(nil) // assert interface conformance

var ErrInvalidTarget = errors.New("raster size must be positive")

// Renderer paints on a rasterx scanner.
// Filling and stroking use separated instances to avoid shared state.
type Renderer struct {
	filler filler
	dasher dasher
}

type filler struct{ *rasterx.Filler }

type dasher struct{ *rasterx.Dasher }

// NewRenderer returns a renderer with default values.
// In addition to rasterizing lines like a Scanner,
// it can also rasterize quadratic and cubic bezier curves.
func NewRenderer(width, height int, scanner rasterx.Scanner) *Renderer {
	return &Renderer{
		filler: filler{rasterx.NewFiller(width, height, scanner)},
		dasher: dasher{rasterx.NewDasher(width, height, scanner)},
	}
}

func (rd *Renderer) SetupDrawers(willFill, willStroke bool) (svgdraw.Filler, svgdraw.Stroker) {
	var (
		f svgdraw.Filler
		s svgdraw.Stroker
	)
	if willFill {
		f = rd.filler
	}
	if willStroke {
		s = rd.dasher
	}
	return f, s
}

func (f filler) SetColor(c color.Color, opacity float64) {
	f.Scanner.SetColor(rasterx.ApplyOpacity(c, opacity))
}

func (d dasher) SetColor(c color.Color, opacity float64) {
	d.Scanner.SetColor(rasterx.ApplyOpacity(c, opacity))
}

var (
	joinToJoin = [...]rasterx.JoinMode{
		svgdraw.Miter: rasterx.Miter,
		svgdraw.Round: rasterx.Round,
		svgdraw.Bevel: rasterx.Bevel,
	}

	capToFunc = [...]rasterx.CapFunc{
		svgdraw.ButtCap:   rasterx.ButtCap,
		svgdraw.RoundCap:  rasterx.RoundCap,
		svgdraw.SquareCap: rasterx.SquareCap,
	}
)

// SetStrokeOptions configures the dasher; an exceeded miter limit
// falls back to a bevel, as SVG renderers do.
func (d dasher) SetStrokeOptions(options svgdraw.StrokeOptions) {
	capF := capToFunc[options.Cap]
	d.SetStroke(options.LineWidth, options.MiterLimit, capF, capF,
		rasterx.FlatGap, joinToJoin[options.Join], nil, 0)
}

// Rasterize draws the rendered geometry of res in a new width x height
// image, the view box being stretched to the image bounds.
func Rasterize(res *svgcompile.Result, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidTarget
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	renderer := NewRenderer(width, height, scanner)
	err := svgdraw.DrawResult(res, renderer, float64(width), float64(height))
	return img, err
}

// WritePNG rasterizes res and encodes it as PNG.
func WritePNG(w io.Writer, res *svgcompile.Result, width, height int) error {
	img, err := Rasterize(res, width, height)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}
