// Implements a PDF backend to export compiled layouts,
// by wrapping github.com/jung-kurt/gofpdf.
package svgpdf

import (
	"image/color"
	"io"

	"github.com/benoitkugler/svglayout/svgcompile"
	"github.com/benoitkugler/svglayout/svgdraw"
	"github.com/jung-kurt/gofpdf"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"
)

// assert interface conformance
var (
	_ svgdraw.Driver  = Renderer{}
	_ svgdraw.Filler  = (*filler)(nil)
	_ svgdraw.Stroker = (*stroker)(nil)
)

type Renderer struct {
	filler  *filler
	stroker *stroker
}

// implements the common path commands,
// shared by the filler and the stroker.
// Operations are buffered until Draw, since PDF forbids
// color operators inside a path construction.
type pather struct {
	pdf     *gofpdf.Fpdf
	ops     []func()
	r, g, b int
	alpha   float64
}

// implements the filling operation
type filler struct {
	pather
	useNonZeroWinding bool
}

// implements the stroking operation
type stroker struct {
	pather
	options svgdraw.StrokeOptions
}

// NewRenderer return a renderer which will
// write to the current page of `pdf`.
func NewRenderer(pdf *gofpdf.Fpdf) Renderer {
	return Renderer{
		filler:  &filler{pather: pather{pdf: pdf}, useNonZeroWinding: true},
		stroker: &stroker{pather: pather{pdf: pdf}},
	}
}

func (r Renderer) SetupDrawers(willFill, willStroke bool) (svgdraw.Filler, svgdraw.Stroker) {
	var (
		f svgdraw.Filler
		s svgdraw.Stroker
	)
	if willFill {
		f = r.filler
	}
	if willStroke {
		s = r.stroker
	}
	return f, s
}

func fixedTof(a fixed.Point26_6) (float64, float64) {
	return float64(a.X) / 64, float64(a.Y) / 64
}

func (p *pather) Clear() {
	p.ops = p.ops[:0]
}

func (p *pather) Start(a fixed.Point26_6) {
	x, y := fixedTof(a)
	p.ops = append(p.ops, func() { p.pdf.MoveTo(x, y) })
}

func (p *pather) Line(b fixed.Point26_6) {
	x, y := fixedTof(b)
	p.ops = append(p.ops, func() { p.pdf.LineTo(x, y) })
}

func (p *pather) QuadBezier(b fixed.Point26_6, c fixed.Point26_6) {
	cx, cy := fixedTof(b)
	x, y := fixedTof(c)
	p.ops = append(p.ops, func() { p.pdf.CurveTo(cx, cy, x, y) })
}

func (p *pather) CubeBezier(b fixed.Point26_6, c fixed.Point26_6, d fixed.Point26_6) {
	cx0, cy0 := fixedTof(b)
	cx1, cy1 := fixedTof(c)
	x, y := fixedTof(d)
	p.ops = append(p.ops, func() { p.pdf.CurveBezierCubicTo(cx0, cy0, cx1, cy1, x, y) })
}

func (p *pather) Stop(closeLoop bool) {
	if closeLoop {
		p.ops = append(p.ops, p.pdf.ClosePath)
	}
}

// SetColor only supports plain colors: alpha is folded in the opacity.
func (p *pather) SetColor(c color.Color, opacity float64) {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	p.r, p.g, p.b = int(n.R), int(n.G), int(n.B)
	p.alpha = opacity * float64(n.A) / 255
}

func (p *pather) replay(style string) {
	if len(p.ops) == 0 {
		return
	}
	p.pdf.SetAlpha(min(max(p.alpha, 0), 1), "Normal")
	for _, op := range p.ops {
		op()
	}
	p.pdf.DrawPath(style)
}

func (f *filler) SetWinding(useNonZeroWinding bool) {
	f.useNonZeroWinding = useNonZeroWinding
}

func (f *filler) Draw() {
	f.pdf.SetFillColor(f.r, f.g, f.b)
	styleStr := "f*"
	if f.useNonZeroWinding {
		styleStr = "f"
	}
	f.replay(styleStr)
}

var (
	capToStyle  = [...]string{svgdraw.ButtCap: "butt", svgdraw.RoundCap: "round", svgdraw.SquareCap: "square"}
	joinToStyle = [...]string{svgdraw.Miter: "miter", svgdraw.Round: "round", svgdraw.Bevel: "bevel"}
)

func (s *stroker) SetStrokeOptions(options svgdraw.StrokeOptions) {
	s.options = options
}

func (s *stroker) Draw() {
	s.pdf.SetDrawColor(s.r, s.g, s.b)
	s.pdf.SetLineWidth(float64(s.options.LineWidth) / 64)
	s.pdf.SetLineCapStyle(capToStyle[s.options.Cap])
	s.pdf.SetLineJoinStyle(joinToStyle[s.options.Join])
	s.replay("D")
}

// Render draws res in the w x h box at (x, y) of the current page,
// in the user unit of pdf.
func Render(pdf *gofpdf.Fpdf, res *svgcompile.Result, x, y, w, h float64) error {
	m := rasterx.Identity.Translate(x, y).Mult(svgdraw.Target(res.ViewBox, w, h))
	return svgdraw.Draw(res.Rendered, NewRenderer(pdf), 1, m)
}

// NewPage returns a document with one page matching the view box of res,
// one point per user unit.
func NewPage(res *svgcompile.Result) *gofpdf.Fpdf {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: res.ViewBox.Width(), Ht: res.ViewBox.Height()},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	return pdf
}

// Write exports res as a one page PDF document.
// Paths with an invalid style are skipped and reported
// once the document is written.
func Write(out io.Writer, res *svgcompile.Result) error {
	pdf := NewPage(res)
	drawErr := Render(pdf, res, 0, 0, res.ViewBox.Width(), res.ViewBox.Height())
	if err := pdf.Output(out); err != nil {
		return err
	}
	return drawErr
}
