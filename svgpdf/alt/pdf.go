// Alternative implementation of PDF rendering, writing
// content streams with github.com/benoitkugler/pdf.
package alt

import (
	"image/color"

	"github.com/benoitkugler/pdf/contentstream"
	"github.com/benoitkugler/pdf/model"
	"github.com/benoitkugler/svglayout/svgcompile"
	"github.com/benoitkugler/svglayout/svgdraw"
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
// Path operators are buffered until Draw, so that the color
// and graphic state are set before the path construction.
type pather struct {
	pdf     *contentstream.Appearance
	ops     []func()
	x, y    float64 // current point
	color   color.NRGBA
	opacity float64
}

// implements the filling operation
type filler struct {
	pather
	useNonZeroWinding bool
	opacityStates     map[float64]*model.GraphicState
}

// implements the stroking operation
type stroker struct {
	pather
	options       svgdraw.StrokeOptions
	opacityStates map[float64]*model.GraphicState
}

// NewRenderer return a renderer which will
// write to the given `pdf`.
func NewRenderer(pdf *contentstream.Appearance) Renderer {
	return Renderer{
		filler: &filler{
			pather:            pather{pdf: pdf},
			useNonZeroWinding: true,
			opacityStates:     make(map[float64]*model.GraphicState),
		},
		stroker: &stroker{
			pather:        pather{pdf: pdf},
			opacityStates: make(map[float64]*model.GraphicState),
		},
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
	p.ops = append(p.ops, func() { p.pdf.Ops(contentstream.OpMoveTo{X: x, Y: y}) })
	p.x, p.y = x, y
}

func (p *pather) Line(b fixed.Point26_6) {
	x, y := fixedTof(b)
	p.ops = append(p.ops, func() { p.pdf.Ops(contentstream.OpLineTo{X: x, Y: y}) })
	p.x, p.y = x, y
}

// QuadBezier is elevated to a cubic, PDF having no quadratic operator.
func (p *pather) QuadBezier(b fixed.Point26_6, c fixed.Point26_6) {
	qx, qy := fixedTof(b)
	x, y := fixedTof(c)
	x1, y1, x2, y2 := elevate(p.x, p.y, qx, qy, x, y)
	p.ops = append(p.ops, func() {
		p.pdf.Ops(contentstream.OpCubicTo{X1: x1, Y1: y1, X2: x2, Y2: y2, X3: x, Y3: y})
	})
	p.x, p.y = x, y
}

// elevate returns the control points of the cubic equal to the
// quadratic (x0, y0), (qx, qy), (x, y).
func elevate(x0, y0, qx, qy, x, y float64) (x1, y1, x2, y2 float64) {
	return x0 + 2*(qx-x0)/3, y0 + 2*(qy-y0)/3, x + 2*(qx-x)/3, y + 2*(qy-y)/3
}

func (p *pather) CubeBezier(b fixed.Point26_6, c fixed.Point26_6, d fixed.Point26_6) {
	cx0, cy0 := fixedTof(b)
	cx1, cy1 := fixedTof(c)
	x, y := fixedTof(d)
	p.ops = append(p.ops, func() {
		p.pdf.Ops(contentstream.OpCubicTo{X1: cx0, Y1: cy0, X2: cx1, Y2: cy1, X3: x, Y3: y})
	})
	p.x, p.y = x, y
}

func (p *pather) Stop(closeLoop bool) {
	if closeLoop {
		p.ops = append(p.ops, func() { p.pdf.Ops(contentstream.OpClosePath{}) })
	}
}

// SetColor only supports plain colors: alpha is folded in the opacity.
func (p *pather) SetColor(c color.Color, opacity float64) {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	p.opacity = min(max(opacity*float64(n.A)/255, 0), 1)
	n.A = 0xff
	p.color = n
}

// setOpacity selects the graphic state of the current opacity,
// creating it with newState on first use.
func (p *pather) setOpacity(states map[float64]*model.GraphicState, newState func(model.ObjFloat) *model.GraphicState) {
	gs, ok := states[p.opacity]
	if !ok {
		gs = newState(model.ObjFloat(p.opacity))
		states[p.opacity] = gs
	}
	name := p.pdf.AddExtGState(gs)
	p.pdf.Ops(contentstream.OpSetExtGState{Dict: name})
}

func (p *pather) replay() {
	for _, op := range p.ops {
		op()
	}
}

func (f *filler) SetWinding(useNonZeroWinding bool) {
	f.useNonZeroWinding = useNonZeroWinding
}

func (f *filler) Draw() {
	if len(f.ops) == 0 {
		return
	}
	f.pdf.SetColorFill(f.color)
	f.setOpacity(f.opacityStates, func(a model.ObjFloat) *model.GraphicState {
		return &model.GraphicState{Ca: a, BM: []model.Name{"Normal"}}
	})
	f.replay()
	if f.useNonZeroWinding {
		f.pdf.Ops(contentstream.OpFill{})
	} else {
		f.pdf.Ops(contentstream.OpEOFill{})
	}
}

var (
	capToStyle  = [...]uint8{svgdraw.ButtCap: 0, svgdraw.RoundCap: 1, svgdraw.SquareCap: 2}
	joinToStyle = [...]uint8{svgdraw.Miter: 0, svgdraw.Round: 1, svgdraw.Bevel: 2}
)

func (s *stroker) SetStrokeOptions(options svgdraw.StrokeOptions) {
	s.options = options
}

func (s *stroker) Draw() {
	if len(s.ops) == 0 {
		return
	}
	s.pdf.SetColorStroke(s.color)
	s.setOpacity(s.opacityStates, func(a model.ObjFloat) *model.GraphicState {
		return &model.GraphicState{CA: a, BM: []model.Name{"Normal"}}
	})
	s.pdf.Ops(
		contentstream.OpSetLineWidth{W: float64(s.options.LineWidth) / 64},
		contentstream.OpSetLineCap{Style: capToStyle[s.options.Cap]},
		contentstream.OpSetLineJoin{Style: joinToStyle[s.options.Join]},
		contentstream.OpSetMiterLimit{Limit: float64(s.options.MiterLimit) / 64},
	)
	s.replay()
	s.pdf.Ops(contentstream.OpStroke{})
}

// Render draws res on a w x h page, one point per unit,
// with the y axis pointing down. Paths with an invalid style
// are skipped and reported.
func Render(res *svgcompile.Result, w, h float64) (contentstream.Appearance, error) {
	page := contentstream.NewAppearance(w, h)
	page.Ops(
		contentstream.OpSave{},
		contentstream.OpConcat{Matrix: model.Matrix{1, 0, 0, -1, 0, h}},
	)
	err := svgdraw.DrawResult(res, NewRenderer(&page), w, h)
	page.Ops(contentstream.OpRestore{})
	return page, err
}

// WriteFile exports res as a one page PDF document, sized
// by its view box. As with Render, style errors do not prevent
// the document from being written.
func WriteFile(res *svgcompile.Result, pdfName string) error {
	page, drawErr := Render(res, res.ViewBox.Width(), res.ViewBox.Height())
	var doc model.Document
	pageObj := new(model.PageObject)
	page.ApplyToPageObject(pageObj, true)
	doc.Catalog.Pages.Kids = append(doc.Catalog.Pages.Kids, pageObj)
	if err := doc.WriteFile(pdfName, nil); err != nil {
		return err
	}
	return drawErr
}
