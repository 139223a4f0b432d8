package svgdraw

import (
	"fmt"
	"image/color"
	"strings"
	"testing"

	"github.com/benoitkugler/svglayout/svgcompile"
	"github.com/benoitkugler/svglayout/svgdoc"
	"github.com/benoitkugler/svglayout/svgpath"
	"github.com/srwiley/rasterx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/math/fixed"
)

// recorder logs every call, one string per operation.
type recorder struct {
	name string
	ops  *[]string
}

func (r recorder) log(format string, args ...interface{}) {
	*r.ops = append(*r.ops, r.name+" "+fmt.Sprintf(format, args...))
}

func pt(p fixed.Point26_6) string {
	return fmt.Sprintf("%g,%g", float64(p.X)/64, float64(p.Y)/64)
}

func (r recorder) Clear()                  { r.log("clear") }
func (r recorder) Start(a fixed.Point26_6) { r.log("M %s", pt(a)) }
func (r recorder) Line(b fixed.Point26_6)  { r.log("L %s", pt(b)) }
func (r recorder) QuadBezier(b, c fixed.Point26_6) {
	r.log("Q %s %s", pt(b), pt(c))
}

func (r recorder) CubeBezier(b, c, d fixed.Point26_6) {
	r.log("C %s %s %s", pt(b), pt(c), pt(d))
}
func (r recorder) Stop(closeLoop bool) { r.log("stop %v", closeLoop) }
func (r recorder) SetColor(c color.Color, opacity float64) {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	r.log("color %d %d %d %g", n.R, n.G, n.B, opacity)
}
func (r recorder) Draw()                  { r.log("draw") }
func (r recorder) SetWinding(nonZero bool) { r.log("winding %v", nonZero) }
func (r recorder) SetStrokeOptions(o StrokeOptions) {
	r.log("options %g %s %s", float64(o.LineWidth)/64, o.Join, o.Cap)
}

type recordingDriver struct{ ops []string }

func (d *recordingDriver) SetupDrawers(willFill, willStroke bool) (Filler, Stroker) {
	var (
		f Filler
		s Stroker
	)
	if willFill {
		f = recorder{name: "fill", ops: &d.ops}
	}
	if willStroke {
		s = recorder{name: "stroke", ops: &d.ops}
	}
	return f, s
}

func f64(v float64) *float64 { return &v }

func segment() svgpath.Path {
	var p svgpath.Path
	p.Start(0, 0)
	p.Line(10, 0)
	p.Stop(true)
	return p
}

func TestParseColor(t *testing.T) {
	for s, exp := range map[string]color.Color{
		"#ff0000":          color.NRGBA{R: 0xff, A: 0xff},
		"#0F0":             color.NRGBA{G: 0xff, A: 0xff},
		"black":            color.NRGBA{A: 0xff},
		"CornflowerBlue":   color.NRGBA{R: 100, G: 149, B: 237, A: 0xff},
		"rgb(10, 20, 30)":  color.NRGBA{R: 10, G: 20, B: 30, A: 0xff},
		"rgb(100%,0%,50%)": color.NRGBA{R: 0xff, B: 127, A: 0xff},
		"rgb(300,0,0)":     color.NRGBA{R: 0xff, A: 0xff},
	} {
		c, err := ParseColor(s)
		require.NoError(t, err, s)
		assert.Equal(t, exp, c, s)
	}

	c, err := ParseColor("none")
	assert.NoError(t, err)
	assert.Nil(t, c)

	for _, s := range []string{"", "#12", "#ggg", "rgb(1,2)", "rgb(a,b,c)", "notacolor"} {
		_, err := ParseColor(s)
		assert.ErrorIs(t, err, ErrInvalidColor, s)
	}
}

func TestResolveStyle(t *testing.T) {
	s, err := ResolveStyle(svgdoc.Style{})
	require.NoError(t, err)
	assert.Equal(t, DefaultStyle, s)

	s, err = ResolveStyle(svgdoc.Style{
		Fill: "none", Stroke: "red", StrokeWidth: f64(3), Opacity: f64(0.5),
		StrokeOpacity: f64(0.5), StrokeLinecap: "round", StrokeLinejoin: "bevel", FillRule: "evenodd",
	})
	require.NoError(t, err)
	assert.Nil(t, s.FillColor)
	assert.Equal(t, color.NRGBA{R: 0xff, A: 0xff}, s.StrokeColor)
	assert.Equal(t, 3., s.LineWidth)
	assert.Equal(t, 0.25, s.StrokeOpacity)
	assert.Equal(t, 0.5, s.FillOpacity)
	assert.Equal(t, RoundCap, s.Cap)
	assert.Equal(t, Bevel, s.Join)
	assert.False(t, s.UseNonZeroWinding)

	_, err = ResolveStyle(svgdoc.Style{Stroke: "#zz"})
	assert.ErrorIs(t, err, ErrInvalidColor)
}

func TestTarget(t *testing.T) {
	m := Target(svgpath.Rect{MinX: 10, MinY: 20, MaxX: 110, MaxY: 70}, 200, 100)
	x, y := m.Transform(10, 20)
	assert.Equal(t, 0., x)
	assert.Equal(t, 0., y)
	x, y = m.Transform(110, 70)
	assert.Equal(t, 200., x)
	assert.Equal(t, 100., y)
}

func TestDrawPathFillThenStroke(t *testing.T) {
	d := &recordingDriver{}
	style := DefaultStyle
	style.StrokeColor = color.NRGBA{B: 0xff, A: 0xff}
	style.LineWidth = 2
	DrawPath(segment(), style, d, 0.5, rasterx.Identity.Scale(2, 2))

	assert.Equal(t, []string{
		"fill clear",
		"fill winding true",
		"fill stop false",
		"fill M 0,0",
		"fill L 20,0",
		"fill stop true",
		"fill stop false",
		"fill color 0 0 0 0.5",
		"fill draw",
		"fill winding true",
		"stroke clear",
		"stroke options 4 Miter ButtCap",
		"stroke stop false",
		"stroke M 0,0",
		"stroke L 20,0",
		"stroke stop true",
		"stroke stop false",
		"stroke color 0 0 255 0.5",
		"stroke draw",
	}, d.ops)
}

func TestDrawSkipsDisabledPaint(t *testing.T) {
	d := &recordingDriver{}
	style := DefaultStyle
	style.FillColor = nil
	DrawPath(segment(), style, d, 1, rasterx.Identity)
	assert.Empty(t, d.ops)
}

func TestDrawLayers(t *testing.T) {
	layers := []svgcompile.RenderedLayer{{
		ID: "l",
		Paths: []svgcompile.RenderedPath{
			{ID: "ok", Style: svgdoc.Style{Fill: "#00ff00"}, Instances: []svgpath.Path{segment(), segment()}},
			{ID: "bad", Style: svgdoc.Style{Fill: "nope"}, Instances: []svgpath.Path{segment()}},
		},
	}}
	d := &recordingDriver{}
	err := Draw(layers, d, 1, rasterx.Identity)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidColor)
	assert.Contains(t, err.Error(), `"bad"`)

	draws := 0
	for _, op := range d.ops {
		if strings.HasSuffix(op, "draw") {
			draws++
		}
	}
	assert.Equal(t, 2, draws)
}

func TestDrawResult(t *testing.T) {
	doc, err := svgdoc.Decode(strings.NewReader(`{
		"version": "unified-layered-1.0",
		"canvas": {"width": 512, "height": 512},
		"layers": [{"id": "l", "paths": [{"id": "p", "style": {"fill": "red"},
			"commands": [{"type": "M", "coords": [0, 0]}, {"type": "L", "coords": [10, 0]}, {"type": "L", "coords": [10, 10]}, {"type": "Z"}],
			"layout": {"region": "top_left", "anchor": "top_left"}}]}]
	}`))
	require.NoError(t, err)
	res, err := svgcompile.New().Compile(doc)
	require.NoError(t, err)
	require.Empty(t, res.Warnings)

	d := &recordingDriver{}
	require.NoError(t, DrawResult(res, d, 256, 256))
	assert.Contains(t, d.ops, "fill M 0,0")
	assert.Contains(t, d.ops, "fill L 5,5")
	assert.Contains(t, d.ops, "fill color 255 0 0 1")
}
