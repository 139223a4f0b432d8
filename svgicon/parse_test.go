package svgicon

import (
	"bytes"
	"strings"
	"testing"

	"github.com/benoitkugler/svglayout/svgcompile"
	"github.com/benoitkugler/svglayout/svgdoc"
	"github.com/benoitkugler/svglayout/svglayout"
	"github.com/benoitkugler/svglayout/svgpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shapesIcon = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="100" height="50" viewBox="0 0 200 100">
	<title>Test shapes</title>
	<desc>A few basic shapes</desc>
	<metadata><rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"/></metadata>
	<rect id="box" x="10" y="10" width="40" height="20" fill="#ff0000"/>
	<circle cx="100" cy="50" r="10" style="fill: blue; stroke: black; stroke-width: 2"/>
	<g fill="green" opacity="0.5">
		<ellipse cx="150" cy="50" rx="20"/>
		<polygon points="0,0 10,0 10,10" fill-opacity="0.25"/>
	</g>
	<line x1="0" y1="90" x2="200" y2="90" stroke="black"/>
	<polyline points="0 0, 5 5, 10 0" fill="none" stroke="gray" stroke-linecap="round"/>
	<path d="M10 80 h10 v10 z" fill-rule="evenodd"/>
</svg>`

func read(t *testing.T, src string, mode svglayout.Strictness) *Icon {
	t.Helper()
	icon, err := ReadIcon(strings.NewReader(src), mode)
	require.NoError(t, err)
	return icon
}

func TestReadShapes(t *testing.T) {
	icon := read(t, shapesIcon, svglayout.Strict)
	assert.Equal(t, svgpath.Rect{MaxX: 200, MaxY: 100}, icon.ViewBox)
	assert.Equal(t, 100., icon.Width)
	assert.Equal(t, 50., icon.Height)
	require.Len(t, icon.Titles, 1)
	assert.Equal(t, "Test shapes", icon.Titles[0])
	assert.Equal(t, []string{"A few basic shapes"}, icon.Descriptions)
	assert.Empty(t, icon.Warnings)

	require.Len(t, icon.Paths, 7)
	rect := icon.Paths[0]
	assert.Equal(t, "box", rect.ID)
	assert.Equal(t, "M 10 10 L 50 10 L 50 30 L 10 30 L 10 10 Z", rect.Path.String())
	assert.Equal(t, "#ff0000", rect.Style.Fill)

	circle := icon.Paths[1]
	assert.Equal(t, "blue", circle.Style.Fill)
	assert.Equal(t, "black", circle.Style.Stroke)
	require.NotNil(t, circle.Style.StrokeWidth)
	assert.Equal(t, 2., *circle.Style.StrokeWidth)
	b := circle.Path.TightBounds()
	assert.InDelta(t, 90, b.MinX, 1e-6)
	assert.InDelta(t, 60, b.MaxY, 1e-6)

	ellipse := icon.Paths[2]
	assert.Equal(t, "green", ellipse.Style.Fill)
	require.NotNil(t, ellipse.Style.Opacity)
	assert.Equal(t, 0.5, *ellipse.Style.Opacity)
	// ry defaults to rx
	assert.InDelta(t, 30, ellipse.Path.TightBounds().MinY, 1e-6)

	polygon := icon.Paths[3]
	assert.Equal(t, "M 0 0 L 10 0 L 10 10 Z", polygon.Path.String())
	require.NotNil(t, polygon.Style.FillOpacity)
	assert.Equal(t, 0.25, *polygon.Style.FillOpacity)

	line := icon.Paths[4]
	assert.Equal(t, "M 0 90 L 200 90", line.Path.String())
	require.NotNil(t, line.Style.StrokeWidth)
	assert.Equal(t, 1., *line.Style.StrokeWidth)

	polyline := icon.Paths[5]
	assert.Equal(t, "M 0 0 L 5 5 L 10 0", polyline.Path.String())
	assert.Equal(t, "none", polyline.Style.Fill)
	assert.Equal(t, "round", polyline.Style.StrokeLinecap)

	path := icon.Paths[6]
	assert.Equal(t, "M 10 80 L 20 80 L 20 90 Z", path.Path.String())
	assert.Equal(t, "evenodd", path.Style.FillRule)
}

func TestReadTransforms(t *testing.T) {
	icon := read(t, `<svg viewBox="0 0 100 100">
		<g transform="translate(10,20) scale(2)" stroke="red" stroke-width="3">
			<rect width="10" height="10"/>
			<rect width="10" height="10" transform="rotate(90)"/>
		</g>
		<rect x="1" y="1" width="2" height="2" transform="matrix(1 0 0 1 5 5)"/>
	</svg>`, svglayout.Strict)
	require.Len(t, icon.Paths, 3)
	assert.Equal(t, "M 10 20 L 30 20 L 30 40 L 10 40 L 10 20 Z", icon.Paths[0].Path.String())
	// stroke widths follow the transform
	assert.Equal(t, 6., *icon.Paths[0].Style.StrokeWidth)

	rotated := icon.Paths[1].Path.TightBounds()
	assert.InDelta(t, -10, rotated.MinX, 1e-9)
	assert.InDelta(t, 10, rotated.MaxX, 1e-9)
	assert.InDelta(t, 20, rotated.MinY, 1e-9)

	assert.Equal(t, "M 6 6 L 8 6 L 8 8 L 6 8 L 6 6 Z", icon.Paths[2].Path.String())
}

func TestReadRoundedRect(t *testing.T) {
	icon := read(t, `<svg viewBox="0 0 100 100">
		<rect width="40" height="20" rx="5"/>
		<rect width="40" height="20" rx="10" ry="4"/>
		<rect width="40" height="20" rx="50"/>
	</svg>`, svglayout.Strict)
	require.Len(t, icon.Paths, 3)
	for _, p := range icon.Paths {
		b := p.Path.TightBounds()
		assert.InDelta(t, 0, b.MinX, 1e-6)
		assert.InDelta(t, 40, b.MaxX, 1e-6)
		assert.InDelta(t, 20, b.MaxY, 1e-6)
		require.NoError(t, p.Path.Validate())
	}
	// the radii are clamped to the half sides
	assert.Equal(t, []float64{20, 0}, icon.Paths[2].Path[0].Coords)
}

func TestReadDefsAndUse(t *testing.T) {
	icon := read(t, `<svg viewBox="0 0 100 100" xmlns:xlink="http://www.w3.org/1999/xlink">
		<defs>
			<g id="pair" fill="blue">
				<rect width="10" height="10"/>
				<rect x="20" width="10" height="10"/>
			</g>
			<circle id="dot" r="2"/>
		</defs>
		<use xlink:href="#pair" x="50" y="50"/>
		<use href="#dot" x="5" y="5" fill="red"/>
	</svg>`, svglayout.Strict)
	require.Len(t, icon.Paths, 3)
	assert.Equal(t, "M 50 50 L 60 50 L 60 60 L 50 60 L 50 50 Z", icon.Paths[0].Path.String())
	assert.Equal(t, "M 70 50 L 80 50 L 80 60 L 70 60 L 70 50 Z", icon.Paths[1].Path.String())
	assert.Equal(t, "blue", icon.Paths[0].Style.Fill)
	assert.Equal(t, "red", icon.Paths[2].Style.Fill)
	assert.InDelta(t, 3, icon.Paths[2].Path.TightBounds().MinX, 1e-6)
	for _, p := range icon.Paths {
		assert.Empty(t, p.ID)
	}
}

func TestReadUseErrors(t *testing.T) {
	src := `<svg viewBox="0 0 10 10">
		<defs><g id="loop"><use href="#loop"/></g></defs>
		<use href="#loop"/>
		<use href="#missing"/>
		<rect width="1" height="1"/>
	</svg>`
	_, err := ReadIcon(strings.NewReader(src), svglayout.Strict)
	assert.ErrorIs(t, err, errUseRecursionReached)

	icon := read(t, src, svglayout.Lenient)
	require.Len(t, icon.Paths, 1)
	assert.Len(t, icon.Warnings, 2)
}

func TestReadLenient(t *testing.T) {
	src := `<svg viewBox="0 0 10 10">
		<linearGradient id="g"><stop offset="0"/></linearGradient>
		<text x="1" y="1">hello</text>
		<rect width="5" height="5" fill="url(#g)" stroke="notacolor"/>
		<path d="M 0 0 L 5 5 L 7"/>
		<g display="none"><rect width="1" height="1"/></g>
	</svg>`

	_, err := ReadIcon(strings.NewReader(src), svglayout.Strict)
	assert.ErrorIs(t, err, ErrUnsupportedElement)

	icon := read(t, src, svglayout.Lenient)
	require.Len(t, icon.Paths, 2)
	assert.Empty(t, icon.Paths[0].Style.Fill)
	assert.Empty(t, icon.Paths[0].Style.Stroke)
	// the path is drawn up to the error
	assert.Equal(t, "M 0 0 L 5 5", icon.Paths[1].Path.String())
	assert.Len(t, icon.Warnings, 5)
}

func TestReadInvalid(t *testing.T) {
	_, err := ReadIcon(strings.NewReader(""), svglayout.Lenient)
	assert.ErrorIs(t, err, ErrInvalidIcon)

	_, err = ReadIcon(strings.NewReader("<svg><rect"), svglayout.Lenient)
	assert.Error(t, err)

	_, err = ReadIcon(strings.NewReader(`<svg viewBox="0 0 -1 10"/>`), svglayout.Strict)
	assert.ErrorIs(t, err, ErrInvalidAttribute)
}

func TestReadCharset(t *testing.T) {
	// "é" in ISO-8859-1
	src := append([]byte(`<?xml version="1.0" encoding="ISO-8859-1"?><svg viewBox="0 0 10 10"><title>caf`),
		0xe9)
	src = append(src, []byte(`</title><rect width="2" height="2"/></svg>`)...)
	icon, err := ReadIcon(bytes.NewReader(src), svglayout.Strict)
	require.NoError(t, err)
	assert.Equal(t, []string{"café"}, icon.Titles)
}

func TestParseUnit(t *testing.T) {
	c := newCursor(&Icon{ViewBox: svgpath.Rect{MaxX: 200, MaxY: 100}}, svglayout.Strict)
	for s, exp := range map[string]float64{
		"12":     12,
		"12px":   12,
		"3pt":    4,
		"1in":    96,
		"2.54cm": 96,
		"50%":    100,
	} {
		v, err := c.parseUnit(s, widthPercentage)
		require.NoError(t, err, s)
		assert.InDelta(t, exp, v, 1e-9, s)
	}
	v, err := c.parseUnit("10%", heightPercentage)
	require.NoError(t, err)
	assert.InDelta(t, 10, v, 1e-9)

	_, err = c.parseUnit("abc", widthPercentage)
	assert.ErrorIs(t, err, ErrInvalidAttribute)
}

func TestViewBoxFallback(t *testing.T) {
	icon := read(t, `<svg width="20" height="10"><rect width="1" height="1"/></svg>`, svglayout.Strict)
	assert.Equal(t, svgpath.Rect{MaxX: 20, MaxY: 10}, icon.ViewBox)

	icon = read(t, `<svg><rect x="2" y="3" width="4" height="5"/></svg>`, svglayout.Strict)
	assert.Equal(t, svgpath.Rect{MinX: 2, MinY: 3, MaxX: 6, MaxY: 8}, icon.ViewBox)
}

func TestIconLayer(t *testing.T) {
	icon := read(t, `<svg viewBox="0 0 100 100">
		<title>Pair</title>
		<rect x="50" y="50" width="20" height="10" stroke="black" stroke-width="2"/>
		<rect id="second" x="50" y="60" width="40" height="10"/>
	</svg>`, svglayout.Strict)

	resolver, err := svglayout.NewResolver(svgdoc.Canvas{Width: 512, Height: 512}, svglayout.DefaultConfig())
	require.NoError(t, err)
	layer, err := icon.Layer("icon", resolver, 80, 80)
	require.NoError(t, err)
	assert.Equal(t, "icon", layer.ID)
	assert.Equal(t, "Pair", layer.Label)
	require.Len(t, layer.Paths, 2)
	assert.Equal(t, "icon-0", layer.Paths[0].ID)
	assert.Equal(t, "second", layer.Paths[1].ID)

	// 40 x 20 scaled by 2, from the origin
	assert.Equal(t, "M 0 0 L 40 0 L 40 20 L 0 20 L 0 0 Z", layer.Paths[0].Commands.String())
	assert.Equal(t, "M 0 20 L 80 20 L 80 40 L 0 40 L 0 20 Z", layer.Paths[1].Commands.String())
	assert.Equal(t, 4., *layer.Paths[0].Style.StrokeWidth)
	// the icon is not modified
	assert.Equal(t, 50., icon.Paths[0].Path[0].Coords[0])

	doc := &svgdoc.UnifiedDocument{
		Version: svgdoc.Version,
		Canvas:  svgdoc.Canvas{Width: 512, Height: 512},
		Layers:  []svgdoc.UnifiedLayer{layer},
	}
	res, err := svgcompile.New().Compile(doc)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Contains(t, res.SVG, `d="M 256 256 L 296 256 L 296 276 L 256 276 L 256 256 Z"`)

	_, err = (&Icon{}).Layer("empty", resolver, 10, 10)
	assert.ErrorIs(t, err, svglayout.ErrDegenerateBounds)
}

func TestIconLayerFlat(t *testing.T) {
	resolver, err := svglayout.NewResolver(svgdoc.Canvas{Width: 512, Height: 512}, svglayout.DefaultConfig())
	require.NoError(t, err)

	icon := read(t, `<svg viewBox="0 0 20 20"><path d="M0 0 L10 0" stroke="black" stroke-width="1"/></svg>`, svglayout.Strict)
	layer, err := icon.Layer("rule", resolver, 40, 40)
	require.NoError(t, err)
	assert.Equal(t, "M 0 0 L 40 0", layer.Paths[0].Commands.String())
	assert.Equal(t, 4., *layer.Paths[0].Style.StrokeWidth)

	icon = read(t, `<svg viewBox="0 0 20 20"><path d="M5 2 L5 12" stroke="black" stroke-width="1"/></svg>`, svglayout.Strict)
	layer, err = icon.Layer("post", resolver, 40, 20)
	require.NoError(t, err)
	assert.Equal(t, "M 0 0 L 0 20", layer.Paths[0].Commands.String())
	assert.Equal(t, 2., *layer.Paths[0].Style.StrokeWidth)
}
