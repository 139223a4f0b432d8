package svgcompile

import (
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/benoitkugler/svglayout/svgdoc"
	"github.com/benoitkugler/svglayout/svglayout"
	"github.com/benoitkugler/svglayout/svgpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) *svgdoc.UnifiedDocument {
	t.Helper()
	doc, err := svgdoc.Decode(strings.NewReader(s))
	require.NoError(t, err)
	return doc
}

const squareDoc = `{
	"version": "unified-layered-1.0",
	"canvas": {"width": 512, "height": 512, "aspectRatio": "1:1"},
	"layers": [{
		"id": "main",
		"label": "Main",
		"layout": {"region": "center", "anchor": "center"},
		"paths": [{
			"id": "square",
			"style": {"fill": "#ff0000", "stroke": "black", "strokeWidth": 2},
			"commands": [
				{"type": "M", "coords": [0, 0]},
				{"type": "L", "coords": [112, 0]},
				{"type": "L", "coords": [112, 112]},
				{"type": "L", "coords": [0, 112]},
				{"type": "Z"}
			]
		}]
	}]
}`

func TestCompileSquare(t *testing.T) {
	res, err := New().Compile(decode(t, squareDoc))
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	assert.Contains(t, res.SVG, `viewBox="0.00 0.00 512.00 512.00"`)
	assert.Contains(t, res.SVG, `xmlns="http://www.w3.org/2000/svg"`)
	assert.Contains(t, res.SVG, `<g id="main"`)
	assert.Contains(t, res.SVG, `<path d="M 256 256 L 368 256 L 368 368 L 256 368 Z" id="square" fill="#ff0000" stroke="black" stroke-width="2"`)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(res.SVG), "</svg>"))

	require.Len(t, res.Layers, 1)
	meta := res.Layers[0]
	assert.Equal(t, "main", meta.ID)
	assert.Equal(t, "Main", meta.Label)
	assert.Equal(t, 1, meta.PathCount)
	assert.Equal(t, "center", meta.Region)
	assert.Equal(t, "center", meta.Anchor)
	require.NotNil(t, meta.Bounds)
	assert.InDelta(t, 256, meta.Bounds.MinX, 0.1)
	assert.InDelta(t, 368, meta.Bounds.MaxX, 0.1)
	assert.LessOrEqual(t, meta.Bounds.MaxY, 512.)

	require.NotNil(t, res.Layout.CoordinateRange)
	assert.Equal(t, *meta.Bounds, *res.Layout.CoordinateRange)
	assert.Equal(t, []string{"center"}, res.Layout.AnchorsUsed)

	var used []string
	for _, r := range res.Layout.Regions {
		if r.Used {
			used = append(used, r.Name)
		}
		assert.False(t, r.Custom)
	}
	assert.Equal(t, []string{"center"}, used)

	require.Len(t, res.Rendered, 1)
	assert.Equal(t, []float64{256, 256}, res.Rendered[0].Paths[0].Instances[0][0].Coords)
}

const partialDoc = `{
	"version": "unified-layered-1.0",
	"canvas": {"width": 512, "height": 512},
	"layers": [
		{"id": "good", "paths": [{"id": "ok", "style": {"fill": "blue"},
			"commands": [{"type": "M", "coords": [0, 0]}, {"type": "L", "coords": [10, 10]}, {"type": "Z"}]}]},
		{"id": "bad", "paths": [{"id": "broken", "style": {},
			"commands": [{"type": "M", "coords": [0, 0]}, {"type": "L", "coords": [10]}]}]}
	]
}`

func TestCompilePartialFailure(t *testing.T) {
	res, err := New().Compile(decode(t, partialDoc))
	require.NoError(t, err)
	assert.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "broken")

	assert.Contains(t, res.SVG, `id="ok"`)
	assert.Contains(t, res.SVG, `d="M 256 256 L 266 266 Z"`)
	assert.NotContains(t, res.SVG, `id="broken"`)

	require.Len(t, res.Layers, 2)
	assert.Equal(t, 1, res.Layers[0].PathCount)
	assert.Equal(t, 0, res.Layers[1].PathCount)
	assert.Nil(t, res.Layers[1].Bounds)
}

func TestCompileIdempotent(t *testing.T) {
	c := New()
	doc := decode(t, squareDoc)
	a, err := c.Compile(doc)
	require.NoError(t, err)
	b, err := c.Compile(doc)
	require.NoError(t, err)
	assert.Equal(t, a.SVG, b.SVG)

	// a fresh compiler, with a cold cache
	d, err := New().Compile(decode(t, squareDoc))
	require.NoError(t, err)
	assert.Equal(t, a.SVG, d.SVG)
}

func TestCompileStructuralErrors(t *testing.T) {
	c := New()
	_, err := c.Compile(nil)
	assert.ErrorIs(t, err, ErrStructural)

	_, err = c.Compile(&svgdoc.UnifiedDocument{Version: svgdoc.Version, Canvas: svgdoc.Canvas{Width: 512, Height: 512}})
	assert.ErrorIs(t, err, ErrStructural)

	_, err = c.Compile(&svgdoc.UnifiedDocument{Version: svgdoc.Version, Layers: []svgdoc.UnifiedLayer{{ID: "a"}}})
	assert.ErrorIs(t, err, ErrStructural)

	doc := decode(t, squareDoc)
	doc.Version = "0.9"
	res, err := c.Compile(doc)
	require.NoError(t, err)
	assert.Len(t, res.Warnings, 1)

	_, err = New(WithStrictness(svglayout.Strict)).Compile(doc)
	assert.ErrorIs(t, err, ErrStructural)

	doc = decode(t, squareDoc)
	doc.Canvas.AspectRatio = "5:1"
	res, err = c.Compile(doc)
	require.NoError(t, err)
	assert.Len(t, res.Warnings, 1)
	_, err = New(WithStrictness(svglayout.Strict)).Compile(doc)
	assert.ErrorIs(t, err, ErrStructural)
}

func TestCompileClamping(t *testing.T) {
	doc := decode(t, squareDoc)
	doc.Layers[0].Layout.Offset = &[2]float64{1000, 1000}
	doc.Layers[0].Paths[0].Commands[1].Coords[0] = 1e6

	res, err := New().Compile(doc)
	require.NoError(t, err)
	for _, l := range res.Rendered {
		for _, p := range l.Paths {
			for _, inst := range p.Instances {
				for _, c := range inst {
					for i := 0; i+1 < len(c.Coords); i += 2 {
						assert.True(t, c.Coords[i] >= 0 && c.Coords[i] <= 512)
						assert.True(t, c.Coords[i+1] >= 0 && c.Coords[i+1] <= 512)
					}
				}
			}
		}
	}
	assert.Equal(t, 512., res.Layout.CoordinateRange.MaxX)
}

func TestCompileSize(t *testing.T) {
	doc := decode(t, squareDoc)
	rel := 0.5
	doc.Layers[0].Paths[0].Layout = &svgdoc.LayoutSpec{Size: &svgdoc.SizeSpec{Relative: &rel}}

	res, err := New().Compile(doc)
	require.NoError(t, err)
	b := res.Layers[0].Bounds
	assert.InDelta(t, 87.04, b.Width(), 0.01)
	assert.InDelta(t, 87.04, b.Height(), 0.01)
	assert.InDelta(t, 256, b.MinX, 0.01)

	// a flat path can't be scaled: it is kept, with a warning
	doc.Layers[0].Paths[0].Commands = doc.Layers[0].Paths[0].Commands[:2]
	res, err = New().Compile(doc)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Layers[0].PathCount)
	assert.Len(t, res.Warnings, 1)
}

const repeatDoc = `{
	"version": "unified-layered-1.0",
	"canvas": {"width": 512, "height": 512},
	"layers": [{
		"id": "dots",
		"paths": [
			{"id": "dot", "style": {"fill": "red"},
				"primitive": {"type": "circle", "radius": 4},
				"layout": {"region": "full_canvas", "repeat": {"type": "grid", "count": [2, 2]}}},
			{"id": "petal", "style": {"fill": "pink"},
				"primitive": {"type": "ellipse", "radiusX": 10, "radiusY": 4},
				"layout": {"repeat": {"type": "radial", "count": 6, "rotate": true}}}
		]
	}]
}`

func TestCompileRepeated(t *testing.T) {
	res, err := New().Compile(decode(t, repeatDoc))
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	assert.Contains(t, res.SVG, `<g id="dot"`)
	for _, id := range []string{"dot-0", "dot-1", "dot-2", "dot-3", "petal-5"} {
		assert.Contains(t, res.SVG, `id="`+id+`"`)
	}
	assert.NotContains(t, res.SVG, `id="dot-4"`)
	assert.Equal(t, 2, res.Layers[0].PathCount)
	assert.Equal(t, 10, res.Layers[0].InstanceCount)

	dots := res.Rendered[0].Paths[0]
	assert.True(t, dots.Repeated)
	// primitives are expanded into cubic quadrants
	assert.Len(t, dots.Instances[0], 6)
	// 2x2 grid tiling the canvas around its center
	assert.Equal(t, []float64{132, 128}, dots.Instances[0][0].Coords)
	assert.Equal(t, []float64{388, 384}, dots.Instances[3][0].Coords)

	petals := res.Rendered[0].Paths[1]
	assert.Len(t, petals.Rotations, 6)
	assert.InDelta(t, 60, petals.Rotations[1], 1e-9)
}

func TestCompileOversizedPrimitive(t *testing.T) {
	doc := decode(t, repeatDoc)
	doc.Layers[0].Paths[0].Primitive = &svgdoc.PrimitiveSpec{Type: svgdoc.ShapePolygon, Radius: 4, Sides: 1 << 30}
	res, err := New().Compile(doc)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "invalid geometry")
	assert.Equal(t, 1, res.Layers[0].PathCount)
}

func TestCompileLayoutFallbacks(t *testing.T) {
	doc := decode(t, squareDoc)
	region := "nowhere"
	doc.Layers[0].Layout.Region = &region

	res, err := New().Compile(doc)
	require.NoError(t, err)
	assert.Len(t, res.Warnings, 1)
	assert.Equal(t, 1, res.Layers[0].PathCount)
	assert.Equal(t, "nowhere", res.Layers[0].Region)

	res, err = New(WithStrictness(svglayout.Strict)).Compile(doc)
	require.NoError(t, err)
	assert.Len(t, res.Warnings, 1)
	assert.Equal(t, 0, res.Layers[0].PathCount)
	assert.Nil(t, res.Layout.CoordinateRange)
}

func TestCompileCustomRegions(t *testing.T) {
	doc := decode(t, squareDoc)
	region := "horizon"
	doc.Layers[0].Layout.Region = &region
	doc.CustomRegions = map[string]svgdoc.RegionBounds{
		"horizon": {X: 0, Y: 0.5, Width: 1, Height: 0.25},
		"center":  {X: 0, Y: 0, Width: 0.1, Height: 0.1},
	}
	res, err := New().Compile(doc)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "center")
	assert.Contains(t, res.SVG, `d="M 256 320 L 368 320`)

	last := res.Layout.Regions[len(res.Layout.Regions)-1]
	assert.Equal(t, "horizon", last.Name)
	assert.True(t, last.Custom)
	assert.True(t, last.Used)

	// custom regions do not leak into other documents
	res, err = New().Compile(decode(t, squareDoc))
	require.NoError(t, err)
	for _, r := range res.Layout.Regions {
		assert.NotEqual(t, "horizon", r.Name)
	}
}

func TestCompileZIndex(t *testing.T) {
	doc := decode(t, `{
		"version": "unified-layered-1.0",
		"canvas": {"width": 512, "height": 512},
		"layers": [
			{"id": "front", "layout": {"zIndex": 2}, "paths": []},
			{"id": "back", "layout": {"zIndex": 1}, "paths": []},
			{"id": "also-back", "layout": {"zIndex": 1}, "paths": []}
		]
	}`)
	ids := func(res *Result) []string {
		var out []string
		for _, l := range res.Layers {
			out = append(out, l.ID)
		}
		return out
	}

	res, err := New().Compile(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"front", "back", "also-back"}, ids(res))
	assert.Equal(t, 2, res.Layers[0].ZIndex)

	res, err = New(WithZIndexSort(true)).Compile(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"back", "also-back", "front"}, ids(res))
	assert.Less(t, strings.Index(res.SVG, `id="back"`), strings.Index(res.SVG, `id="front"`))
}

func TestCompileDebugAndEscaping(t *testing.T) {
	doc := decode(t, squareDoc)
	doc.Layers[0].Label = `a "quoted" <label>`
	doc.Layers[0].Paths[0].ID = `sq"&`

	res, err := New(WithDebugAttributes(true)).Compile(doc)
	require.NoError(t, err)
	assert.Contains(t, res.SVG, `data-region="center"`)
	assert.Contains(t, res.SVG, `data-anchor="center"`)
	assert.Contains(t, res.SVG, `data-z-index="0"`)
	assert.Contains(t, res.SVG, `data-label="a &#34;quoted&#34; &lt;label&gt;"`)
	assert.Contains(t, res.SVG, `id="sq&#34;&amp;"`)

	res, err = New().Compile(doc)
	require.NoError(t, err)
	assert.NotContains(t, res.SVG, "data-region")
}

func TestCompileViewBox(t *testing.T) {
	doc := decode(t, squareDoc)
	doc.Canvas.AspectRatio = svgdoc.AspectWide
	res, err := New().Compile(doc)
	require.NoError(t, err)
	assert.Contains(t, res.SVG, `viewBox="0.00 0.00 512.00 288.00"`)
	assert.Contains(t, res.SVG, `width="512.00" height="288.00"`)
	assert.Equal(t, svgpath.Rect{MaxX: 512, MaxY: 288}, res.ViewBox)
}

func TestCompilerResolverReuse(t *testing.T) {
	c := New()
	doc := decode(t, squareDoc)
	_, err := c.Compile(doc)
	require.NoError(t, err)
	r1, err := c.resolverFor(doc)
	require.NoError(t, err)
	hits, _ := r1.CacheStats()
	assert.Equal(t, uint64(0), hits)

	_, err = c.Compile(doc)
	require.NoError(t, err)
	hits, _ = r1.CacheStats()
	assert.Equal(t, uint64(1), hits)

	doc.Canvas.Width, doc.Canvas.Height = 1024, 1024
	res, err := c.Compile(doc)
	require.NoError(t, err)
	assert.Contains(t, res.SVG, `d="M 512 512`)
	r2, err := c.resolverFor(doc)
	require.NoError(t, err)
	assert.NotSame(t, r1, r2)
}

func TestCompileConcurrent(t *testing.T) {
	c := New()
	want, err := c.Compile(decode(t, repeatDoc))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := c.Compile(decode(t, repeatDoc))
			assert.NoError(t, err)
			assert.Equal(t, want.SVG, res.SVG)
		}()
	}
	wg.Wait()
}

func TestCompileDoesNotLeakGoroutines(t *testing.T) {
	c := New()
	custom := decode(t, squareDoc)
	custom.CustomRegions = map[string]svgdoc.RegionBounds{"badge": {X: 0.8, Y: 0, Width: 0.2, Height: 0.2}}
	resized := decode(t, squareDoc)

	compile := func(i int) {
		_, err := c.Compile(custom)
		require.NoError(t, err)
		resized.Canvas.Width = float64(512 + i%2*512)
		resized.Canvas.Height = resized.Canvas.Width
		_, err = c.Compile(resized)
		require.NoError(t, err)
	}
	compile(0)
	before := runtime.NumGoroutine()
	for i := 1; i <= 200; i++ {
		compile(i)
	}
	assert.LessOrEqual(t, runtime.NumGoroutine(), before+1)
}

func TestCompilerSharedCache(t *testing.T) {
	c := New()
	doc := decode(t, squareDoc)
	_, err := c.Compile(doc)
	require.NoError(t, err)
	small := c.layout.Cache.Len()
	assert.NotZero(t, small)

	// entries of both canvases live in the same cache
	doc.Canvas.Width, doc.Canvas.Height = 1024, 1024
	_, err = c.Compile(doc)
	require.NoError(t, err)
	assert.Equal(t, 2*small, c.layout.Cache.Len())

	// no cache for private resolvers
	doc.CustomRegions = map[string]svgdoc.RegionBounds{"badge": {X: 0.8, Y: 0, Width: 0.2, Height: 0.2}}
	r, err := c.resolverFor(doc)
	require.NoError(t, err)
	_, _, err = r.ResolvePosition(svgdoc.LayoutSpec{})
	require.NoError(t, err)
	hits, misses := r.CacheStats()
	assert.Zero(t, hits+misses)

	off := New(WithLayoutConfig(svglayout.Config{CacheSize: -1}))
	assert.Nil(t, off.layout.Cache)
}
