package svgcompile

import (
	"github.com/benoitkugler/svglayout/svgdoc"
	"github.com/benoitkugler/svglayout/svglayout"
	"github.com/benoitkugler/svglayout/svgpath"
	"golang.org/x/net/html"
)

// Result is the output of a compilation.
type Result struct {
	SVG      string
	ViewBox  svgpath.Rect
	Layers   []LayerMetadata
	Layout   LayoutMetadata
	Warnings []string
	// Rendered is the resolved geometry, in rendering order,
	// for drivers other than SVG.
	Rendered []RenderedLayer
}

// LayerMetadata describes a rendered layer.
type LayerMetadata struct {
	ID            string
	Label         string
	PathCount     int // paths rendered
	InstanceCount int // path elements written, repetitions included
	Region        string
	Anchor        string
	ZIndex        int
	Bounds        *svgpath.Rect // nil for a layer with no rendered path
}

// RegionUsage describes a region of the table used for a compilation.
type RegionUsage struct {
	Name   string
	Bounds svglayout.Region // in pixels
	Custom bool
	Used   bool
}

// LayoutMetadata summarizes the layout of a document.
type LayoutMetadata struct {
	Regions     []RegionUsage
	AnchorsUsed []string
	// CoordinateRange is the extent of every layer, nil if nothing was rendered.
	CoordinateRange *svgpath.Rect
}

// RenderedLayer holds the resolved paths of a layer.
type RenderedLayer struct {
	ID    string
	Paths []RenderedPath
}

// RenderedPath is a path after layout, in absolute coordinates.
type RenderedPath struct {
	ID        string
	Style     svgdoc.Style
	Repeated  bool
	Instances []svgpath.Path
	Rotations []float64 // one per instance for repeated paths
}

func (st *compilation) layoutMetadata(layers []LayerMetadata) LayoutMetadata {
	var out LayoutMetadata
	table := st.resolver.Regions()
	for _, name := range table.Names() {
		px, err := table.PixelBounds(name)
		if err != nil {
			continue
		}
		out.Regions = append(out.Regions, RegionUsage{
			Name:   name,
			Bounds: px,
			Custom: !table.IsBuiltin(name),
			Used:   st.regionsUsed[name],
		})
	}
	for _, a := range svglayout.Anchors() {
		if st.anchorsUsed[a] {
			out.AnchorsUsed = append(out.AnchorsUsed, string(a))
		}
	}
	extent := svgpath.EmptyRect()
	for _, l := range layers {
		if l.Bounds != nil {
			extent = extent.Union(*l.Bounds)
		}
	}
	if !extent.IsEmpty() {
		out.CoordinateRange = &extent
	}
	return out
}

// attr formats an escaped attribute, as expected by svgo.
func attr(name, value string) string {
	return name + `="` + html.EscapeString(value) + `"`
}

func number(v float64, precision int) string {
	return svgpath.FormatNumber(v, precision)
}

func styleAttrs(s svgdoc.Style, precision int) []string {
	var out []string
	if s.Fill != "" {
		out = append(out, attr("fill", s.Fill))
	}
	if s.Stroke != "" {
		out = append(out, attr("stroke", s.Stroke))
	}
	if s.StrokeWidth != nil {
		out = append(out, attr("stroke-width", number(*s.StrokeWidth, precision)))
	}
	if s.Opacity != nil {
		out = append(out, attr("opacity", number(*s.Opacity, precision)))
	}
	if s.FillOpacity != nil {
		out = append(out, attr("fill-opacity", number(*s.FillOpacity, precision)))
	}
	if s.StrokeOpacity != nil {
		out = append(out, attr("stroke-opacity", number(*s.StrokeOpacity, precision)))
	}
	if s.StrokeLinecap != "" {
		out = append(out, attr("stroke-linecap", s.StrokeLinecap))
	}
	if s.StrokeLinejoin != "" {
		out = append(out, attr("stroke-linejoin", s.StrokeLinejoin))
	}
	if s.FillRule != "" {
		out = append(out, attr("fill-rule", s.FillRule))
	}
	return out
}
