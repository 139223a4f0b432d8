package svgdoc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Defaults applied when a field is absent on both a path and its layer.
const (
	DefaultRegion = "center"
	DefaultAnchor = "center"
)

// Repetition types.
const (
	RepeatGrid   = "grid"
	RepeatRadial = "radial"
)

// LayoutSpec describes where an element goes on the canvas.
// Every field is optional; see Merge.
type LayoutSpec struct {
	Region *string         `json:"region,omitempty"`
	Anchor *string         `json:"anchor,omitempty"`
	Offset *[2]float64     `json:"offset,omitempty"` // fraction of the region span, in [-1, 1]
	Size   *SizeSpec       `json:"size,omitempty"`
	Repeat *RepetitionSpec `json:"repeat,omitempty"`
	ZIndex *int            `json:"zIndex,omitempty"`
}

// Merge returns the effective layout of a path: each field set on
// `path` overrides the one of `layer`. Both may be nil.
func Merge(layer, path *LayoutSpec) LayoutSpec {
	var out LayoutSpec
	if layer != nil {
		out = *layer
	}
	if path == nil {
		return out
	}
	if path.Region != nil {
		out.Region = path.Region
	}
	if path.Anchor != nil {
		out.Anchor = path.Anchor
	}
	if path.Offset != nil {
		out.Offset = path.Offset
	}
	if path.Size != nil {
		out.Size = path.Size
	}
	if path.Repeat != nil {
		out.Repeat = path.Repeat
	}
	if path.ZIndex != nil {
		out.ZIndex = path.ZIndex
	}
	return out
}

// RegionName returns the region, or DefaultRegion.
func (l LayoutSpec) RegionName() string {
	if l.Region == nil || *l.Region == "" {
		return DefaultRegion
	}
	return *l.Region
}

// AnchorName returns the anchor, or DefaultAnchor.
func (l LayoutSpec) AnchorName() string {
	if l.Anchor == nil || *l.Anchor == "" {
		return DefaultAnchor
	}
	return *l.Anchor
}

// OffsetValue returns the offset, or [0, 0].
func (l LayoutSpec) OffsetValue() (dx, dy float64) {
	if l.Offset == nil {
		return 0, 0
	}
	return l.Offset[0], l.Offset[1]
}

// ZIndexValue returns the z index, or 0.
func (l LayoutSpec) ZIndexValue() int {
	if l.ZIndex == nil {
		return 0
	}
	return *l.ZIndex
}

// SizeSpec is the raw size description. Exactly one field is
// expected; the layout package enforces it.
type SizeSpec struct {
	Absolute          *AbsoluteSpec `json:"absolute,omitempty"`
	Relative          *float64      `json:"relative,omitempty"`
	AspectConstrained *AspectSpec   `json:"aspect_constrained,omitempty"`
}

// AbsoluteSpec is a size in pixels.
type AbsoluteSpec struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// AspectSpec is a width in pixels, with height = width / aspect.
type AspectSpec struct {
	Width  float64 `json:"width"`
	Aspect float64 `json:"aspect"`
}

// RepetitionSpec describes a grid or radial pattern.
type RepetitionSpec struct {
	Type    string   `json:"type"`
	Count   Count    `json:"count"`
	Spacing *float64 `json:"spacing,omitempty"` // grid: center to center step, fraction of the region span
	Radius  *float64 `json:"radius,omitempty"`  // radial: fraction of the smallest region side
	Rotate  bool     `json:"rotate,omitempty"`  // radial: rotate each instance by its angle
}

// Count is a repetition count, written in JSON either as a number
// (square grid, or radial count) or as [cols, rows].
// Values are kept as floats so that non integers can be reported.
type Count []float64

// UnmarshalJSON accepts a number or an array of numbers.
func (c *Count) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var l []float64
		if err := json.Unmarshal(b, &l); err != nil {
			return fmt.Errorf("invalid repetition count: %w", err)
		}
		*c = l
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("invalid repetition count: %w", err)
	}
	*c = Count{v}
	return nil
}

// MarshalJSON writes a single count as a number.
func (c Count) MarshalJSON() ([]byte, error) {
	if len(c) == 1 {
		return json.Marshal(c[0])
	}
	return json.Marshal([]float64(c))
}

// Primitive shape types.
const (
	ShapeRectangle        = "rectangle"
	ShapeRoundedRectangle = "rounded_rectangle"
	ShapeCircle           = "circle"
	ShapeEllipse          = "ellipse"
	ShapePolygon          = "polygon"
	ShapeStar             = "star"
	ShapeCurve            = "curve"
	ShapeQuadratic        = "quadratic"
	ShapeArc              = "arc"
)

// PrimitiveSpec names a geometric shape, in local coordinates.
// X and Y are the top left corner of rectangles and the center of
// other shapes. Angles are in degrees.
type PrimitiveSpec struct {
	Type         string       `json:"type"`
	X            float64      `json:"x"`
	Y            float64      `json:"y"`
	Width        float64      `json:"width,omitempty"`
	Height       float64      `json:"height,omitempty"`
	Radius       float64      `json:"radius,omitempty"`
	RadiusX      float64      `json:"radiusX,omitempty"`
	RadiusY      float64      `json:"radiusY,omitempty"`
	InnerRadius  float64      `json:"innerRadius,omitempty"`
	CornerRadius float64      `json:"cornerRadius,omitempty"`
	Sides        int          `json:"sides,omitempty"`
	Points       int          `json:"points,omitempty"`
	StartAngle   *float64     `json:"startAngle,omitempty"`
	EndAngle     float64      `json:"endAngle,omitempty"`
	Tension      *float64     `json:"tension,omitempty"`
	Vertices     [][2]float64 `json:"vertices,omitempty"` // curve points; start, control, end for quadratic
	Open         bool         `json:"open,omitempty"`
}
