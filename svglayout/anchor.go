package svglayout

import (
	"fmt"

	"github.com/benoitkugler/svglayout/svgdoc"
)

// Anchor is a named point inside a region.
type Anchor string

// The nine compass anchors.
const (
	TopLeft      Anchor = "top_left"
	TopCenter    Anchor = "top_center"
	TopRight     Anchor = "top_right"
	MiddleLeft   Anchor = "middle_left"
	Center       Anchor = "center"
	MiddleRight  Anchor = "middle_right"
	BottomLeft   Anchor = "bottom_left"
	BottomCenter Anchor = "bottom_center"
	BottomRight  Anchor = "bottom_right"
)

var anchorOffsets = map[Anchor][2]float64{
	TopLeft:      {0, 0},
	TopCenter:    {0.5, 0},
	TopRight:     {1, 0},
	MiddleLeft:   {0, 0.5},
	Center:       {0.5, 0.5},
	MiddleRight:  {1, 0.5},
	BottomLeft:   {0, 1},
	BottomCenter: {0.5, 1},
	BottomRight:  {1, 1},
}

// Anchors returns the nine anchors, row by row.
func Anchors() []Anchor {
	return []Anchor{TopLeft, TopCenter, TopRight, MiddleLeft, Center, MiddleRight, BottomLeft, BottomCenter, BottomRight}
}

// Offset returns the normalized position of the anchor in its region.
// Unknown anchors map to the center.
func (a Anchor) Offset() (ax, ay float64) {
	o, ok := anchorOffsets[a]
	if !ok {
		return 0.5, 0.5
	}
	return o[0], o[1]
}

// ParseAnchor validates name. Unknown names fail in Strict mode, and
// resolve to Center with a warning in Lenient mode.
func ParseAnchor(name string, mode Strictness) (Anchor, string, error) {
	if _, ok := anchorOffsets[Anchor(name)]; ok {
		return Anchor(name), "", nil
	}
	if mode == Strict {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownAnchor, name)
	}
	return Center, fmt.Sprintf("unknown anchor %q, using %q", name, svgdoc.DefaultAnchor), nil
}
