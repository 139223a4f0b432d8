// Package svgdoc defines the layered document consumed by the layout
// compiler, and its JSON decoding.
//
// A document is a list of layers, each holding styled paths. Paths and
// layers carry an optional LayoutSpec describing where they go on the
// canvas in semantic terms (region, anchor, offset, size, repetition).
package svgdoc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/benoitkugler/svglayout/svgpath"
)

// Version is the only supported document version.
const Version = "unified-layered-1.0"

// DefaultCanvasSize is the conventional width and height of a canvas.
const DefaultCanvasSize = 512

var ErrInvalidCanvas = errors.New("invalid canvas")

// Supported aspect ratio tags.
const (
	AspectSquare    = "1:1"
	AspectLandscape = "4:3"
	AspectPortrait  = "3:4"
	AspectWide      = "16:9"
	AspectTall      = "9:16"
)

var aspectRatios = map[string][2]float64{
	AspectSquare:    {1, 1},
	AspectLandscape: {4, 3},
	AspectPortrait:  {3, 4},
	AspectWide:      {16, 9},
	AspectTall:      {9, 16},
}

// Canvas is the drawing surface, in pixels.
type Canvas struct {
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	AspectRatio string  `json:"aspectRatio,omitempty"`
}

// Validate checks that the dimensions are positive and finite.
func (c Canvas) Validate() error {
	if !(c.Width > 0 && c.Height > 0) || math.IsInf(c.Width, 0) || math.IsInf(c.Height, 0) {
		return fmt.Errorf("%w: %gx%g", ErrInvalidCanvas, c.Width, c.Height)
	}
	return nil
}

// Aspect returns the normalized aspect tag: an empty or unknown
// tag is reported as "1:1", with ok false for unknown ones.
func (c Canvas) Aspect() (tag string, ok bool) {
	if c.AspectRatio == "" {
		return AspectSquare, true
	}
	if _, ok := aspectRatios[c.AspectRatio]; ok {
		return c.AspectRatio, true
	}
	return AspectSquare, false
}

// ViewBox returns the visible rectangle for the aspect tag: the full
// canvas for "1:1", otherwise the largest box of that ratio anchored
// at the origin.
func (c Canvas) ViewBox() (minX, minY, width, height float64) {
	tag, _ := c.Aspect()
	r := aspectRatios[tag]
	if c.Width*r[1] > c.Height*r[0] {
		return 0, 0, c.Height * r[0] / r[1], c.Height
	}
	return 0, 0, c.Width, c.Width * r[1] / r[0]
}

// RegionBounds is a normalized rectangle, used for custom regions.
type RegionBounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Style holds the presentation attributes of a path.
// Nil numeric fields are not written.
type Style struct {
	Fill           string   `json:"fill,omitempty"`
	Stroke         string   `json:"stroke,omitempty"`
	StrokeWidth    *float64 `json:"strokeWidth,omitempty"`
	Opacity        *float64 `json:"opacity,omitempty"`
	FillOpacity    *float64 `json:"fillOpacity,omitempty"`
	StrokeOpacity  *float64 `json:"strokeOpacity,omitempty"`
	StrokeLinecap  string   `json:"strokeLinecap,omitempty"`
	StrokeLinejoin string   `json:"strokeLinejoin,omitempty"`
	FillRule       string   `json:"fillRule,omitempty"`
}

// UnifiedPath is one styled path. Commands are in local coordinates,
// interpreted as offsets from the resolved anchor point.
// When Commands is empty, Primitive may describe a shape instead.
type UnifiedPath struct {
	ID        string         `json:"id"`
	Style     Style          `json:"style"`
	Commands  svgpath.Path   `json:"commands"`
	Primitive *PrimitiveSpec `json:"primitive,omitempty"`
	Layout    *LayoutSpec    `json:"layout,omitempty"`
}

// UnifiedLayer groups paths sharing a default layout.
type UnifiedLayer struct {
	ID     string        `json:"id"`
	Label  string        `json:"label,omitempty"`
	Paths  []UnifiedPath `json:"paths"`
	Layout *LayoutSpec   `json:"layout,omitempty"`
}

// UnifiedDocument is the input of the compiler.
type UnifiedDocument struct {
	Version       string                  `json:"version"`
	Canvas        Canvas                  `json:"canvas"`
	Layers        []UnifiedLayer          `json:"layers"`
	CustomRegions map[string]RegionBounds `json:"customRegions,omitempty"`
}

// Decode reads a JSON document. Unknown fields are ignored; the
// document content is not validated here.
func Decode(r io.Reader) (*UnifiedDocument, error) {
	var doc UnifiedDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return &doc, nil
}

// DecodeFile opens and decodes the JSON document at path.
func DecodeFile(path string) (*UnifiedDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}
