// Implements an abstract representation of
// svg paths restricted to the five absolute commands
// M, L, C, Q and Z, which is the only geometry
// the layout compiler reads and writes.
package svgpath

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/srwiley/rasterx"
)

// Tag is the letter of a path command.
type Tag byte

// Human readable path constants
const (
	MoveTo  Tag = 'M'
	LineTo  Tag = 'L'
	CubicTo Tag = 'C'
	QuadTo  Tag = 'Q'
	Close   Tag = 'Z'
)

// DefaultPrecision is the number of decimals kept when serializing coordinates.
const DefaultPrecision = 2

var (
	ErrUnknownCommand = errors.New("unknown path command")
	ErrArity          = errors.New("wrong number of coordinates for path command")
	ErrNonFinite      = errors.New("non finite coordinate")
	ErrEmptyPath      = errors.New("empty path")
	ErrMissingMove    = errors.New("path must start with a move command")
)

// Arity returns the number of coordinates expected by the tag,
// or -1 for an unknown tag.
func (t Tag) Arity() int {
	switch t {
	case MoveTo, LineTo:
		return 2
	case QuadTo:
		return 4
	case CubicTo:
		return 6
	case Close:
		return 0
	default:
		return -1
	}
}

func (t Tag) String() string { return string(t) }

// Command is one drawing instruction with its flat coordinate list,
// stored as x0, y0, x1, y1, ...
type Command struct {
	Tag    Tag       `json:"type"`
	Coords []float64 `json:"coords,omitempty"`
}

// Validate checks the tag and the coordinate arity.
func (c Command) Validate() error {
	n := c.Tag.Arity()
	if n < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, string(c.Tag))
	}
	if len(c.Coords) != n {
		return fmt.Errorf("%w: %s expects %d, got %d", ErrArity, c.Tag, n, len(c.Coords))
	}
	for _, v := range c.Coords {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w in %s command", ErrNonFinite, c.Tag)
		}
	}
	return nil
}

// Path describes a sequence of basic SVG operations.
// Higher-level shapes may be reduced to a path.
type Path []Command

// Validate checks every command, and that the path starts with a move.
func (p Path) Validate() error {
	if len(p) == 0 {
		return ErrEmptyPath
	}
	if p[0].Tag != MoveTo {
		return ErrMissingMove
	}
	for i, c := range p {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("command %d: %w", i, err)
		}
	}
	return nil
}

// Copy returns a deep copy of the path, so that the coordinates
// may be mutated without aliasing.
func (p Path) Copy() Path {
	out := make(Path, len(p))
	for i, c := range p {
		out[i] = Command{Tag: c.Tag, Coords: append([]float64(nil), c.Coords...)}
	}
	return out
}

// ToSVGPath returns the `d` attribute for the path, with coordinates
// rounded to `precision` decimals: "{TAG} {coords...}" joined by spaces.
func (p Path) ToSVGPath(precision int) string {
	var sb strings.Builder
	for i, c := range p {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte(byte(c.Tag))
		for _, v := range c.Coords {
			sb.WriteByte(' ')
			sb.WriteString(FormatNumber(v, precision))
		}
	}
	return sb.String()
}

// String returns a readable representation of a Path.
func (p Path) String() string {
	return p.ToSVGPath(DefaultPrecision)
}

// Start starts a new curve at the given point.
func (p *Path) Start(x, y float64) {
	*p = append(*p, Command{Tag: MoveTo, Coords: []float64{x, y}})
}

// Line adds a linear segment to the current curve.
func (p *Path) Line(x, y float64) {
	*p = append(*p, Command{Tag: LineTo, Coords: []float64{x, y}})
}

// QuadBezier adds a quadratic segment to the current curve.
func (p *Path) QuadBezier(cx, cy, x, y float64) {
	*p = append(*p, Command{Tag: QuadTo, Coords: []float64{cx, cy, x, y}})
}

// CubeBezier adds a cubic segment to the current curve.
func (p *Path) CubeBezier(c1x, c1y, c2x, c2y, x, y float64) {
	*p = append(*p, Command{Tag: CubicTo, Coords: []float64{c1x, c1y, c2x, c2y, x, y}})
}

// Stop joins the ends of the path
func (p *Path) Stop(closeLoop bool) {
	if closeLoop {
		*p = append(*p, Command{Tag: Close})
	}
}

// Round rounds every coordinate in place to `precision` decimals.
func (p Path) Round(precision int) {
	for _, c := range p {
		for i, v := range c.Coords {
			c.Coords[i] = Round(v, precision)
		}
	}
}

// Round rounds v to `precision` decimals, half away from zero.
func Round(v float64, precision int) float64 {
	if precision < 0 {
		return v
	}
	f := math.Pow(10, float64(precision))
	r := math.Round(v*f) / f
	if r == 0 { // avoids "-0"
		return 0
	}
	return r
}

// FormatNumber rounds v and writes it without trailing zeros.
func FormatNumber(v float64, precision int) string {
	return strconv.FormatFloat(Round(v, precision), 'f', -1, 64)
}

// MarshalText writes the tag as its letter.
func (t Tag) MarshalText() ([]byte, error) {
	return []byte{byte(t)}, nil
}

// UnmarshalText accepts a command letter, in either case.
// Unknown letters are kept and rejected by Validate, so that one bad
// command does not prevent decoding the rest of a document.
func (t *Tag) UnmarshalText(b []byte) error {
	s := strings.ToUpper(strings.TrimSpace(string(b)))
	if len(s) != 1 {
		*t = 0
		return nil
	}
	*t = Tag(s[0])
	return nil
}

// Transform returns a transformed copy of the path.
// Affine maps preserve Bezier curves, so every pair is mapped alone.
func (p Path) Transform(m rasterx.Matrix2D) Path {
	out := p.Copy()
	for _, c := range out {
		for i := 0; i+1 < len(c.Coords); i += 2 {
			c.Coords[i], c.Coords[i+1] = m.Transform(c.Coords[i], c.Coords[i+1])
		}
	}
	return out
}
