package svglayout

import (
	"fmt"
	"math"

	"github.com/benoitkugler/svglayout/svgdoc"
)

// DefaultRelativeSize is used in Lenient mode when a size names no method.
const DefaultRelativeSize RelativeSize = 0.5

// Size is one of AbsoluteSize, RelativeSize or AspectSize.
type Size interface {
	isSize()
}

// AbsoluteSize is a size in pixels.
type AbsoluteSize struct{ Width, Height float64 }

// RelativeSize is a fraction of the region, in (0, 1].
type RelativeSize float64

// AspectSize is a width in pixels with height = Width / Aspect.
type AspectSize struct{ Width, Aspect float64 }

func (AbsoluteSize) isSize() {}
func (RelativeSize) isSize() {}
func (AspectSize) isSize()   {}

// Dimensions is a resolved size, in pixels.
type Dimensions struct {
	Width, Height float64
}

func positive(vs ...float64) bool {
	for _, v := range vs {
		if !(v > 0) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ParseSize converts the raw size of a document into a Size.
// A nil spec returns a nil Size.
//
// Exactly one method is expected. With no method, Strict fails and
// Lenient uses DefaultRelativeSize. With several methods, Strict fails
// and Lenient keeps the first of absolute, relative, aspect.
// Non positive values always fail.
func ParseSize(spec *svgdoc.SizeSpec, mode Strictness) (Size, string, error) {
	if spec == nil {
		return nil, "", nil
	}
	var methods []Size
	if a := spec.Absolute; a != nil {
		if !positive(a.Width, a.Height) {
			return nil, "", fmt.Errorf("%w: absolute %gx%g", ErrInvalidSize, a.Width, a.Height)
		}
		methods = append(methods, AbsoluteSize{a.Width, a.Height})
	}
	if r := spec.Relative; r != nil {
		if !positive(*r) {
			return nil, "", fmt.Errorf("%w: relative %g", ErrInvalidSize, *r)
		}
		methods = append(methods, RelativeSize(*r))
	}
	if a := spec.AspectConstrained; a != nil {
		if !positive(a.Width, a.Aspect) {
			return nil, "", fmt.Errorf("%w: aspect constrained width %g, aspect %g", ErrInvalidSize, a.Width, a.Aspect)
		}
		methods = append(methods, AspectSize{a.Width, a.Aspect})
	}

	var warning string
	switch len(methods) {
	case 0:
		if mode == Strict {
			return nil, "", fmt.Errorf("%w: no size method given", ErrInvalidSize)
		}
		return DefaultRelativeSize, fmt.Sprintf("size has no method, using relative %g", float64(DefaultRelativeSize)), nil
	case 1:
	default:
		if mode == Strict {
			return nil, "", fmt.Errorf("%w: %d size methods given", ErrInvalidSize, len(methods))
		}
		warning = fmt.Sprintf("size has %d methods, using the first one", len(methods))
	}

	if r, ok := methods[0].(RelativeSize); ok && r > 1 {
		if mode == Strict {
			return nil, "", fmt.Errorf("%w: relative %g above 1", ErrInvalidSize, float64(r))
		}
		return RelativeSize(1), fmt.Sprintf("relative size %g clamped to 1", float64(r)), nil
	}
	return methods[0], warning, nil
}

// ResolveSize returns the pixel dimensions of size, relative to the
// region given in pixels. A nil size resolves to the region itself.
func ResolveSize(size Size, regionPx Region) Dimensions {
	switch s := size.(type) {
	case AbsoluteSize:
		return Dimensions{s.Width, s.Height}
	case RelativeSize:
		f := float64(s)
		return Dimensions{regionPx.Width * f, regionPx.Height * f}
	case AspectSize:
		return Dimensions{s.Width, s.Width / s.Aspect}
	default:
		return Dimensions{regionPx.Width, regionPx.Height}
	}
}
