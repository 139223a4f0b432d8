package svglayout

import (
	"errors"
	"fmt"
	"math"

	"github.com/benoitkugler/svglayout/internal/logging"
	"github.com/benoitkugler/svglayout/svgdoc"
	"github.com/benoitkugler/svglayout/svgpath"
	"github.com/srwiley/rasterx"
	"golang.org/x/sync/errgroup"
)

// Placement is the result of applying a layout to a path:
// either Single or Repeated.
type Placement interface {
	// Instances returns the placed paths, in order.
	Instances() []svgpath.Path
	isPlacement()
}

// Single is a path placed once.
type Single struct {
	Path svgpath.Path
}

// Repeated holds one independent path per instance of a repetition.
// Rotations are in degrees, one per path, and are null for grids.
type Repeated struct {
	Paths     []svgpath.Path
	Rotations []float64
}

func (s Single) Instances() []svgpath.Path   { return []svgpath.Path{s.Path} }
func (r Repeated) Instances() []svgpath.Path { return r.Paths }

func (Single) isPlacement()   {}
func (Repeated) isPlacement() {}

// Place resolves layout and applies it to path.
func (r *Resolver) Place(path svgpath.Path, layout svgdoc.LayoutSpec) (Placement, []string, error) {
	pos, warnings, err := r.ResolvePosition(layout)
	if err != nil {
		return nil, warnings, err
	}
	p, w, err := r.PlaceAt(path, pos, layout.Repeat)
	return p, append(warnings, w...), err
}

// PlaceAt translates path to pos, once or once per instance of repeat.
// In Lenient mode, an invalid repetition falls back to a single
// instance with a warning; ErrTooManyInstances is always returned.
func (r *Resolver) PlaceAt(path svgpath.Path, pos Position, repeat *svgdoc.RepetitionSpec) (Placement, []string, error) {
	canvas := r.Canvas()
	if repeat == nil {
		return Single{translateClamped(path, pos.Point(), canvas.Width, canvas.Height)}, nil, nil
	}

	instances, err := r.expander.Expand(*repeat, pos.Point(), pos.Region)
	if err != nil {
		if r.cfg.Strictness == Strict || errors.Is(err, ErrTooManyInstances) {
			return nil, nil, err
		}
		w := fmt.Sprintf("%s, placing a single instance", err)
		warn([]string{w})
		return Single{translateClamped(path, pos.Point(), canvas.Width, canvas.Height)}, []string{w}, nil
	}

	rotate := repeat.Type == svgdoc.RepeatRadial && repeat.Rotate
	out := Repeated{
		Paths:     make([]svgpath.Path, len(instances)),
		Rotations: make([]float64, len(instances)),
	}
	place := func(i int) error {
		inst := instances[i]
		src := path
		if rotate && inst.Rotation != 0 {
			src = path.Transform(rasterx.Identity.Rotate(inst.Rotation * math.Pi / 180))
		}
		p := translateClamped(src, Point{inst.X, inst.Y}, canvas.Width, canvas.Height)
		if err := p.Validate(); err != nil {
			return fmt.Errorf("instance %d: %w", i, err)
		}
		out.Paths[i] = p
		out.Rotations[i] = inst.Rotation
		return nil
	}

	if len(instances) <= r.cfg.BatchThreshold {
		for i := range instances {
			if err := place(i); err != nil {
				return nil, nil, err
			}
		}
		return out, nil, nil
	}

	logging.Logger().Debug("svglayout: batch placement", "instances", len(instances), "parallelism", r.cfg.Parallelism)
	var g errgroup.Group
	g.SetLimit(r.cfg.Parallelism)
	chunk := (len(instances) + r.cfg.Parallelism - 1) / r.cfg.Parallelism
	for start := 0; start < len(instances); start += chunk {
		end := min(start+chunk, len(instances))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := place(i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return out, nil, nil
}

// FitOptions tunes ScaleToFit.
type FitOptions struct {
	// Padding is an inner margin of the target box, in pixels.
	Padding float64
	// SoftClamp keeps the result within the canvas extended by the
	// resolver SoftClampMargin, instead of letting it overflow freely.
	SoftClamp bool
}

// ScaleToFit scales path so that its bounding box matches the
// targetW x targetH box, about the bounding box origin. With
// preserveAspect, the smallest of the two scales is used on both axes,
// and a path flat along one axis is scaled by the other one.
//
// Paths with a zero width or height, or both with preserveAspect,
// are returned unchanged, with ErrDegenerateBounds.
func (r *Resolver) ScaleToFit(path svgpath.Path, targetW, targetH float64, preserveAspect bool, opts FitOptions) (svgpath.Path, error) {
	box := path.Bounds()
	flatX, flatY := !(box.Width() > 0), !(box.Height() > 0)
	if box.IsEmpty() || (flatX && flatY) || (!preserveAspect && (flatX || flatY)) {
		return path.Copy(), fmt.Errorf("%w: %gx%g", ErrDegenerateBounds, box.Width(), box.Height())
	}
	if !positive(targetW, targetH) {
		return path.Copy(), fmt.Errorf("%w: target %gx%g", ErrInvalidSize, targetW, targetH)
	}
	pad := opts.Padding
	if pad < 0 || 2*pad >= targetW || 2*pad >= targetH {
		pad = 0
	}
	sx, sy := math.Inf(1), math.Inf(1)
	if !flatX {
		sx = (targetW - 2*pad) / box.Width()
	}
	if !flatY {
		sy = (targetH - 2*pad) / box.Height()
	}
	if preserveAspect {
		s := math.Min(sx, sy)
		sx, sy = s, s
	}
	m := rasterx.Identity.
		Translate(box.MinX+pad, box.MinY+pad).
		Scale(sx, sy).
		Translate(-box.MinX, -box.MinY)
	out := path.Transform(m)

	if opts.SoftClamp {
		canvas := r.Canvas()
		mx, my := canvas.Width*r.cfg.SoftClampMargin, canvas.Height*r.cfg.SoftClampMargin
		for _, c := range out {
			for i := 0; i+1 < len(c.Coords); i += 2 {
				c.Coords[i] = clamp(c.Coords[i], -mx, canvas.Width+mx)
				c.Coords[i+1] = clamp(c.Coords[i+1], -my, canvas.Height+my)
			}
		}
	}
	return out, nil
}

// ScaleToSize scales path independently on each axis so that its
// bounding box is exactly d, about the bounding box origin.
func (r *Resolver) ScaleToSize(path svgpath.Path, d Dimensions) (svgpath.Path, error) {
	return r.ScaleToFit(path, d.Width, d.Height, false, FitOptions{})
}
