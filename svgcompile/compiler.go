// Package svgcompile compiles layered documents into absolute SVG
// markup, along with layout metadata.
//
// Failures local to a path or a layer are recovered: the element is
// skipped and a warning is recorded. Only structural errors (invalid
// canvas, no layers) abort a compilation.
package svgcompile

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"sync"

	svg "github.com/ajstarks/svgo/float"
	"github.com/benoitkugler/svglayout/internal/logging"
	"github.com/benoitkugler/svglayout/svgdoc"
	"github.com/benoitkugler/svglayout/svglayout"
	"github.com/benoitkugler/svglayout/svgpath"
	"github.com/benoitkugler/svglayout/svgshapes"
)

// ErrStructural is returned for documents which can't be rendered at all.
var ErrStructural = errors.New("structural error")

// Compiler turns documents into SVG. It keeps one resolver per aspect
// tag, so that the position cache is shared between documents using
// the same canvas. A Compiler is safe for concurrent use.
type Compiler struct {
	cfg     Config
	emitter svgshapes.Emitter
	layout  svglayout.Config // with the cache shared by the resolvers

	mu        sync.Mutex
	resolvers map[string]*svglayout.Resolver
}

// New returns a compiler configured with DefaultConfig and opts.
func New(opts ...Option) *Compiler {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	layout := cfg.Layout
	layout.Cache = layout.NewCache()
	return &Compiler{
		cfg:       cfg,
		emitter:   svgshapes.Emitter{Precision: -1}, // rounded on output
		layout:    layout,
		resolvers: make(map[string]*svglayout.Resolver),
	}
}

// Config returns the compiler configuration.
func (c *Compiler) Config() Config { return c.cfg }

// resolverFor returns the resolver for the canvas of doc. The cached
// resolver of the aspect tag is replaced when the canvas dimensions
// change; every cached resolver uses the compiler position cache.
// Documents with custom regions get a private resolver, without cache.
func (c *Compiler) resolverFor(doc *svgdoc.UnifiedDocument) (*svglayout.Resolver, error) {
	if len(doc.CustomRegions) != 0 {
		private := c.layout
		private.Cache, private.CacheSize = nil, -1
		return svglayout.NewResolver(doc.Canvas, private)
	}
	tag, _ := doc.Canvas.Aspect()
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.resolvers[tag]; ok {
		cv := r.Canvas()
		if cv.Width == doc.Canvas.Width && cv.Height == doc.Canvas.Height {
			return r, nil
		}
		logging.Logger().Debug("svgcompile: canvas changed, replacing resolver", "aspect", tag)
	}
	r, err := svglayout.NewResolver(doc.Canvas, c.layout)
	if err != nil {
		return nil, err
	}
	c.resolvers[tag] = r
	return r, nil
}

// compilation holds the state of one Compile call.
type compilation struct {
	*Compiler
	resolver *svglayout.Resolver

	warnings    []string
	regionsUsed map[string]bool
	anchorsUsed map[svglayout.Anchor]bool
}

func (st *compilation) warn(format string, args ...interface{}) {
	w := fmt.Sprintf(format, args...)
	logging.Logger().Warn("svgcompile: " + w)
	st.warnings = append(st.warnings, w)
}

// Compile renders doc. The returned error wraps ErrStructural; every
// other failure is reported in Result.Warnings.
func (c *Compiler) Compile(doc *svgdoc.UnifiedDocument) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", ErrStructural)
	}
	if err := doc.Canvas.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrStructural, err)
	}
	if len(doc.Layers) == 0 {
		return nil, fmt.Errorf("%w: document has no layers", ErrStructural)
	}

	st := &compilation{
		Compiler:    c,
		regionsUsed: make(map[string]bool),
		anchorsUsed: make(map[svglayout.Anchor]bool),
	}
	strict := c.cfg.Layout.Strictness == svglayout.Strict
	if doc.Version != svgdoc.Version {
		if strict {
			return nil, fmt.Errorf("%w: unsupported version %q", ErrStructural, doc.Version)
		}
		st.warn("unsupported version %q, expected %q", doc.Version, svgdoc.Version)
	}
	if _, ok := doc.Canvas.Aspect(); !ok {
		if strict {
			return nil, fmt.Errorf("%w: unsupported aspect ratio %q", ErrStructural, doc.Canvas.AspectRatio)
		}
		st.warn("unsupported aspect ratio %q, using %q", doc.Canvas.AspectRatio, svgdoc.AspectSquare)
	}

	var err error
	st.resolver, err = c.resolverFor(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrStructural, err)
	}
	names := make([]string, 0, len(doc.CustomRegions))
	for name := range doc.CustomRegions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := st.resolver.AddCustomRegion(name, doc.CustomRegions[name]); err != nil {
			st.warn("custom region %q ignored: %s", name, err)
		}
	}

	order := make([]int, len(doc.Layers))
	for i := range order {
		order[i] = i
	}
	if c.cfg.SortByZIndex {
		sort.SliceStable(order, func(i, j int) bool {
			return layerZIndex(doc.Layers[order[i]]) < layerZIndex(doc.Layers[order[j]])
		})
	}

	var buf bytes.Buffer
	out := svg.New(&buf)
	out.Decimals = c.cfg.Precision
	minX, minY, vw, vh := doc.Canvas.ViewBox()
	out.Startview(vw, vh, minX, minY, vw, vh)

	res := &Result{ViewBox: svgpath.Rect{MinX: minX, MinY: minY, MaxX: minX + vw, MaxY: minY + vh}}
	for _, index := range order {
		layer := &doc.Layers[index]
		compiled, err := st.compileLayer(index, layer)
		if err != nil {
			st.warn("layer %q skipped: %s", layerID(index, layer), err)
			continue
		}
		buf.Write(compiled.markup)
		res.Layers = append(res.Layers, compiled.meta)
		res.Rendered = append(res.Rendered, compiled.rendered)
	}
	out.End()

	res.SVG = buf.String()
	res.Layout = st.layoutMetadata(res.Layers)
	res.Warnings = st.warnings
	return res, nil
}

func layerZIndex(l svgdoc.UnifiedLayer) int {
	return svgdoc.Merge(l.Layout, nil).ZIndexValue()
}

func layerID(index int, l *svgdoc.UnifiedLayer) string {
	if l.ID != "" {
		return l.ID
	}
	return fmt.Sprintf("layer-%d", index)
}

func pathID(layer string, index int, p *svgdoc.UnifiedPath) string {
	if p.ID != "" {
		return p.ID
	}
	return fmt.Sprintf("%s-path-%d", layer, index)
}

type compiledLayer struct {
	markup   []byte
	meta     LayerMetadata
	rendered RenderedLayer
}

// compileLayer writes one group. Panics are turned into errors so
// that the caller may skip the layer.
func (st *compilation) compileLayer(index int, layer *svgdoc.UnifiedLayer) (out compiledLayer, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	id := layerID(index, layer)
	layout := svgdoc.Merge(layer.Layout, nil)
	out.meta = LayerMetadata{
		ID:     id,
		Label:  layer.Label,
		Region: layout.RegionName(),
		Anchor: layout.AnchorName(),
		ZIndex: layout.ZIndexValue(),
	}
	out.rendered.ID = id

	var buf bytes.Buffer
	g := svg.New(&buf)
	g.Decimals = st.cfg.Precision
	attrs := []string{attr("id", id)}
	if st.cfg.Debug {
		attrs = append(attrs,
			attr("data-region", out.meta.Region),
			attr("data-anchor", out.meta.Anchor),
			attr("data-z-index", fmt.Sprint(out.meta.ZIndex)),
		)
		if layer.Label != "" {
			attrs = append(attrs, attr("data-label", layer.Label))
		}
	}
	g.Group(attrs...)

	bounds := svgpath.EmptyRect()
	for i := range layer.Paths {
		path := &layer.Paths[i]
		pid := pathID(id, i, path)
		rendered, err := st.compilePath(layer.Layout, path, pid)
		if err != nil {
			st.warn("layer %q, path %q skipped: %s", id, pid, err)
			continue
		}
		st.writePath(g, rendered)
		for _, inst := range rendered.Instances {
			bounds = bounds.Union(inst.TightBounds())
		}
		out.meta.PathCount++
		out.meta.InstanceCount += len(rendered.Instances)
		out.rendered.Paths = append(out.rendered.Paths, rendered)
	}
	g.Gend()

	if !bounds.IsEmpty() {
		out.meta.Bounds = &bounds
	}
	out.markup = buf.Bytes()
	return out, nil
}

// compilePath resolves the geometry of one path.
func (st *compilation) compilePath(layerLayout *svgdoc.LayoutSpec, path *svgdoc.UnifiedPath, id string) (rp RenderedPath, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	layout := svgdoc.Merge(layerLayout, path.Layout)
	cmds := path.Commands
	if len(cmds) == 0 && path.Primitive != nil {
		if cmds, err = st.emitter.Emit(*path.Primitive); err != nil {
			return rp, err
		}
	}
	if err := cmds.Validate(); err != nil {
		return rp, err
	}

	pos, warnings, err := st.resolver.ResolvePosition(layout)
	for _, w := range warnings {
		st.warn("path %q: %s", id, w)
	}
	if err != nil {
		return rp, err
	}

	if pos.Size != nil {
		scaled, err := st.resolver.ScaleToSize(cmds, *pos.Size)
		switch {
		case errors.Is(err, svglayout.ErrDegenerateBounds):
			st.warn("path %q: %s, size ignored", id, err)
		case err != nil:
			return rp, err
		default:
			cmds = scaled
		}
	}

	placement, warnings, err := st.resolver.PlaceAt(cmds, pos, layout.Repeat)
	for _, w := range warnings {
		st.warn("path %q: %s", id, w)
	}
	if err != nil {
		return rp, err
	}

	st.regionsUsed[pos.Region.Name] = true
	st.anchorsUsed[pos.Anchor] = true

	rp = RenderedPath{ID: id, Style: path.Style}
	if rep, ok := placement.(svglayout.Repeated); ok {
		rp.Repeated = true
		rp.Rotations = rep.Rotations
	}
	rp.Instances = placement.Instances()
	for _, inst := range rp.Instances {
		inst.Round(st.cfg.Precision)
	}
	return rp, nil
}

func (st *compilation) writePath(g *svg.SVG, rp RenderedPath) {
	style := styleAttrs(rp.Style, st.cfg.Precision)
	if !rp.Repeated {
		g.Path(rp.Instances[0].ToSVGPath(st.cfg.Precision), append([]string{attr("id", rp.ID)}, style...)...)
		return
	}
	g.Group(attr("id", rp.ID))
	for i, inst := range rp.Instances {
		g.Path(inst.ToSVGPath(st.cfg.Precision), append([]string{attr("id", fmt.Sprintf("%s-%d", rp.ID, i))}, style...)...)
	}
	g.Gend()
}
