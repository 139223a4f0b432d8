package svgicon

import (
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/benoitkugler/svglayout/internal/logging"
	"github.com/benoitkugler/svglayout/svgdoc"
	"github.com/benoitkugler/svglayout/svgdraw"
	"github.com/benoitkugler/svglayout/svglayout"
	"github.com/benoitkugler/svglayout/svgshapes"
	"github.com/srwiley/rasterx"
)

// maxUseDepth bounds the expansion of use elements referring to each other.
const maxUseDepth = 8

type (
	// pathStyle holds the state of the SVG style,
	// inherited from the parent elements
	pathStyle struct {
		fill, stroke               string
		strokeWidth                *float64
		opacity                    float64 // product along the tree
		fillOpacity, strokeOpacity *float64
		linecap, linejoin          string
		fillRule                   string
		hidden                     bool

		transform rasterx.Matrix2D // current transform
	}

	// iconCursor is used while parsing SVG files
	iconCursor struct {
		icon       *Icon
		mode       svglayout.Strictness
		decoder    *xml.Decoder
		emitter    svgshapes.Emitter
		styleStack []pathStyle

		inTitleText, inDescText bool
		rootSeen                bool

		defsDepth  int // > 0 inside a defs element
		currentDef []definition
		defs       map[string][]definition
		useDepth   int
		warned     map[string]bool
	}

	// definition is used to store what's given in a def tag
	definition struct {
		ID, Tag string
		Attrs   []xml.Attr
	}
)

// endTag marks the end of a container in a definition
const endTag = "/"

var defaultStyle = pathStyle{opacity: 1, transform: rasterx.Identity}

func newCursor(icon *Icon, mode svglayout.Strictness) *iconCursor {
	return &iconCursor{
		icon:       icon,
		mode:       mode,
		emitter:    svgshapes.Emitter{Precision: -1},
		styleStack: []pathStyle{defaultStyle},
		defs:       make(map[string][]definition),
		warned:     make(map[string]bool),
	}
}

func (c *iconCursor) top() *pathStyle { return &c.styleStack[len(c.styleStack)-1] }

func (c *iconCursor) popStyle() {
	if len(c.styleStack) > 1 {
		c.styleStack = c.styleStack[:len(c.styleStack)-1]
	}
}

// handleError returns err in Strict mode, and records it
// as a warning otherwise.
func (c *iconCursor) handleError(err error) error {
	if c.mode == svglayout.Strict {
		return err
	}
	msg := err.Error()
	if c.warned[msg] {
		return nil
	}
	c.warned[msg] = true
	logging.Logger().Warn("svgicon: " + msg)
	c.icon.Warnings = append(c.icon.Warnings, msg)
	return nil
}

func (c *iconCursor) startElement(se xml.StartElement) error {
	name := se.Name.Local
	if c.defsDepth > 0 {
		c.defsDepth++
		if c.defsDepth == 2 { // a direct child of defs starts a new definition
			c.currentDef = nil
		}
		c.currentDef = append(c.currentDef, definition{ID: attrValue(se.Attr, "id"), Tag: name, Attrs: se.Attr})
		return nil
	}
	if _, ignored := silentElements[name]; ignored {
		return c.decoder.Skip()
	}
	if _, ok := drawFuncs[name]; !ok {
		if err := c.handleError(fmt.Errorf("%w: %s", ErrUnsupportedElement, name)); err != nil {
			return err
		}
		return c.decoder.Skip()
	}
	if err := c.pushStyle(se.Attr); err != nil {
		return err
	}
	if c.top().hidden {
		c.popStyle()
		return c.decoder.Skip()
	}
	switch name {
	case "defs":
		c.defsDepth = 1
		return nil
	case "title":
		c.inTitleText = true
		c.icon.Titles = append(c.icon.Titles, "")
		return nil
	case "desc":
		c.inDescText = true
		c.icon.Descriptions = append(c.icon.Descriptions, "")
		return nil
	}
	return c.draw(name, se.Attr)
}

func (c *iconCursor) endElement(se xml.EndElement) {
	if c.defsDepth > 0 {
		c.defsDepth--
		switch c.defsDepth {
		case 0: // closing the defs element itself
			c.popStyle()
		case 1:
			if isContainer(se.Name.Local) {
				c.currentDef = append(c.currentDef, definition{Tag: endTag})
			}
			if len(c.currentDef) != 0 && c.currentDef[0].ID != "" {
				c.defs[c.currentDef[0].ID] = c.currentDef
			}
			c.currentDef = nil
		default:
			if isContainer(se.Name.Local) {
				c.currentDef = append(c.currentDef, definition{Tag: endTag})
			}
		}
		return
	}
	switch se.Name.Local {
	case "title":
		c.inTitleText = false
	case "desc":
		c.inDescText = false
	}
	c.popStyle()
}

func (c *iconCursor) charData(data xml.CharData) {
	if c.inTitleText {
		c.icon.Titles[len(c.icon.Titles)-1] += string(data)
	}
	if c.inDescText {
		c.icon.Descriptions[len(c.icon.Descriptions)-1] += string(data)
	}
}

// draw runs the element function. In Lenient mode, an invalid element
// is skipped.
func (c *iconCursor) draw(name string, attrs []xml.Attr) error {
	path, err := drawFuncs[name](c, attrs)
	if err != nil {
		return c.handleError(fmt.Errorf("%s element: %w", name, err))
	}
	if len(path) == 0 {
		return nil
	}
	style := c.top()
	id := ""
	if c.useDepth == 0 {
		id = attrValue(attrs, "id")
	}
	c.icon.Paths = append(c.icon.Paths, Path{
		ID:    id,
		Path:  path.Transform(style.transform),
		Style: style.toStyle(),
	})
	return nil
}

func attrValue(attrs []xml.Attr, name string) string {
	for _, attr := range attrs {
		if attr.Name.Local == name {
			return attr.Value
		}
	}
	return ""
}

func isContainer(tag string) bool {
	return tag == "g" || tag == "symbol" || tag == "a"
}

// pushStyle parses the style attribute and the presentation attributes,
// and pushes the result on the style stack.
func (c *iconCursor) pushStyle(attrs []xml.Attr) error {
	var pairs [][2]string
	for _, attr := range attrs {
		switch strings.ToLower(attr.Name.Local) {
		case "style":
			for _, decl := range strings.Split(attr.Value, ";") {
				if k, v, ok := strings.Cut(decl, ":"); ok {
					pairs = append(pairs, [2]string{k, v})
				}
			}
		default:
			pairs = append(pairs, [2]string{attr.Name.Local, attr.Value})
		}
	}
	// Make a copy of the top style
	curStyle := *c.top()
	for _, pair := range pairs {
		k := strings.ToLower(strings.TrimSpace(pair[0]))
		v := strings.TrimSpace(pair[1])
		if err := c.readStyleAttr(&curStyle, k, v); err != nil {
			if err = c.handleError(fmt.Errorf("attribute %s=%q: %w", k, v, err)); err != nil {
				return err
			}
		}
	}
	c.styleStack = append(c.styleStack, curStyle) // Push style onto stack
	return nil
}

func (c *iconCursor) readStyleAttr(curStyle *pathStyle, k, v string) error {
	switch k {
	case "fill", "stroke":
		paint, err := readPaint(v)
		if err != nil {
			return err
		}
		if k == "fill" {
			curStyle.fill = paint
		} else {
			curStyle.stroke = paint
		}
	case "stroke-width":
		w, err := c.parseUnit(v, diagPercentage)
		if err != nil {
			return err
		}
		if w < 0 {
			return errParamMismatch
		}
		curStyle.strokeWidth = &w
	case "opacity", "fill-opacity", "stroke-opacity":
		op, err := readFraction(v)
		if err != nil {
			return err
		}
		op = min(max(op, 0), 1)
		switch k {
		case "opacity":
			curStyle.opacity *= op
		case "fill-opacity":
			curStyle.fillOpacity = &op
		default:
			curStyle.strokeOpacity = &op
		}
	case "stroke-linecap":
		switch v {
		case "butt", "round", "square":
			curStyle.linecap = v
		default:
			return errParamMismatch
		}
	case "stroke-linejoin":
		switch v {
		case "miter", "round", "bevel":
			curStyle.linejoin = v
		case "miter-clip", "arcs":
			curStyle.linejoin = "miter"
		default:
			return errParamMismatch
		}
	case "fill-rule":
		switch v {
		case "nonzero", "evenodd":
			curStyle.fillRule = v
		default:
			return errParamMismatch
		}
	case "display":
		curStyle.hidden = v == "none"
	case "visibility":
		curStyle.hidden = v == "hidden" || v == "collapse"
	case "transform":
		m, err := parseTransform(curStyle.transform, v)
		if err != nil {
			return err
		}
		curStyle.transform = m
	}
	return nil
}

// readPaint validates a fill or stroke value.
func readPaint(v string) (string, error) {
	if strings.HasPrefix(v, "url(") {
		return "", fmt.Errorf("%w: paint server %s", ErrInvalidAttribute, v)
	}
	if strings.EqualFold(v, "currentColor") {
		return "black", nil
	}
	if _, err := svgdraw.ParseColor(v); err != nil {
		return "", err
	}
	return v, nil
}

// scale returns the factor applied by m to lengths.
func scale(m rasterx.Matrix2D) float64 {
	return math.Sqrt(math.Abs(m.A*m.D - m.B*m.C))
}

func optional(v float64) *float64 {
	if v == 1 {
		return nil
	}
	return &v
}

// toStyle returns the style of a path drawn with s.
func (s pathStyle) toStyle() svgdoc.Style {
	out := svgdoc.Style{
		Fill:           s.fill,
		Stroke:         s.stroke,
		Opacity:        optional(s.opacity),
		FillOpacity:    s.fillOpacity,
		StrokeOpacity:  s.strokeOpacity,
		StrokeLinecap:  s.linecap,
		StrokeLinejoin: s.linejoin,
		FillRule:       s.fillRule,
	}
	if s.stroke != "" && s.stroke != "none" {
		w := 1.
		if s.strokeWidth != nil {
			w = *s.strokeWidth
		}
		w *= scale(s.transform)
		out.StrokeWidth = &w
	}
	return out
}

func readTransformAttr(m1 rasterx.Matrix2D, k string, points []float64) (rasterx.Matrix2D, error) {
	ln := len(points)
	switch k {
	case "rotate":
		if ln == 1 {
			m1 = m1.Rotate(points[0] * math.Pi / 180)
		} else if ln == 3 {
			m1 = m1.Translate(points[1], points[2]).
				Rotate(points[0]*math.Pi/180).
				Translate(-points[1], -points[2])
		} else {
			return m1, errParamMismatch
		}
	case "translate":
		if ln == 1 {
			m1 = m1.Translate(points[0], 0)
		} else if ln == 2 {
			m1 = m1.Translate(points[0], points[1])
		} else {
			return m1, errParamMismatch
		}
	case "skewx":
		if ln != 1 {
			return m1, errParamMismatch
		}
		m1 = m1.SkewX(points[0] * math.Pi / 180)
	case "skewy":
		if ln != 1 {
			return m1, errParamMismatch
		}
		m1 = m1.SkewY(points[0] * math.Pi / 180)
	case "scale":
		if ln == 1 {
			m1 = m1.Scale(points[0], points[0])
		} else if ln == 2 {
			m1 = m1.Scale(points[0], points[1])
		} else {
			return m1, errParamMismatch
		}
	case "matrix":
		if ln != 6 {
			return m1, errParamMismatch
		}
		m1 = m1.Mult(rasterx.Matrix2D{
			A: points[0], B: points[1], C: points[2],
			D: points[3], E: points[4], F: points[5],
		})
	default:
		return m1, errParamMismatch
	}
	return m1, nil
}

// parseTransform appends the transform list v to m1.
func parseTransform(m1 rasterx.Matrix2D, v string) (rasterx.Matrix2D, error) {
	for _, t := range strings.Split(v, ")") {
		t = strings.TrimLeft(strings.TrimSpace(t), ", ")
		if len(t) == 0 {
			continue
		}
		name, args, ok := strings.Cut(t, "(")
		if !ok || len(args) < 1 {
			return m1, errParamMismatch // badly formed transformation
		}
		points, err := parseNumbers(args)
		if err != nil {
			return m1, err
		}
		m1, err = readTransformAttr(m1, strings.ToLower(strings.TrimSpace(name)), points)
		if err != nil {
			return m1, err
		}
	}
	return m1, nil
}

// splitOnCommaOrSpace returns a list of strings after splitting the input on comma and space delimiters
func splitOnCommaOrSpace(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
}

func parseNumbers(s string) ([]float64, error) {
	fields := splitOnCommaOrSpace(s)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidAttribute, f)
		}
		out[i] = v
	}
	return out, nil
}

func readFraction(v string) (float64, error) {
	d := 1.
	if pct, ok := strings.CutSuffix(v, "%"); ok {
		d, v = 100, pct
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidAttribute, v)
	}
	return f / d, nil
}

type percentageReference uint8

const (
	widthPercentage percentageReference = iota
	heightPercentage
	diagPercentage
)

// absolute units, in pixels
var units = map[string]float64{
	"px": 1,
	"pt": 4. / 3,
	"pc": 16,
	"mm": 96 / 25.4,
	"cm": 96 / 2.54,
	"in": 96,
}

// parseUnit converts a length to user units.
// Percentages are resolved against the view box.
func (c *iconCursor) parseUnit(v string, ref percentageReference) (float64, error) {
	v = strings.TrimSpace(v)
	if pct, ok := strings.CutSuffix(v, "%"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(pct), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a length", ErrInvalidAttribute, v)
		}
		vb := c.icon.ViewBox
		if vb.IsEmpty() {
			return 0, fmt.Errorf("%w: percentage %q without view box", ErrInvalidAttribute, v)
		}
		var base float64
		switch ref {
		case widthPercentage:
			base = vb.Width()
		case heightPercentage:
			base = vb.Height()
		default:
			base = math.Sqrt((vb.Width()*vb.Width() + vb.Height()*vb.Height()) / 2)
		}
		return f / 100 * base, nil
	}
	factor := 1.
	if len(v) > 2 {
		if u, ok := units[v[len(v)-2:]]; ok {
			factor, v = u, v[:len(v)-2]
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a length", ErrInvalidAttribute, v)
	}
	return f * factor, nil
}
