package svgicon

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/benoitkugler/svglayout/svgpath"
)

func init() {
	// avoids cyclical static declaration
	// called on package initialization
	drawFuncs["use"] = useF
}

// svgFunc returns the path described by an element, if any,
// in the element coordinates.
type svgFunc func(c *iconCursor, attrs []xml.Attr) (svgpath.Path, error)

var drawFuncs = map[string]svgFunc{
	"svg":      svgF,
	"g":        noneF,
	"symbol":   noneF,
	"a":        noneF,
	"defs":     noneF,
	"title":    noneF,
	"desc":     noneF,
	"line":     lineF,
	"rect":     rectF,
	"circle":   circleF,
	"ellipse":  ellipseF,
	"polyline": polylineF,
	"polygon":  polygonF,
	"path":     pathF,
}

// elements skipped without warning, with their content
var silentElements = map[string]struct{}{
	"metadata":  {},
	"namedview": {},
	"script":    {},
}

func noneF(*iconCursor, []xml.Attr) (svgpath.Path, error) { return nil, nil } // only push the style

func svgF(c *iconCursor, attrs []xml.Attr) (svgpath.Path, error) {
	if c.rootSeen { // nested svg elements are drawn in the root coordinates
		return nil, nil
	}
	c.rootSeen = true
	var width, height float64
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "viewBox":
			var points []float64
			points, err = parseNumbers(attr.Value)
			if err == nil && (len(points) != 4 || points[2] <= 0 || points[3] <= 0) {
				err = errParamMismatch
			}
			if err == nil {
				c.icon.ViewBox = svgpath.Rect{
					MinX: points[0], MinY: points[1],
					MaxX: points[0] + points[2], MaxY: points[1] + points[3],
				}
			}
		case "width":
			if !strings.HasSuffix(attr.Value, "%") {
				width, err = c.parseUnit(attr.Value, widthPercentage)
			}
		case "height":
			if !strings.HasSuffix(attr.Value, "%") {
				height, err = c.parseUnit(attr.Value, heightPercentage)
			}
		}
		if err != nil {
			return nil, err
		}
	}
	c.icon.Width, c.icon.Height = width, height
	if c.icon.ViewBox.IsEmpty() && width > 0 && height > 0 {
		c.icon.ViewBox = svgpath.Rect{MaxX: width, MaxY: height}
	}
	return nil, nil
}

func rectF(c *iconCursor, attrs []xml.Attr) (svgpath.Path, error) {
	var x, y, w, h, rx, ry float64
	var hasRx, hasRy bool
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "x":
			x, err = c.parseUnit(attr.Value, widthPercentage)
		case "y":
			y, err = c.parseUnit(attr.Value, heightPercentage)
		case "width":
			w, err = c.parseUnit(attr.Value, widthPercentage)
		case "height":
			h, err = c.parseUnit(attr.Value, heightPercentage)
		case "rx":
			hasRx = true
			rx, err = c.parseUnit(attr.Value, widthPercentage)
		case "ry":
			hasRy = true
			ry, err = c.parseUnit(attr.Value, heightPercentage)
		}
		if err != nil {
			return nil, err
		}
	}
	if w == 0 || h == 0 { // not drawn, but not an error
		return nil, nil
	}
	if w < 0 || h < 0 || rx < 0 || ry < 0 {
		return nil, errParamMismatch
	}
	if hasRx && !hasRy {
		ry = rx
	} else if hasRy && !hasRx {
		rx = ry
	}
	rx, ry = min(rx, w/2), min(ry, h/2)
	switch {
	case rx == 0 || ry == 0:
		return c.emitter.Rectangle(x, y, w, h)
	case rx == ry:
		return c.emitter.RoundedRectangle(x, y, w, h, rx)
	}
	// elliptical corners
	right, bottom := x+w, y+h
	return svgpath.ParseSVGPath(fmt.Sprintf(
		"M %g %g H %g A %g %g 0 0 1 %g %g V %g A %g %g 0 0 1 %g %g H %g A %g %g 0 0 1 %g %g V %g A %g %g 0 0 1 %g %g Z",
		x+rx, y, right-rx, rx, ry, right, y+ry,
		bottom-ry, rx, ry, right-rx, bottom,
		x+rx, rx, ry, x, bottom-ry,
		y+ry, rx, ry, x+rx, y))
}

func circleF(c *iconCursor, attrs []xml.Attr) (svgpath.Path, error) {
	var cx, cy, r float64
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "cx":
			cx, err = c.parseUnit(attr.Value, widthPercentage)
		case "cy":
			cy, err = c.parseUnit(attr.Value, heightPercentage)
		case "r":
			r, err = c.parseUnit(attr.Value, diagPercentage)
		}
		if err != nil {
			return nil, err
		}
	}
	if r == 0 { // not drawn, but not an error
		return nil, nil
	}
	return c.emitter.Circle(cx, cy, r)
}

func ellipseF(c *iconCursor, attrs []xml.Attr) (svgpath.Path, error) {
	var cx, cy, rx, ry float64
	var hasRx, hasRy bool
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "cx":
			cx, err = c.parseUnit(attr.Value, widthPercentage)
		case "cy":
			cy, err = c.parseUnit(attr.Value, heightPercentage)
		case "rx":
			hasRx = true
			rx, err = c.parseUnit(attr.Value, widthPercentage)
		case "ry":
			hasRy = true
			ry, err = c.parseUnit(attr.Value, heightPercentage)
		}
		if err != nil {
			return nil, err
		}
	}
	if hasRx && !hasRy {
		ry = rx
	} else if hasRy && !hasRx {
		rx = ry
	}
	if rx == 0 || ry == 0 {
		return nil, nil
	}
	return c.emitter.Ellipse(cx, cy, rx, ry)
}

func lineF(c *iconCursor, attrs []xml.Attr) (svgpath.Path, error) {
	var x1, x2, y1, y2 float64
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "x1":
			x1, err = c.parseUnit(attr.Value, widthPercentage)
		case "x2":
			x2, err = c.parseUnit(attr.Value, widthPercentage)
		case "y1":
			y1, err = c.parseUnit(attr.Value, heightPercentage)
		case "y2":
			y2, err = c.parseUnit(attr.Value, heightPercentage)
		}
		if err != nil {
			return nil, err
		}
	}
	var p svgpath.Path
	p.Start(x1, y1)
	p.Line(x2, y2)
	return p, nil
}

func polylineF(c *iconCursor, attrs []xml.Attr) (svgpath.Path, error) {
	points, err := parseNumbers(attrValue(attrs, "points"))
	if err != nil {
		return nil, err
	}
	if len(points)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of coordinates", ErrInvalidAttribute)
	}
	if len(points) < 4 {
		return nil, nil
	}
	var p svgpath.Path
	p.Start(points[0], points[1])
	for i := 2; i < len(points)-1; i += 2 {
		p.Line(points[i], points[i+1])
	}
	return p, nil
}

func polygonF(c *iconCursor, attrs []xml.Attr) (svgpath.Path, error) {
	p, err := polylineF(c, attrs)
	if len(p) != 0 {
		p.Stop(true)
	}
	return p, err
}

// pathF keeps the commands read before an error, as SVG renderers do.
func pathF(c *iconCursor, attrs []xml.Attr) (svgpath.Path, error) {
	d := attrValue(attrs, "d")
	if d == "" {
		return nil, nil
	}
	p, err := svgpath.ParseSVGPath(d)
	if err != nil {
		if err := c.handleError(fmt.Errorf("path element: %w", err)); err != nil {
			return nil, err
		}
	}
	if p.Validate() != nil {
		return nil, nil
	}
	return p, nil
}

func useF(c *iconCursor, attrs []xml.Attr) (svgpath.Path, error) {
	var (
		href string
		x, y float64
		err  error
	)
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "href":
			href = attr.Value
		case "x":
			x, err = c.parseUnit(attr.Value, widthPercentage)
		case "y":
			y, err = c.parseUnit(attr.Value, heightPercentage)
		}
		if err != nil {
			return nil, err
		}
	}
	if href == "" {
		return nil, fmt.Errorf("%w: only use tags with href are supported", ErrInvalidAttribute)
	}
	if !strings.HasPrefix(href, "#") {
		return nil, fmt.Errorf("%w: only the ID CSS selector is supported", ErrInvalidAttribute)
	}
	defs, ok := c.defs[href[1:]]
	if !ok {
		return nil, fmt.Errorf("%w: href %s was not found in saved defs", ErrInvalidAttribute, href)
	}
	if c.useDepth >= maxUseDepth {
		return nil, errUseRecursionReached
	}
	c.useDepth++
	height := len(c.styleStack)
	defer func() {
		c.useDepth--
		c.styleStack = c.styleStack[:height]
	}()

	top := c.top()
	top.transform = top.transform.Translate(x, y)
	for _, def := range defs {
		if def.Tag == endTag {
			c.popStyle()
			continue
		}
		if _, ok := drawFuncs[def.Tag]; !ok {
			if err := c.handleError(fmt.Errorf("%w: %s", ErrUnsupportedElement, def.Tag)); err != nil {
				return nil, err
			}
			continue
		}
		if err := c.pushStyle(def.Attrs); err != nil {
			return nil, err
		}
		if !c.top().hidden {
			if err := c.draw(def.Tag, def.Attrs); err != nil {
				return nil, err
			}
		}
		if !isContainer(def.Tag) {
			c.popStyle()
		}
	}
	return nil, nil
}
