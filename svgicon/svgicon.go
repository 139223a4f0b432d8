// Provides parsing of SVG images into layout ready paths.
// SVG files are parsed into an abstract representation,
// which can then be placed in a layer of a layout document.
package svgicon

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/benoitkugler/svglayout/svgdoc"
	"github.com/benoitkugler/svglayout/svglayout"
	"github.com/benoitkugler/svglayout/svgpath"
	"github.com/srwiley/rasterx"
	"golang.org/x/net/html/charset"
)

var (
	ErrInvalidIcon         = errors.New("invalid svg xml icon")
	ErrUnsupportedElement  = errors.New("unsupported svg element")
	ErrInvalidAttribute    = errors.New("invalid svg attribute")
	errParamMismatch       = fmt.Errorf("%w: parameter mismatch", ErrInvalidAttribute)
	errUseRecursionReached = errors.New("use elements nested too deeply")
)

// Path binds a style to a path, in the user
// coordinates of the icon.
type Path struct {
	ID    string
	Path  svgpath.Path
	Style svgdoc.Style
}

// Icon holds data from parsed SVGs.
// See the `Layer` method to use it.
type Icon struct {
	ViewBox       svgpath.Rect
	Width, Height float64 // top level attributes, 0 when missing
	Titles        []string
	Descriptions  []string
	Paths         []Path
	// Warnings lists what has been ignored in Lenient mode.
	Warnings []string
}

// ReadIcon reads the Icon from the given io.Reader.
// This only supports a sub-set of SVG, but
// is enough to draw many icons. In Strict mode an element
// or attribute which is not handled is an error, whereas
// in Lenient mode it is skipped with a warning.
func ReadIcon(stream io.Reader, mode svglayout.Strictness) (*Icon, error) {
	icon := &Icon{ViewBox: svgpath.EmptyRect()}
	cursor := newCursor(icon, mode)
	decoder := xml.NewDecoder(stream)
	decoder.CharsetReader = charset.NewReaderLabel
	cursor.decoder = decoder
	seenTag := false
	for {
		t, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return icon, err
		}
		// Inspect the type of the XML token
		switch se := t.(type) {
		case xml.StartElement:
			seenTag = true
			if err := cursor.startElement(se); err != nil {
				return icon, err
			}
		case xml.EndElement:
			cursor.endElement(se)
		case xml.CharData:
			cursor.charData(se)
		}
	}
	if !seenTag {
		return nil, ErrInvalidIcon
	}
	if icon.ViewBox.IsEmpty() {
		icon.ViewBox = icon.extent()
	}
	return icon, nil
}

// ReadIconFile reads the Icon from the named file.
func ReadIconFile(iconFile string, mode svglayout.Strictness) (*Icon, error) {
	fin, err := os.Open(iconFile)
	if err != nil {
		return nil, err
	}
	defer fin.Close()
	return ReadIcon(fin, mode)
}

// extent is the union of the bounds of every path.
func (icon *Icon) extent() svgpath.Rect {
	r := svgpath.EmptyRect()
	for _, p := range icon.Paths {
		r = r.Union(p.Path.TightBounds())
	}
	return r
}

// Layer fits the icon in a width x height box, aspect ratio preserved,
// and returns it as a layer whose paths start at the origin, ready to
// be positioned by a layout.
// The stroke widths follow the scaling.
func (icon *Icon) Layer(id string, resolver *svglayout.Resolver, width, height float64) (svgdoc.UnifiedLayer, error) {
	layer := svgdoc.UnifiedLayer{ID: id}
	if len(icon.Titles) != 0 {
		layer.Label = icon.Titles[0]
	}
	if len(icon.Paths) == 0 {
		return layer, fmt.Errorf("%w: icon has no path", svglayout.ErrDegenerateBounds)
	}

	// the paths are scaled together, as one path
	var all svgpath.Path
	for _, p := range icon.Paths {
		all = append(all, p.Path...)
	}
	box := all.Bounds()
	all = all.Transform(rasterx.Identity.Translate(-box.MinX, -box.MinY))
	fitted, err := resolver.ScaleToFit(all, width, height, true, svglayout.FitOptions{})
	if err != nil {
		return layer, err
	}
	scale := fitted.Bounds().Width() / box.Width()
	if !(box.Width() > 0) {
		scale = fitted.Bounds().Height() / box.Height()
	}
	fitted.Round(svgpath.DefaultPrecision)

	start := 0
	for i, p := range icon.Paths {
		end := start + len(p.Path)
		up := svgdoc.UnifiedPath{
			ID:       p.ID,
			Style:    p.Style,
			Commands: fitted[start:end:end],
		}
		start = end
		if up.ID == "" {
			up.ID = fmt.Sprintf("%s-%d", id, i)
		}
		if w := up.Style.StrokeWidth; w != nil {
			sw := svgpath.Round(*w*scale, svgpath.DefaultPrecision)
			up.Style.StrokeWidth = &sw
		}
		layer.Paths = append(layer.Paths, up)
	}
	return layer, nil
}
