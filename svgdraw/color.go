package svgdraw

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

var ErrInvalidColor = errors.New("invalid color")

// ParseColor parses an SVG paint value: "none", "#rgb", "#rrggbb",
// "rgb(r, g, b)" with integer or percent channels, and the SVG 1.1 color
// names. A nil color with a nil error means the paint is disabled, which
// is not the same as black.
func ParseColor(s string) (color.Color, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "none", "transparent":
		return nil, nil
	case "":
		return nil, fmt.Errorf("%w: empty value", ErrInvalidColor)
	}
	if cn, ok := colornames.Map[v]; ok {
		return color.NRGBA{R: cn.R, G: cn.G, B: cn.B, A: cn.A}, nil
	}
	if inner, ok := strings.CutPrefix(v, "rgb("); ok {
		inner, ok = strings.CutSuffix(inner, ")")
		vals := strings.Split(inner, ",")
		if !ok || len(vals) != 3 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		var channels [3]uint8
		for i, val := range vals {
			c, err := parseChannel(val)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", ErrInvalidColor, s)
			}
			channels[i] = c
		}
		return color.NRGBA{R: channels[0], G: channels[1], B: channels[2], A: 0xff}, nil
	}
	if hex, ok := strings.CutPrefix(v, "#"); ok {
		r, g, b, err := parseHex(hex)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidColor, s)
}

// parseHex reads rrggbb, or rgb with every digit doubled.
func parseHex(hex string) (r, g, b uint8, err error) {
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
	default:
		return 0, 0, 0, ErrInvalidColor
	}
	for i, c := range []*uint8{&r, &g, &b} {
		t, err := strconv.ParseUint(hex[2*i:2*i+2], 16, 8)
		if err != nil {
			return 0, 0, 0, err
		}
		*c = uint8(t)
	}
	return r, g, b, nil
}

func parseChannel(v string) (uint8, error) {
	v = strings.TrimSpace(v)
	if pct, ok := strings.CutSuffix(v, "%"); ok {
		n, err := strconv.ParseFloat(strings.TrimSpace(pct), 64)
		if err != nil {
			return 0, err
		}
		return uint8(min(max(n, 0), 100) * 0xff / 100), nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	return uint8(min(max(n, 0), 255)), nil
}
