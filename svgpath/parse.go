package svgpath

import (
	"errors"
	"fmt"
	"strconv"
)

var errParamMismatch = errors.New("svg path: parameter mismatch")

// pathCursor holds the state needed while compiling
// a `d` attribute into absolute commands.
type pathCursor struct {
	path            Path
	curX, curY      float64 // current point
	startX, startY  float64 // start of the current sub path
	ctrlX, ctrlY    float64 // last control point, for S and T
	lastCmd         byte
	hasCurrentPoint bool
	input           string
	pos             int
}

// ParseSVGPath compiles the `d` attribute of an SVG path element
// into the restricted command set: relative commands are made absolute,
// H and V become lines, S and T get their reflected control point
// and arcs are approximated by cubic Beziers.
func ParseSVGPath(d string) (Path, error) {
	c := pathCursor{input: d}
	if err := c.compile(); err != nil {
		return c.path, err
	}
	return c.path, nil
}

func isSeparator(b byte) bool {
	return b == ' ' || b == ',' || b == '\t' || b == '\n' || b == '\r' || b == '\f'
}

func isCommandLetter(b byte) bool {
	switch b {
	case 'M', 'm', 'L', 'l', 'H', 'h', 'V', 'v', 'C', 'c', 'S', 's',
		'Q', 'q', 'T', 't', 'A', 'a', 'Z', 'z':
		return true
	}
	return false
}

func (c *pathCursor) skipSeparators() {
	for c.pos < len(c.input) && isSeparator(c.input[c.pos]) {
		c.pos++
	}
}

// hasNumber reports if a number starts at the current position.
func (c *pathCursor) hasNumber() bool {
	c.skipSeparators()
	if c.pos >= len(c.input) {
		return false
	}
	b := c.input[c.pos]
	return b == '-' || b == '+' || b == '.' || (b >= '0' && b <= '9')
}

// number scans one float, accepting the compact forms "1.5.5" and "1-2".
func (c *pathCursor) number() (float64, error) {
	c.skipSeparators()
	start := c.pos
	s := c.input
	i := c.pos
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}
	seenDot, seenDigit := false, false
	for i < len(s) {
		b := s[i]
		if b >= '0' && b <= '9' {
			seenDigit = true
		} else if b == '.' && !seenDot {
			seenDot = true
		} else {
			break
		}
		i++
	}
	if seenDigit && i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '-' || s[j] == '+') {
			j++
		}
		if j < len(s) && s[j] >= '0' && s[j] <= '9' {
			for j < len(s) && s[j] >= '0' && s[j] <= '9' {
				j++
			}
			i = j
		}
	}
	if !seenDigit {
		return 0, fmt.Errorf("%w: expected number at offset %d", errParamMismatch, start)
	}
	c.pos = i
	return strconv.ParseFloat(s[start:i], 64)
}

// flag scans an arc flag, which may be written without separator.
func (c *pathCursor) flag() (bool, error) {
	c.skipSeparators()
	if c.pos < len(c.input) {
		switch c.input[c.pos] {
		case '0':
			c.pos++
			return false, nil
		case '1':
			c.pos++
			return true, nil
		}
	}
	return false, fmt.Errorf("%w: expected arc flag at offset %d", errParamMismatch, c.pos)
}

func (c *pathCursor) numbers(n int) ([]float64, error) {
	out := make([]float64, n)
	for i := range out {
		v, err := c.number()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (c *pathCursor) compile() error {
	var cmd byte
	for {
		c.skipSeparators()
		if c.pos >= len(c.input) {
			return nil
		}
		b := c.input[c.pos]
		if isCommandLetter(b) {
			cmd = b
			c.pos++
			if cmd == 'Z' || cmd == 'z' {
				c.closePath()
				continue
			}
		} else if cmd == 0 || cmd == 'Z' || cmd == 'z' {
			return fmt.Errorf("%w: unexpected %q at offset %d", errParamMismatch, b, c.pos)
		}
		// a command letter may be followed by several argument groups
		first := true
		for first || c.hasNumber() {
			if err := c.addSegment(cmd); err != nil {
				return err
			}
			first = false
			// implicit line-to after a move-to
			if cmd == 'M' {
				cmd = 'L'
			} else if cmd == 'm' {
				cmd = 'l'
			}
		}
	}
}

func (c *pathCursor) closePath() {
	if !c.hasCurrentPoint {
		return
	}
	c.path.Stop(true)
	c.curX, c.curY = c.startX, c.startY
	c.lastCmd = 'Z'
}

func (c *pathCursor) addSegment(cmd byte) error {
	relative := cmd >= 'a'
	var dx, dy float64
	if relative {
		dx, dy = c.curX, c.curY
	}
	upper := cmd
	if relative {
		upper = cmd - 'a' + 'A'
	}
	if upper != 'M' && !c.hasCurrentPoint {
		// SVG allows omitting the initial move: start at the origin
		c.path.Start(0, 0)
		c.hasCurrentPoint = true
	}
	switch upper {
	case 'M':
		p, err := c.numbers(2)
		if err != nil {
			return err
		}
		c.curX, c.curY = p[0]+dx, p[1]+dy
		c.startX, c.startY = c.curX, c.curY
		c.path.Start(c.curX, c.curY)
		c.hasCurrentPoint = true
	case 'L':
		p, err := c.numbers(2)
		if err != nil {
			return err
		}
		c.curX, c.curY = p[0]+dx, p[1]+dy
		c.path.Line(c.curX, c.curY)
	case 'H':
		v, err := c.number()
		if err != nil {
			return err
		}
		c.curX = v + dx
		c.path.Line(c.curX, c.curY)
	case 'V':
		v, err := c.number()
		if err != nil {
			return err
		}
		c.curY = v + dy
		c.path.Line(c.curX, c.curY)
	case 'C':
		p, err := c.numbers(6)
		if err != nil {
			return err
		}
		c.cubic(p[0]+dx, p[1]+dy, p[2]+dx, p[3]+dy, p[4]+dx, p[5]+dy)
	case 'S':
		p, err := c.numbers(4)
		if err != nil {
			return err
		}
		c1x, c1y := c.curX, c.curY
		if c.lastCmd == 'C' {
			c1x, c1y = 2*c.curX-c.ctrlX, 2*c.curY-c.ctrlY
		}
		c.cubic(c1x, c1y, p[0]+dx, p[1]+dy, p[2]+dx, p[3]+dy)
	case 'Q':
		p, err := c.numbers(4)
		if err != nil {
			return err
		}
		c.quad(p[0]+dx, p[1]+dy, p[2]+dx, p[3]+dy)
	case 'T':
		p, err := c.numbers(2)
		if err != nil {
			return err
		}
		qx, qy := c.curX, c.curY
		if c.lastCmd == 'Q' {
			qx, qy = 2*c.curX-c.ctrlX, 2*c.curY-c.ctrlY
		}
		c.quad(qx, qy, p[0]+dx, p[1]+dy)
	case 'A':
		radii, err := c.numbers(3)
		if err != nil {
			return err
		}
		largeArc, err := c.flag()
		if err != nil {
			return err
		}
		sweep, err := c.flag()
		if err != nil {
			return err
		}
		end, err := c.numbers(2)
		if err != nil {
			return err
		}
		x, y := end[0]+dx, end[1]+dy
		c.path.arcTo(c.curX, c.curY, radii[0], radii[1], radii[2], largeArc, sweep, x, y)
		c.curX, c.curY = x, y
	}
	if upper != 'C' && upper != 'S' && upper != 'Q' && upper != 'T' {
		c.lastCmd = upper
	}
	return nil
}

func (c *pathCursor) cubic(c1x, c1y, c2x, c2y, x, y float64) {
	c.path.CubeBezier(c1x, c1y, c2x, c2y, x, y)
	c.ctrlX, c.ctrlY = c2x, c2y
	c.curX, c.curY = x, y
	c.lastCmd = 'C'
}

func (c *pathCursor) quad(qx, qy, x, y float64) {
	c.path.QuadBezier(qx, qy, x, y)
	c.ctrlX, c.ctrlY = qx, qy
	c.curX, c.curY = x, y
	c.lastCmd = 'Q'
}
