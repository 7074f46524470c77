package svgpath

import (
	"fmt"
	"strconv"

	"github.com/golang/geo/r2"
)

// svg-path:
//     wsp* moveto-drawto-command-groups? wsp*
// moveto-drawto-command-groups:
//     moveto-drawto-command-group
//     | moveto-drawto-command-group wsp* moveto-drawto-command-groups
// moveto-drawto-command-group:
//     moveto wsp* drawto-commands?
// drawto-command:
//     closepath | lineto | horizontal-lineto | vertical-lineto | curveto
//     | smooth-curveto | quadratic-bezier-curveto
//     | smooth-quadratic-bezier-curveto | elliptical-arc
// moveto:
//     ( "M" | "m" ) wsp* coordinate-pair (comma-wsp? coordinate-pair)*
// lineto:
//     ( "L" | "l" ) wsp* coordinate-pair (comma-wsp? coordinate-pair)*
// horizontal-lineto:
//     ( "H" | "h" ) wsp* coordinate (comma-wsp? coordinate)*
// vertical-lineto:
//     ( "V" | "v" ) wsp* coordinate (comma-wsp? coordinate)*
// curveto:
//     ( "C" | "c" ) wsp* curveto-argument (comma-wsp? curveto-argument)*
// curveto-argument:
//     coordinate-pair comma-wsp? coordinate-pair comma-wsp? coordinate-pair
// smooth-curveto, quadratic-bezier-curveto:
//     ( "S" | "s" | "Q" | "q" ) wsp* (coordinate-pair comma-wsp? coordinate-pair)+
// smooth-quadratic-bezier-curveto:
//     ( "T" | "t" ) wsp* coordinate-pair (comma-wsp? coordinate-pair)*
// elliptical-arc-argument:
//     nonnegative-number comma-wsp? nonnegative-number comma-wsp?
//         number comma-wsp flag comma-wsp? flag comma-wsp? coordinate-pair
// coordinate-pair:
//     coordinate comma-wsp? coordinate
// number:
//     sign? integer-constant
//     | sign? floating-point-constant
// flag:
//     "0" | "1"
// comma-wsp:
//     (wsp+ comma? wsp*) | (comma wsp*)
// wsp:
//     (#x20 | #x9 | #xD | #xA)
//
// Curves and arcs are not sampled: only their end point is kept, joined to
// the previous point by a straight edge. Control points and arc radii are
// read and dropped.

// Outline is the straight-line approximation of a path: points and the
// 2-point edges between them. Subpaths share the vertex list but are not
// connected to each other.
type Outline struct {
	Vertices []r2.Point
	Edges    [][2]int
}

// PathSyntaxError reports a malformed path, with how far parsing went.
type PathSyntaxError struct {
	Index    int
	Vertices int
	Edges    int
	Err      error
}

func (e *PathSyntaxError) Error() string {
	return fmt.Sprintf("path syntax error at index %d (%d vertices, %d edges read): %s",
		e.Index, e.Vertices, e.Edges, e.Err)
}

func (e *PathSyntaxError) Unwrap() error {
	return e.Err
}

type state struct {
	data     string
	index    int
	outline  *Outline
	start    int // first vertex of the current subpath
	current  int // vertex of the current point
	currentX float64
	currentY float64
	relative bool
}

func (s *state) parse() error {
	for {
		s.whitespace()

		c := s.peek()
		if c != 'M' && c != 'm' {
			break
		}

		err := s.parseMoveTo()
		if err != nil {
			return err
		}
		s.whitespace()
		err = s.parseDrawToCommands()
		if err != nil {
			return err
		}
	}

	s.whitespace()

	if s.index != len(s.data) {
		return fmt.Errorf("unparsed data: %q", s.data[s.index:])
	}

	return nil
}

// moveTo starts a new subpath without connecting it to the previous one.
func (s *state) moveTo(x, y float64) {
	s.outline.Vertices = append(s.outline.Vertices, r2.Point{X: x, Y: y})
	s.start = len(s.outline.Vertices) - 1
	s.current = s.start
	s.currentX, s.currentY = x, y
}

// lineTo adds a point connected to the current one.
func (s *state) lineTo(x, y float64) {
	s.outline.Vertices = append(s.outline.Vertices, r2.Point{X: x, Y: y})
	n := len(s.outline.Vertices) - 1
	if s.current >= 0 {
		s.outline.Edges = append(s.outline.Edges, [2]int{s.current, n})
	}
	s.current = n
	s.currentX, s.currentY = x, y
}

// absolute resolves a relative coordinate pair against the current point.
func (s *state) absolute(x, y float64) (float64, float64) {
	if s.relative {
		return x + s.currentX, y + s.currentY
	}
	return x, y
}

func (s *state) parseMoveTo() error {
	command := s.peek()
	if command != 'M' && command != 'm' {
		return fmt.Errorf("expected \"M\" or \"m\", got %q", string(command))
	}
	s.next()
	s.relative = command == 'm'
	s.whitespace()

	x, y, err := s.parseCoordinatePair()
	if err != nil {
		return err
	}
	// the first "m" of a path is relative to the origin, which is also
	// where currentX, currentY start
	s.moveTo(s.absolute(x, y))

	// Pairs following a Move To are implicit Line To commands.
	for {
		savedIndex := s.index
		s.commaWhitespace()
		x, y, err := s.parseCoordinatePair()
		if err != nil {
			// backtrack.
			s.index = savedIndex
			break
		}
		s.lineTo(s.absolute(x, y))
	}

	return nil
}

func (s *state) parseDrawToCommands() error {
	first := true
	for {
		if !first {
			s.whitespace()
		}
		first = false

		var err error

		switch s.peek() {
		case 'L', 'l', 'T', 't':
			err = s.parseCurveTo(1)
		case 'H', 'h':
			err = s.parseHorizontalLineTo()
		case 'V', 'v':
			err = s.parseVerticalLineTo()
		case 'C', 'c':
			err = s.parseCurveTo(3)
		case 'S', 's', 'Q', 'q':
			err = s.parseCurveTo(2)
		case 'A', 'a':
			err = s.parseArc()
		case 'Z', 'z':
			err = s.parseClosePath()
		default:
			return nil
		}

		if err != nil {
			return err
		}
	}
}

func (s *state) parseClosePath() error {
	c := s.next()
	if c != 'Z' && c != 'z' {
		return fmt.Errorf("expecting \"Z\" or \"z\", got %q", string(c))
	}
	// a loop needs at least 3 points
	if len(s.outline.Vertices)-s.start >= 3 {
		s.outline.Edges = append(s.outline.Edges, [2]int{s.current, s.start})
	}
	s.current = s.start
	first := s.outline.Vertices[s.start]
	s.currentX, s.currentY = first.X, first.Y
	return nil
}

// arguments runs parse repeatedly, separated by optional comma-wsp. The
// first occurrence is required; a later one that does not start with a
// number ends the sequence.
func (s *state) arguments(parse func() error) error {
	first := true
	for {
		oldIndex := s.index
		if !first {
			s.commaWhitespace()
			if !s.startsNumber() {
				s.index = oldIndex
				return nil
			}
		}
		if err := parse(); err != nil {
			return err
		}
		first = false
	}
}

// parseCurveTo reads lineto, curveto and their smooth and quadratic forms,
// which differ only by the number of coordinate pairs per segment. The last
// pair is the end point; the others are control points.
func (s *state) parseCurveTo(pairs int) error {
	c := s.next()
	s.relative = 'a' <= c && c <= 'z'
	s.whitespace()

	return s.arguments(func() error {
		var x, y float64
		for i := 0; i < pairs; i++ {
			if i > 0 {
				s.commaWhitespace()
			}
			var err error
			x, y, err = s.parseCoordinatePair()
			if err != nil {
				return err
			}
		}
		s.lineTo(s.absolute(x, y))
		return nil
	})
}

func (s *state) parseHorizontalLineTo() error {
	c := s.next()
	if c != 'H' && c != 'h' {
		return fmt.Errorf("expecting \"H\" or \"h\", got %q", string(c))
	}
	s.relative = c == 'h'
	s.whitespace()

	return s.arguments(func() error {
		x, err := s.parseNumber()
		if err != nil {
			return err
		}
		if s.relative {
			x += s.currentX
		}
		s.lineTo(x, s.currentY)
		return nil
	})
}

func (s *state) parseVerticalLineTo() error {
	c := s.next()
	if c != 'V' && c != 'v' {
		return fmt.Errorf("expecting \"V\" or \"v\", got %q", string(c))
	}
	s.relative = c == 'v'
	s.whitespace()

	return s.arguments(func() error {
		y, err := s.parseNumber()
		if err != nil {
			return err
		}
		if s.relative {
			y += s.currentY
		}
		s.lineTo(s.currentX, y)
		return nil
	})
}

func (s *state) parseArc() error {
	c := s.next()
	if c != 'A' && c != 'a' {
		return fmt.Errorf("expecting \"A\" or \"a\", got %q", string(c))
	}
	s.relative = c == 'a'
	s.whitespace()

	return s.arguments(func() error {
		// rx ry x-axis-rotation
		for i := 0; i < 3; i++ {
			if i > 0 {
				s.commaWhitespace()
			}
			if _, err := s.parseNumber(); err != nil {
				return err
			}
		}
		// large-arc-flag sweep-flag
		for i := 0; i < 2; i++ {
			s.commaWhitespace()
			if err := s.parseFlag(); err != nil {
				return err
			}
		}
		s.commaWhitespace()
		x, y, err := s.parseCoordinatePair()
		if err != nil {
			return err
		}
		s.lineTo(s.absolute(x, y))
		return nil
	})
}

func (s *state) parseFlag() error {
	if c := s.peek(); c != '0' && c != '1' {
		return fmt.Errorf("expected flag \"0\" or \"1\", got %q", string(c))
	}
	s.next()
	return nil
}

// startsNumber reports whether the next byte can start a number.
func (s *state) startsNumber() bool {
	c := s.peek()
	return c == '+' || c == '-' || c == '.' || ('0' <= c && c <= '9')
}

// parseCoordinatePair parses "coordinate comma-wsp? coordinate"
func (s *state) parseCoordinatePair() (float64, float64, error) {
	x, err := s.parseNumber()
	if err != nil {
		return 0, 0, err
	}
	s.commaWhitespace()
	y, err := s.parseNumber()
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func (s *state) parseNumber() (float64, error) {
	c := s.peek()
	if c == '+' || c == '-' {
		s.next()
		n, err := s.parseNonNegativeNumber()
		if c == '-' {
			n = -n
		}
		return n, err
	}
	return s.parseNonNegativeNumber()
}

func (s *state) parseNonNegativeNumber() (float64, error) {
	// nonnegative-number:
	//     (digit-sequence | fractional-constant) exponent?
	// fractional-constant:
	//     digit-sequence? "." digit-sequence
	//     | digit-sequence "."
	// exponent:
	//     ( "e" | "E" ) sign? digit-sequence

	start := s.index
	number := s.digitSequence()
	if number == "" {
		if c := s.peek(); c != '.' {
			return 0, fmt.Errorf("expected a number, got %q", string(c))
		}
		s.next()
		number = "." + s.digitSequence()
		if number == "." {
			s.index = start
			return 0, fmt.Errorf("expected a number, got only a \".\"")
		}
	} else if s.peek() == '.' {
		s.next()
		number += "." + s.digitSequence()
	}

	c := s.peek()
	if c == 'E' || c == 'e' {
		s.next()
		sign := ""
		c = s.peek()
		if c == '+' || c == '-' {
			s.next()
			sign = string(c)
		}
		exponent := s.digitSequence()
		if exponent == "" {
			return 0, fmt.Errorf("expected an exponent, got %q", string(c))
		}
		number += "E" + sign + exponent
	}

	return strconv.ParseFloat(number, 64)
}

func (s *state) digitSequence() string {
	start := s.index
	for {
		c := s.peek()
		if c < '0' || c > '9' {
			break
		}
		s.next()
	}
	return s.data[start:s.index]
}

// whitespace consumes "wsp*", and returns the number of bytes consumed
func (s *state) whitespace() int {
	count := 0
	for {
		switch s.peek() {
		case ' ', '\t', '\n', '\r':
			s.next()
			count++
		default:
			return count
		}
	}
}

// commaWhitespace consumes an optional "(wsp+ comma? wsp*) | (comma wsp*)",
// and returns true if something was consumed
func (s *state) commaWhitespace() bool {
	if s.peek() == ',' {
		s.next()
		s.whitespace()
		return true
	}

	consumed := s.whitespace()
	if consumed > 0 {
		if s.peek() == ',' {
			s.next()
		}
		s.whitespace()
		return true
	}

	return false
}

// peek returns the next byte without consuming it, or 0 if at the end of stream
func (s *state) peek() byte {
	if s.index < len(s.data) {
		return s.data[s.index]
	}
	return 0
}

// next consumes and returns the next byte, or 0 if at the end of stream
func (s *state) next() byte {
	if s.index < len(s.data) {
		i := s.index
		s.index++
		return s.data[i]
	}
	return 0
}

// Parse reads a path description into an outline. On a syntax error the
// outline read so far is returned along with a *PathSyntaxError.
func Parse(path string) (*Outline, error) {
	s := &state{
		data:    path,
		outline: &Outline{},
		start:   -1,
		current: -1,
	}
	if err := s.parse(); err != nil {
		return s.outline, &PathSyntaxError{
			Index:    s.index,
			Vertices: len(s.outline.Vertices),
			Edges:    len(s.outline.Edges),
			Err:      err,
		}
	}
	return s.outline, nil
}

type Function struct {
	Name string
	Args []float64
}

func (s *state) parseFunctions() ([]*Function, error) {
	var functions []*Function
	// (wsp* identifier wsp* "(" wsp* number (comma-wsp number)* wsp* ")" wsp*)*
	for {
		function := &Function{}
		functions = append(functions, function)

		// identifier
		s.whitespace()
		c := s.next()
		if !(('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')) {
			return functions, fmt.Errorf("identifier must start with a letter, got %q", string(c))
		}
		function.Name += string(c)
		for {
			c := s.peek()
			if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') ||
				('0' <= c && c <= '9') || (c == '_') || (c == '-') {
				function.Name += string(s.next())
			} else {
				break
			}
		}

		s.whitespace()
		c = s.next()
		if c != '(' {
			return functions, fmt.Errorf("expected \"(\", got %q", string(c))
		}

		// First argument (optional)
		s.whitespace()
		oldIndex := s.index
		n, err := s.parseNumber()
		if err != nil {
			s.index = oldIndex
		} else {
			function.Args = append(function.Args, n)
			for {
				oldIndex = s.index
				s.commaWhitespace()
				n, err = s.parseNumber()
				if err != nil {
					s.index = oldIndex
					break
				}
				function.Args = append(function.Args, n)
			}
		}

		s.whitespace()
		c = s.next()
		if c != ')' {
			return functions, fmt.Errorf("expected \")\", got %q", string(c))
		}
		s.whitespace()

		// functions may also be separated by commas
		if s.peek() == ',' {
			s.next()
		}

		if s.peek() == 0 {
			return functions, nil
		}
	}
}

// ParseFunctions parses a list of "name(args...)" calls, as found in
// transform attributes.
func ParseFunctions(functions string) ([]*Function, error) {
	s := &state{
		data:  functions,
		index: 0,
	}
	return s.parseFunctions()
}
