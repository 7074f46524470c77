package svgpath

import (
	"errors"
	"fmt"
	"math"
)

// ErrSingularMatrix is returned when inverting a matrix with a null
// determinant.
var ErrSingularMatrix = errors.New("singular matrix")

// Matrix is a 2D affine transform:
//
//	⎡ A  C  E ⎤
//	⎢ B  D  F ⎥
//	⎣ 0  0  1 ⎦
type Matrix struct {
	A float64
	B float64
	C float64
	D float64
	E float64
	F float64
}

var Identity = Matrix{
	A: 1, C: 0, E: 0,
	B: 0, D: 1, F: 0,
}

// ParseTransform parses a transform attribute and composes it after
// previous. Operations apply left to right, each one in the space already
// transformed by the ones before it.
func ParseTransform(transform string, previous Matrix) (Matrix, error) {
	m := previous

	if transform == "" {
		return m, nil
	}

	functions, err := ParseFunctions(transform)
	if err != nil {
		return m, fmt.Errorf("failed to parse transform %q: %w", transform, err)
	}

	for _, function := range functions {
		op, err := transformFunction(function)
		if err != nil {
			return m, err
		}
		m = m.Multiply(op)
	}

	return m, nil
}

func transformFunction(function *Function) (Matrix, error) {
	args := function.Args
	switch function.Name {
	case "matrix":
		if len(args) != 6 {
			return Identity, fmt.Errorf("6 args required for matrix transform, got %v", args)
		}
		return Matrix{
			A: args[0], C: args[2], E: args[4],
			B: args[1], D: args[3], F: args[5],
		}, nil
	case "translate":
		if len(args) != 2 && len(args) != 1 {
			return Identity, fmt.Errorf("1 or 2 args required for translate transform, got %v", args)
		}
		x := args[0]
		y := 0.0
		if len(args) == 2 {
			y = args[1]
		}
		return Matrix{
			A: 1, C: 0, E: x,
			B: 0, D: 1, F: y,
		}, nil
	case "scale":
		if len(args) != 2 && len(args) != 1 {
			return Identity, fmt.Errorf("1 or 2 args required for scale transform, got %v", args)
		}
		x := args[0]
		y := x
		if len(args) == 2 {
			y = args[1]
		}
		return Matrix{
			A: x, C: 0, E: 0,
			B: 0, D: y, F: 0,
		}, nil
	case "rotate":
		//  ⎡ cos(θ)  −sin(θ)  −x⋅cos(θ)+y⋅sin(θ)+x ⎤
		//  ⎢ sin(θ)   cos(θ)  −x⋅sin(θ)−y⋅cos(θ)+y |
		//  ⎣   0        0               1          ⎦
		if len(args) != 1 && len(args) != 3 {
			return Identity, fmt.Errorf("1 or 3 args required for rotate transform, got %v", args)
		}
		cos := math.Cos(args[0] * math.Pi / 180)
		sin := math.Sin(args[0] * math.Pi / 180)
		x, y := 0.0, 0.0
		if len(args) == 3 {
			x, y = args[1], args[2]
		}
		return Matrix{
			A: cos, C: -sin, E: -x*cos + y*sin + x,
			B: sin, D: cos, F: -x*sin - y*cos + y,
		}, nil
	case "skewX":
		if len(args) != 1 {
			return Identity, fmt.Errorf("1 arg required for skewX transform, got %v", args)
		}
		return Matrix{
			A: 1, C: math.Tan(args[0] * math.Pi / 180), E: 0,
			B: 0, D: 1, F: 0,
		}, nil
	case "skewY":
		if len(args) != 1 {
			return Identity, fmt.Errorf("1 arg required for skewY transform, got %v", args)
		}
		return Matrix{
			A: 1, C: 0, E: 0,
			B: math.Tan(args[0] * math.Pi / 180), D: 1, F: 0,
		}, nil
	}
	return Identity, fmt.Errorf("unknown transform function %q %v", function.Name, args)
}

// Multiply returns m × other: other is applied first.
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		A: m.A*other.A + m.C*other.B,
		B: m.B*other.A + m.D*other.B,
		C: m.A*other.C + m.C*other.D,
		D: m.B*other.C + m.D*other.D,
		E: m.A*other.E + m.C*other.F + m.E,
		F: m.B*other.E + m.D*other.F + m.F,
	}
}

// Compose is the standard matrix product outer × inner.
func Compose(outer, inner Matrix) Matrix {
	return outer.Multiply(inner)
}

// Determinant of the linear part.
func (m Matrix) Determinant() float64 {
	return m.A*m.D - m.B*m.C
}

// Invert returns the inverse transform, or ErrSingularMatrix.
func (m Matrix) Invert() (Matrix, error) {
	det := m.Determinant()
	if math.Abs(det) < 1e-12 {
		return Matrix{}, ErrSingularMatrix
	}
	return Matrix{
		A: m.D / det,
		B: -m.B / det,
		C: -m.C / det,
		D: m.A / det,
		E: (m.C*m.F - m.D*m.E) / det,
		F: (m.B*m.E - m.A*m.F) / det,
	}, nil
}

func (m Matrix) transformX(x, y float64) float64 {
	return m.A*x + m.C*y + m.E
}

func (m Matrix) transformY(x, y float64) float64 {
	return m.B*x + m.D*y + m.F
}

func (m Matrix) TransformPoint(x, y float64) (float64, float64) {
	return m.transformX(x, y), m.transformY(x, y)
}

// TransformVector applies the linear part only.
func (m Matrix) TransformVector(x, y float64) (float64, float64) {
	return m.A*x + m.C*y, m.B*x + m.D*y
}

// UniformScale is the mean length of the transformed unit X and Y vectors.
func (m Matrix) UniformScale() float64 {
	return (math.Hypot(m.A, m.B) + math.Hypot(m.C, m.D)) / 2
}
