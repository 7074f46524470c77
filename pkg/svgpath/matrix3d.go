package svgpath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// Matrix3D is a 3D affine transform, stored as the top 3 rows of a 4x4
// matrix. It rides along the 2D Matrix for elements placed in 3D
// ("transform_3d" attributes) and is applied after 2D placement.
type Matrix3D [3][4]float64

var Identity3D = Matrix3D{
	{1, 0, 0, 0},
	{0, 1, 0, 0},
	{0, 0, 1, 0},
}

// Translation3D returns a pure translation.
func Translation3D(x, y, z float64) Matrix3D {
	m := Identity3D
	m[0][3], m[1][3], m[2][3] = x, y, z
	return m
}

// Embed lifts a 2D transform into 3D, leaving Z untouched.
func Embed(m Matrix) Matrix3D {
	return Matrix3D{
		{m.A, m.C, 0, m.E},
		{m.B, m.D, 0, m.F},
		{0, 0, 1, 0},
	}
}

// Multiply returns m × other: other is applied first.
func (m Matrix3D) Multiply(other Matrix3D) Matrix3D {
	var r Matrix3D
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			v := 0.0
			for k := 0; k < 3; k++ {
				v += m[i][k] * other[k][j]
			}
			if j == 3 {
				v += m[i][3]
			}
			r[i][j] = v
		}
	}
	return r
}

func (m Matrix3D) TransformPoint(p r3.Vector) r3.Vector {
	return r3.Vector{
		X: m[0][0]*p.X + m[0][1]*p.Y + m[0][2]*p.Z + m[0][3],
		Y: m[1][0]*p.X + m[1][1]*p.Y + m[1][2]*p.Z + m[1][3],
		Z: m[2][0]*p.X + m[2][1]*p.Y + m[2][2]*p.Z + m[2][3],
	}
}

// TransformVector applies the linear part only.
func (m Matrix3D) TransformVector(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// Invert returns the inverse transform, or ErrSingularMatrix.
func (m Matrix3D) Invert() (Matrix3D, error) {
	a, b, c := m[0][0], m[0][1], m[0][2]
	d, e, f := m[1][0], m[1][1], m[1][2]
	g, h, i := m[2][0], m[2][1], m[2][2]
	det := a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
	if math.Abs(det) < 1e-12 {
		return Matrix3D{}, ErrSingularMatrix
	}
	var r Matrix3D
	r[0][0] = (e*i - f*h) / det
	r[0][1] = (c*h - b*i) / det
	r[0][2] = (b*f - c*e) / det
	r[1][0] = (f*g - d*i) / det
	r[1][1] = (a*i - c*g) / det
	r[1][2] = (c*d - a*f) / det
	r[2][0] = (d*h - e*g) / det
	r[2][1] = (b*g - a*h) / det
	r[2][2] = (a*e - b*d) / det
	t := r.TransformVector(r3.Vector{X: m[0][3], Y: m[1][3], Z: m[2][3]})
	r[0][3], r[1][3], r[2][3] = -t.X, -t.Y, -t.Z
	return r, nil
}

// AxisRotation3D rotates by angle radians around axis, through the origin.
func AxisRotation3D(axis r3.Vector, angle float64) Matrix3D {
	u := axis.Normalize()
	c, s := math.Cos(angle), math.Sin(angle)
	t := 1 - c
	return Matrix3D{
		{t*u.X*u.X + c, t*u.X*u.Y - s*u.Z, t*u.X*u.Z + s*u.Y, 0},
		{t*u.X*u.Y + s*u.Z, t*u.Y*u.Y + c, t*u.Y*u.Z - s*u.X, 0},
		{t*u.X*u.Z - s*u.Y, t*u.Y*u.Z + s*u.X, t*u.Z*u.Z + c, 0},
	}
}

// about conjugates m by a translation to c, so that c is a fixed point.
func about(m Matrix3D, c r3.Vector) Matrix3D {
	return Translation3D(c.X, c.Y, c.Z).Multiply(m).Multiply(Translation3D(-c.X, -c.Y, -c.Z))
}

// ParseTransform3D parses a transform_3d attribute and composes it after
// previous. center is the default rotation center (usually the 2D bounding
// box center of the element) used by rotate, quaternion and center.
//
// Functions: translate(x[,y[,z]]), scale(s | x,y[,z]),
// rotate(ax,ay,az[,cx,cy,cz]) in degrees (X then Y then Z axes), matrix or
// matrix4 (12 or 16 column-major values), center / center4, and
// quaternion(x,y,z,deg).
func ParseTransform3D(transform string, previous Matrix3D, center r3.Vector) (Matrix3D, error) {
	m := previous
	if transform == "" {
		return m, nil
	}
	functions, err := ParseFunctions(transform)
	if err != nil {
		return m, fmt.Errorf("failed to parse 3D transform %q: %w", transform, err)
	}
	for _, function := range functions {
		args := function.Args
		op := Identity3D
		switch function.Name {
		case "translate":
			if len(args) < 1 || len(args) > 3 {
				return m, fmt.Errorf("1 to 3 args required for translate, got %v", args)
			}
			v := [3]float64{}
			copy(v[:], args)
			op = Translation3D(v[0], v[1], v[2])
		case "scale":
			if len(args) < 1 || len(args) > 3 {
				return m, fmt.Errorf("1 to 3 args required for scale, got %v", args)
			}
			sx, sy, sz := args[0], args[0], args[0]
			if len(args) > 1 {
				sy = args[1]
			}
			if len(args) > 2 {
				sz = args[2]
			}
			op[0][0], op[1][1], op[2][2] = sx, sy, sz
		case "rotate":
			if len(args) != 3 && len(args) != 6 {
				return m, fmt.Errorf("3 or 6 args required for 3D rotate, got %v", args)
			}
			rx := AxisRotation3D(r3.Vector{X: 1}, args[0]*math.Pi/180)
			ry := AxisRotation3D(r3.Vector{Y: 1}, args[1]*math.Pi/180)
			rz := AxisRotation3D(r3.Vector{Z: 1}, args[2]*math.Pi/180)
			c := center
			if len(args) == 6 {
				c = r3.Vector{X: args[3], Y: args[4], Z: args[5]}
			}
			op = about(rx.Multiply(ry).Multiply(rz), c)
		case "matrix", "matrix4":
			if len(args) != 12 && len(args) != 16 {
				return m, fmt.Errorf("12 or 16 args required for %s, got %v", function.Name, args)
			}
			rows := 3
			if len(args) == 16 {
				rows = 4
			}
			for col := 0; col < 4; col++ {
				for row := 0; row < 3; row++ {
					op[row][col] = args[col*rows+row]
				}
			}
		case "center", "center4":
			// keep the center where it is after the transforms so far
			tc := m.TransformPoint(center)
			m[0][3] += center.X - tc.X
			m[1][3] += center.Y - tc.Y
			m[2][3] += center.Z - tc.Z
			continue
		case "quaternion":
			if len(args) != 4 {
				return m, fmt.Errorf("4 args required for quaternion, got %v", args)
			}
			axis := r3.Vector{X: args[0], Y: args[1], Z: args[2]}
			if axis.Norm2() == 0 {
				return m, fmt.Errorf("null quaternion axis in %q", transform)
			}
			op = about(AxisRotation3D(axis, args[3]*math.Pi/180), center)
		default:
			return m, fmt.Errorf("unknown 3D transform function %q %v", function.Name, args)
		}
		m = m.Multiply(op)
	}
	return m, nil
}
