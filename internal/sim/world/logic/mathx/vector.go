package mathx

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Vector is an immutable 2D float vector. Screen coordinates: y grows downwards.
type Vector struct {
	X float32
	Y float32
}

func Vec(x, y float32) Vector { return Vector{X: x, Y: y} }

func fromVec2(v mgl32.Vec2) Vector { return Vector{X: v[0], Y: v[1]} }

func (v Vector) vec2() mgl32.Vec2 { return mgl32.Vec2{v.X, v.Y} }

func (v Vector) Add(o Vector) Vector { return fromVec2(v.vec2().Add(o.vec2())) }

func (v Vector) Sub(o Vector) Vector { return fromVec2(v.vec2().Sub(o.vec2())) }

// Scale multiplies both components (and so the magnitude) by s.
func (v Vector) Scale(s float32) Vector { return fromVec2(v.vec2().Mul(s)) }

func (v Vector) Dot(o Vector) float32 { return v.vec2().Dot(o.vec2()) }

// Cross is the z component of the 3D cross product of v and o.
func (v Vector) Cross(o Vector) float32 { return v.X*o.Y - v.Y*o.X }

// Magnitude is the Euclidean norm; the null vector has magnitude 0.
func (v Vector) Magnitude() float32 { return v.vec2().Len() }

func (v Vector) DistanceTo(o Vector) float32 { return o.Sub(v).Magnitude() }

func (v Vector) IsNull() bool { return v.X == 0 && v.Y == 0 }

// Angle returns the angle from the positive X axis in degrees, in (-180, 180].
//
// The null vector maps to 0. A result that rounds to exactly -180 is reported
// as +180.
func (v Vector) Angle() float32 {
	var ret float32
	if v.X != 0 {
		ret = float32(math.Atan(float64(Abs(v.Y/v.X)))) * 180 / math.Pi
		if v.X < 0 {
			ret = 180 - ret
		}
		if v.Y < 0 {
			ret = -ret
		}
	} else if v.Y > 0 {
		ret = 90
	} else if v.Y < 0 {
		ret = -90
	}
	if ret == -180 {
		ret = 180
	}
	return ret
}

// UnitVector builds the unit vector at the given angle in radians.
func UnitVector(radians float32) Vector {
	return Vector{
		X: float32(math.Cos(float64(radians))),
		Y: float32(math.Sin(float64(radians))),
	}
}

func Deg2Rad(deg float32) float32 { return deg * math.Pi / 180 }

func (v Vector) String() string { return fmt.Sprintf("(%g, %g)", v.X, v.Y) }
