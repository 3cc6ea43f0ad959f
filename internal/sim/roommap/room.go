package roommap

import (
	"fmt"

	"agentworld.ai/internal/sim/world/logic/mathx"
)

type MetaRoomID int

type RoomID int

const (
	NoRoom     RoomID     = -1
	NoMetaRoom MetaRoomID = -1
)

// WallDir names the side of a room a line crossed.
type WallDir int

const (
	WallLeft WallDir = iota
	WallRight
	WallCeiling
	WallFloor

	WallNone WallDir = -1
)

var wallDirs = [...]WallDir{WallLeft, WallRight, WallCeiling, WallFloor}

func (d WallDir) String() string {
	switch d {
	case WallLeft:
		return "left"
	case WallRight:
		return "right"
	case WallCeiling:
		return "ceiling"
	case WallFloor:
		return "floor"
	case WallNone:
		return "none"
	default:
		return fmt.Sprintf("wall(%d)", int(d))
	}
}

// MetaRoom is a rectangular coordinate space rooms are carved from.
type MetaRoom struct {
	ID         MetaRoomID
	X, Y       int
	Width      int
	Height     int
	Background string
	// Wrap makes the horizontal coordinate space cyclic.
	Wrap bool

	rooms []RoomID
}

func (mr *MetaRoom) Contains(x, y float32) bool {
	return x >= float32(mr.X) && x < float32(mr.X+mr.Width) &&
		y >= float32(mr.Y) && y < float32(mr.Y+mr.Height)
}

// WrapX folds x back into the metaroom when it wraps; otherwise x is returned as is.
func (mr *MetaRoom) WrapX(x float32) float32 {
	if !mr.Wrap || mr.Width <= 0 {
		return x
	}
	return float32(mr.X) + mathx.FloorMod(x-float32(mr.X), float32(mr.Width))
}

// Rooms lists the metaroom's live rooms in creation order.
func (mr *MetaRoom) Rooms() []RoomID {
	return append([]RoomID(nil), mr.rooms...)
}

// Geometry is a room trapezoid: vertical left/right walls, sloped ceiling and floor.
type Geometry struct {
	XLeft         float32
	XRight        float32
	YLeftCeiling  float32
	YRightCeiling float32
	YLeftFloor    float32
	YRightFloor   float32
}

func (g Geometry) validate() error {
	if g.XLeft >= g.XRight {
		return fmt.Errorf("x_left %g must be < x_right %g", g.XLeft, g.XRight)
	}
	if g.YLeftCeiling >= g.YLeftFloor || g.YRightCeiling >= g.YRightFloor {
		return fmt.Errorf("ceiling must be above floor")
	}
	return nil
}

// NumCA is the number of cellular-automaton channels each room carries.
const NumCA = 4

type Room struct {
	ID       RoomID
	MetaRoom MetaRoomID
	Geometry
	Type int

	ca     [NumCA]float32
	caNext [NumCA]float32
}

func (r *Room) Boundary(d WallDir) mathx.Line {
	switch d {
	case WallLeft:
		return mathx.Ln(r.XLeft, r.YLeftCeiling, r.XLeft, r.YLeftFloor)
	case WallRight:
		return mathx.Ln(r.XRight, r.YRightCeiling, r.XRight, r.YRightFloor)
	case WallCeiling:
		return mathx.Ln(r.XLeft, r.YLeftCeiling, r.XRight, r.YRightCeiling)
	case WallFloor:
		return mathx.Ln(r.XLeft, r.YLeftFloor, r.XRight, r.YRightFloor)
	}
	return mathx.Line{}
}

// outward is a normal of the boundary pointing out of the room (y grows downwards).
func (r *Room) outward(d WallDir) mathx.Vector {
	switch d {
	case WallLeft:
		return mathx.Vec(-1, 0)
	case WallRight:
		return mathx.Vec(1, 0)
	}
	dir := r.Boundary(d).Dir()
	n := mathx.Vec(dir.Y, -dir.X)
	if d == WallFloor {
		n = mathx.Vec(-dir.Y, dir.X)
	}
	return n.Scale(1 / n.Magnitude())
}

func (r *Room) ContainsPoint(p mathx.Vector) bool {
	if p.X < r.XLeft || p.X > r.XRight {
		return false
	}
	return p.Y >= r.Boundary(WallCeiling).YAt(p.X) && p.Y <= r.Boundary(WallFloor).YAt(p.X)
}

func (r *Room) CA(ch int) float32 {
	if ch < 0 || ch >= NumCA {
		return 0
	}
	return r.ca[ch]
}
