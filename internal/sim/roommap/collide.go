package roommap

import (
	"agentworld.ai/internal/sim/world/logic/mathx"
)

// probeDist is how far past a crossing point we look for the room beyond it.
const probeDist = 0.05

// Crossing is the first boundary a segment leaves a room through.
type Crossing struct {
	// Blocked is true when the boundary is a wall for the mover; otherwise
	// the mover passes into NewRoom.
	Blocked bool
	NewRoom RoomID
	Where   mathx.Vector
	Wall    mathx.Line
	WallDir WallDir
}

// Collision is the outcome of moving a point through the room system.
type Collision struct {
	// Collided reports whether the movement was stopped short of dest.
	Collided bool
	// Room is the room the mover occupies at Where.
	Room    RoomID
	Where   mathx.Vector
	Wall    mathx.Line
	WallDir WallDir
}

// CollideLineWithRoomBoundaries finds the first boundary of room that the
// segment src->dest leaves through. Only outward crossings count, so a
// segment that starts on a wall and moves into the room does not hit it.
// The nearest crossing wins; a segment through a corner reports the lower
// WallDir. ok is false when the segment never leaves the room.
//
// The crossing is blocked when no room lies beyond the boundary, or when
// the door to that room is less permeable than perm.
func (m *Map) CollideLineWithRoomBoundaries(src, dest mathx.Vector, room RoomID, perm int) (c Crossing, ok bool, err error) {
	r, err := m.GetRoom(room)
	if err != nil {
		return Crossing{}, false, err
	}
	move := mathx.Line{Start: src, End: dest}
	dir := move.Dir()
	if dir.IsNull() {
		return Crossing{}, false, nil
	}

	bestT := float32(2)
	for _, d := range wallDirs {
		n := r.outward(d)
		if dir.Dot(n) <= 0 {
			continue
		}
		wall := r.Boundary(d)
		pt, t, hit := move.Intersect(wall)
		if !hit || t >= bestT {
			continue
		}
		bestT = t
		c = Crossing{Where: pt, Wall: wall, WallDir: d}
		ok = true
	}
	if !ok {
		return Crossing{}, false, nil
	}

	next := m.roomBeyond(r, c.Where.Add(r.outward(c.WallDir).Scale(probeDist)))
	if next == nil || m.GetDoorPerm(r.ID, next.ID) < perm {
		c.Blocked = true
		c.NewRoom = NoRoom
		return c, true, nil
	}
	c.NewRoom = next.ID
	return c, true, nil
}

func (m *Map) roomBeyond(from *Room, probe mathx.Vector) *Room {
	mr, err := m.GetMetaRoom(from.MetaRoom)
	if err != nil {
		return nil
	}
	for _, id := range mr.rooms {
		if id == from.ID {
			continue
		}
		r, err := m.GetRoom(id)
		if err == nil && r.ContainsPoint(probe) {
			return r
		}
	}
	return nil
}

// CollideLineWithRoomSystem moves a point from src towards dest through the
// room graph, passing doors at least as permeable as perm, and stops at the
// first wall it cannot pass.
//
// If src lies in no room the mover is treated as stuck: the result is a
// collision at src with WallNone, reported in the fallback room (see
// fallbackRoom). The collision point is src itself; the fallback room's
// geometry plays no part in it.
func (m *Map) CollideLineWithRoomSystem(src, dest mathx.Vector, perm int) (Collision, error) {
	room, ok := m.RoomAt(src.X, src.Y)
	if !ok {
		fb, err := m.fallbackRoom(src)
		if err != nil {
			return Collision{}, err
		}
		return Collision{Collided: true, Room: fb.ID, Where: src, WallDir: WallNone}, nil
	}

	cur := room.ID
	// Each door moves the mover into another room; more steps than rooms
	// means it is cycling on a degenerate corner.
	for steps := 0; steps <= len(m.rooms); steps++ {
		c, crossed, err := m.CollideLineWithRoomBoundaries(src, dest, cur, perm)
		if err != nil {
			return Collision{}, err
		}
		if !crossed {
			return Collision{Room: cur, Where: dest, WallDir: WallNone}, nil
		}
		if c.Blocked {
			return Collision{Collided: true, Room: cur, Where: c.Where, Wall: c.Wall, WallDir: c.WallDir}, nil
		}
		cur = c.NewRoom
		src = c.Where
	}
	return Collision{Collided: true, Room: cur, Where: src, WallDir: WallNone}, nil
}
