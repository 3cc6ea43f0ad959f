// Package roommap is the spatial room graph: metarooms, the trapezoid rooms
// carved from them, door permeabilities, and the line-collision queries used
// for movement.
//
// The Map is the only owner of rooms and metarooms. Everything else holds
// the integer ids, which are also what scripts see. Ids are offset by
// RoomBase/MetaRoomBase; slots are never reused inside an epoch and Reset
// moves the bases past every id ever issued, so a stale id always fails
// lookup instead of aliasing a newer room.
package roommap

import (
	"errors"
	"fmt"
	"sort"

	"agentworld.ai/internal/sim/world/logic/mathx"
)

var (
	ErrNoRoom     = errors.New("no such room")
	ErrNoMetaRoom = errors.New("no such metaroom")
	ErrNoRooms    = errors.New("map has no rooms")
)

const (
	PermMin = 0
	PermMax = 100

	// DefaultDoorPerm is reported for room pairs with no recorded door.
	DefaultDoorPerm = PermMax
)

type doorKey struct {
	lo, hi RoomID
}

func keyFor(a, b RoomID) doorKey {
	if a > b {
		a, b = b, a
	}
	return doorKey{lo: a, hi: b}
}

type Map struct {
	width, height int

	metarooms []*MetaRoom
	rooms     []*Room
	doors     map[doorKey]int

	roomBase     int
	metaroomBase int

	ca        CAConfig
	adjacency [][2]RoomID
	adjDirty  bool
}

func New() *Map {
	return &Map{
		doors:    map[doorKey]int{},
		adjDirty: true,
	}
}

func (m *Map) RoomBase() int     { return m.roomBase }
func (m *Map) MetaRoomBase() int { return m.metaroomBase }

// Reset drops every room, metaroom and door. Ids issued before the reset
// stay invalid forever.
func (m *Map) Reset() {
	m.roomBase += len(m.rooms)
	m.metaroomBase += len(m.metarooms)
	m.rooms = nil
	m.metarooms = nil
	m.doors = map[doorKey]int{}
	m.adjacency = nil
	m.adjDirty = true
}

func (m *Map) SetMapDimensions(w, h int) {
	m.width = w
	m.height = h
}

func (m *Map) Width() int  { return m.width }
func (m *Map) Height() int { return m.height }

func (m *Map) AddMetaRoom(x, y, width, height int, background string, wrap bool) (*MetaRoom, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("metaroom size %dx%d must be positive", width, height)
	}
	if x < 0 || y < 0 {
		return nil, fmt.Errorf("metaroom origin (%d,%d) must not be negative", x, y)
	}
	if m.width > 0 && m.height > 0 && (x+width > m.width || y+height > m.height) {
		return nil, fmt.Errorf("metaroom (%d,%d %dx%d) exceeds map %dx%d", x, y, width, height, m.width, m.height)
	}
	mr := &MetaRoom{
		ID:         MetaRoomID(m.metaroomBase + len(m.metarooms)),
		X:          x,
		Y:          y,
		Width:      width,
		Height:     height,
		Background: background,
		Wrap:       wrap,
	}
	m.metarooms = append(m.metarooms, mr)
	return mr, nil
}

func (m *Map) GetMetaRoom(id MetaRoomID) (*MetaRoom, error) {
	slot := int(id) - m.metaroomBase
	if slot < 0 || slot >= len(m.metarooms) || m.metarooms[slot] == nil {
		return nil, fmt.Errorf("%w: %d", ErrNoMetaRoom, id)
	}
	return m.metarooms[slot], nil
}

func (m *Map) MetaRoomCount() int {
	n := 0
	for _, mr := range m.metarooms {
		if mr != nil {
			n++
		}
	}
	return n
}

func (m *Map) MetaRooms() []*MetaRoom {
	out := make([]*MetaRoom, 0, len(m.metarooms))
	for _, mr := range m.metarooms {
		if mr != nil {
			out = append(out, mr)
		}
	}
	return out
}

// AddRoom carves a room out of a metaroom. The trapezoid must lie inside the
// metaroom bounds.
func (m *Map) AddRoom(meta MetaRoomID, g Geometry) (*Room, error) {
	mr, err := m.GetMetaRoom(meta)
	if err != nil {
		return nil, err
	}
	if err := g.validate(); err != nil {
		return nil, fmt.Errorf("room in metaroom %d: %w", meta, err)
	}
	x0, y0 := float32(mr.X), float32(mr.Y)
	x1, y1 := float32(mr.X+mr.Width), float32(mr.Y+mr.Height)
	if g.XLeft < x0 || g.XRight > x1 ||
		min(g.YLeftCeiling, g.YRightCeiling) < y0 || max(g.YLeftFloor, g.YRightFloor) > y1 {
		return nil, fmt.Errorf("room in metaroom %d lies outside its bounds", meta)
	}
	r := &Room{
		ID:       RoomID(m.roomBase + len(m.rooms)),
		MetaRoom: meta,
		Geometry: g,
	}
	m.rooms = append(m.rooms, r)
	mr.rooms = append(mr.rooms, r.ID)
	m.adjDirty = true
	return r, nil
}

// RemoveRoom erases a room and every door touching it.
func (m *Map) RemoveRoom(id RoomID) error {
	r, err := m.GetRoom(id)
	if err != nil {
		return err
	}
	if mr, err := m.GetMetaRoom(r.MetaRoom); err == nil {
		for i, rid := range mr.rooms {
			if rid == id {
				mr.rooms = append(mr.rooms[:i], mr.rooms[i+1:]...)
				break
			}
		}
	}
	for k := range m.doors {
		if k.lo == id || k.hi == id {
			delete(m.doors, k)
		}
	}
	m.rooms[int(id)-m.roomBase] = nil
	m.adjDirty = true
	return nil
}

func (m *Map) GetRoom(id RoomID) (*Room, error) {
	slot := int(id) - m.roomBase
	if slot < 0 || slot >= len(m.rooms) || m.rooms[slot] == nil {
		return nil, fmt.Errorf("%w: %d", ErrNoRoom, id)
	}
	return m.rooms[slot], nil
}

func (m *Map) RoomCount() int {
	n := 0
	for _, r := range m.rooms {
		if r != nil {
			n++
		}
	}
	return n
}

// Rooms lists live rooms in id order.
func (m *Map) Rooms() []*Room {
	out := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (m *Map) MetaRoomAt(x, y float32) (*MetaRoom, bool) {
	for _, mr := range m.metarooms {
		if mr != nil && mr.Contains(x, y) {
			return mr, true
		}
	}
	return nil, false
}

// RoomAt returns the lowest-id room containing the point. Points on a wall
// shared by two rooms belong to both; the older room wins.
func (m *Map) RoomAt(x, y float32) (*Room, bool) {
	p := mathx.Vec(x, y)
	for _, r := range m.rooms {
		if r != nil && r.ContainsPoint(p) {
			return r, true
		}
	}
	return nil, false
}

func (m *Map) RoomsAt(x, y float32) []*Room {
	p := mathx.Vec(x, y)
	var out []*Room
	for _, r := range m.rooms {
		if r != nil && r.ContainsPoint(p) {
			out = append(out, r)
		}
	}
	return out
}

func (m *Map) HasDoor(r1, r2 RoomID) bool {
	_, ok := m.doors[keyFor(r1, r2)]
	return ok
}

// SetDoorPerm records the permeability of the boundary between two rooms.
// Doors are unordered: (a,b) and (b,a) are the same door.
func (m *Map) SetDoorPerm(r1, r2 RoomID, perm int) error {
	if perm < PermMin || perm > PermMax {
		return fmt.Errorf("door perm %d out of range [%d,%d]", perm, PermMin, PermMax)
	}
	if r1 == r2 {
		return fmt.Errorf("door from room %d to itself", r1)
	}
	if _, err := m.GetRoom(r1); err != nil {
		return err
	}
	if _, err := m.GetRoom(r2); err != nil {
		return err
	}
	m.doors[keyFor(r1, r2)] = perm
	return nil
}

// GetDoorPerm returns the door permeability, or DefaultDoorPerm (fully open)
// when no door was ever recorded between the pair.
func (m *Map) GetDoorPerm(r1, r2 RoomID) int {
	if p, ok := m.doors[keyFor(r1, r2)]; ok {
		return p
	}
	return DefaultDoorPerm
}

// Neighbours lists rooms sharing a stretch of wall with id, in id order.
func (m *Map) Neighbours(id RoomID) []RoomID {
	var out []RoomID
	for _, pair := range m.adjacentPairs() {
		switch id {
		case pair[0]:
			out = append(out, pair[1])
		case pair[1]:
			out = append(out, pair[0])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// FallbackMetaRoom returns the oldest live metaroom, for callers that need
// some metaroom no matter what.
func (m *Map) FallbackMetaRoom() (*MetaRoom, bool) {
	for _, mr := range m.metarooms {
		if mr != nil {
			return mr, true
		}
	}
	return nil, false
}

// fallbackRoom picks the room used when a point lies in no room: the first
// room of the metaroom containing the point, else the first room of the
// fallback metaroom, else the first live room.
func (m *Map) fallbackRoom(p mathx.Vector) (*Room, error) {
	if mr, ok := m.MetaRoomAt(p.X, p.Y); ok && len(mr.rooms) > 0 {
		return m.GetRoom(mr.rooms[0])
	}
	if mr, ok := m.FallbackMetaRoom(); ok && len(mr.rooms) > 0 {
		return m.GetRoom(mr.rooms[0])
	}
	for _, r := range m.rooms {
		if r != nil {
			return r, nil
		}
	}
	return nil, ErrNoRooms
}
