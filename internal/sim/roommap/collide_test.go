package roommap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentworld.ai/internal/sim/world/logic/mathx"
)

func assertPoint(t *testing.T, want, got mathx.Vector) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-3, "x")
	assert.InDelta(t, want.Y, got.Y, 1e-3, "y")
}

func TestCollideSystem_PassesOpenDoor(t *testing.T) {
	tm := newTestMap(t)
	c, err := tm.m.CollideLineWithRoomSystem(mathx.Vec(50, 50), mathx.Vec(150, 50), 50)
	require.NoError(t, err)
	assert.False(t, c.Collided)
	assert.Equal(t, tm.b.ID, c.Room)
	assertPoint(t, mathx.Vec(150, 50), c.Where)
	assert.Equal(t, WallNone, c.WallDir)
}

func TestCollideSystem_DoorBelowThresholdIsAWall(t *testing.T) {
	tm := newTestMap(t)
	require.NoError(t, tm.m.SetDoorPerm(tm.a.ID, tm.b.ID, 20))

	c, err := tm.m.CollideLineWithRoomSystem(mathx.Vec(50, 50), mathx.Vec(150, 50), 50)
	require.NoError(t, err)
	assert.True(t, c.Collided)
	assert.Equal(t, tm.a.ID, c.Room)
	assert.Equal(t, WallRight, c.WallDir)
	assertPoint(t, mathx.Vec(100, 50), c.Where)
	assert.Equal(t, tm.a.Boundary(WallRight), c.Wall)

	// Same door, mover no pickier than the door.
	c, err = tm.m.CollideLineWithRoomSystem(mathx.Vec(50, 50), mathx.Vec(150, 50), 20)
	require.NoError(t, err)
	assert.False(t, c.Collided)
	assert.Equal(t, tm.b.ID, c.Room)
}

func TestCollideSystem_FullyWalledReturnsNearestBoundary(t *testing.T) {
	m := New()
	meta, err := m.AddMetaRoom(0, 0, 1000, 1000, "", false)
	require.NoError(t, err)
	d, err := m.AddRoom(meta.ID, box(0, 100, 0, 100))
	require.NoError(t, err)
	e, err := m.AddRoom(meta.ID, box(100, 200, 0, 100))
	require.NoError(t, err)
	require.NoError(t, m.SetDoorPerm(d.ID, e.ID, 0))

	// The segment crosses x=100 and x=200. A perm 0 mover passes the door
	// and stops at e's outer wall.
	c, err := m.CollideLineWithRoomSystem(mathx.Vec(10, 50), mathx.Vec(300, 50), 0)
	require.NoError(t, err)
	assert.True(t, c.Collided)
	assert.Equal(t, e.ID, c.Room)
	assertPoint(t, mathx.Vec(200, 50), c.Where)

	c, err = m.CollideLineWithRoomSystem(mathx.Vec(10, 50), mathx.Vec(300, 50), 1)
	require.NoError(t, err)
	assert.True(t, c.Collided)
	assert.Equal(t, d.ID, c.Room)
	assertPoint(t, mathx.Vec(100, 50), c.Where)
	assert.Equal(t, WallRight, c.WallDir)

	// An isolated room walls off every side even at threshold 0.
	iso, err := m.AddRoom(meta.ID, box(500, 600, 500, 600))
	require.NoError(t, err)
	cases := []struct {
		dest mathx.Vector
		dir  WallDir
		at   mathx.Vector
	}{
		{mathx.Vec(900, 550), WallRight, mathx.Vec(600, 550)},
		{mathx.Vec(100, 550), WallLeft, mathx.Vec(500, 550)},
		{mathx.Vec(550, 100), WallCeiling, mathx.Vec(550, 500)},
		{mathx.Vec(550, 900), WallFloor, mathx.Vec(550, 600)},
		{mathx.Vec(590, 900), WallFloor, mathx.Vec(555.7143, 600)},
	}
	for _, tc := range cases {
		c, err := m.CollideLineWithRoomSystem(mathx.Vec(550, 550), tc.dest, 0)
		require.NoError(t, err)
		assert.True(t, c.Collided, "dest %v", tc.dest)
		assert.Equal(t, iso.ID, c.Room)
		assert.Equal(t, tc.dir, c.WallDir, "dest %v", tc.dest)
		assertPoint(t, tc.at, c.Where)
	}
}

func TestCollideSystem_FallsThroughFloorIntoRoomBelow(t *testing.T) {
	tm := newTestMap(t)
	c, err := tm.m.CollideLineWithRoomSystem(mathx.Vec(50, 50), mathx.Vec(50, 150), 100)
	require.NoError(t, err)
	assert.False(t, c.Collided)
	assert.Equal(t, tm.c.ID, c.Room)

	c, err = tm.m.CollideLineWithRoomSystem(mathx.Vec(50, 50), mathx.Vec(50, 500), 100)
	require.NoError(t, err)
	assert.True(t, c.Collided)
	assert.Equal(t, tm.c.ID, c.Room)
	assert.Equal(t, WallFloor, c.WallDir)
	assertPoint(t, mathx.Vec(50, 200), c.Where)
}

func TestCollideSystem_StaysInsideRoom(t *testing.T) {
	tm := newTestMap(t)
	c, err := tm.m.CollideLineWithRoomSystem(mathx.Vec(10, 10), mathx.Vec(90, 90), 100)
	require.NoError(t, err)
	assert.False(t, c.Collided)
	assert.Equal(t, tm.a.ID, c.Room)
	assertPoint(t, mathx.Vec(90, 90), c.Where)
}

func TestCollideSystem_SourceInNoRoomUsesFallback(t *testing.T) {
	tm := newTestMap(t)
	src := mathx.Vec(700, 500)
	c, err := tm.m.CollideLineWithRoomSystem(src, mathx.Vec(750, 500), 0)
	require.NoError(t, err)
	assert.True(t, c.Collided)
	assert.Equal(t, tm.a.ID, c.Room, "first room of the containing metaroom")
	assert.Equal(t, src, c.Where)
	assert.Equal(t, WallNone, c.WallDir)

	// Outside every metaroom: first room of the fallback metaroom.
	c, err = tm.m.CollideLineWithRoomSystem(mathx.Vec(1500, 1500), mathx.Vec(0, 0), 0)
	require.NoError(t, err)
	assert.Equal(t, tm.a.ID, c.Room)

	_, err = New().CollideLineWithRoomSystem(src, src, 0)
	assert.ErrorIs(t, err, ErrNoRooms)
}

func TestCollideBoundaries_IgnoresInwardWalls(t *testing.T) {
	tm := newTestMap(t)
	// Starts on B's left wall moving right, into B.
	_, crossed, err := tm.m.CollideLineWithRoomBoundaries(mathx.Vec(100, 50), mathx.Vec(150, 50), tm.b.ID, 100)
	require.NoError(t, err)
	assert.False(t, crossed)

	// Same point moving left leaves B through the shared wall into A.
	c, crossed, err := tm.m.CollideLineWithRoomBoundaries(mathx.Vec(100, 50), mathx.Vec(50, 50), tm.b.ID, 100)
	require.NoError(t, err)
	require.True(t, crossed)
	assert.False(t, c.Blocked)
	assert.Equal(t, tm.a.ID, c.NewRoom)
	assert.Equal(t, WallLeft, c.WallDir)
}

func TestCollideBoundaries_CornerPrefersLowerWallDir(t *testing.T) {
	m := New()
	meta, err := m.AddMetaRoom(0, 0, 1000, 1000, "", false)
	require.NoError(t, err)
	r, err := m.AddRoom(meta.ID, box(100, 200, 100, 200))
	require.NoError(t, err)
	c, crossed, err := m.CollideLineWithRoomBoundaries(mathx.Vec(150, 150), mathx.Vec(250, 250), r.ID, 0)
	require.NoError(t, err)
	require.True(t, crossed)
	assert.True(t, c.Blocked)
	assert.Equal(t, WallRight, c.WallDir)
	assertPoint(t, mathx.Vec(200, 200), c.Where)
}

func TestCollideBoundaries_SlopedCeiling(t *testing.T) {
	m := New()
	meta, err := m.AddMetaRoom(0, 0, 1000, 1000, "", false)
	require.NoError(t, err)
	r, err := m.AddRoom(meta.ID, Geometry{
		XLeft: 0, XRight: 100,
		YLeftCeiling: 0, YRightCeiling: 100,
		YLeftFloor: 200, YRightFloor: 200,
	})
	require.NoError(t, err)
	c, crossed, err := m.CollideLineWithRoomBoundaries(mathx.Vec(50, 150), mathx.Vec(50, -100), r.ID, 0)
	require.NoError(t, err)
	require.True(t, crossed)
	assert.Equal(t, WallCeiling, c.WallDir)
	assertPoint(t, mathx.Vec(50, 50), c.Where)
}

func TestCollideBoundaries_UnknownRoom(t *testing.T) {
	m := New()
	_, _, err := m.CollideLineWithRoomBoundaries(mathx.Vec(0, 0), mathx.Vec(1, 1), RoomID(3), 0)
	assert.ErrorIs(t, err, ErrNoRoom)
}
