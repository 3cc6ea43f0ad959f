package roommap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentworld.ai/internal/sim/world/logic/mathx"
)

func box(xl, xr, top, bottom float32) Geometry {
	return Geometry{
		XLeft: xl, XRight: xr,
		YLeftCeiling: top, YRightCeiling: top,
		YLeftFloor: bottom, YRightFloor: bottom,
	}
}

type testMap struct {
	m       *Map
	meta    *MetaRoom
	a, b, c *Room
}

// newTestMap lays out A | B side by side with C under A:
//
//	+---+---+
//	| A | B |
//	+---+---+
//	| C |
//	+---+
func newTestMap(t *testing.T) testMap {
	t.Helper()
	m := New()
	m.SetMapDimensions(2000, 2000)
	meta, err := m.AddMetaRoom(0, 0, 1000, 600, "bg", false)
	require.NoError(t, err)
	a, err := m.AddRoom(meta.ID, box(0, 100, 0, 100))
	require.NoError(t, err)
	b, err := m.AddRoom(meta.ID, box(100, 200, 0, 100))
	require.NoError(t, err)
	c, err := m.AddRoom(meta.ID, box(0, 100, 100, 200))
	require.NoError(t, err)
	return testMap{m: m, meta: meta, a: a, b: b, c: c}
}

func TestAddMetaRoom_Validation(t *testing.T) {
	m := New()
	m.SetMapDimensions(100, 100)
	_, err := m.AddMetaRoom(0, 0, 0, 10, "", false)
	assert.Error(t, err)
	_, err = m.AddMetaRoom(50, 50, 60, 10, "", false)
	assert.Error(t, err, "exceeds map")
	mr, err := m.AddMetaRoom(0, 0, 100, 100, "bg", true)
	require.NoError(t, err)
	assert.Equal(t, MetaRoomID(0), mr.ID)
	assert.Equal(t, 1, m.MetaRoomCount())
}

func TestAddRoom_Validation(t *testing.T) {
	tm := newTestMap(t)
	_, err := tm.m.AddRoom(tm.meta.ID, box(10, 5, 0, 10))
	assert.Error(t, err, "inverted x")
	_, err = tm.m.AddRoom(tm.meta.ID, box(0, 10, 10, 0))
	assert.Error(t, err, "ceiling below floor")
	_, err = tm.m.AddRoom(tm.meta.ID, box(900, 1100, 0, 10))
	assert.Error(t, err, "outside metaroom")
	_, err = tm.m.AddRoom(MetaRoomID(42), box(0, 10, 0, 10))
	assert.ErrorIs(t, err, ErrNoMetaRoom)
}

func TestDoorPerm_DefaultsToFullyOpen(t *testing.T) {
	tm := newTestMap(t)
	assert.False(t, tm.m.HasDoor(tm.a.ID, tm.b.ID))
	assert.Equal(t, DefaultDoorPerm, tm.m.GetDoorPerm(tm.a.ID, tm.b.ID))
	assert.Equal(t, 100, tm.m.GetDoorPerm(tm.a.ID, tm.c.ID))

	require.NoError(t, tm.m.SetDoorPerm(tm.b.ID, tm.a.ID, 30))
	assert.True(t, tm.m.HasDoor(tm.a.ID, tm.b.ID))
	assert.Equal(t, 30, tm.m.GetDoorPerm(tm.a.ID, tm.b.ID))
	assert.Equal(t, 30, tm.m.GetDoorPerm(tm.b.ID, tm.a.ID))

	assert.Error(t, tm.m.SetDoorPerm(tm.a.ID, tm.b.ID, 101))
	assert.Error(t, tm.m.SetDoorPerm(tm.a.ID, tm.b.ID, -1))
	assert.Error(t, tm.m.SetDoorPerm(tm.a.ID, tm.a.ID, 50))
	assert.ErrorIs(t, tm.m.SetDoorPerm(tm.a.ID, RoomID(99), 50), ErrNoRoom)
}

func TestRoomAt_SharedWallPrefersOlderRoom(t *testing.T) {
	tm := newTestMap(t)
	r, ok := tm.m.RoomAt(100, 50)
	require.True(t, ok)
	assert.Equal(t, tm.a.ID, r.ID)
	assert.Len(t, tm.m.RoomsAt(100, 50), 2)

	_, ok = tm.m.RoomAt(500, 500)
	assert.False(t, ok)

	mr, ok := tm.m.MetaRoomAt(500, 500)
	require.True(t, ok)
	assert.Equal(t, tm.meta.ID, mr.ID)
}

func TestRoomContainsPoint_SlopedCeiling(t *testing.T) {
	m := New()
	meta, err := m.AddMetaRoom(0, 0, 200, 200, "", false)
	require.NoError(t, err)
	r, err := m.AddRoom(meta.ID, Geometry{
		XLeft: 0, XRight: 100,
		YLeftCeiling: 0, YRightCeiling: 50,
		YLeftFloor: 100, YRightFloor: 100,
	})
	require.NoError(t, err)
	assert.True(t, r.ContainsPoint(mathx.Vec(10, 10)))
	assert.False(t, r.ContainsPoint(mathx.Vec(90, 10)), "above the sloped ceiling")
	assert.True(t, r.ContainsPoint(mathx.Vec(90, 60)))
}

func TestNeighbours(t *testing.T) {
	tm := newTestMap(t)
	assert.Equal(t, []RoomID{tm.b.ID, tm.c.ID}, tm.m.Neighbours(tm.a.ID))
	assert.Equal(t, []RoomID{tm.a.ID}, tm.m.Neighbours(tm.b.ID))
	assert.Equal(t, []RoomID{tm.a.ID}, tm.m.Neighbours(tm.c.ID))
}

func TestRemoveRoom_InvalidatesIDAndDoors(t *testing.T) {
	tm := newTestMap(t)
	require.NoError(t, tm.m.SetDoorPerm(tm.a.ID, tm.b.ID, 10))
	require.NoError(t, tm.m.RemoveRoom(tm.b.ID))

	_, err := tm.m.GetRoom(tm.b.ID)
	assert.ErrorIs(t, err, ErrNoRoom)
	assert.False(t, tm.m.HasDoor(tm.a.ID, tm.b.ID))
	assert.Equal(t, 2, tm.m.RoomCount())
	assert.Equal(t, []RoomID{tm.a.ID, tm.c.ID}, tm.meta.Rooms())
	assert.ErrorIs(t, tm.m.RemoveRoom(tm.b.ID), ErrNoRoom)

	d, err := tm.m.AddRoom(tm.meta.ID, box(300, 400, 0, 100))
	require.NoError(t, err)
	assert.NotEqual(t, tm.b.ID, d.ID, "slots are not reused")
}

func TestReset_AdvancesBases(t *testing.T) {
	tm := newTestMap(t)
	oldRoom := tm.a.ID
	oldMeta := tm.meta.ID
	tm.m.Reset()

	assert.Equal(t, 0, tm.m.RoomCount())
	assert.Equal(t, 3, tm.m.RoomBase())
	assert.Equal(t, 1, tm.m.MetaRoomBase())

	meta, err := tm.m.AddMetaRoom(0, 0, 100, 100, "", false)
	require.NoError(t, err)
	r, err := tm.m.AddRoom(meta.ID, box(0, 10, 0, 10))
	require.NoError(t, err)
	assert.NotEqual(t, oldMeta, meta.ID)
	assert.NotEqual(t, oldRoom, r.ID)
	_, err = tm.m.GetRoom(oldRoom)
	assert.ErrorIs(t, err, ErrNoRoom)
	_, err = tm.m.GetMetaRoom(oldMeta)
	assert.ErrorIs(t, err, ErrNoMetaRoom)
}

func TestWrapX(t *testing.T) {
	m := New()
	wrap, err := m.AddMetaRoom(100, 0, 200, 100, "", true)
	require.NoError(t, err)
	assert.Equal(t, float32(110), wrap.WrapX(310))
	assert.Equal(t, float32(290), wrap.WrapX(90))
	flat, err := m.AddMetaRoom(400, 0, 200, 100, "", false)
	require.NoError(t, err)
	assert.Equal(t, float32(700), flat.WrapX(700))
}

func TestCATick_DiffusesThroughDoors(t *testing.T) {
	m := New()
	meta, err := m.AddMetaRoom(0, 0, 400, 100, "", false)
	require.NoError(t, err)
	a, err := m.AddRoom(meta.ID, box(0, 100, 0, 100))
	require.NoError(t, err)
	b, err := m.AddRoom(meta.ID, box(100, 200, 0, 100))
	require.NoError(t, err)

	var cfg CAConfig
	cfg.Diffusion[0] = 1
	m.SetCAConfig(cfg)
	require.NoError(t, m.SetCA(a.ID, 0, 1))

	m.Tick()
	va, _ := m.GetCA(a.ID, 0)
	vb, _ := m.GetCA(b.ID, 0)
	assert.InDelta(t, 0.5, va, 1e-6)
	assert.InDelta(t, 0.5, vb, 1e-6)

	require.NoError(t, m.SetCA(a.ID, 0, 1))
	require.NoError(t, m.SetCA(b.ID, 0, 0))
	require.NoError(t, m.SetDoorPerm(a.ID, b.ID, 0))
	m.Tick()
	vb, _ = m.GetCA(b.ID, 0)
	assert.Equal(t, float32(0), vb, "closed door blocks flow")

	_, err = m.GetCA(a.ID, NumCA)
	assert.Error(t, err)
}

func TestCATick_Loss(t *testing.T) {
	m := New()
	meta, err := m.AddMetaRoom(0, 0, 100, 100, "", false)
	require.NoError(t, err)
	a, err := m.AddRoom(meta.ID, box(0, 100, 0, 100))
	require.NoError(t, err)
	var cfg CAConfig
	cfg.Loss[2] = 0.25
	m.SetCAConfig(cfg)
	require.NoError(t, m.SetCA(a.ID, 2, 0.8))
	m.Tick()
	assert.InDelta(t, 0.6, a.CA(2), 1e-6)
}
