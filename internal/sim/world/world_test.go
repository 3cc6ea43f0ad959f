package world

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentworld.ai/internal/protocol"
	"agentworld.ai/internal/sim/render"
	"agentworld.ai/internal/sim/roommap"
	"agentworld.ai/internal/sim/value"
	"agentworld.ai/internal/sim/vm"
	"agentworld.ai/internal/sim/world/logic/mathx"
)

type memTickLog struct{ entries []TickLogEntry }

func (l *memTickLog) WriteTick(e TickLogEntry) error {
	l.entries = append(l.entries, e)
	return nil
}

type memFaultLog struct{ entries []FaultEntry }

func (l *memFaultLog) WriteFault(e FaultEntry) error {
	l.entries = append(l.entries, e)
	return nil
}

func box(xl, xr, top, bottom float32) roommap.Geometry {
	return roommap.Geometry{
		XLeft: xl, XRight: xr,
		YLeftCeiling: top, YRightCeiling: top,
		YLeftFloor: bottom, YRightFloor: bottom,
	}
}

type testRooms struct {
	a, b roommap.RoomID
}

// newTestWorld builds two side by side rooms, A (0..100) and B (100..200).
func newTestWorld(t *testing.T, cfg WorldConfig) (*World, testRooms) {
	t.Helper()
	w := New(cfg)
	m := w.Map()
	meta, err := m.AddMetaRoom(0, 0, 1000, 600, "", false)
	require.NoError(t, err)
	a, err := m.AddRoom(meta.ID, box(0, 100, 0, 100))
	require.NoError(t, err)
	b, err := m.AddRoom(meta.ID, box(100, 200, 0, 100))
	require.NoError(t, err)
	return w, testRooms{a: a.ID, b: b.ID}
}

func script(name string, repeat bool, ins ...vm.Instruction) *vm.Script {
	return &vm.Script{Name: name, Repeat: repeat, Instructions: ins}
}

func TestStepOnce_FaultIsolation(t *testing.T) {
	w, _ := newTestWorld(t, WorldConfig{})
	var ticks memTickLog
	var faults memFaultLog
	w.SetTickLogger(&ticks)
	w.SetFaultLogger(&faults)

	bad, err := w.AddAgent(AgentSpec{Name: "bad", Perm: DefaultPerm, Script: script("broken", false,
		vm.Ins("ADDV", vm.Game("before"), vm.Int(1)),
		vm.Ins("VEC: MULV", vm.VA(0), vm.Float(2)),
		vm.Ins("ADDV", vm.Game("after"), vm.Int(1)),
	)})
	require.NoError(t, err)
	_, err = w.AddAgent(AgentSpec{Name: "good", Perm: DefaultPerm, Script: script("count", true,
		vm.Ins("ADDV", vm.Game("good"), vm.Int(1)),
	)})
	require.NoError(t, err)

	tick, digest := w.StepOnce()
	assert.Equal(t, uint64(0), tick)
	assert.NotEmpty(t, digest)

	assert.True(t, value.Int(1).Equal(*w.GameVar("before")))
	assert.True(t, w.GameVar("after").IsNull(), "faulted script stops")
	assert.True(t, value.Int(1).Equal(*w.GameVar("good")), "other agents still run")

	require.Len(t, faults.entries, 1)
	f := faults.entries[0]
	assert.Equal(t, bad.String(), f.Agent)
	assert.Equal(t, "bad", f.Name)
	assert.Equal(t, "broken", f.Script)
	assert.Equal(t, 1, f.PC)
	assert.Equal(t, "VEC: MULV", f.Op)
	assert.Equal(t, protocol.ErrBadParameter, f.Code)
	assert.Equal(t, w.Faults(), faults.entries)

	require.Len(t, ticks.entries, 1)
	assert.Equal(t, 1, ticks.entries[0].Faults)
	assert.Equal(t, digest, ticks.entries[0].Digest)

	// The broken script does not repeat; the good one does.
	w.StepOnce()
	assert.Len(t, faults.entries, 1)
	assert.True(t, value.Int(2).Equal(*w.GameVar("good")))
	assert.Equal(t, 0, ticks.entries[1].Faults)
}

func TestStepOnce_WallStopsAgent(t *testing.T) {
	w, rooms := newTestWorld(t, WorldConfig{})
	require.NoError(t, w.Map().SetDoorPerm(rooms.a, rooms.b, 20))
	ref, err := w.AddAgent(AgentSpec{
		Perm: DefaultPerm,
		Attr: AttrSufferCollisions,
		Pos:  mathx.Vec(50, 50),
		Vel:  mathx.Vec(30, 0),
	})
	require.NoError(t, err)
	a, _ := w.Agent(ref)

	w.StepOnce()
	assert.Equal(t, mathx.Vec(80, 50), a.Position())

	w.StepOnce()
	assert.InDelta(t, 100, a.Position().X, 1e-3)
	assert.True(t, a.Velocity().IsNull(), "a wall hit kills velocity")

	// A permeable enough mover passes the same door.
	a.SetPerm(10)
	a.SetVelocity(mathx.Vec(30, 0))
	w.StepOnce()
	assert.InDelta(t, 130, a.Position().X, 1e-3)
	r, ok := w.Map().RoomAt(a.Position().X, a.Position().Y)
	require.True(t, ok)
	assert.Equal(t, rooms.b, r.ID)
}

func TestStepOnce_GravityRestsOnFloor(t *testing.T) {
	w, _ := newTestWorld(t, WorldConfig{Gravity: 10})
	ref, err := w.AddAgent(AgentSpec{
		Perm: DefaultPerm,
		Attr: AttrSufferPhysics | AttrSufferCollisions,
		Pos:  mathx.Vec(50, 50),
	})
	require.NoError(t, err)
	a, _ := w.Agent(ref)

	w.StepOnce()
	assert.Equal(t, mathx.Vec(50, 60), a.Position())
	w.StepOnce()
	assert.Equal(t, mathx.Vec(50, 80), a.Position())
	w.StepOnce()
	assert.InDelta(t, 100, a.Position().Y, 1e-3)
	for i := 0; i < 3; i++ {
		w.StepOnce()
		assert.InDelta(t, 100, a.Position().Y, 1e-3, "stays on the floor")
	}
}

func TestStepOnce_WrappingMetaRoom(t *testing.T) {
	w := New(WorldConfig{})
	_, err := w.Map().AddMetaRoom(0, 0, 200, 100, "", true)
	require.NoError(t, err)
	ref, err := w.AddAgent(AgentSpec{Perm: DefaultPerm, Pos: mathx.Vec(190, 50), Vel: mathx.Vec(20, 0)})
	require.NoError(t, err)
	w.StepOnce()
	a, _ := w.Agent(ref)
	assert.InDelta(t, 10, a.Position().X, 1e-4)
}

// wrapWorld builds a wrapping metaroom 0..1000 with rooms at both edges.
func wrapWorld(t *testing.T) *World {
	t.Helper()
	w := New(WorldConfig{})
	meta, err := w.Map().AddMetaRoom(0, 0, 1000, 100, "", true)
	require.NoError(t, err)
	_, err = w.Map().AddRoom(meta.ID, box(0, 100, 0, 100))
	require.NoError(t, err)
	_, err = w.Map().AddRoom(meta.ID, box(900, 1000, 0, 100))
	require.NoError(t, err)
	return w
}

func TestStepOnce_CollidingAgentCrossesSeam(t *testing.T) {
	w := wrapWorld(t)
	right, err := w.AddAgent(AgentSpec{Perm: DefaultPerm, Attr: AttrSufferCollisions,
		Pos: mathx.Vec(990, 50), Vel: mathx.Vec(20, 0)})
	require.NoError(t, err)
	left, err := w.AddAgent(AgentSpec{Perm: DefaultPerm, Attr: AttrSufferCollisions,
		Pos: mathx.Vec(5, 50), Vel: mathx.Vec(-15, 0)})
	require.NoError(t, err)

	w.StepOnce()

	a, _ := w.Agent(right)
	assert.InDelta(t, 10, a.Position().X, 1e-2)
	assert.InDelta(t, 50, a.Position().Y, 1e-4)
	assert.Equal(t, mathx.Vec(20, 0), a.Velocity(), "still moving")

	b, _ := w.Agent(left)
	assert.InDelta(t, 990, b.Position().X, 1e-2)
	assert.Equal(t, mathx.Vec(-15, 0), b.Velocity())
}

func TestStepOnce_SeamWithoutFarRoomIsAWall(t *testing.T) {
	w := New(WorldConfig{})
	meta, err := w.Map().AddMetaRoom(0, 0, 1000, 100, "", true)
	require.NoError(t, err)
	_, err = w.Map().AddRoom(meta.ID, box(900, 1000, 0, 100))
	require.NoError(t, err)
	ref, err := w.AddAgent(AgentSpec{Perm: DefaultPerm, Attr: AttrSufferCollisions,
		Pos: mathx.Vec(990, 50), Vel: mathx.Vec(20, 0)})
	require.NoError(t, err)

	w.StepOnce()

	a, _ := w.Agent(ref)
	assert.InDelta(t, 1000, a.Position().X, 1e-2, "stopped at the wall, not folded")
	assert.True(t, a.Velocity().IsNull())
}

func TestStepOnce_ReapsKilledAgents(t *testing.T) {
	w, _ := newTestWorld(t, WorldConfig{})
	var ticks memTickLog
	w.SetTickLogger(&ticks)

	_, err := w.AddAgent(AgentSpec{Name: "killer", Perm: DefaultPerm,
		Parts:  []render.PartSpec{{Width: 10, Height: 10}},
		Script: script("kill", false, vm.Ins("KILL", vm.Game("victim"))),
	})
	require.NoError(t, err)
	victim, err := w.AddAgent(AgentSpec{Name: "victim", Perm: DefaultPerm,
		Parts:  []render.PartSpec{{ID: 0, Width: 5, Height: 5}, {ID: 1, Z: 1, Width: 5, Height: 5}},
		Script: script("live", false, vm.Ins("ADDV", vm.Game("lived"), vm.Int(1))),
	})
	require.NoError(t, err)
	w.GameVar("victim").SetAgent(victim)
	require.Equal(t, 3, w.Scene().Len())

	w.StepOnce()
	assert.True(t, w.GameVar("lived").IsNull(), "killed before its turn")
	assert.Equal(t, 1, w.Scene().Len(), "victim parts left the z-order")
	assert.Equal(t, 1, w.AgentCount())
	assert.Equal(t, 1, ticks.entries[0].Reaped)
	_, err = w.Agent(victim)
	assert.ErrorIs(t, err, ErrNoAgent)

	again, err := w.AddAgent(AgentSpec{Name: "newcomer", Perm: DefaultPerm})
	require.NoError(t, err)
	assert.Equal(t, victim.Index, again.Index, "slot reused")
	assert.NotEqual(t, victim.Gen, again.Gen)
	_, err = w.Agent(victim)
	assert.ErrorIs(t, err, ErrNoAgent, "old handle stays dangling")
	_, err = w.Resolve(victim)
	assert.True(t, protocol.IsBadParameter(err))
}

func TestStepOnce_SelfKillIsNotAFault(t *testing.T) {
	w, _ := newTestWorld(t, WorldConfig{})
	var faults memFaultLog
	w.SetFaultLogger(&faults)

	ref, err := w.AddAgent(AgentSpec{Name: "mayfly", Perm: DefaultPerm, Pos: mathx.Vec(50, 50),
		Parts: []render.PartSpec{{Width: 4, Height: 4}},
		Script: script("die", true,
			vm.Ins("KILL", vm.Call("OWNR")),
			vm.Ins("MVBY", vm.Int(1), vm.Int(0)),
		),
	})
	require.NoError(t, err)

	w.StepOnce()
	assert.Empty(t, faults.entries)
	assert.Empty(t, w.Faults())
	assert.Equal(t, 0, w.AgentCount())
	_, err = w.Agent(ref)
	assert.ErrorIs(t, err, ErrNoAgent)
}

func TestKillAgent_ZapsPartsImmediately(t *testing.T) {
	w, _ := newTestWorld(t, WorldConfig{})
	ref, err := w.AddAgent(AgentSpec{Perm: DefaultPerm,
		Parts: []render.PartSpec{{ID: 0, Width: 5, Height: 5}, {ID: 1, Z: 1, Width: 5, Height: 5}},
	})
	require.NoError(t, err)
	require.Equal(t, 2, w.Scene().Len())

	require.NoError(t, w.KillAgent(ref))
	assert.Equal(t, 0, w.Scene().Len(), "parts gone before the reap")

	w.StepOnce()
	assert.Equal(t, 0, w.Scene().Len())
	assert.Equal(t, 0, w.AgentCount())
}

func TestStepOnce_DigestIsDeterministic(t *testing.T) {
	build := func() *World {
		w, rooms := newTestWorld(t, WorldConfig{Gravity: 1, CA: roommap.CAConfig{Diffusion: [roommap.NumCA]float32{0.5}}})
		require.NoError(t, w.Map().SetCA(rooms.a, 0, 1))
		_, err := w.AddAgent(AgentSpec{
			Perm: DefaultPerm,
			Attr: AttrSufferPhysics | AttrSufferCollisions,
			Pos:  mathx.Vec(20, 20),
			Vel:  mathx.Vec(7, 0),
			Script: script("walk", true,
				vm.Ins("VEC: SETV", vm.VA(0), vm.Call("VEC: UNIT", vm.Float(30))),
				vm.Ins("ADDV", vm.OV(1), vm.Call("POSX")),
				vm.Ins("WAIT", vm.Int(2)),
			),
		})
		require.NoError(t, err)
		return w
	}
	w1, w2 := build(), build()
	assert.NotEqual(t, w1.RunID(), w2.RunID())
	for i := 0; i < 6; i++ {
		t1, d1 := w1.StepOnce()
		t2, d2 := w2.StepOnce()
		require.Equal(t, t1, t2)
		require.Equal(t, d1, d2, "tick %d", t1)
	}
	w2.GameVar("x").SetInt(1)
	_, d1 := w1.StepOnce()
	_, d2 := w2.StepOnce()
	assert.NotEqual(t, d1, d2)
}

func TestClick_RunsClickScript(t *testing.T) {
	w, _ := newTestWorld(t, WorldConfig{})
	ref, err := w.AddAgent(AgentSpec{
		Perm:        DefaultPerm,
		Attr:        AttrActivateable,
		Pos:         mathx.Vec(10, 10),
		Parts:       []render.PartSpec{{Width: 20, Height: 20}},
		ClickScript: script("clicked", false, vm.Ins("SETV", vm.Game("clicked"), vm.Int(1))),
	})
	require.NoError(t, err)
	_, err = w.AddAgent(AgentSpec{
		Perm:  DefaultPerm,
		Pos:   mathx.Vec(500, 500),
		Parts: []render.PartSpec{{Width: 20, Height: 20}},
	})
	require.NoError(t, err)

	hit, err := w.Click(15, 15)
	require.NoError(t, err)
	assert.True(t, hit)
	a, _ := w.Agent(ref)
	assert.Equal(t, 1, a.Clicks())

	w.StepOnce()
	assert.True(t, value.Int(1).Equal(*w.GameVar("clicked")))

	hit, err = w.Click(505, 505)
	require.NoError(t, err)
	assert.False(t, hit, "inert agents do not take clicks")
}

func TestAgent_SetDepthReorders(t *testing.T) {
	w := New(WorldConfig{})
	r1, _ := w.AddAgent(AgentSpec{Perm: DefaultPerm, Depth: 1, Parts: []render.PartSpec{{}}})
	r2, _ := w.AddAgent(AgentSpec{Perm: DefaultPerm, Depth: 2, Parts: []render.PartSpec{{}}})
	a1, _ := w.Agent(r1)
	a2, _ := w.Agent(r2)
	parts := w.Scene().Parts()
	assert.Equal(t, a1, parts[0].Parent())

	a1.SetDepth(3)
	parts = w.Scene().Parts()
	assert.Equal(t, a2, parts[0].Parent())
	assert.Equal(t, 2, w.Scene().Len())
}

func TestAddAgent_Validation(t *testing.T) {
	w := New(WorldConfig{})
	_, err := w.AddAgent(AgentSpec{Perm: 101})
	assert.Error(t, err)
	assert.Equal(t, 0, w.AgentCount())
	_, err = w.Agent(value.NullAgent)
	assert.ErrorIs(t, err, ErrNoAgent)
}

func TestStop_Twice(t *testing.T) {
	w := New(WorldConfig{TickRateHz: 1})
	w.Stop()
	assert.NotPanics(t, w.Stop)
	assert.NoError(t, w.Run(context.Background()))
}

func TestRun_StopsAfterTicks(t *testing.T) {
	w := New(WorldConfig{TickRateHz: 1000, StopAfterTicks: 3})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, w.Run(ctx))
	assert.Equal(t, uint64(3), w.CurrentTick())

	w2 := New(WorldConfig{})
	cctx, ccancel := context.WithCancel(context.Background())
	ccancel()
	assert.ErrorIs(t, w2.Run(cctx), context.Canceled)
}
