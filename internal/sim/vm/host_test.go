package vm

import (
	"errors"

	"agentworld.ai/internal/sim/roommap"
	"agentworld.ai/internal/sim/value"
	"agentworld.ai/internal/sim/world/logic/mathx"
)

type fakeActor struct {
	ref     value.AgentRef
	pos     mathx.Vector
	vel     mathx.Vector
	perm    int
	visible bool
	attr    int32
	vars    [NumVars]value.Value
}

func (a *fakeActor) Ref() value.AgentRef          { return a.ref }
func (a *fakeActor) Position() mathx.Vector       { return a.pos }
func (a *fakeActor) SetPosition(p mathx.Vector)   { a.pos = p }
func (a *fakeActor) Velocity() mathx.Vector       { return a.vel }
func (a *fakeActor) SetVelocity(v mathx.Vector)   { a.vel = v }
func (a *fakeActor) Perm() int                    { return a.perm }
func (a *fakeActor) SetPerm(p int)                { a.perm = p }
func (a *fakeActor) Visible() bool                { return a.visible }
func (a *fakeActor) SetVisible(v bool)            { a.visible = v }
func (a *fakeActor) Attributes() int32            { return a.attr }
func (a *fakeActor) SetAttributes(x int32)        { a.attr = x }
func (a *fakeActor) ObjectVar(i int) *value.Value { return &a.vars[i] }

type fakeHost struct {
	agents map[value.AgentRef]*fakeActor
	game   map[string]*value.Value
	m      *roommap.Map
	killed []value.AgentRef
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		agents: map[value.AgentRef]*fakeActor{},
		game:   map[string]*value.Value{},
		m:      roommap.New(),
	}
}

func (h *fakeHost) add(index uint32) *fakeActor {
	a := &fakeActor{ref: value.AgentRef{Index: index, Gen: 1}, perm: 50, visible: true}
	h.agents[a.ref] = a
	return a
}

func (h *fakeHost) Resolve(ref value.AgentRef) (Actor, error) {
	a, ok := h.agents[ref]
	if !ok {
		return nil, errors.New("dangling")
	}
	return a, nil
}

func (h *fakeHost) Kill(ref value.AgentRef) error {
	delete(h.agents, ref)
	h.killed = append(h.killed, ref)
	return nil
}

func (h *fakeHost) GameVar(name string) *value.Value {
	v, ok := h.game[name]
	if !ok {
		v = &value.Value{}
		h.game[name] = v
	}
	return v
}

func (h *fakeHost) Map() *roommap.Map { return h.m }
