package world

import (
	"fmt"

	"agentworld.ai/internal/protocol"
	"agentworld.ai/internal/sim/render"
	"agentworld.ai/internal/sim/roommap"
	"agentworld.ai/internal/sim/value"
	"agentworld.ai/internal/sim/vm"
	"agentworld.ai/internal/sim/world/logic/mathx"
)

// Attribute bits, as set by ATTR.
const (
	AttrCarryable        int32 = 1
	AttrMouseable        int32 = 2
	AttrActivateable     int32 = 4
	AttrInvisible        int32 = 16
	AttrFloatable        int32 = 32
	AttrSufferCollisions int32 = 64
	AttrSufferPhysics    int32 = 128
	AttrCameraShy        int32 = 256
)

const DefaultPerm = 50

// AgentSpec describes an agent to create.
type AgentSpec struct {
	Name        string
	Pos         mathx.Vector
	Vel         mathx.Vector
	Perm        int
	Attr        int32
	Depth       int
	Hidden      bool
	DisplayCore bool
	Parts       []render.PartSpec
	Script      *vm.Script
	// ClickScript replaces the running script when the agent is clicked.
	ClickScript *vm.Script
}

func (s AgentSpec) validate() error {
	if s.Perm < roommap.PermMin || s.Perm > roommap.PermMax {
		return fmt.Errorf("agent %q: perm %d outside [%d,%d]", s.Name, s.Perm, roommap.PermMin, roommap.PermMax)
	}
	return nil
}

// Agent is a scripted entity. It is both the vm.Actor its scripts drive and
// the render.Parent of its parts.
type Agent struct {
	world *World
	ref   value.AgentRef

	Name string

	pos     mathx.Vector
	vel     mathx.Vector
	perm    int
	attr    int32
	depth   int
	visible bool
	core    bool

	vars  [vm.NumVars]value.Value
	parts []*render.Part

	vm          *vm.VM
	clickScript *vm.Script
	clicks      int

	killed bool
}

func (a *Agent) Ref() value.AgentRef { return a.ref }
func (a *Agent) Killed() bool        { return a.killed }
func (a *Agent) Clicks() int         { return a.clicks }
func (a *Agent) Parts() []*render.Part {
	return append([]*render.Part(nil), a.parts...)
}

// vm.Actor

func (a *Agent) Position() mathx.Vector       { return a.pos }
func (a *Agent) SetPosition(p mathx.Vector)   { a.pos = p }
func (a *Agent) Velocity() mathx.Vector       { return a.vel }
func (a *Agent) SetVelocity(v mathx.Vector)   { a.vel = v }
func (a *Agent) Perm() int                    { return a.perm }
func (a *Agent) SetPerm(p int)                { a.perm = p }
func (a *Agent) Visible() bool                { return a.visible }
func (a *Agent) SetVisible(v bool)            { a.visible = v }
func (a *Agent) Attributes() int32            { return a.attr }
func (a *Agent) SetAttributes(x int32)        { a.attr = x }
func (a *Agent) ObjectVar(i int) *value.Value { return &a.vars[i] }

// render.Parent

func (a *Agent) Activateable() bool { return a.attr&AttrActivateable != 0 }
func (a *Agent) CameraShy() bool    { return a.attr&AttrCameraShy != 0 }
func (a *Agent) DisplayCore() bool  { return a.core }
func (a *Agent) Depth() int         { return a.depth }

// SetDepth moves every part of the agent in the z-order.
func (a *Agent) SetDepth(d int) {
	for _, p := range a.parts {
		p.Zap()
	}
	a.depth = d
	for _, p := range a.parts {
		p.Restore()
	}
}

// HandleClick takes a click in agent-local coordinates. If the agent has a
// click script it starts over on it.
func (a *Agent) HandleClick(x, y float32) error {
	if a.killed {
		return protocol.InvalidOperation("click on dead agent %s", a.ref)
	}
	if !a.Activateable() {
		return protocol.InvalidOperation("agent %s is not activateable", a.ref)
	}
	a.clicks++
	if a.clickScript != nil {
		a.vm.Load(a.clickScript)
	}
	return nil
}

func (a *Agent) sufferPhysics() bool    { return a.attr&AttrSufferPhysics != 0 }
func (a *Agent) sufferCollisions() bool { return a.attr&AttrSufferCollisions != 0 }

// zapParts takes every part out of the scene for good.
func (a *Agent) zapParts() {
	for _, p := range a.parts {
		p.Destroy()
	}
	a.parts = nil
}
