package vm

import (
	"agentworld.ai/internal/sim/roommap"
	"agentworld.ai/internal/sim/value"
	"agentworld.ai/internal/sim/world/logic/mathx"
)

// Actor is the part of an agent scripts can touch.
type Actor interface {
	Ref() value.AgentRef
	Position() mathx.Vector
	SetPosition(p mathx.Vector)
	Velocity() mathx.Vector
	SetVelocity(v mathx.Vector)
	Perm() int
	SetPerm(p int)
	Visible() bool
	SetVisible(v bool)
	Attributes() int32
	SetAttributes(a int32)
	// ObjectVar returns OVxx slot i; i is already range checked.
	ObjectVar(i int) *value.Value
}

// Host is the world as seen from a running script.
type Host interface {
	// Resolve turns a reference into a live agent. Null and dangling
	// references return an error; they are never dereferenced.
	Resolve(ref value.AgentRef) (Actor, error)
	Kill(ref value.AgentRef) error
	// GameVar returns the world-global slot called name, creating it empty.
	GameVar(name string) *value.Value
	Map() *roommap.Map
}
