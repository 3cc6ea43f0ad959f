package vm

import (
	"agentworld.ai/internal/protocol"
	"agentworld.ai/internal/sim/roommap"
	"agentworld.ai/internal/sim/value"
	"agentworld.ai/internal/sim/world/logic/mathx"
)

// arg is an evaluated operand. slot is set for variable operands only.
type arg struct {
	val  value.Value
	slot *value.Value
}

// Frame carries the extracted operands of one instruction into its handler.
// Accessors are indexed by declared parameter position; their kinds were
// checked during extraction, so the conversions below cannot fail.
type Frame struct {
	vm       *VM
	op       *Opcode
	args     []arg
	ret      value.Value
	returned bool
}

func (f *Frame) Op() string { return f.op.Name }

func (f *Frame) Int(i int) int32 {
	n, _ := f.args[i].val.AsInt()
	return n
}

func (f *Frame) Float(i int) float32 {
	x, _ := f.args[i].val.AsFloat()
	return x
}

func (f *Frame) String(i int) string {
	s, _ := f.args[i].val.AsString()
	return s
}

func (f *Frame) Vector(i int) mathx.Vector {
	v, _ := f.args[i].val.AsVector()
	return v
}

func (f *Frame) AgentRef(i int) value.AgentRef {
	r, _ := f.args[i].val.AsAgent()
	return r
}

func (f *Frame) Value(i int) value.Value { return f.args[i].val }

func (f *Frame) Var(i int) *value.Value { return f.args[i].slot }

// Agent resolves operand i to a live agent. Null is rejected here; dangling
// references were already rejected during extraction.
func (f *Frame) Agent(i int) (Actor, error) {
	ref := f.AgentRef(i)
	if ref.IsNull() {
		return nil, protocol.BadParameter("%s: null agent", f.op.Params[i].Name)
	}
	return f.vm.resolve(ref)
}

// Owner is the agent running the script.
func (f *Frame) Owner() (Actor, error) { return f.vm.resolve(f.vm.owner) }

func (f *Frame) OwnerRef() value.AgentRef { return f.vm.owner }

func (f *Frame) Host() Host { return f.vm.host }

func (f *Frame) Map() *roommap.Map { return f.vm.host.Map() }

func (f *Frame) Return(v value.Value) {
	f.ret = v
	f.returned = true
}

// Stop ends the script after this instruction.
func (f *Frame) Stop() { f.vm.stopReq = true }

// Wait suspends the script for n ticks after this instruction.
func (f *Frame) Wait(n int) { f.vm.waitReq = n }
