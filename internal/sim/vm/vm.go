// Package vm runs agent scripts one opcode at a time.
//
// A statement is executed in two phases. While fetching, operands are
// evaluated strictly left to right (nested function calls included, so
// their side effects happen in source order) and then extracted against the
// opcode's declared parameters, last parameter first. The first operand
// that fails evaluation or extraction faults the instruction and nothing
// after it is looked at. Once every operand is extracted the handler runs.
//
// Function statements leave their value in the result register, which the
// next statement may read through the _R_ operand.
package vm

import (
	"errors"

	"agentworld.ai/internal/protocol"
	"agentworld.ai/internal/sim/value"
)

type State uint8

const (
	StateIdle State = iota
	StateFetchingOperands
	StateExecuting
	StateFaulted
	StateCompleted
)

var stateNames = [...]string{"idle", "fetching", "executing", "faulted", "completed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

type Script struct {
	Name string
	// Repeat scripts start over on the tick after they complete or fault.
	Repeat       bool
	Instructions []Instruction
}

type VM struct {
	reg   *Registry
	host  Host
	owner value.AgentRef

	state  State
	script *Script
	pc     int
	locals [NumVars]value.Value

	result    value.Value
	hasResult bool

	wait    int
	stopReq bool
	waitReq int

	fault   error
	faultPC int
}

func New(reg *Registry, host Host, owner value.AgentRef) *VM {
	return &VM{reg: reg, host: host, owner: owner}
}

func (vm *VM) State() State             { return vm.state }
func (vm *VM) Owner() value.AgentRef    { return vm.owner }
func (vm *VM) Script() *Script          { return vm.script }
func (vm *VM) PC() int                  { return vm.pc }
func (vm *VM) Waiting() int             { return vm.wait }
func (vm *VM) Fault() error             { return vm.fault }
func (vm *VM) FaultPC() int             { return vm.faultPC }
func (vm *VM) Local(i int) *value.Value { return &vm.locals[i] }

// Result returns the register written by the last statement, if it
// produced a value.
func (vm *VM) Result() (value.Value, bool) { return vm.result, vm.hasResult }

// Load installs s and rewinds to its first instruction. A nil script
// leaves the VM idle with nothing to run.
func (vm *VM) Load(s *Script) {
	vm.script = s
	vm.rewind()
}

func (vm *VM) rewind() {
	vm.pc = 0
	vm.locals = [NumVars]value.Value{}
	vm.result, vm.hasResult = value.Value{}, false
	vm.wait = 0
	vm.fault = nil
	vm.faultPC = 0
	vm.state = StateIdle
}

// Runnable reports whether Run would execute anything this tick.
func (vm *VM) Runnable() bool {
	if vm.script == nil {
		return false
	}
	switch vm.state {
	case StateCompleted, StateFaulted:
		return vm.script.Repeat
	}
	return true
}

// Run executes up to quantum instructions of the loaded script. It returns
// early on STOP, WAIT, the end of the script, or a fault. The fault is also
// kept on the VM until the script is reloaded or repeats.
func (vm *VM) Run(quantum int) (executed int, err error) {
	if vm.script == nil {
		return 0, nil
	}
	switch vm.state {
	case StateCompleted, StateFaulted:
		if !vm.script.Repeat {
			return 0, nil
		}
		vm.rewind()
	}
	if vm.wait > 0 {
		vm.wait--
		if vm.wait > 0 {
			return 0, nil
		}
	}
	for executed < quantum {
		if vm.pc >= len(vm.script.Instructions) {
			vm.state = StateCompleted
			return executed, nil
		}
		in := vm.script.Instructions[vm.pc]
		vm.pc++
		executed++
		if err := vm.Exec(in); err != nil {
			vm.faultPC = vm.pc - 1
			return executed, err
		}
		if vm.stopReq {
			vm.stopReq = false
			vm.state = StateCompleted
			return executed, nil
		}
		if vm.waitReq > 0 {
			vm.wait = vm.waitReq
			vm.waitReq = 0
			return executed, nil
		}
	}
	return executed, nil
}

// Exec runs a single statement outside of any script position.
func (vm *VM) Exec(in Instruction) error {
	vm.stopReq, vm.waitReq = false, 0
	op, ok := vm.reg.statement(in.Op, len(in.Args))
	if !ok {
		return vm.faultWith(in.Op, protocol.InvalidOperation("unknown opcode %q", in.Op))
	}

	prev, hadPrev := vm.result, vm.hasResult
	vm.result, vm.hasResult = value.Value{}, false

	vm.state = StateFetchingOperands
	f, err := vm.fetch(op, in.Args, prev, hadPrev)
	if err != nil {
		return vm.faultWith(op.Name, err)
	}

	vm.state = StateExecuting
	ret, err := vm.invoke(f)
	if err != nil {
		return vm.faultWith(op.Name, err)
	}
	if op.Kind == Function {
		vm.result, vm.hasResult = ret, true
	}
	vm.state = StateIdle
	return nil
}

func (vm *VM) faultWith(op string, err error) error {
	err = protocol.WithOp(err, op)
	vm.fault = err
	vm.state = StateFaulted
	vm.stopReq = false
	vm.waitReq = 0
	return err
}

func (vm *VM) invoke(f *Frame) (value.Value, error) {
	if err := f.op.Handler(f); err != nil {
		return value.Value{}, err
	}
	if f.op.Kind != Function {
		return value.Value{}, nil
	}
	if !f.returned {
		return value.Value{}, protocol.InvalidOperation("function %s returned nothing", f.op.Name)
	}
	if f.op.Returns != value.KindNull && !f.ret.IsKind(f.op.Returns) {
		return value.Value{}, protocol.InvalidOperation("function %s returned %s, declared %s", f.op.Name, f.ret.Kind(), f.op.Returns)
	}
	return f.ret, nil
}

func (vm *VM) fetch(op *Opcode, operands []Operand, prev value.Value, hadPrev bool) (*Frame, error) {
	if len(operands) != len(op.Params) {
		return nil, protocol.BadParameter("%s takes %d operands, got %d", op.Name, len(op.Params), len(operands))
	}
	evaluated := make([]arg, len(operands))
	for i, o := range operands {
		a, err := vm.eval(o, prev, hadPrev)
		if err != nil {
			return nil, err
		}
		evaluated[i] = a
	}
	f := &Frame{vm: vm, op: op, args: make([]arg, len(operands))}
	for i := len(op.Params) - 1; i >= 0; i-- {
		a, err := vm.extract(op.Params[i], evaluated[i])
		if err != nil {
			return nil, protocol.BadParameter("operand %d (%s): %s", i, op.Params[i].Name, message(err))
		}
		f.args[i] = a
	}
	return f, nil
}

func (vm *VM) eval(o Operand, prev value.Value, hadPrev bool) (arg, error) {
	switch o.Kind {
	case OperandLiteral:
		return arg{val: o.Lit}, nil
	case OperandVar:
		slot, err := vm.slot(o)
		if err != nil {
			return arg{}, err
		}
		return arg{val: *slot, slot: slot}, nil
	case OperandResult:
		if !hadPrev {
			return arg{}, protocol.BadParameter("no result from previous instruction")
		}
		return arg{val: prev}, nil
	case OperandCall:
		if o.Call == nil {
			return arg{}, protocol.InvalidOperation("empty call operand")
		}
		op, ok := vm.reg.Lookup(o.Call.Op, Function)
		if !ok {
			return arg{}, protocol.InvalidOperation("no function %q", o.Call.Op)
		}
		f, err := vm.fetch(op, o.Call.Args, prev, hadPrev)
		if err != nil {
			return arg{}, protocol.WithOp(err, op.Name)
		}
		ret, err := vm.invoke(f)
		if err != nil {
			return arg{}, protocol.WithOp(err, op.Name)
		}
		return arg{val: ret}, nil
	}
	return arg{}, protocol.InvalidOperation("operand kind %d", o.Kind)
}

func (vm *VM) slot(o Operand) (*value.Value, error) {
	switch o.Scope {
	case ScopeLocal:
		if o.Index < 0 || o.Index >= NumVars {
			return nil, protocol.BadParameter("VA%02d out of range", o.Index)
		}
		return &vm.locals[o.Index], nil
	case ScopeOwner:
		if o.Index < 0 || o.Index >= NumVars {
			return nil, protocol.BadParameter("OV%02d out of range", o.Index)
		}
		a, err := vm.resolve(vm.owner)
		if err != nil {
			return nil, err
		}
		return a.ObjectVar(o.Index), nil
	case ScopeGame:
		return vm.host.GameVar(o.Name), nil
	}
	return nil, protocol.InvalidOperation("variable scope %d", o.Scope)
}

func (vm *VM) extract(p Param, a arg) (arg, error) {
	v := a.val
	switch p.Kind {
	case ParamAny:
		return a, nil
	case ParamVariable:
		if a.slot == nil {
			return arg{}, protocol.BadParameter("expected variable")
		}
		return a, nil
	case ParamInt:
		n, err := v.AsInt()
		return arg{val: value.Int(n), slot: a.slot}, err
	case ParamFloat:
		x, err := v.AsFloat()
		return arg{val: value.Float(x), slot: a.slot}, err
	case ParamNumber:
		if !v.IsNumeric() {
			return arg{}, protocol.BadParameter("expected number, got %s", v.Kind())
		}
		return a, nil
	case ParamString:
		_, err := v.AsString()
		return a, err
	case ParamVector:
		_, err := v.AsVector()
		return a, err
	case ParamAgent:
		ref, err := v.AsAgent()
		if err != nil {
			return arg{}, err
		}
		if !ref.IsNull() {
			if _, err := vm.resolve(ref); err != nil {
				return arg{}, err
			}
		}
		return a, nil
	}
	return arg{}, protocol.InvalidOperation("parameter kind %s", p.Kind)
}

func (vm *VM) resolve(ref value.AgentRef) (Actor, error) {
	if ref.IsNull() {
		return nil, protocol.BadParameter("null agent")
	}
	a, err := vm.host.Resolve(ref)
	if err != nil {
		var pe *protocol.Error
		if errors.As(err, &pe) {
			return nil, err
		}
		return nil, protocol.BadParameter("agent %s: %v", ref, err)
	}
	return a, nil
}

func message(err error) string {
	var pe *protocol.Error
	if errors.As(err, &pe) {
		return pe.Msg
	}
	return err.Error()
}
