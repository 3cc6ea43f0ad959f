package vm

import (
	"fmt"
	"sort"

	"agentworld.ai/internal/sim/value"
)

// OpKind separates commands (statements, no result) from functions (produce
// a value). The same name may exist once as each.
type OpKind uint8

const (
	Command OpKind = iota
	Function
)

func (k OpKind) String() string {
	if k == Function {
		return "function"
	}
	return "command"
}

type ParamKind uint8

const (
	ParamAny ParamKind = iota
	ParamInt
	ParamFloat
	// ParamNumber accepts Integer or Float and keeps the tag.
	ParamNumber
	ParamString
	ParamVector
	ParamAgent
	// ParamVariable yields the slot itself so the handler can write to it.
	ParamVariable
)

var paramKindNames = [...]string{
	ParamAny:      "any",
	ParamInt:      "integer",
	ParamFloat:    "float",
	ParamNumber:   "number",
	ParamString:   "string",
	ParamVector:   "vector",
	ParamAgent:    "agent",
	ParamVariable: "variable",
}

func (k ParamKind) String() string {
	if int(k) < len(paramKindNames) {
		return paramKindNames[k]
	}
	return fmt.Sprintf("param(%d)", k)
}

type Param struct {
	Name string
	Kind ParamKind
}

type Handler func(f *Frame) error

// Opcode declares an instruction. Params are listed in source order.
// Returns constrains what a function hands back; KindNull means any kind.
type Opcode struct {
	Name    string
	Kind    OpKind
	Params  []Param
	Returns value.Kind
	Handler Handler
}

type opKey struct {
	name string
	kind OpKind
}

type Registry struct {
	ops map[opKey]*Opcode
}

func NewRegistry() *Registry {
	return &Registry{ops: map[opKey]*Opcode{}}
}

func (r *Registry) Register(op Opcode) error {
	if op.Name == "" || op.Handler == nil {
		return fmt.Errorf("opcode %q: missing name or handler", op.Name)
	}
	k := opKey{op.Name, op.Kind}
	if _, dup := r.ops[k]; dup {
		return fmt.Errorf("opcode %q already registered as %s", op.Name, op.Kind)
	}
	cp := op
	r.ops[k] = &cp
	return nil
}

func (r *Registry) MustRegister(ops ...Opcode) {
	for _, op := range ops {
		if err := r.Register(op); err != nil {
			panic(err)
		}
	}
}

func (r *Registry) Lookup(name string, kind OpKind) (*Opcode, bool) {
	op, ok := r.ops[opKey{name, kind}]
	return op, ok
}

// statement resolves an opcode used as a statement with nargs operands.
// The command wins when its arity fits; otherwise a function of the same
// name is used and loads the result register. With no fit at all the
// command is returned so the arity error names it.
func (r *Registry) statement(name string, nargs int) (*Opcode, bool) {
	cmd, hasCmd := r.Lookup(name, Command)
	if hasCmd && len(cmd.Params) == nargs {
		return cmd, true
	}
	if fn, ok := r.Lookup(name, Function); ok && (!hasCmd || len(fn.Params) == nargs) {
		return fn, true
	}
	return cmd, hasCmd
}

// Check resolves every opcode in a script ahead of time, using the same
// lookup the dispatcher does. It catches unknown names and arity mismatches;
// operand types are only known at run time.
func (r *Registry) Check(s *Script) error {
	for pc, in := range s.Instructions {
		op, ok := r.statement(in.Op, len(in.Args))
		if !ok {
			return fmt.Errorf("script %q pc %d: unknown opcode %q", s.Name, pc, in.Op)
		}
		if len(op.Params) != len(in.Args) {
			return fmt.Errorf("script %q pc %d: %s takes %d operands, got %d", s.Name, pc, in.Op, len(op.Params), len(in.Args))
		}
		if err := r.checkArgs(in.Args); err != nil {
			return fmt.Errorf("script %q pc %d: %w", s.Name, pc, err)
		}
	}
	return nil
}

func (r *Registry) checkArgs(args []Operand) error {
	for _, a := range args {
		if a.Kind != OperandCall {
			continue
		}
		fn, ok := r.Lookup(a.Call.Op, Function)
		if !ok {
			return fmt.Errorf("%q is not a function", a.Call.Op)
		}
		if len(fn.Params) != len(a.Call.Args) {
			return fmt.Errorf("%s takes %d operands, got %d", a.Call.Op, len(fn.Params), len(a.Call.Args))
		}
		if err := r.checkArgs(a.Call.Args); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) Len() int { return len(r.ops) }

// Names lists "NAME/kind" for every opcode, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.ops))
	for k := range r.ops {
		out = append(out, k.name+"/"+k.kind.String())
	}
	sort.Strings(out)
	return out
}

// Builtins returns a registry holding every opcode the engine ships with.
func Builtins() *Registry {
	r := NewRegistry()
	r.MustRegister(vectorOps...)
	r.MustRegister(variableOps...)
	r.MustRegister(flowOps...)
	r.MustRegister(agentOps...)
	r.MustRegister(mapOps...)
	return r
}
