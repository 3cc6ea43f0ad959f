package vm

import (
	"fmt"
	"strings"

	"agentworld.ai/internal/sim/value"
)

// NumVars is the size of the script-local (VAxx) and owner (OVxx) variable banks.
const NumVars = 100

type OperandKind uint8

const (
	OperandLiteral OperandKind = iota
	OperandVar
	OperandResult
	OperandCall
)

type VarScope uint8

const (
	ScopeLocal VarScope = iota // VAxx
	ScopeOwner                 // OVxx
	ScopeGame                  // GAME "name"
)

// Operand is one argument of an instruction as written in the script. It is
// evaluated to a value (and, for variables, a slot) when the instruction runs.
type Operand struct {
	Kind  OperandKind
	Lit   value.Value
	Scope VarScope
	Index int
	Name  string
	Call  *Instruction
}

// Instruction is a statement: an opcode name and its operands in source order.
type Instruction struct {
	Op   string
	Args []Operand
}

func Ins(op string, args ...Operand) Instruction {
	return Instruction{Op: op, Args: args}
}

func Lit(v value.Value) Operand { return Operand{Kind: OperandLiteral, Lit: v} }
func Int(i int32) Operand       { return Lit(value.Int(i)) }
func Float(f float32) Operand   { return Lit(value.Float(f)) }
func Str(s string) Operand      { return Lit(value.String(s)) }
func VA(i int) Operand          { return Operand{Kind: OperandVar, Scope: ScopeLocal, Index: i} }
func OV(i int) Operand          { return Operand{Kind: OperandVar, Scope: ScopeOwner, Index: i} }
func Game(name string) Operand  { return Operand{Kind: OperandVar, Scope: ScopeGame, Name: name} }

// Result reads the register written by the previous statement.
func Result() Operand { return Operand{Kind: OperandResult} }

// Call nests a function opcode as an operand.
func Call(op string, args ...Operand) Operand {
	in := Ins(op, args...)
	return Operand{Kind: OperandCall, Call: &in}
}

func (o Operand) String() string {
	switch o.Kind {
	case OperandLiteral:
		if o.Lit.IsString() {
			s, _ := o.Lit.AsString()
			return fmt.Sprintf("%q", s)
		}
		return o.Lit.String()
	case OperandVar:
		switch o.Scope {
		case ScopeLocal:
			return fmt.Sprintf("VA%02d", o.Index)
		case ScopeOwner:
			return fmt.Sprintf("OV%02d", o.Index)
		default:
			return fmt.Sprintf("GAME %q", o.Name)
		}
	case OperandResult:
		return "_R_"
	case OperandCall:
		if o.Call == nil {
			return "()"
		}
		return "(" + o.Call.String() + ")"
	}
	return "?"
}

func (in Instruction) String() string {
	var b strings.Builder
	b.WriteString(in.Op)
	for _, a := range in.Args {
		b.WriteByte(' ')
		b.WriteString(a.String())
	}
	return b.String()
}
